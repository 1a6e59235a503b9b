package output

import (
	"sort"
	"strings"
)

// Formatter renders a report into bytes.
type Formatter interface {
	Name() string
	Format(r *Report) ([]byte, error)
}

// FormatterFunc adapts a plain function into a Formatter.
type FormatterFunc struct {
	ID string
	F  func(r *Report) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(r *Report) ([]byte, error) { return f.F(r) }

var registry = map[string]Formatter{}

var aliases = map[string]string{
	"verbose":         "console",
	"console-verbose": "console",
	"text":            "console",
	"summary":         "console-lite",
	"lite":            "console-lite",
	"debug":           "console-debug",
	"rows":            "csv",
	"bands":           "bands-csv",
}

func init() {
	for _, f := range []Formatter{
		ConsoleFormatter{},
		ConsoleFormatter{Debug: true},
		ConsoleLiteFormatter{},
		CSVFormatter{},
		BandsCSVFormatter{},
		JSONFormatter{Pretty: true},
		HTMLFormatter{},
		PDFFormatter{},
	} {
		registry[f.Name()] = f
	}
}

// GetFormatterByName resolves a formatter or alias, returning nil when unknown.
func GetFormatterByName(name string) Formatter {
	name = strings.ToLower(strings.TrimSpace(name))
	if target, ok := aliases[name]; ok {
		name = target
	}
	return registry[name]
}

// AvailableFormatterNames returns the registered formatter names in sorted order.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases returns the accepted aliases in sorted order.
func AvailableFormatAliases() []string {
	names := make([]string, 0, len(aliases))
	for n := range aliases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Extension returns the file extension used when a formatter's output is saved.
func Extension(f Formatter) string {
	switch f.Name() {
	case "csv", "bands-csv":
		return "csv"
	case "json":
		return "json"
	case "html":
		return "html"
	case "pdf":
		return "pdf"
	default:
		return "txt"
	}
}
