package tui

import (
	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/compare"
	"github.com/rgehrsitz/bufferplan/internal/domain"
)

// Scene represents different screens in the TUI
type Scene int

const (
	SceneInputs Scene = iota
	SceneResults
	SceneBaseline
	SceneCompare
	SceneHelp
)

func (s Scene) String() string {
	switch s {
	case SceneInputs:
		return "Inputs"
	case SceneResults:
		return "Results"
	case SceneBaseline:
		return "Year by Year"
	case SceneCompare:
		return "Compare"
	case SceneHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// Message types for the Bubble Tea update cycle

// ErrorMsg displays an error to the user
type ErrorMsg struct {
	Err error
}

// PlanLoadedMsg carries the plan read from the plan file
type PlanLoadedMsg struct {
	Name    string
	Request domain.PlanRequest
}

// ProgressMsg forwards an engine progress event
type ProgressMsg struct {
	Run   int
	Event calculation.ProgressEvent
}

// RunCompleteMsg signals the engine run has finished
type RunCompleteMsg struct {
	Run      int
	Request  domain.PlanRequest
	Response *domain.PlanResponse
	Err      error
}

// CompareCompleteMsg signals a template comparison has finished
type CompareCompleteMsg struct {
	Result *compare.ComparisonSet
	Err    error
}
