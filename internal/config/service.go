package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/planner"
)

// ServiceConfig is the configuration of the CLI and HTTP service. Fields come from a
// TOML file and are then overridden by BUFFERPLAN_* environment variables.
type ServiceConfig struct {
	Engine   EngineConfig   `toml:"engine"`
	Server   ServerConfig   `toml:"server"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig mirrors planner.Options.
type EngineConfig struct {
	Mean              float64 `toml:"mean"`
	Stdev             float64 `toml:"stdev"`
	TargetPct         float64 `toml:"target_pct"`
	SolverTrials      int     `toml:"solver_trials"`
	SuccessTrials     int     `toml:"success_trials"`
	FeasibilityTrials int     `toml:"feasibility_trials"`
	FinalTrials       int     `toml:"final_trials"`
	SolverSeed        uint32  `toml:"solver_seed"`
	MonteCarloSeed    uint32  `toml:"monte_carlo_seed"`
	BaselineSeed      uint32  `toml:"baseline_seed"`
	Workers           int     `toml:"workers"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

// RedisConfig holds the response cache connection. An empty Addr disables caching.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// PostgresConfig holds the run archive connection. An empty Host and DSN disable it.
type PostgresConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
}

// S3Config holds the export bucket. An empty Bucket disables exports.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Defaults returns a configuration whose engine section reproduces the published figures.
func Defaults() ServiceConfig {
	o := planner.DefaultOptions()
	return ServiceConfig{
		Engine: EngineConfig{
			Mean:              o.Market.Mean,
			Stdev:             o.Market.Stdev,
			TargetPct:         o.TargetPct,
			SolverTrials:      o.SolverTrials,
			SuccessTrials:     o.SuccessTrials,
			FeasibilityTrials: o.FeasibilityTrials,
			FinalTrials:       o.FinalTrials,
			SolverSeed:        o.SolverSeed,
			MonteCarloSeed:    o.MonteCarloSeed,
			BaselineSeed:      o.BaselineSeed,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxConcurrent: 4,
		},
		Redis: RedisConfig{
			TTLSeconds: 86400,
		},
		Postgres: PostgresConfig{
			Port:         5432,
			Database:     "bufferplan",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
		},
		S3: S3Config{
			Region:         "us-east-1",
			Prefix:         "exports",
			ForcePathStyle: true,
		},
		LogLevel: "info",
	}
}

// LoadService merges an optional TOML file over the defaults, loads .env if present
// and applies environment overrides. An empty path skips the file.
func LoadService(path string) (*ServiceConfig, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read service config %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges that would otherwise surface as confusing engine output.
func (c *ServiceConfig) Validate() error {
	var errs []error
	e := c.Engine
	if e.Stdev < 0 {
		errs = append(errs, fmt.Errorf("engine.stdev must be non-negative"))
	}
	if e.TargetPct <= 0 || e.TargetPct > 100 {
		errs = append(errs, fmt.Errorf("engine.target_pct must be in (0, 100]"))
	}
	for name, n := range map[string]int{
		"solver_trials":      e.SolverTrials,
		"success_trials":     e.SuccessTrials,
		"feasibility_trials": e.FeasibilityTrials,
		"final_trials":       e.FinalTrials,
	} {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("engine.%s must be positive", name))
		}
	}
	if e.Workers < 0 {
		errs = append(errs, fmt.Errorf("engine.workers must be non-negative"))
	}
	if c.Server.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("server.max_concurrent must be positive"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// EngineOptions converts the engine section into planner options.
func (c *ServiceConfig) EngineOptions() planner.Options {
	e := c.Engine
	return planner.Options{
		Market:            calculation.Market{Mean: e.Mean, Stdev: e.Stdev},
		TargetPct:         e.TargetPct,
		SolverTrials:      e.SolverTrials,
		SuccessTrials:     e.SuccessTrials,
		FeasibilityTrials: e.FeasibilityTrials,
		FinalTrials:       e.FinalTrials,
		SolverSeed:        e.SolverSeed,
		MonteCarloSeed:    e.MonteCarloSeed,
		BaselineSeed:      e.BaselineSeed,
		Workers:           e.Workers,
	}
}

// PostgresDSN returns the explicit DSN or one assembled from the parts, empty when
// the archive is not configured.
func (c *ServiceConfig) PostgresDSN() string {
	p := c.Postgres
	if p.DSN != "" {
		return p.DSN
	}
	if p.Host == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode, p.PoolMaxConns)
}

func applyEnvOverrides(cfg *ServiceConfig) {
	setFloat64(&cfg.Engine.Mean, "BUFFERPLAN_ENGINE_MEAN")
	setFloat64(&cfg.Engine.Stdev, "BUFFERPLAN_ENGINE_STDEV")
	setFloat64(&cfg.Engine.TargetPct, "BUFFERPLAN_ENGINE_TARGET_PCT")
	setInt(&cfg.Engine.SolverTrials, "BUFFERPLAN_ENGINE_SOLVER_TRIALS")
	setInt(&cfg.Engine.SuccessTrials, "BUFFERPLAN_ENGINE_SUCCESS_TRIALS")
	setInt(&cfg.Engine.FeasibilityTrials, "BUFFERPLAN_ENGINE_FEASIBILITY_TRIALS")
	setInt(&cfg.Engine.FinalTrials, "BUFFERPLAN_ENGINE_FINAL_TRIALS")
	setInt(&cfg.Engine.Workers, "BUFFERPLAN_ENGINE_WORKERS")

	setStr(&cfg.Server.Addr, "BUFFERPLAN_SERVER_ADDR")
	setInt(&cfg.Server.MaxConcurrent, "BUFFERPLAN_SERVER_MAX_CONCURRENT")

	setStr(&cfg.Redis.Addr, "BUFFERPLAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BUFFERPLAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BUFFERPLAN_REDIS_DB")
	setInt(&cfg.Redis.TTLSeconds, "BUFFERPLAN_REDIS_TTL_SECONDS")

	setStr(&cfg.Postgres.DSN, "BUFFERPLAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BUFFERPLAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BUFFERPLAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BUFFERPLAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BUFFERPLAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BUFFERPLAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BUFFERPLAN_POSTGRES_SSLMODE")

	setStr(&cfg.S3.Endpoint, "BUFFERPLAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BUFFERPLAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "BUFFERPLAN_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "BUFFERPLAN_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "BUFFERPLAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BUFFERPLAN_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "BUFFERPLAN_S3_FORCE_PATH_STYLE")

	setStr(&cfg.LogLevel, "BUFFERPLAN_LOG_LEVEL")
}

// Each helper only mutates the target when the variable is present and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
