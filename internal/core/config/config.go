// Package config provides configuration management for qbfilter.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // date_location must resolve without a system zoneinfo

	"github.com/rs/zerolog"
	"github.com/solatis/qbfilter/internal/rules"
	"github.com/solatis/qbfilter/internal/types"
)

// DatabaseURLEnv names the environment variable holding the database URL.
const DatabaseURLEnv = "QB_DATABASE_URL"

// Config holds the complete qbfilter configuration.
type Config struct {
	Translator TranslatorConfig
	Server     ServerConfig
	Log        LogConfig
}

// TranslatorConfig configures the filter engine.
type TranslatorConfig struct {
	Fields               []string
	RawFields            map[string]string
	StrictCondition      bool
	EnforceOperatorTypes bool
	DateLocation         string
	Placeholder          string
}

// ServerConfig holds configuration for the gRPC filter API.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	MaxPayloadSize int
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Translator: TranslatorConfig{
			RawFields:    map[string]string{},
			DateLocation: "UTC",
			Placeholder:  "question",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50051,
			RequestTimeout: 30 * time.Second,
			MaxPayloadSize: types.MaxPayloadSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DatabaseURL returns the database URL from QB_DATABASE_URL, empty when unset.
func DatabaseURL() string {
	return strings.TrimSpace(os.Getenv(DatabaseURLEnv))
}

// Location resolves DateLocation, UTC when empty.
func (t TranslatorConfig) Location() (*time.Location, error) {
	if t.DateLocation == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(t.DateLocation)
	if err != nil {
		return nil, fmt.Errorf("invalid date_location %q: %w", t.DateLocation, err)
	}
	return loc, nil
}

// EngineOptions converts the translator configuration into engine options.
func (t TranslatorConfig) EngineOptions(logger zerolog.Logger) ([]rules.Option, error) {
	loc, err := t.Location()
	if err != nil {
		return nil, err
	}
	return []rules.Option{
		rules.WithAllowedFields(t.Fields...),
		rules.WithRawFields(t.RawFields),
		rules.WithStrictCondition(t.StrictCondition),
		rules.WithOperatorTypeEnforcement(t.EnforceOperatorTypes),
		rules.WithLocation(loc),
		rules.WithLogger(logger),
	}, nil
}

// NewEngine builds a rules engine from the translator configuration.
func (t TranslatorConfig) NewEngine(logger zerolog.Logger) (*rules.Engine, error) {
	opts, err := t.EngineOptions(logger)
	if err != nil {
		return nil, err
	}
	return rules.NewEngine(opts...), nil
}

// splitList flattens comma or whitespace separated entries, dropping blanks.
func splitList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, f := range strings.FieldsFunc(entry, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			out = append(out, f)
		}
	}
	return out
}
