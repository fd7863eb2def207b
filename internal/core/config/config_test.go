package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
		}
		if cfg.Server.Port != 50051 {
			t.Errorf("expected port 50051, got %d", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.Server.RequestTimeout)
		}
		if cfg.Server.MaxPayloadSize != 1024*1024 {
			t.Errorf("expected max_payload_size 1MiB, got %d", cfg.Server.MaxPayloadSize)
		}
		if len(cfg.Translator.Fields) != 0 {
			t.Errorf("expected empty allow-list, got %v", cfg.Translator.Fields)
		}
		if cfg.Translator.StrictCondition || cfg.Translator.EnforceOperatorTypes {
			t.Errorf("expected lenient translator defaults, got %+v", cfg.Translator)
		}
		if cfg.Translator.Placeholder != "question" {
			t.Errorf("expected placeholder question, got %s", cfg.Translator.Placeholder)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("expected info/json logging, got %+v", cfg.Log)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("QB_SERVER_PORT", "9999")
		t.Setenv("QB_SERVER_HOST", "127.0.0.1")
		t.Setenv("QB_TRANSLATOR_FIELDS", "age,name email")
		t.Setenv("QB_TRANSLATOR_STRICT_CONDITION", "true")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", cfg.Server.Port)
		}
		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
		}
		if want := []string{"age", "name", "email"}; !reflect.DeepEqual(cfg.Translator.Fields, want) {
			t.Errorf("expected fields %v, got %v", want, cfg.Translator.Fields)
		}
		if !cfg.Translator.StrictCondition {
			t.Error("expected strict_condition from environment")
		}
	})

	t.Run("config file", func(t *testing.T) {
		path := writeConfig(t, `translator:
  fields: [age, full_name]
  raw_fields:
    full_name: "first_name || ' ' || last_name"
  enforce_operator_types: true
  date_location: Europe/Amsterdam
  placeholder: dollar
log:
  level: debug
  format: console
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if want := []string{"age", "full_name"}; !reflect.DeepEqual(cfg.Translator.Fields, want) {
			t.Errorf("expected fields %v, got %v", want, cfg.Translator.Fields)
		}
		if cfg.Translator.RawFields["full_name"] != "first_name || ' ' || last_name" {
			t.Errorf("unexpected raw_fields %v", cfg.Translator.RawFields)
		}
		if !cfg.Translator.EnforceOperatorTypes {
			t.Error("expected enforce_operator_types from file")
		}
		if cfg.Translator.Placeholder != "dollar" || cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		t.Setenv("QB_SERVER_PORT", "70000")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for port > 65535")
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("QB_SERVER_REQUEST_TIMEOUT", "-1s")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for negative request_timeout")
		}
	})

	t.Run("payload size above hard limit", func(t *testing.T) {
		t.Setenv("QB_SERVER_MAX_PAYLOAD_SIZE", "2097152")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for max_payload_size above limit")
		}
	})

	t.Run("unknown date location", func(t *testing.T) {
		t.Setenv("QB_TRANSLATOR_DATE_LOCATION", "Mars/Olympus_Mons")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for unknown date_location")
		}
	})

	t.Run("unknown placeholder", func(t *testing.T) {
		t.Setenv("QB_TRANSLATOR_PLACEHOLDER", "percent")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for unknown placeholder")
		}
	})

	t.Run("unknown log format", func(t *testing.T) {
		t.Setenv("QB_LOG_FORMAT", "xml")

		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for unknown log format")
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestDatabaseURL(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "  sqlite://:memory:  ")

	if got := DatabaseURL(); got != "sqlite://:memory:" {
		t.Errorf("DatabaseURL() = %q, want sqlite://:memory:", got)
	}
}

func TestTranslatorConfig_NewEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Translator.Fields = []string{"age"}
	cfg.Translator.StrictCondition = true

	engine, err := cfg.Translator.NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if !reflect.DeepEqual(engine.AllowedFields(), []string{"age"}) {
		t.Errorf("AllowedFields() = %v, want [age]", engine.AllowedFields())
	}

	err = engine.Validate([]byte(`{"condition":"XOR","rules":[
		{"id":"age","field":"age","type":"integer","operator":"equal","value":1}]}`))
	if err == nil {
		t.Error("expected strict top-level condition to be enforced")
	}

	cfg.Translator.DateLocation = "Nowhere/Nothing"
	if _, err := cfg.Translator.NewEngine(zerolog.Nop()); err == nil {
		t.Error("expected error for invalid date location")
	}
}

func TestTranslatorConfig_Location(t *testing.T) {
	loc, err := TranslatorConfig{}.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location() = %v, %v, want UTC", loc, err)
	}

	loc, err = TranslatorConfig{DateLocation: "America/New_York"}.Location()
	if err != nil || loc.String() != "America/New_York" {
		t.Errorf("Location() = %v, %v, want America/New_York", loc, err)
	}

}
