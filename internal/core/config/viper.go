package config

import (
	"fmt"
	"strings"

	"github.com/solatis/qbfilter/internal/target/sqltarget"
	"github.com/solatis/qbfilter/internal/types"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	def := DefaultConfig()
	v.SetDefault("translator.fields", []string{})
	v.SetDefault("translator.raw_fields", map[string]string{})
	v.SetDefault("translator.strict_condition", false)
	v.SetDefault("translator.enforce_operator_types", false)
	v.SetDefault("translator.date_location", def.Translator.DateLocation)
	v.SetDefault("translator.placeholder", def.Translator.Placeholder)
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.max_payload_size", def.Server.MaxPayloadSize)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	// Bind environment variables with QB_ prefix
	v.SetEnvPrefix("QB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Database credentials are environment-only
	if err := validateNoCredentialsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Translator: TranslatorConfig{
			Fields:               splitList(v.GetStringSlice("translator.fields")),
			RawFields:            v.GetStringMapString("translator.raw_fields"),
			StrictCondition:      v.GetBool("translator.strict_condition"),
			EnforceOperatorTypes: v.GetBool("translator.enforce_operator_types"),
			DateLocation:         v.GetString("translator.date_location"),
			Placeholder:          v.GetString("translator.placeholder"),
		},
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxPayloadSize: v.GetInt("server.max_payload_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks port range, positive timeout, payload bound, date
// location, placeholder format and log format.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxPayloadSize <= 0 || cfg.Server.MaxPayloadSize > types.MaxPayloadSize {
		return fmt.Errorf("max_payload_size must be between 1 and %d, got %d", types.MaxPayloadSize, cfg.Server.MaxPayloadSize)
	}
	if _, err := cfg.Translator.Location(); err != nil {
		return err
	}
	if _, err := sqltarget.Placeholder(cfg.Translator.Placeholder); err != nil {
		return fmt.Errorf("invalid placeholder: %w", err)
	}
	for field, expr := range cfg.Translator.RawFields {
		if strings.TrimSpace(expr) == "" {
			return fmt.Errorf("raw_fields: empty expression for field %q", field)
		}
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "console", "text":
	default:
		return fmt.Errorf("log format must be json or console, got %q", cfg.Log.Format)
	}
	return nil
}

// validateNoCredentialsInConfig enforces environment-only database URLs (12-factor principle).
func validateNoCredentialsInConfig(v *viper.Viper) error {
	if v.InConfig("database_url") || v.InConfig("database.url") || v.InConfig("database") {
		return fmt.Errorf("database credentials not allowed in config files (use QB_DATABASE_URL environment variable)")
	}
	return nil
}
