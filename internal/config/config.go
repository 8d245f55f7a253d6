// Package config provides Viper-based configuration loading for abilitygen.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/abilitygen/internal/reference"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "ABILITYGEN"

// SourceConfig holds reference table fetch settings.
type SourceConfig struct {
	// BaseURL is the directory URL holding the CSV tables.
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds each table fetch.
	Timeout time.Duration `mapstructure:"timeout"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent"`
	// Language is a BCP 47 tag selecting localized names.
	Language string `mapstructure:"language"`
}

// OutputConfig holds document settings.
type OutputConfig struct {
	// Path is the document read for effect text and then overwritten.
	Path string `mapstructure:"path"`
	// Version is written as the document version.
	Version string `mapstructure:"version"`
}

// CatalogConfig points at an optional catalog overlay.
type CatalogConfig struct {
	// Path is a YAML catalog whose entries replace the embedded ones by id.
	// Empty means the embedded catalog only.
	Path string `mapstructure:"path"`
}

// DescriptionsConfig controls effect text carry-over.
type DescriptionsConfig struct {
	// SeedFromFlavorText fills empty effect text from the flavor text table.
	SeedFromFlavorText bool `mapstructure:"seed_from_flavor_text"`
}

// DatabaseConfig holds the PostgreSQL settings used by publish.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	// MaxConns caps the pool. A publish run needs one connection for its
	// transaction and one for the follow-up count.
	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
	// ConnectTimeout bounds dialing and the readiness check. Zero means no
	// limit beyond the caller's context.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Source       SourceConfig       `mapstructure:"source"`
	Output       OutputConfig       `mapstructure:"output"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Descriptions DescriptionsConfig `mapstructure:"descriptions"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// Language resolves Source.Language.
func (c Config) Language() (reference.Language, error) {
	return reference.ParseLanguage(c.Source.Language)
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateSource(c.Source); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateOutput(c.Output); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSource(s SourceConfig) error {
	var errs []string
	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("source.base_url must be an absolute http(s) URL, got %q", s.BaseURL))
	}
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("source.timeout must be positive, got %s", s.Timeout))
	}
	if s.UserAgent == "" {
		errs = append(errs, "source.user_agent must not be empty")
	}
	if _, err := reference.ParseLanguage(s.Language); err != nil {
		errs = append(errs, fmt.Sprintf("source.language: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOutput(o OutputConfig) error {
	var errs []string
	if o.Path == "" {
		errs = append(errs, "output.path must not be empty")
	}
	if o.Version == "" {
		errs = append(errs, "output.version must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if d.ConnectTimeout < 0 {
		errs = append(errs, fmt.Sprintf("database.connect_timeout must not be negative, got %s", d.ConnectTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load applies defaults, the optional YAML file at path, and environment
// variable overrides, then validates the result. An empty path skips the
// file.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a Viper instance carrying every default, for callers that
// bind flags before loading.
func NewViper() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with ABILITYGEN_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://raw.githubusercontent.com/PokeAPI/pokeapi/master/data/v2/csv")
	v.SetDefault("source.timeout", "60s")
	v.SetDefault("source.user_agent", "abilitygen/1.0")
	v.SetDefault("source.language", reference.DefaultLanguage)

	v.SetDefault("output.path", "assets/pokemon/abilities.json")
	v.SetDefault("output.version", "1.0.0")

	v.SetDefault("catalog.path", "")

	v.SetDefault("descriptions.seed_from_flavor_text", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "abilitygen")
	v.SetDefault("database.password", "abilitygen")
	v.SetDefault("database.name", "abilitygen")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 2)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.connect_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
