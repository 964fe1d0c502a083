// Package config resolves the hermes server configuration: a YAML file merged
// with explicit command-line overrides into a single immutable snapshot.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultPath is where hermes looks for its configuration when no --config
// flag is given.
const DefaultPath = "/etc/hermes/server.yaml"

var (
	// ErrLoad is returned when the configuration file is missing, unreadable,
	// or does not parse into the expected schema.
	ErrLoad = errors.New("config load failed")

	// ErrValidation is returned when a required field is absent or out of
	// range after file values and overrides have been merged.
	ErrValidation = errors.New("config validation failed")
)

// Config holds all resolved settings for the hermes server. It is constructed
// once per process by Load and never mutated afterwards; every component
// receives it by reference.
type Config struct {
	// BindAddress is the interface the listener binds to.
	BindAddress string `mapstructure:"bind_address" validate:"required"`
	// Port is the TCP port the listener binds to.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
	// Workers is the number of OS worker processes sharing the bound socket.
	Workers int `mapstructure:"workers" validate:"min=1"`

	// SecretKey signs session payloads handed to the request layer.
	SecretKey string `mapstructure:"secret_key" validate:"required"`

	// DatabaseURI is handed to the persistence layer, which owns its own
	// connection handling.
	DatabaseURI string `mapstructure:"database" validate:"required"`

	// Domain is the externally visible domain name of this deployment.
	Domain string `mapstructure:"domain"`

	// CountEvents enables the event-creation counter on the metrics endpoint.
	CountEvents bool `mapstructure:"count_events"`

	// SentryDSN, when set, activates the optional error-reporting client.
	// Empty means the integration is disabled.
	SentryDSN string `mapstructure:"sentry_dsn"`

	// LogFormat selects the log encoder: "console" (default) or "json".
	LogFormat string `mapstructure:"log_format"`

	// Debug enables request-level debug behavior in the API layer.
	Debug bool `mapstructure:"debug"`

	// StaticPath is the filesystem path to static frontend assets.
	StaticPath string `mapstructure:"static_path"`
}

// Overrides carries field-specific command-line overrides. An override is
// applied only when its Set flag is true; an unset override never clobbers
// the file-sourced value.
type Overrides struct {
	Port    int
	PortSet bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bind_address", "")
	v.SetDefault("port", 8990)
	v.SetDefault("workers", 1)
	v.SetDefault("domain", "localhost")
	v.SetDefault("count_events", false)
	v.SetDefault("log_format", "console")
	v.SetDefault("debug", false)
	v.SetDefault("static_path", "./static")
}

// Load reads the configuration file at path, overlays environment variables
// and explicit overrides, and returns the validated snapshot.
func Load(path string, overrides Overrides) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("HERMES")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unable to decode %s: %v", ErrLoad, path, err)
	}

	// Overrides win over file values, but only when explicitly supplied.
	if overrides.PortSet {
		cfg.Port = overrides.Port
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: field %s is %s", ErrValidation, f.StructField(), describeTag(f))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrValidation, c.LogFormat)
	}

	return nil
}

func describeTag(f validator.FieldError) string {
	switch f.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("below minimum %s", f.Param())
	case "max":
		return fmt.Sprintf("above maximum %s", f.Param())
	default:
		return fmt.Sprintf("invalid (%s)", f.Tag())
	}
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.Port)
}
