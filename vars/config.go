package vars

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the gateway.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scratch   ScratchConfig   `mapstructure:"scratch"`
	Converter ConverterConfig `mapstructure:"converter"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	// ExposeErrors puts raw error text in 500 bodies instead of the generic message.
	ExposeErrors bool `mapstructure:"expose_errors"`
	Debug        bool `mapstructure:"debug"`
}

type ScratchConfig struct {
	Dir           string        `mapstructure:"dir"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

type ConverterConfig struct {
	Backend string        `mapstructure:"backend"`
	Command string        `mapstructure:"command"`
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
}

// DatabaseConfig enables conversion history when Host is set.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("server.max_upload_bytes", int64(64<<20))
	v.SetDefault("server.expose_errors", false)
	v.SetDefault("server.debug", false)

	v.SetDefault("scratch.dir", DefaultScratchDir)
	v.SetDefault("scratch.retention", 24*time.Hour)
	v.SetDefault("scratch.sweep_schedule", "0 */30 * * * *")

	v.SetDefault("converter.backend", BackendMarker)
	v.SetDefault("converter.command", "marker_single")
	v.SetDefault("converter.timeout", 10*time.Minute)
	v.SetDefault("converter.workers", 0)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "convert_gateway")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads defaults, an optional YAML file and CONVERT_GATEWAY_* env overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the gateway cannot run with.
func (c *Config) Validate() error {
	conv := &c.Converter
	if err := validation.ValidateStruct(conv,
		validation.Field(&conv.Backend, validation.Required, validation.In(BackendMarker, BackendPDFText)),
		validation.Field(&conv.Command, validation.When(conv.Backend == BackendMarker, validation.Required)),
		validation.Field(&conv.Timeout, validation.Required, validation.Min(time.Nanosecond)),
		validation.Field(&conv.Workers, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("converter: %w", err)
	}

	srv := &c.Server
	if err := validation.ValidateStruct(srv,
		validation.Field(&srv.Addr, validation.Required),
		validation.Field(&srv.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	scratch := &c.Scratch
	if err := validation.ValidateStruct(scratch,
		validation.Field(&scratch.Dir, validation.Required),
		validation.Field(&scratch.SweepSchedule, validation.When(scratch.Retention > 0, validation.Required)),
		// A sweep must never reach an upload the converter may still be reading.
		validation.Field(&scratch.Retention, validation.When(scratch.Retention != 0, validation.By(func(any) error {
			if scratch.Retention <= conv.Timeout {
				return validation.NewError("validation_retention_timeout",
					fmt.Sprintf("must be 0 or greater than converter.timeout (%s)", conv.Timeout))
			}
			return nil
		}))),
	); err != nil {
		return fmt.Errorf("scratch: %w", err)
	}
	return nil
}
