// Package config loads the database settings the connection holder needs.
//
// Values come from three layers, later layers winning:
//   - built-in defaults
//   - an optional properties file of key=value lines (hostname=localhost)
//   - environment variables prefixed with ASSOCIATES_ (ASSOCIATES_HOSTNAME)
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/msomdec/associates/internal/domain"
)

// EnvPrefix is the prefix of environment variables that override file values.
const EnvPrefix = "ASSOCIATES_"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the connection settings. For the sqlite driver only DBName is
// required and names the database file.
type Config struct {
	Driver   string `koanf:"driver" validate:"required,oneof=postgres sqlite"`
	Hostname string `koanf:"hostname" validate:"required_unless=Driver sqlite"`
	Port     int    `koanf:"port" validate:"required_unless=Driver sqlite,min=0,max=65535"`
	DBName   string `koanf:"dbname" validate:"required"`
	Username string `koanf:"username" validate:"required_unless=Driver sqlite"`
	Password string `koanf:"password" validate:"required_unless=Driver sqlite"`
	SSLMode  string `koanf:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogSQL   bool   `koanf:"log_sql"`
}

func defaults() map[string]any {
	return map[string]any{
		"driver":    DriverPostgres,
		"log_level": "info",
		"log_sql":   false,
	}
}

// Load reads configuration from the properties file at path (skipped when
// path is empty) and the environment. Every failure wraps
// domain.ErrConfiguration.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("%w: load defaults: %w", domain.ErrConfiguration, err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), dotenv.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfiguration, path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: read environment: %w", domain.ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", domain.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports missing or malformed values.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: invalid values: %s", domain.ErrConfiguration, strings.Join(fields, ", "))
}

// ConnectionString renders
//
//	<driver>://<hostname>:<port>/<dbname>?user=<username>&password=<password>
//
// with dbname path-escaped and username and password query-escaped. A non-empty SSLMode is appended
// as an sslmode parameter.
func (c *Config) ConnectionString() string {
	return c.connectionString(url.QueryEscape(c.Password))
}

// Redacted is ConnectionString with the password masked, for logs.
func (c *Config) Redacted() string {
	return c.connectionString("xxxxx")
}

// Target names what the connection points at without exposing secrets: the
// redacted connection string, or the database file for sqlite.
func (c *Config) Target() string {
	if c.Driver == DriverSQLite {
		return c.DBName
	}
	return c.Redacted()
}

func (c *Config) connectionString(password string) string {
	var b strings.Builder
	b.WriteString(c.Driver)
	b.WriteString("://")
	b.WriteString(net.JoinHostPort(c.Hostname, strconv.Itoa(c.Port)))
	b.WriteString("/")
	b.WriteString(url.PathEscape(c.DBName))
	b.WriteString("?user=")
	b.WriteString(url.QueryEscape(c.Username))
	b.WriteString("&password=")
	b.WriteString(password)
	if c.SSLMode != "" {
		b.WriteString("&sslmode=")
		b.WriteString(c.SSLMode)
	}
	return b.String()
}
