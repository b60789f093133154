package gen

import (
	"errors"

	"go.uber.org/zap"
)

// DefaultSoftDeleteColumn is the column marking a row as deleted.
const DefaultSoftDeleteColumn = "deleted_at"

// DefaultHeader is the comment at the top of every generated Go file.
const DefaultHeader = "Code generated by schemagen. DO NOT EDIT."

// Config holds the global configuration shared by the graph and the
// generators consuming it.
type Config struct {
	// Logger receives resolver warnings and orderer diagnostics.
	Logger *zap.Logger
	// SoftDeleteColumn filters deleted rows in generated queries.
	SoftDeleteColumn string
	// Header is the comment placed at the top of generated Go files.
	Header string
}

// Option configures code generation.
type Option func(*Config) error

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithSoftDeleteColumn sets the soft-delete column name.
func WithSoftDeleteColumn(name string) Option {
	return func(c *Config) error {
		if !plainIdent.MatchString(name) {
			return NewConfigError("SoftDeleteColumn", name, "invalid column name")
		}
		c.SoftDeleteColumn = name
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of each generated Go file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Logger:           zap.NewNop(),
		SoftDeleteColumn: DefaultSoftDeleteColumn,
		Header:           DefaultHeader,
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Log returns the configured logger or a no-op one.
func (c *Config) Log() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
