package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mangaloom/schemagen/compiler/gen"
	"github.com/mangaloom/schemagen/compiler/gen/script"
	"github.com/mangaloom/schemagen/compiler/gen/sql"
)

// envPrefix prefixes the environment variables read as config fallbacks.
const envPrefix = "SCHEMAGEN_"

// Config is the configuration file of the command, in YAML or TOML.
type Config struct {
	// Schemas lists the YAML schema files. Relative paths are resolved
	// against the config file directory.
	Schemas    []string     `yaml:"schemas" toml:"schemas"`
	Version    int          `yaml:"version" toml:"version"`
	SoftDelete string       `yaml:"soft_delete" toml:"soft_delete"`
	Header     string       `yaml:"header" toml:"header"`
	Scripts    ScriptConfig `yaml:"scripts" toml:"scripts"`
	Access     AccessConfig `yaml:"access" toml:"access"`
	Lint       LintConfig   `yaml:"lint" toml:"lint"`
}

// ScriptConfig configures the scripts command.
type ScriptConfig struct {
	Target       string   `yaml:"target" toml:"target"`
	TablesDir    string   `yaml:"tables_dir" toml:"tables_dir"`
	TypesDir     string   `yaml:"types_dir" toml:"types_dir"`
	FunctionsDir string   `yaml:"functions_dir" toml:"functions_dir"`
	Manifest     string   `yaml:"manifest" toml:"manifest"`
	Prefix       string   `yaml:"prefix" toml:"prefix"`
	First        []string `yaml:"first" toml:"first"`
	Last         []string `yaml:"last" toml:"last"`
	NoChecksum   bool     `yaml:"no_checksum" toml:"no_checksum"`
}

// AccessConfig configures the access command.
type AccessConfig struct {
	Target         string `yaml:"target" toml:"target"`
	Package        string `yaml:"package" toml:"package"`
	NamePrefix     string `yaml:"name_prefix" toml:"name_prefix"`
	StripPrefix    string `yaml:"strip_prefix" toml:"strip_prefix"`
	ModelPackage   string `yaml:"model_package" toml:"model_package"`
	RuntimePackage string `yaml:"runtime_package" toml:"runtime_package"`
}

// LintConfig configures the lint command.
type LintConfig struct {
	AllowNotNullAddition bool `yaml:"allow_not_null_addition" toml:"allow_not_null_addition"`
}

// loadConfig reads the config file at path, if any, then applies the
// SCHEMAGEN_* environment variables on top of it. A .env file in the
// working directory is loaded first and never overrides the environment.
func loadConfig(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".toml":
			md, err := toml.Decode(string(data), cfg)
			if err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, gen.NewConfigError("config", undecoded[0].String(), "unknown key")
			}
		case ".yaml", ".yml":
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		default:
			return nil, gen.NewConfigError("config", path, fmt.Sprintf("unsupported config format %q", ext))
		}
		dir := filepath.Dir(path)
		for i, s := range cfg.Schemas {
			if !filepath.IsAbs(s) {
				cfg.Schemas[i] = filepath.Join(dir, s)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides the config with the set SCHEMAGEN_* variables.
func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "SCHEMAS"); ok {
		c.Schemas = splitList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "VERSION"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return gen.NewConfigError(envPrefix+"VERSION", v, "not an integer")
		}
		c.Version = n
	}
	str("SOFT_DELETE", &c.SoftDelete)
	str("HEADER", &c.Header)
	str("SCRIPTS_TARGET", &c.Scripts.Target)
	str("ACCESS_TARGET", &c.Access.Target)
	str("ACCESS_PACKAGE", &c.Access.Package)
	str("ACCESS_MODEL_PACKAGE", &c.Access.ModelPackage)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// genOptions returns the graph options of the config.
func (c *Config) genOptions() []gen.Option {
	var opts []gen.Option
	if c.SoftDelete != "" {
		opts = append(opts, gen.WithSoftDeleteColumn(c.SoftDelete))
	}
	if c.Header != "" {
		opts = append(opts, gen.WithHeader(c.Header))
	}
	return opts
}

func (c *Config) scriptOptions() script.Options {
	s := c.Scripts
	return script.Options{
		Target:       s.Target,
		TablesDir:    s.TablesDir,
		TypesDir:     s.TypesDir,
		FunctionsDir: s.FunctionsDir,
		Manifest:     s.Manifest,
		Prefix:       s.Prefix,
		Version:      c.Version,
		First:        s.First,
		Last:         s.Last,
		NoChecksum:   s.NoChecksum,
	}
}

func (c *Config) accessOptions() sql.Options {
	a := c.Access
	return sql.Options{
		Target:         a.Target,
		Package:        a.Package,
		Version:        c.Version,
		NamePrefix:     a.NamePrefix,
		StripPrefix:    a.StripPrefix,
		ModelPackage:   a.ModelPackage,
		RuntimePackage: a.RuntimePackage,
	}
}
