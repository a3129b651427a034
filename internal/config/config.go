// Package config loads the per-project config.json that drives a build.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
)

// Well-known names inside a project directory. All three are implicitly ignored
// by every build.
const (
	ConfigFileName = "config.json"
	BuildDirName   = "_build"
	CacheDirName   = ".sitemirror_cache"
)

var (
	// ErrConfigNotFound indicates the project directory has no config.json.
	ErrConfigNotFound = errors.New("configuration file not found")
	// ErrConfigMalformed indicates config.json is not a valid JSON object.
	ErrConfigMalformed = errors.New("configuration file is malformed")
)

// Config represents a project's config.json.
type Config struct {
	// Ignore lists ignore patterns. Entries starting with "*" match a bare name
	// at any depth; everything else is a path relative to the project base.
	Ignore     []string         `json:"ignore"`
	Dev        DevConfig        `json:"dev"`
	Transforms TransformsConfig `json:"transforms"`

	// BaseDir is the absolute project directory the file was loaded from.
	BaseDir string `json:"-"`
}

// DevConfig carries the preview server's datastore proxy settings. The build
// pipeline only parses and exposes them.
type DevConfig struct {
	DSTrigger Trigger `json:"dsTrigger"`
	DSHost    string  `json:"dsHost"`
	DSPort    Port    `json:"dsPort"`
}

// Port accepts both "5984" and 5984.
type Port int

// UnmarshalJSON implements json.Unmarshaler.
func (p *Port) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = expandVars(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", s, err)
		}
		*p = Port(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid port %s: %w", data, err)
	}
	*p = Port(n)
	return nil
}

// Trigger maps request path prefixes to datastore paths. A bare string s is
// shorthand for {s: s}.
type Trigger map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Trigger) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Trigger{s: s}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("dsTrigger must be a string or an object of strings: %w", err)
	}
	*t = Trigger(m)
	return nil
}

// TransformsConfig tunes the built-in transforms.
type TransformsConfig struct {
	Markdown MarkdownConfig `json:"markdown"`
	Script   ScriptConfig   `json:"script"`
	Bundle   BundleConfig   `json:"bundle"`
}

// MarkdownConfig configures the md/markdown transform.
type MarkdownConfig struct {
	// Unsafe lets raw HTML in markdown through to the output.
	Unsafe     bool     `json:"unsafe"`
	Extensions []string `json:"extensions"`
}

// ScriptConfig configures the ts/tsx/jsx transforms.
type ScriptConfig struct {
	Target string `json:"target"`
}

// BundleConfig configures the bundle transform.
type BundleConfig struct {
	Minify bool `json:"minify"`
}

// Load reads <baseDir>/config.json. A .env file next to it is loaded first and
// ${VAR} references inside string values are expanded, so the process
// environment can fill in values. A bare $ is kept as written.
func Load(baseDir string) (*Config, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve project directory").
			Fatal().WithContext("path", baseDir).Build()
	}

	if err := loadEnvFile(absBase); err != nil {
		return nil, err
	}

	configPath := filepath.Join(absBase, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ferrors.ConfigError("directory is missing config.json").
			WithCause(ErrConfigNotFound).WithContext("path", configPath).Build()
	}
	if err != nil {
		return nil, ferrors.ConfigError("read config.json").
			WithCause(err).WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, ferrors.ConfigError("config.json has errors").
			WithCause(err).WithContext("path", configPath).Build()
	}
	cfg.BaseDir = absBase
	return cfg, nil
}

// Parse decodes config.json content, expands ${VAR} in string values and
// applies defaults.
func Parse(data []byte) (*Config, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrConfigMalformed)
	}
	var cfg Config
	if err := json.Unmarshal(trimmed, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigMalformed, err)
	}
	expandConfig(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

var braced = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandVars replaces ${VAR} with the value of VAR, or "" when unset.
func expandVars(s string) string {
	return braced.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

func expandConfig(cfg *Config) {
	for i, p := range cfg.Ignore {
		cfg.Ignore[i] = expandVars(p)
	}
	cfg.Dev.DSHost = expandVars(cfg.Dev.DSHost)
	if cfg.Dev.DSTrigger != nil {
		expanded := make(Trigger, len(cfg.Dev.DSTrigger))
		for k, v := range cfg.Dev.DSTrigger {
			expanded[expandVars(k)] = expandVars(v)
		}
		cfg.Dev.DSTrigger = expanded
	}
	for i, ext := range cfg.Transforms.Markdown.Extensions {
		cfg.Transforms.Markdown.Extensions[i] = expandVars(ext)
	}
	cfg.Transforms.Script.Target = expandVars(cfg.Transforms.Script.Target)
}

func applyDefaults(cfg *Config) {
	if cfg.Ignore == nil {
		cfg.Ignore = []string{}
	}
	if cfg.Dev.DSHost == "" {
		cfg.Dev.DSHost = "127.0.0.1"
	}
	if cfg.Dev.DSPort == 0 {
		cfg.Dev.DSPort = 5984
	}
	if cfg.Dev.DSTrigger == nil {
		cfg.Dev.DSTrigger = Trigger{"/datastore": "/datastore"}
	}
	if cfg.Transforms.Script.Target == "" {
		cfg.Transforms.Script.Target = "es2020"
	}
}
