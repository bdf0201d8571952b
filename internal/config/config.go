// Package config loads the generation options from a JSON file checked
// against an embedded CUE schema.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/Masterminds/semver/v3"
)

//go:embed schema.cue
var schemaSource []byte

// MaxIndent caps the indentation width.
const MaxIndent = 16

// SupportedVersions is the range of config file versions this build reads.
const SupportedVersions = ">= 1.0, < 2.0"

// FileNames are searched, in order, when no config path is given.
var FileNames = []string{"vlog95.json", ".vlog95.json"}

// Config holds the recognised options.
type Config struct {
	Version     string `json:"version,omitempty"`
	Indent      int    `json:"indent,omitempty"`
	FileLine    bool   `json:"fileLine,omitempty"`
	AllowSigned bool   `json:"allowSigned,omitempty"`
	DiagFormat  string `json:"diagFormat,omitempty"`

	// Path is the file the values came from, empty for defaults.
	Path string `json:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{Version: "1.0", Indent: 2, DiagFormat: "text"}
}

// Normalize clamps the indentation width into [1, MaxIndent] and fills
// an empty diagnostic format.
func (c *Config) Normalize() {
	switch {
	case c.Indent <= 0:
		c.Indent = 2
	case c.Indent > MaxIndent:
		c.Indent = MaxIndent
	}
	if c.DiagFormat == "" {
		c.DiagFormat = "text"
	}
}

// Find returns the first config file present in dir.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Load reads path. An empty path searches the working directory and
// falls back to the defaults when nothing is found.
func Load(path string) (*Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		found, ok := Find(wd)
		if !ok {
			return Default(), nil
		}
		path = found
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse validates data against the schema and decodes it over the
// defaults.
func Parse(data []byte) (*Config, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := checkVersion(cfg.Version); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func validate(data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource)
	if schema.Err() != nil {
		return fmt.Errorf("compiling schema: %w", schema.Err())
	}
	value := ctx.CompileBytes(data)
	if value.Err() != nil {
		return fmt.Errorf("parsing: %w", value.Err())
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if def.Err() != nil {
		return fmt.Errorf("looking up #Config: %w", def.Err())
	}
	err := def.Unify(value).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	var msgs []string
	for _, e := range cueerrors.Errors(err) {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

func checkVersion(v string) error {
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("version %q: %w", v, err)
	}
	supported, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !supported.Check(version) {
		return fmt.Errorf("version %s is not supported (want %s)", v, SupportedVersions)
	}
	return nil
}
