// Package config defines jumbotrace settings read from YAML or TOML files.
package config

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/probeapi"
	"github.com/sirkon/jumbotrace/internal/sites"
	"github.com/sirkon/jumbotrace/internal/symbols"
)

// Config is what an instrumentation run is tuned with.
type Config struct {
	// Kinds to trace, all of them when empty.
	Kinds []events.Kind `yaml:"kinds" toml:"kinds"`

	// IdentPrefix starts every synthesized identifier.
	IdentPrefix string `yaml:"ident_prefix" toml:"ident_prefix"`

	ProbePackage  string `yaml:"probe_package" toml:"probe_package"`
	EventsPackage string `yaml:"events_package" toml:"events_package"`

	// Tests enables instrumentation of test files.
	Tests bool `yaml:"tests" toml:"tests"`

	// SkipGenerated leaves files with the standard generated code header as is.
	SkipGenerated bool `yaml:"skip_generated" toml:"skip_generated"`

	// PreservePositions prints //line directives so that compiler
	// positions point to the original sources.
	PreservePositions bool `yaml:"preserve_positions" toml:"preserve_positions"`

	// ThrowFuncs are functions besides panic whose first argument is a thrown value.
	ThrowFuncs []Reference `yaml:"throw_funcs" toml:"throw_funcs"`

	// Jobs limits packages processed at once. Zero stands for the number of CPUs.
	Jobs int `yaml:"jobs" toml:"jobs"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		IdentPrefix:   symbols.DefaultPrefix,
		ProbePackage:  probeapi.DefaultProbePath,
		EventsPackage: probeapi.DefaultEventsPath,
		SkipGenerated: true,
	}
}

// Load reads a config file. The format is chosen by extension: .toml for
// TOML, anything else is YAML. Omitted fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes config data of the format given by a file extension.
func Parse(ext string, data []byte) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	var errs []error
	if !isIdent(c.IdentPrefix) {
		errs = append(errs, fmt.Errorf("ident_prefix %q is not an identifier", c.IdentPrefix))
	}
	if c.ProbePackage == "" {
		errs = append(errs, errors.New("probe_package must not be empty"))
	}
	if c.EventsPackage == "" {
		errs = append(errs, errors.New("events_package must not be empty"))
	}
	if c.Jobs < 0 {
		errs = append(errs, fmt.Errorf("jobs must not be negative, got %d", c.Jobs))
	}
	return errors.Join(errs...)
}

// JobsLimit returns the effective number of parallel jobs.
func (c *Config) JobsLimit() int {
	if c.Jobs == 0 {
		return runtime.NumCPU()
	}
	return c.Jobs
}

// ThrowRefs returns throw functions in the form sites classifies calls with.
func (c *Config) ThrowRefs() []sites.Ref {
	res := make([]sites.Ref, 0, len(c.ThrowFuncs))
	for _, r := range c.ThrowFuncs {
		res = append(res, sites.Ref{Package: r.Package, Type: r.Type, Name: r.Name})
	}
	return res
}

// Reference names a function in config files:
//
//	"pkg/path".Name
//	"pkg/path".Type.Name
type Reference struct {
	Package string
	Type    string
	Name    string
}

var (
	_ encoding.TextUnmarshaler = (*Reference)(nil)
	_ encoding.TextMarshaler   = Reference{}
)

func (r *Reference) UnmarshalText(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "" {
		return errors.New("empty reference")
	}

	if !strings.HasPrefix(s, `"`) {
		return fmt.Errorf("reference must start with quoted package: %q", s)
	}
	end := strings.Index(s[1:], `"`)
	if end < 0 {
		return fmt.Errorf("unterminated quoted package in reference: %q", s)
	}
	end++

	pkg := s[1:end]
	if pkg == "" {
		return fmt.Errorf("package cannot be empty in reference: %q", s)
	}

	rest, ok := strings.CutPrefix(s[end+1:], ".")
	if !ok || rest == "" {
		return fmt.Errorf("reference must contain a name: %q", s)
	}

	parts := strings.Split(rest, ".")
	if len(parts) > 2 {
		return fmt.Errorf("reference must have 1 or 2 identifiers after package: %q", s)
	}
	for _, p := range parts {
		if !isIdent(p) {
			return fmt.Errorf("invalid identifier %q in reference %q", p, s)
		}
	}

	*r = Reference{Package: pkg, Name: parts[len(parts)-1]}
	if len(parts) == 2 {
		r.Type = parts[0]
	}
	return nil
}

func (r Reference) MarshalText() ([]byte, error) {
	switch {
	case r.Package == "":
		return nil, errors.New("cannot marshal Reference: empty Package")
	case r.Name == "":
		return nil, errors.New("cannot marshal Reference: empty Name")
	}

	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(r.Package)
	b.WriteString(`".`)
	if r.Type != "" {
		b.WriteString(r.Type)
		b.WriteByte('.')
	}
	b.WriteString(r.Name)

	return []byte(b.String()), nil
}

func (r Reference) String() string {
	v, err := r.MarshalText()
	if err != nil {
		return "reference-invalid"
	}
	return string(v)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
