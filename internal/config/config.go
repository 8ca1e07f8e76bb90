package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcncl/omconv/internal/convert"
	"github.com/mcncl/omconv/internal/fixtures"
	"github.com/mcncl/omconv/internal/schema"
	"gopkg.in/yaml.v3"
)

// Report formats for validation results
const (
	ReportTable = "table"
	ReportJSON  = "json"
)

// MaxIndent is the widest indentation accepted for JSON and XML output.
const MaxIndent = 8

// Config represents the complete configuration for omconv
type Config struct {
	Output     OutputConfig     `yaml:"output"`
	Decode     DecodeConfig     `yaml:"decode"`
	Validation ValidationConfig `yaml:"validation"`
	Server     ServerConfig     `yaml:"server"`
	Fixtures   FixturesConfig   `yaml:"fixtures"`
	Dev        DevConfig        `yaml:"dev"`
}

// OutputConfig controls how converted documents are printed
type OutputConfig struct {
	// JSONIndent is the number of spaces per level; 0 prints compact JSON.
	JSONIndent int `yaml:"json_indent"`
	// XMLIndent is the number of spaces per level; 0 prints compact XML.
	XMLIndent int `yaml:"xml_indent"`
}

// DecodeConfig controls the XML decoder
type DecodeConfig struct {
	// StrictAttribution rejects OMATP wrappers with an unpaired child.
	StrictAttribution bool `yaml:"strict_attribution"`
}

// ValidationConfig controls schema validation
type ValidationConfig struct {
	DefaultKind string `yaml:"default_kind"`
	Report      string `yaml:"report"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// FixturesConfig controls the fixture generator
type FixturesConfig struct {
	Dir string `yaml:"dir"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Output: OutputConfig{
			JSONIndent: 4,
			XMLIndent:  0,
		},
		Decode: DecodeConfig{
			StrictAttribution: false,
		},
		Validation: ValidationConfig{
			DefaultKind: schema.DefaultKind,
			Report:      ReportTable,
		},
		Server: ServerConfig{
			Addr: ":3000",
		},
		Fixtures: FixturesConfig{
			Dir: fixtures.DefaultDir,
		},
		Dev: DevConfig{
			Debug: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".omconv.yml", ".omconv.yaml", "omconv.yml", "omconv.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if c.Output.JSONIndent < 0 || c.Output.JSONIndent > MaxIndent {
		return fmt.Errorf("output.json_indent must be between 0 and %d, got %d", MaxIndent, c.Output.JSONIndent)
	}
	if c.Output.XMLIndent < 0 || c.Output.XMLIndent > MaxIndent {
		return fmt.Errorf("output.xml_indent must be between 0 and %d, got %d", MaxIndent, c.Output.XMLIndent)
	}
	if c.Validation.DefaultKind != "" && !schema.IsKnownKind(c.Validation.DefaultKind) {
		return fmt.Errorf("validation.default_kind %q is not a schema kind", c.Validation.DefaultKind)
	}
	switch c.Validation.Report {
	case ReportTable, ReportJSON:
	default:
		return fmt.Errorf("validation.report must be %q or %q, got %q", ReportTable, ReportJSON, c.Validation.Report)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

// Decoder returns an XML decoder configured by the decode section
func (c *Config) Decoder() *convert.Decoder {
	return &convert.Decoder{StrictPairs: c.Decode.StrictAttribution}
}

// Kind returns kind, or the configured default when kind is empty
func (c *Config) Kind(kind string) string {
	if kind != "" {
		return kind
	}
	if c.Validation.DefaultKind != "" {
		return c.Validation.DefaultKind
	}
	return schema.DefaultKind
}

// Overrides holds values given on the command line. Nil and empty fields
// leave the configured value in place.
type Overrides struct {
	JSONIndent        *int
	XMLIndent         *int
	StrictAttribution *bool
	Kind              string
	Report            string
	Addr              string
	FixturesDir       string
	Debug             bool
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath string, cli Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if cli.JSONIndent != nil {
		cfg.Output.JSONIndent = *cli.JSONIndent
	}
	if cli.XMLIndent != nil {
		cfg.Output.XMLIndent = *cli.XMLIndent
	}
	if cli.StrictAttribution != nil {
		cfg.Decode.StrictAttribution = *cli.StrictAttribution
	}
	if cli.Kind != "" {
		cfg.Validation.DefaultKind = cli.Kind
	}
	if cli.Report != "" {
		cfg.Validation.Report = cli.Report
	}
	if cli.Addr != "" {
		cfg.Server.Addr = cli.Addr
	}
	if cli.FixturesDir != "" {
		cfg.Fixtures.Dir = cli.FixturesDir
	}
	if cli.Debug {
		cfg.Dev.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
