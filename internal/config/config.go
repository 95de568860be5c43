package config

import (
	"fmt"
	"regexp"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
)

// Capture levels control how much payload data spans record.
const (
	CaptureMinimal  = "minimal"
	CaptureStandard = "standard"
	CaptureFull     = "full"
)

// Config is the immutable-after-construction tracer configuration. Invalid
// settings are rejected at construction time via Validate; there is no
// runtime reconfiguration.
type Config struct {
	// SchemaVersion gates configuration file compatibility. Only set when
	// the config was loaded from a file.
	SchemaVersion string `yaml:"schemaVersion,omitempty"`

	// CaptureLevel selects payload capture: "minimal" drops input/output
	// data entirely, "standard" and "full" record it.
	CaptureLevel string `yaml:"capture_level,omitempty"`

	// AutoInstrument lists names of call sites the host wires through the
	// instrumentation wrapper. The tracer itself only carries the list.
	AutoInstrument []string `yaml:"auto_instrument,omitempty"`

	// RedactPatterns are regular expressions applied to every captured
	// string value; matches are replaced before the value is stored.
	RedactPatterns []string `yaml:"redact_patterns,omitempty"`

	// MaxInputSize and MaxOutputSize bound captured string lengths,
	// independently for input and output data. Zero means unlimited.
	MaxInputSize  int `yaml:"max_input_size,omitempty"`
	MaxOutputSize int `yaml:"max_output_size,omitempty"`

	// Storage selects a backend when the tracer is built from a config
	// file: "memory", "file://<dir>" or "sqlite://<path>".
	Storage string `yaml:"storage,omitempty"`

	// StrictSchema makes the serializer reject trace payloads whose schema
	// version differs from the current one instead of warning.
	StrictSchema bool `yaml:"strict_schema,omitempty"`

	// Logging settings for the default logger.
	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`

	redact []*regexp.Regexp
}

// Default returns the configuration used when the caller supplies none.
func Default() *Config {
	return &Config{
		CaptureLevel: CaptureFull,
		Storage:      "memory",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Validate checks the configuration and compiles the redaction patterns.
// It returns a *errors.ConfigError describing the first problem found.
func (c *Config) Validate() error {
	if c.CaptureLevel == "" {
		c.CaptureLevel = CaptureFull
	}
	switch c.CaptureLevel {
	case CaptureMinimal, CaptureStandard, CaptureFull:
	default:
		return traceerrors.NewConfigError(fmt.Sprintf("invalid capture_level '%s' (want minimal, standard or full)", c.CaptureLevel), nil)
	}
	if c.MaxInputSize < 0 {
		return traceerrors.NewConfigError("max_input_size cannot be negative", nil)
	}
	if c.MaxOutputSize < 0 {
		return traceerrors.NewConfigError("max_output_size cannot be negative", nil)
	}
	c.redact = c.redact[:0]
	for _, pattern := range c.RedactPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return traceerrors.NewConfigError(fmt.Sprintf("invalid redact pattern '%s'", pattern), err)
		}
		c.redact = append(c.redact, re)
	}
	return nil
}

// RedactRegexps returns the compiled redaction patterns. Validate must have
// been called first.
func (c *Config) RedactRegexps() []*regexp.Regexp {
	return c.redact
}

// CapturePayloads reports whether input/output data should be recorded at
// the configured capture level.
func (c *Config) CapturePayloads() bool {
	return c.CaptureLevel != CaptureMinimal
}
