package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenttrace-labs/agenttrace/internal/config"
	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.CaptureFull, cfg.CaptureLevel)
	assert.Equal(t, "memory", cfg.Storage)
	assert.True(t, cfg.CapturePayloads())
	assert.Empty(t, cfg.RedactRegexps())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*config.Config)
		expectErr string
	}{
		{
			name:   "valid capture levels",
			mutate: func(c *config.Config) { c.CaptureLevel = config.CaptureMinimal },
		},
		{
			name:      "invalid capture level",
			mutate:    func(c *config.Config) { c.CaptureLevel = "verbose" },
			expectErr: "capture_level",
		},
		{
			name:      "negative input size",
			mutate:    func(c *config.Config) { c.MaxInputSize = -1 },
			expectErr: "max_input_size",
		},
		{
			name:      "negative output size",
			mutate:    func(c *config.Config) { c.MaxOutputSize = -5 },
			expectErr: "max_output_size",
		},
		{
			name:      "invalid redact pattern",
			mutate:    func(c *config.Config) { c.RedactPatterns = []string{"(unclosed"} },
			expectErr: "redact pattern",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var cfgErr *traceerrors.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tc.expectErr)
		})
	}
}

func TestValidateCompilesRedactPatterns(t *testing.T) {
	cfg := config.Default()
	cfg.RedactPatterns = []string{`sk-[0-9]+`, `password=\S+`}
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.RedactRegexps(), 2)
}

func TestCapturePayloads(t *testing.T) {
	cfg := config.Default()
	cfg.CaptureLevel = config.CaptureMinimal
	assert.False(t, cfg.CapturePayloads())
	cfg.CaptureLevel = config.CaptureStandard
	assert.True(t, cfg.CapturePayloads())
}

func TestLoadValidYAML(t *testing.T) {
	yamlContent := []byte(`
schemaVersion: "1.0.0"
capture_level: standard
redact_patterns:
  - "sk-[0-9]+"
max_input_size: 4096
max_output_size: 8192
storage: "file://./traces"
strict_schema: true
log_level: debug
log_format: json
`)
	cfg, err := config.Load(yamlContent, "inline")
	require.NoError(t, err)
	assert.Equal(t, config.CaptureStandard, cfg.CaptureLevel)
	assert.Equal(t, 4096, cfg.MaxInputSize)
	assert.Equal(t, 8192, cfg.MaxOutputSize)
	assert.Equal(t, "file://./traces", cfg.Storage)
	assert.True(t, cfg.StrictSchema)
	assert.Len(t, cfg.RedactRegexps(), 1)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	yamlContent := []byte(`
capture_level: full
definitely_not_a_field: true
`)
	_, err := config.Load(yamlContent, "inline")
	require.Error(t, err)
	var cfgErr *traceerrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadRejectsWrongTypes(t *testing.T) {
	yamlContent := []byte(`
max_input_size: "lots"
`)
	_, err := config.Load(yamlContent, "inline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestLoadSchemaVersionCompatibility(t *testing.T) {
	_, err := config.Load([]byte(`schemaVersion: "2.0.0"`), "inline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compatible")

	// A malformed version string is caught by the structural schema before
	// the semver check runs.
	_, err = config.Load([]byte(`schemaVersion: "not-a-version"`), "inline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")

	cfg, err := config.Load([]byte(`schemaVersion: "1.2.3"`), "inline")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", cfg.SchemaVersion)
}

func TestLoadEmpty(t *testing.T) {
	_, err := config.Load(nil, "inline")
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agenttrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture_level: minimal\n"), 0o644))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.CaptureMinimal, cfg.CaptureLevel)

	_, err = config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
