package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
)

// SupportedSchemaVersionConstraint is the major configuration schema version
// this build accepts.
const SupportedSchemaVersionConstraint = "v1"

// Load parses YAML configuration bytes: JSON-schema validation for structure,
// strict decoding to catch unknown fields, semver compatibility check, then
// logical validation (including redact pattern compilation).
func Load(configYAML []byte, filePathHint string) (*Config, error) {
	if len(configYAML) == 0 {
		return nil, traceerrors.NewConfigError("configuration content cannot be empty", nil)
	}

	if err := ValidateWithSchema(configYAML); err != nil {
		return nil, traceerrors.NewConfigError(fmt.Sprintf("configuration '%s' failed schema validation", filePathHint), err)
	}

	cfg := Default()
	if err := yamlUnmarshalStrict(configYAML, cfg); err != nil {
		return nil, traceerrors.NewConfigError(fmt.Sprintf("failed to parse configuration YAML '%s'", filePathHint), err)
	}

	if cfg.SchemaVersion != "" {
		versioned := cfg.SchemaVersion
		if !strings.HasPrefix(versioned, "v") {
			versioned = "v" + versioned
		}
		if !semver.IsValid(versioned) {
			return nil, traceerrors.NewConfigError(fmt.Sprintf("configuration '%s' has invalid schemaVersion format: '%s'", filePathHint, cfg.SchemaVersion), nil)
		}
		if semver.Major(versioned) != SupportedSchemaVersionConstraint {
			return nil, traceerrors.NewConfigError(
				fmt.Sprintf("configuration '%s' schemaVersion '%s' is not compatible with requirement '%s'",
					filePathHint, cfg.SchemaVersion, SupportedSchemaVersionConstraint),
				nil,
			)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads a configuration file from disk and parses it with Load.
func LoadFromFile(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, traceerrors.NewConfigError("configuration file path cannot be empty", nil)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, traceerrors.NewConfigError(fmt.Sprintf("failed to get absolute path for '%s'", filePath), err)
	}
	yamlFile, err := os.ReadFile(absPath)
	if err != nil {
		return nil, traceerrors.NewConfigError(fmt.Sprintf("failed to read configuration file '%s'", absPath), err)
	}
	return Load(yamlFile, absPath)
}

// yamlUnmarshalStrict disallows unknown fields so typos in configuration
// files are caught early.
func yamlUnmarshalStrict(in []byte, out interface{}) error {
	decoder := yaml.NewDecoder(strings.NewReader(string(in)))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("YAML parsing error: %w", err)
	}
	return nil
}
