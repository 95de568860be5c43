package config

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	traceerrors "github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/errors"
)

//go:embed agenttrace_config_schema_v1.0.0.json
var schemaV1Bytes []byte

var (
	schemaV1   *gojsonschema.Schema
	schemaOnce sync.Once
	schemaErr  error
)

// loadSchema compiles the embedded configuration schema once.
func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		if len(schemaV1Bytes) == 0 {
			schemaErr = traceerrors.NewConfigError("embedded schema 'agenttrace_config_schema_v1.0.0.json' is empty or not found", nil)
			return
		}
		schemaV1, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaV1Bytes))
		if schemaErr != nil {
			schemaErr = traceerrors.NewConfigError("failed to compile embedded configuration schema", schemaErr)
		}
	})
	return schemaV1, schemaErr
}

// ValidateWithSchema validates configuration YAML bytes against the embedded
// v1 schema, converting YAML to generic JSON-compatible data first.
func ValidateWithSchema(documentYAML []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	var jsonData interface{}
	if err := yaml.Unmarshal(documentYAML, &jsonData); err != nil {
		return traceerrors.NewConfigError("failed to parse configuration YAML for schema validation", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(jsonData))
	if err != nil {
		return traceerrors.NewConfigError("schema validation process failed", err)
	}
	if !result.Valid() {
		errMsg := "configuration failed JSON schema validation:"
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "(root)" || field == "" {
				field = desc.Context().String()
			}
			errMsg += fmt.Sprintf("\n  - Field '%s': %s", field, desc.Description())
		}
		return traceerrors.NewValidationError(errMsg, nil)
	}
	return nil
}
