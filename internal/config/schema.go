package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "jtlens-config.schema.json"

// configSchema describes the keys a config file may set. The API key is
// deliberately absent: it only ever comes from the environment.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "results_path":   {"type": "string", "minLength": 1},
    "report_dir":     {"type": "string", "minLength": 1},
    "tool_path":      {"type": "string", "minLength": 1},
    "test_plan_path": {"type": "string", "minLength": 1},
    "server_port":    {"type": "integer", "minimum": 1, "maximum": 65535},
    "model":          {"type": "string", "minLength": 1},
    "max_tokens":     {"type": "integer", "minimum": 1},
    "api_base_url":   {"type": "string"},
    "api_key_env":    {"type": "string", "minLength": 1},
    "tool_timeout":   {"type": ["string", "integer"]}
  }
}`

var (
	compiledSchema *jsonschema.Schema
	compileErr     error
	compileOnce    sync.Once
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(configSchema)); err != nil {
			compileErr = fmt.Errorf("invalid config schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// validateSchema checks a decoded config document against the schema.
func validateSchema(doc interface{}) error {
	s, err := schema()
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}
