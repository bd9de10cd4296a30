package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is loaded when no env file is named explicitly.
const DefaultEnvFile = ".env"

// LoadFile reads a configuration file and returns the fields it sets.
//
// The format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// The document is checked against the embedded JSON schema before it is
// decoded, so unknown keys and wrongly typed values are rejected with the
// schema's message. The result only carries the fields present in the file;
// callers merge it onto Default().
func LoadFile(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	return Parse(data, path)
}

// Parse decodes configuration data. The format is chosen from the extension
// of path and defaults to YAML.
func Parse(data []byte, path string) (Config, error) {
	var cfg Config

	ext := strings.ToLower(filepath.Ext(path))

	doc, err := toJSONDocument(data, ext)
	if err != nil {
		return cfg, err
	}
	if err := validateSchema(doc); err != nil {
		return cfg, err
	}

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	return cfg, nil
}

// toJSONDocument converts either format into the generic JSON value the
// schema validator expects. Numbers are kept as json.Number.
func toJSONDocument(data []byte, ext string) (interface{}, error) {
	raw := data
	if ext != ".json" {
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
		if generic == nil {
			generic = map[string]interface{}{}
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("config is not representable as JSON: %w", err)
		}
		raw = converted
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}
	return doc, nil
}

// FromEnv returns the fields of cfg that come from the process environment.
// Only the API key is read this way; a missing key is not an error here.
func FromEnv(cfg Config) Config {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = DefaultAPIKeyEnv
	}
	cfg.APIKey = os.Getenv(keyEnv)
	return cfg
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment. A missing default file is not an error; a missing file that
// was named explicitly is.
func LoadEnvFile(file string) error {
	if file == "" {
		file = DefaultEnvFile
	}

	if err := godotenv.Load(file); err != nil {
		if file == DefaultEnvFile && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load env file '%s': %w", file, err)
	}

	return nil
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as integer: "30" (treated as 30 seconds)
func ParseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var seconds int
	if _, err := fmt.Sscanf(s, "%d", &seconds); err == nil && fmt.Sprint(seconds) == s {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}
