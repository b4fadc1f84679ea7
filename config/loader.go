package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/waikato/maiaflow/errors"
)

//go:embed schema.json
var documentSchema []byte

// DefaultEnvPrefix prefixes environment overrides.
const DefaultEnvPrefix = "MAIAFLOW"

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: false,
		envPrefix:  DefaultEnvPrefix,
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables schema and semantic validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// SetEnvPrefix changes the prefix used for environment overrides.
func (l *Loader) SetEnvPrefix(prefix string) {
	l.envPrefix = prefix
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	if len(l.layers) == 0 {
		return nil, errors.WrapInvalid(errors.ErrConfigNotFound, "Loader", "Load", "no layers")
	}

	merged := map[string]any{}
	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("load %s", path))
		}
		merged = deepMergeMaps(merged, raw)
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Load", "encode merged document")
	}

	if l.validation {
		if err := validateSchema(data); err != nil {
			return nil, err
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Parse decodes a JSON topology document without validating it.
func Parse(data []byte) (*Config, error) {
	if err := validateJSONDepth(data); err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Parse", "check structure")
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"Config", "Parse", "decode document")
	}
	return &cfg, nil
}

// loadRaw reads one layer as a generic map.
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	switch format {
	case formatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		}
		normalized, err := normalizeYAML(doc)
		if err != nil {
			return nil, err
		}
		if normalized == nil {
			return map[string]any{}, nil
		}
		m, ok := normalized.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: document root must be a mapping", errors.ErrInvalidConfig)
		}
		raw = m
	default:
		if err := validateJSONDepth(data); err != nil {
			return nil, fmt.Errorf("invalid JSON structure: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		}
	}
	return raw, nil
}

// normalizeYAML turns decoded YAML into values encoding/json accepts.
func normalizeYAML(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			n, err := normalizeYAML(child)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string key %v", errors.ErrInvalidConfig, k)
			}
			n, err := normalizeYAML(child)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			n, err := normalizeYAML(child)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	default:
		return val, nil
	}
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}

	return result
}

// validateSchema checks a merged document against the embedded JSON Schema.
func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return errors.WrapInvalid(err, "Loader", "validateSchema", "schema validation")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(msgs, "; ")),
		"Loader", "validateSchema", "document does not match schema")
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	key := l.envPrefix + "_TEARDOWN_TIMEOUT"
	if val := os.Getenv(key); val != "" {
		if err := validateEnvVar(key, val); err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", key)
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %s: %v", errors.ErrInvalidConfig, key, err),
				"Loader", "applyEnvOverrides", key)
		}
		cfg.Runtime.TeardownTimeout = Duration(d)
	}

	key = l.envPrefix + "_DEFAULT_BUFFER"
	if val := os.Getenv(key); val != "" {
		if err := validateEnvVar(key, val); err != nil {
			return errors.WrapInvalid(err, "Loader", "applyEnvOverrides", key)
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %s: %v", errors.ErrInvalidConfig, key, err),
				"Loader", "applyEnvOverrides", key)
		}
		cfg.Runtime.DefaultBuffer = n
	}
	return nil
}
