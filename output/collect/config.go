package collect

import (
	"fmt"

	"github.com/waikato/maiaflow/errors"
	"github.com/waikato/maiaflow/pkg/buffer"
)

// DefaultCapacity is the number of values retained when capacity is unset
const DefaultCapacity = 100

// Config holds configuration for the collect sink
type Config struct {
	// Capacity bounds how many recent values are retained
	Capacity int `json:"capacity,omitempty"`

	// Overflow is drop_oldest (default) or drop_newest
	Overflow string `json:"overflow,omitempty"`

	// LogValues logs each value at info rather than debug level
	LogValues bool `json:"log_values,omitempty"`

	// Path, when set, receives every value as a JSON line
	Path string `json:"path,omitempty"`

	// Append keeps existing file content instead of truncating it
	Append bool `json:"append,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{Capacity: DefaultCapacity}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Capacity < 0 {
		return errors.WrapInvalid(fmt.Errorf("%w: capacity cannot be negative", errors.ErrInvalidConfig),
			"CollectConfig", "Validate", "capacity check")
	}
	if _, ok := buffer.ParseOverflowPolicy(c.Overflow); !ok {
		return errors.WrapInvalid(fmt.Errorf("%w: unknown overflow policy %q", errors.ErrInvalidConfig, c.Overflow),
			"CollectConfig", "Validate", "overflow check")
	}
	return nil
}

const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "capacity": {"type": "integer", "minimum": 0, "description": "Number of recent values retained"},
    "overflow": {"type": "string", "enum": ["", "drop_oldest", "drop_newest"], "description": "What to drop when full"},
    "log_values": {"type": "boolean", "description": "Log each value at info level"},
    "path": {"type": "string", "description": "JSON Lines file receiving every value"},
    "append": {"type": "boolean", "description": "Append to an existing file"}
  },
  "additionalProperties": false
}`
