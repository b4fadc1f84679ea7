package newlearner

import (
	"encoding/json"
	"fmt"

	"github.com/waikato/maiaflow/errors"
)

// Config holds configuration for the new-learner source
type Config struct {
	// Factory names the learner factory in the learner registry
	Factory string `json:"factory"`

	// LearnerConfig is passed to the factory unchanged
	LearnerConfig json.RawMessage `json:"learner_config,omitempty"`

	// Repeat bounds production: Repeat+1 learners are produced. Absent means one.
	Repeat *int `json:"repeat,omitempty"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Factory == "" {
		return errors.WrapInvalid(fmt.Errorf("%w: factory is required", errors.ErrMissingConfig),
			"NewLearnerConfig", "Validate", "factory check")
	}
	if c.Repeat != nil && *c.Repeat < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: value for repeat can't be negative; got %d", errors.ErrInvalidConfig, *c.Repeat),
			"NewLearnerConfig", "Validate", "repeat check")
	}
	return nil
}

const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "factory": {"type": "string", "minLength": 1, "description": "The type of learner to create"},
    "learner_config": {"type": ["object", "null"], "description": "The configuration for the learner"},
    "repeat": {"type": "integer", "minimum": 0, "description": "The number of additional instances to output"}
  },
  "required": ["factory"],
  "additionalProperties": false
}`
