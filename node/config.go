package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/waikato/maiaflow/errors"
)

// Limits applied to raw node configuration before it is decoded.
const (
	MaxConfigSize   = 1 << 20
	MaxConfigDepth  = 10
	MaxConfigArray  = 1000
	MaxStringLength = 4096
)

// Validatable is implemented by configurations that check their own values.
// SafeUnmarshal calls it after decoding.
type Validatable interface {
	Validate() error
}

// SafeUnmarshal bounds-checks rawConfig, decodes it into target (a pointer) and
// runs target's Validate if it has one. An empty config leaves target as is.
func SafeUnmarshal(rawConfig json.RawMessage, target any) error {
	if err := CheckConfig(rawConfig); err != nil {
		return errors.Wrap(err, "ConfigValidator", "SafeUnmarshal", "config check")
	}
	if reflect.TypeOf(target).Kind() != reflect.Ptr {
		return errors.WrapInvalid(fmt.Errorf("target must be a pointer, got %T", target),
			"ConfigValidator", "SafeUnmarshal", "target type check")
	}

	if len(bytes.TrimSpace(rawConfig)) > 0 {
		if err := json.Unmarshal(rawConfig, target); err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
				"ConfigValidator", "SafeUnmarshal", "JSON unmarshaling")
		}
	}

	if v, ok := target.(Validatable); ok {
		if err := v.Validate(); err != nil {
			if errors.IsInvalid(err) {
				return errors.Wrap(err, "ConfigValidator", "SafeUnmarshal", "struct validation")
			}
			return errors.WrapInvalid(err, "ConfigValidator", "SafeUnmarshal", "struct validation")
		}
	}
	return nil
}

// CheckConfig rejects oversized, deeply nested or malformed JSON and strings
// carrying control characters.
func CheckConfig(rawConfig json.RawMessage) error {
	if len(rawConfig) > MaxConfigSize {
		return errors.WrapInvalid(
			fmt.Errorf("config size %d exceeds maximum %d", len(rawConfig), MaxConfigSize),
			"ConfigValidator", "CheckConfig", "size check")
	}
	if len(bytes.TrimSpace(rawConfig)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(rawConfig))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"ConfigValidator", "CheckConfig", "JSON parsing")
	}
	return checkValue(v, 0)
}

func checkValue(value any, depth int) error {
	if depth > MaxConfigDepth {
		return errors.WrapInvalid(
			fmt.Errorf("JSON depth %d exceeds maximum %d", depth, MaxConfigDepth),
			"ConfigValidator", "checkValue", "depth check")
	}

	switch val := value.(type) {
	case string:
		return checkString(val)
	case []any:
		if len(val) > MaxConfigArray {
			return errors.WrapInvalid(
				fmt.Errorf("array size %d exceeds maximum %d", len(val), MaxConfigArray),
				"ConfigValidator", "checkValue", "array size check")
		}
		for i, elem := range val {
			if err := checkValue(elem, depth+1); err != nil {
				return errors.Wrap(err, "ConfigValidator", "checkValue", fmt.Sprintf("array element %d", i))
			}
		}
	case map[string]any:
		for key, elem := range val {
			if err := checkString(key); err != nil {
				return errors.Wrap(err, "ConfigValidator", "checkValue", "key validation")
			}
			if err := checkValue(elem, depth+1); err != nil {
				return errors.Wrap(err, "ConfigValidator", "checkValue", fmt.Sprintf("object field '%s'", key))
			}
		}
	case json.Number, bool, nil:
	default:
		return errors.WrapInvalid(fmt.Errorf("unexpected type %T in config", value),
			"ConfigValidator", "checkValue", "type check")
	}
	return nil
}

func checkString(s string) error {
	if len(s) > MaxStringLength {
		return errors.WrapInvalid(
			fmt.Errorf("string length %d exceeds maximum %d", len(s), MaxStringLength),
			"ConfigValidator", "checkString", "length check")
	}
	if i := strings.IndexFunc(s, func(r rune) bool {
		return r < 0x20 && r != '\n' && r != '\r' && r != '\t'
	}); i >= 0 {
		return errors.WrapInvalid(fmt.Errorf("string contains control character 0x%02x", s[i]),
			"ConfigValidator", "checkString", "control character check")
	}
	return nil
}
