package node

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waikato/maiaflow/errors"
)

type limitConfig struct {
	Limit int    `json:"limit"`
	Label string `json:"label"`
}

func (c *limitConfig) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", c.Limit)
	}
	return nil
}

func TestSafeUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    limitConfig
		wantErr bool
	}{
		{name: "empty keeps defaults", raw: "", want: limitConfig{Limit: 7}},
		{name: "valid", raw: `{"limit": 3, "label": "a"}`, want: limitConfig{Limit: 3, Label: "a"}},
		{name: "validate rejects", raw: `{"limit": -1}`, wantErr: true},
		{name: "malformed", raw: `{"limit": `, wantErr: true},
		{name: "wrong type", raw: `{"limit": "three"}`, wantErr: true},
		{name: "control character", raw: `{"label": "a\u0001b"}`, wantErr: true},
		{name: "too deep", raw: strings.Repeat(`{"a":`, MaxConfigDepth+2) + "1" + strings.Repeat("}", MaxConfigDepth+2), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := limitConfig{Limit: 7}
			err := SafeUnmarshal(json.RawMessage(tt.raw), &cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err), "config errors are invalid: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestSafeUnmarshal_RequiresPointer(t *testing.T) {
	err := SafeUnmarshal(json.RawMessage(`{}`), limitConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestCheckConfig_Size(t *testing.T) {
	big := `{"label": "` + strings.Repeat("x", MaxConfigSize) + `"}`
	assert.Error(t, CheckConfig(json.RawMessage(big)))
	assert.NoError(t, CheckConfig(json.RawMessage(`{"a": [1, 2, {"b": null}]}`)))
}
