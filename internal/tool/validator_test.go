package tool

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInput(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url":       map[string]interface{}{"type": "string"},
			"maxLength": map[string]interface{}{"type": "integer"},
			"headers": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
		"required": []string{"url"},
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: `{"url": "https://example.com", "maxLength": 100, "headers": ["a"]}`},
		{name: "extra fields allowed", input: `{"url": "https://example.com", "other": true}`},
		{name: "missing required", input: `{"maxLength": 100}`, wantErr: true},
		{name: "wrong type", input: `{"url": 5}`, wantErr: true},
		{name: "fractional integer", input: `{"url": "x", "maxLength": 1.5}`, wantErr: true},
		{name: "bad array item", input: `{"url": "x", "headers": [1]}`, wantErr: true},
		{name: "not json", input: `{url`, wantErr: true},
		{name: "not an object", input: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(schema, json.RawMessage(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchemaHelpers(t *testing.T) {
	schema := map[string]interface{}{
		"properties": map[string]interface{}{
			"city": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"city", 7},
	}

	assert.Equal(t, []string{"city"}, Required(schema))

	typ, ok := PropertyType(schema, "city")
	assert.True(t, ok)
	assert.Equal(t, "string", typ)

	_, ok = PropertyType(schema, "url")
	assert.False(t, ok)
	assert.Nil(t, Required(map[string]interface{}{}))
}
