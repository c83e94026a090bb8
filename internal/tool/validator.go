package tool

import (
	"encoding/json"
	"fmt"
)

// ValidateInput checks a JSON object against a tool parameter schema. Only the
// subset of JSON Schema tools here declare is enforced: required fields,
// primitive types, array items and nested objects.
func ValidateInput(schema map[string]interface{}, input json.RawMessage) error {
	var inputMap map[string]interface{}
	if err := json.Unmarshal(input, &inputMap); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}
	if inputMap == nil {
		return fmt.Errorf("invalid JSON input: expected an object")
	}

	return validateObject(schema, inputMap)
}

// Required lists the schema's required field names.
func Required(schema map[string]interface{}) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []interface{}:
		out := make([]string, 0, len(req))
		for _, field := range req {
			if name, ok := field.(string); ok {
				out = append(out, name)
			}
		}
		return out
	}
	return nil
}

// PropertyType returns the declared type of a top-level property, or "" when
// the property is not declared.
func PropertyType(schema map[string]interface{}, name string) (string, bool) {
	properties, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return "", false
	}
	prop, ok := properties[name]
	if !ok {
		return "", false
	}
	propMap, _ := prop.(map[string]interface{})
	typ, _ := propMap["type"].(string)
	return typ, true
}

func validateObject(schema map[string]interface{}, input map[string]interface{}) error {
	for _, fieldName := range Required(schema) {
		if _, exists := input[fieldName]; !exists {
			return fmt.Errorf("missing required field: %s", fieldName)
		}
	}

	properties, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return nil
	}

	// Unknown fields are tolerated.
	for key, value := range input {
		propSchema, ok := properties[key].(map[string]interface{})
		if !ok {
			continue
		}
		if err := validateType(key, propSchema, value); err != nil {
			return err
		}
	}

	return nil
}

func validateType(fieldName string, schema map[string]interface{}, value interface{}) error {
	expectedType, ok := schema["type"].(string)
	if !ok {
		return nil
	}

	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' expected string, got %T", fieldName, value)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("field '%s' expected number, got %T", fieldName, value)
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("field '%s' expected integer, got %v", fieldName, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field '%s' expected boolean, got %T", fieldName, value)
		}
	case "array":
		arr, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("field '%s' expected array, got %T", fieldName, value)
		}
		if itemsSchema, ok := schema["items"].(map[string]interface{}); ok {
			for i, item := range arr {
				if err := validateType(fmt.Sprintf("%s[%d]", fieldName, i), itemsSchema, item); err != nil {
					return err
				}
			}
		}
	case "object":
		obj, ok := value.(map[string]interface{})
		if !ok {
			return fmt.Errorf("field '%s' expected object, got %T", fieldName, value)
		}
		return validateObject(schema, obj)
	}

	return nil
}
