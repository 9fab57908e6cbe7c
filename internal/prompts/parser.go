package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Schorakbi/roboto-ai/internal/models"
)

var (
	// ErrInvalidJSON means the model reply is not syntactically valid JSON.
	ErrInvalidJSON = errors.New("LLM returned invalid JSON")

	// ErrSchemaValidation is matched by every *SchemaError.
	ErrSchemaValidation = errors.New("schema validation failed")
)

// FieldError describes one field of the model reply that failed validation.
type FieldError struct {
	Field   string
	Message string
}

// SchemaError collects every field problem found in a single reply.
type SchemaError struct {
	Fields []FieldError
}

func (e *SchemaError) Error() string {
	noun := "errors"
	if len(e.Fields) == 1 {
		noun = "error"
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}

	return fmt.Sprintf("%d validation %s for ParsedCommand: %s", len(e.Fields), noun, strings.Join(parts, "; "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaValidation
}

func (e *SchemaError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// ParseLLMResponse parses the raw completion text and validates it against the
// ParsedCommand schema. Unknown fields are ignored. The valid_command/action
// consistency rule is left to the model and is not checked here.
func ParseLLMResponse(content string) (*models.ParsedCommand, error) {
	if !json.Valid([]byte(content)) {
		return nil, ErrInvalidJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, &SchemaError{Fields: []FieldError{{Field: "(root)", Message: "input should be a JSON object"}}}
	}

	schemaErr := &SchemaError{}
	parsed := &models.ParsedCommand{}

	if action, ok := requiredString(fields, "action", schemaErr); ok {
		if models.IsKnownAction(action) {
			parsed.Action = action
		} else {
			schemaErr.add("action", fmt.Sprintf("input should be one of %s", strings.Join(models.Actions, ", ")))
		}
	}

	if raw, ok := present(fields, "valid_command"); !ok {
		schemaErr.add("valid_command", "field required")
	} else if err := json.Unmarshal(raw, &parsed.ValidCommand); err != nil {
		schemaErr.add("valid_command", "input should be a valid boolean")
	}

	parsed.Quantity = optionalQuantity(fields, schemaErr)
	parsed.ItemID = optionalString(fields, "item_id", schemaErr)
	parsed.Source = optionalString(fields, "source", schemaErr)
	parsed.Destination = optionalString(fields, "destination", schemaErr)

	if len(schemaErr.Fields) > 0 {
		return nil, schemaErr
	}

	return parsed, nil
}

// present returns the raw value of key when it exists and is not null.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil, false
	}
	return raw, true
}

func requiredString(fields map[string]json.RawMessage, key string, schemaErr *SchemaError) (string, bool) {
	raw, ok := present(fields, key)
	if !ok {
		schemaErr.add(key, "field required")
		return "", false
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		schemaErr.add(key, "input should be a valid string")
		return "", false
	}
	return value, true
}

func optionalString(fields map[string]json.RawMessage, key string, schemaErr *SchemaError) *string {
	raw, ok := present(fields, key)
	if !ok {
		return nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		schemaErr.add(key, "input should be a valid string")
		return nil
	}
	return &value
}

// optionalQuantity accepts integral JSON numbers such as 3 or 3.0 within int64 range.
func optionalQuantity(fields map[string]json.RawMessage, schemaErr *SchemaError) *int {
	raw, ok := present(fields, "quantity")
	if !ok {
		return nil
	}

	var value int
	if err := json.Unmarshal(raw, &value); err != nil {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			schemaErr.add("quantity", "input should be a valid integer")
			return nil
		}
		value = int(f)
	}

	if value < 0 {
		schemaErr.add("quantity", "input should be greater than or equal to 0")
		return nil
	}
	return &value
}
