// internal/common/validation/schema.go
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"grant-engine/pkg/registry"
)

var (
	ErrInvalidInput    = errors.New("input does not match schema")
	ErrUnknownTaskType = errors.New("no schema registered for task type")
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// InputError carries the failed checks of a rejected job input.
type InputError struct {
	TaskType string
	Result   *ValidationResult
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.TaskType, strings.Join(e.Result.GetErrorMessages(), "; "))
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Validator holds the compiled input schema of every registered activity.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(reg.Activities))}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = schema
	}
	return v, nil
}

// ValidateJobInput checks decoded job variables against the task's schema.
func (v *Validator) ValidateJobInput(taskType string, input map[string]interface{}) error {
	schema, ok := v.schemas[taskType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return fmt.Errorf("validate %s input: %w", taskType, err)
	}
	if vr := toResult(result); !vr.Valid {
		return &InputError{TaskType: taskType, Result: vr}
	}
	return nil
}

// ValidateInput validates input against a schema given as a decoded JSON document.
func ValidateInput(input map[string]interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	vr := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return vr
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}
