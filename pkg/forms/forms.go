// Package forms validates request payloads against the site's OpenAPI
// description.
package forms

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var embeddedDocument []byte

// Operation ids described by the embedded document.
const (
	OperationNewsletter = "subscribeNewsletter"
	OperationContact    = "submitContact"
	OperationEvalkit    = "scoreEvalkit"
)

var (
	// ErrUnknownOperation is returned for operation ids without a request
	// schema.
	ErrUnknownOperation = errors.New("forms: unknown operation")
	// ErrInvalidPayload is matched by *ValidationError.
	ErrInvalidPayload = errors.New("forms: invalid payload")
)

// Issue is one validation problem. Field is a dotted path into the payload.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError carries every issue found in a payload.
type ValidationError struct {
	Operation string
	Issues    []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Field == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return fmt.Sprintf("forms: %s: %s", e.Operation, strings.Join(parts, "; "))
}

// Is lets errors.Is match ErrInvalidPayload.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPayload
}

// Validator checks JSON payloads against request body schemas, keyed by
// operation id. It is read-only after construction.
type Validator struct {
	schemas map[string]*openapi3.Schema
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns the validator built from the embedded document.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator(context.Background(), embeddedDocument)
	})
	return defaultValidator, defaultErr
}

// Document returns the embedded OpenAPI document.
func Document() []byte {
	out := make([]byte, len(embeddedDocument))
	copy(out, embeddedDocument)
	return out
}

// NewValidator loads and validates an OpenAPI document and indexes the JSON
// request body schema of every operation.
func NewValidator(ctx context.Context, raw []byte) (*Validator, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("forms: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("forms: validate document: %w", err)
	}

	v := &Validator{schemas: make(map[string]*openapi3.Schema)}
	if doc.Paths == nil {
		return v, nil
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
				continue
			}
			mt := op.RequestBody.Value.Content.Get("application/json")
			if mt == nil || mt.Schema == nil || mt.Schema.Value == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			v.schemas[id] = mt.Schema.Value
		}
	}
	return v, nil
}

// Operations lists the operation ids that have a request schema.
func (v *Validator) Operations() []string {
	out := make([]string, 0, len(v.schemas))
	for id := range v.schemas {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Validate checks payload, a value decoded from JSON (maps, slices, float64,
// string, bool), against the request schema of operationID. All issues are
// reported in a *ValidationError.
func (v *Validator) Validate(ctx context.Context, operationID string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	schema, ok := v.schemas[operationID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, operationID)
	}

	known, issues := splitUnknown(schema, payload, nil)
	if err := schema.VisitJSON(known, openapi3.MultiErrors()); err != nil {
		issues = append(issues, issuesFrom(err)...)
	}
	if len(issues) == 0 {
		return nil
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return &ValidationError{Operation: operationID, Issues: issues}
}

// splitUnknown copies value without the properties that closed object schemas
// (additionalProperties: false) do not declare, reporting each one under its
// own field path. kin-openapi reports these against the parent object, which
// loses the property name.
func splitUnknown(schema *openapi3.Schema, value any, path []string) (any, []Issue) {
	if schema == nil {
		return value, nil
	}
	switch v := value.(type) {
	case map[string]any:
		closed := schema.AdditionalProperties.Has != nil && !*schema.AdditionalProperties.Has
		out := make(map[string]any, len(v))
		var issues []Issue
		for key, item := range v {
			field := append(append([]string(nil), path...), key)
			var child *openapi3.Schema
			if ref, ok := schema.Properties[key]; ok && ref != nil {
				child = ref.Value
			} else if closed {
				issues = append(issues, Issue{
					Field:   strings.Join(field, "."),
					Message: fmt.Sprintf("property %q is unsupported", key),
				})
				continue
			} else if ref := schema.AdditionalProperties.Schema; ref != nil {
				child = ref.Value
			}
			cleaned, nested := splitUnknown(child, item, field)
			out[key] = cleaned
			issues = append(issues, nested...)
		}
		return out, issues
	case []any:
		if schema.Items == nil {
			return v, nil
		}
		out := make([]any, len(v))
		var issues []Issue
		for idx, item := range v {
			cleaned, nested := splitUnknown(schema.Items.Value, item, append(append([]string(nil), path...), fmt.Sprint(idx)))
			out[idx] = cleaned
			issues = append(issues, nested...)
		}
		return out, issues
	default:
		return value, nil
	}
}

func issuesFrom(err error) []Issue {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []Issue
		for _, item := range multi {
			out = append(out, issuesFrom(item)...)
		}
		return out
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return []Issue{{
			Field:   strings.Join(schemaErr.JSONPointer(), "."),
			Message: strings.TrimSpace(schemaErr.Reason),
		}}
	}
	return []Issue{{Message: strings.TrimSpace(err.Error())}}
}

// Fields returns the issues as a field -> messages map, convenient for
// JSON error responses.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(e.Issues))
	for _, issue := range e.Issues {
		key := issue.Field
		if key == "" {
			key = "_"
		}
		out[key] = append(out[key], issue.Message)
	}
	return out
}
