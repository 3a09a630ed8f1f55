package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed ranking_payload.schema.json
var rankingPayloadSchema string

//go:embed previous_payload.schema.json
var previousPayloadSchema string

var payloadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(rankingPayloadSchema))
})

var previousSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(previousPayloadSchema))
})

// PayloadFieldError is a single payload schema violation at a specific field.
type PayloadFieldError struct {
	Field   string
	Message string
}

// PayloadValidationError lists every payload schema violation.
type PayloadValidationError struct {
	Errors []PayloadFieldError
}

func (e *PayloadValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("ranking payload failed schema validation:")
	for _, fe := range e.Errors {
		fmt.Fprintf(&sb, " %s: %s;", fe.Field, fe.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// ValidatePayloadJSON checks raw payload JSON against the embedded ranking payload schema.
func ValidatePayloadJSON(data []byte) error {
	return validateAgainst(payloadSchema, data)
}

// ValidatePreviousPayloadJSON checks a movement baseline. Only period, algorithm_version
// and each entry's tool_id and rank are required.
func ValidatePreviousPayloadJSON(data []byte) error {
	return validateAgainst(previousSchema, data)
}

func validateAgainst(load func() (*gojsonschema.Schema, error), data []byte) error {
	s, err := load()
	if err != nil {
		return fmt.Errorf("failed to load ranking payload schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to read ranking payload: %w", err)
	}
	if result.Valid() {
		return nil
	}
	verr := &PayloadValidationError{Errors: make([]PayloadFieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, PayloadFieldError{Field: field, Message: desc.Description()})
	}
	return verr
}
