package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
)

const maxJSONBody = 1 << 20

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New()
		// report fields by their JSON names
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return vld
}

// decodeJSON reads a size-capped JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) ValidationResult {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		code, msg := "INVALID_JSON", "request body is not valid JSON"
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			code, msg = "TOO_LARGE", fmt.Sprintf("request body exceeds %d bytes", mbe.Limit)
		case errors.Is(err, io.EOF):
			msg = "request body is empty"
		}
		return ValidationResult{Errors: []ValidationError{{Field: "body", Code: code, Message: msg}}}
	}
	return validateStruct(dst)
}

func validateStruct(v interface{}) ValidationResult {
	err := getValidator().Struct(v)
	if err == nil {
		return ValidationResult{Valid: true}
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ValidationResult{Errors: []ValidationError{{Field: "body", Code: "INVALID", Message: err.Error()}}}
	}
	out := make([]ValidationError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Code:    strings.ToUpper(fe.Tag()),
			Message: validationMessage(fe),
		})
	}
	return ValidationResult{Errors: out}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// asError wraps a failed validation for writeError.
func (v ValidationResult) asError() error {
	if v.Valid {
		return nil
	}
	return fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument)
}

// ValidateReportID checks that id is a UUID.
func ValidateReportID(id string) ValidationResult {
	if id == "" {
		return ValidationResult{Errors: []ValidationError{{Field: "id", Code: "REQUIRED", Message: "report id is required"}}}
	}
	if _, err := uuid.Parse(id); err != nil {
		return ValidationResult{Errors: []ValidationError{{Field: "id", Code: "INVALID_FORMAT", Message: "report id must be a UUID"}}}
	}
	return ValidationResult{Valid: true}
}
