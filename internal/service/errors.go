package service

import (
	"errors"
	"fmt"
	"strings"

	"cafe-inventory/pkg/validator"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("no such record")
	ErrConflict = errors.New("record already exists")
	ErrStorage  = errors.New("storage unavailable")
)

// FieldError is a single failed input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// validate runs the struct tags and converts failures into a ValidationError.
func validate(req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}

	verr := &ValidationError{Fields: make([]FieldError, len(errs))}
	for i, e := range errs {
		verr.Fields[i] = FieldError{Field: e.FailedField, Message: e.Message()}
	}
	return verr
}

// storageErr maps gorm errors onto the service error kinds.
func storageErr(op string, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrStorage):
		return err
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
	}
}
