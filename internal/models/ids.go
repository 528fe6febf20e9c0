package models

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks that id is a non-empty printable token of at most 64 bytes.
func ValidateID(field, id string) error {
	if strings.TrimSpace(id) != id {
		return NewInvalidOperationError(field + " must not contain surrounding whitespace")
	}
	if err := validatorInstance().Var(id, "required,max=64,printascii"); err != nil {
		return NewInvalidOperationError("invalid " + field)
	}
	return nil
}

// ValidateStruct runs the struct-tag validation rules on v.
func ValidateStruct(v interface{}) error {
	if err := validatorInstance().Struct(v); err != nil {
		return NewValidationError(err.Error())
	}
	return nil
}
