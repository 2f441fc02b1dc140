package service

import (
	"errors"
	"fmt"

	"go-catalog-api/pkg/validator"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrValidation         = errors.New("validation failed")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// NotFoundError reports a missing entity. errors.Is(err, ErrNotFound) matches it.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidReferenceError reports a field whose value does not resolve to an
// existing entity. errors.Is(err, ErrInvalidReference) matches it.
type InvalidReferenceError struct {
	Field string
	Value string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference in %s: %s", e.Field, e.Value)
}

func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

func notFound(entity string, id fmt.Stringer) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// translateNotFound turns gorm.ErrRecordNotFound into a NotFoundError and
// passes every other error through.
func translateNotFound(err error, entity string, id fmt.Stringer) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	return err
}

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrValidation, first.FailedField, first.Tag)
	}
	return nil
}
