package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrDuplicate помечает нарушение уникальности (имя автора, username).
var ErrDuplicate = errors.New("duplicate key")

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError is returned by every store when a save is rejected.
// It aggregates all field errors of one entity.
type ValidationError struct {
	Entity string
	errs   *multierror.Error
}

func (e *ValidationError) Error() string {
	if e.errs == nil || len(e.errs.Errors) == 0 {
		return e.Entity + " validation failed"
	}
	return e.Entity + " validation failed: " + e.errs.Error()
}

func (e *ValidationError) Unwrap() error {
	if e.errs == nil {
		return nil
	}
	return e.errs.Unwrap()
}

// Fields returns the rejected fields in the order they were found.
func (e *ValidationError) Fields() []*FieldError {
	if e.errs == nil {
		return nil
	}
	fields := make([]*FieldError, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			fields = append(fields, fe)
		}
	}
	return fields
}

// validator собирает ошибки полей одной сущности
type validator struct {
	entity string
	errs   *multierror.Error
}

func newValidator(entity string) *validator {
	return &validator{entity: entity}
}

func (v *validator) add(field, message string, cause error) {
	v.errs = multierror.Append(v.errs, &FieldError{Field: field, Message: message, Err: cause})
}

func (v *validator) required(field, value string) {
	if value == "" {
		v.add(field, fmt.Sprintf("Path `%s` is required.", field), nil)
	}
}

func (v *validator) result() error {
	if v.errs == nil {
		return nil
	}
	v.errs.ErrorFormat = joinFieldErrors
	return &ValidationError{Entity: v.entity, errs: v.errs}
}

func joinFieldErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, ", ")
}

// NewDuplicateError builds the ValidationError a store returns on a unique index violation.
func NewDuplicateError(entity, field, value string) error {
	v := newValidator(entity)
	v.add(field, fmt.Sprintf("Error, expected `%s` to be unique. Value: `%s`", field, value), ErrDuplicate)
	return v.result()
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks required fields of a book.
func (b *Book) Validate() error {
	v := newValidator("Book")
	v.required("title", b.Title)
	v.required("author", b.AuthorID)
	if b.Genres == nil {
		v.add("genres", "Path `genres` is required.", nil)
	}
	return v.result()
}

// Validate checks required fields of an author.
func (a *Author) Validate() error {
	v := newValidator("Author")
	v.required("name", a.Name)
	return v.result()
}

// Validate checks the username length and required fields of a user.
func (u *User) Validate() error {
	v := newValidator("User")
	switch {
	case u.Username == "":
		v.required("username", u.Username)
	case len([]rune(u.Username)) < MinUsernameLength:
		v.add("username", fmt.Sprintf(
			"Path `username` (`%s`) is shorter than the minimum allowed length (%d).",
			u.Username, MinUsernameLength), nil)
	}
	v.required("favoriteGenre", u.FavoriteGenre)
	return v.result()
}
