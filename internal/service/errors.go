package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rashmi7205/admin-fam-tree/internal/integrity"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
)

// ValidationError is a bad request. Missing lists absent required fields.
type ValidationError struct {
	Message string
	Missing []string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// requireFields returns a ValidationError naming every empty field, in order.
func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{
		Message: "Missing required fields: " + strings.Join(missing, ", "),
		Missing: missing,
	}
}

type field struct {
	name    string
	present bool
}

func text(name, v string) field     { return field{name, strings.TrimSpace(v) != ""} }
func ref(name string, v uint) field { return field{name, v != 0} }

// NotFoundError wraps ErrNotFound with the message shown to the client
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(msg string) error { return &NotFoundError{Message: msg} }

// DuplicateError reports a unique key collision
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }

// uniqueViolation reports a write rejected by a unique index as a
// DuplicateError with msg.
func uniqueViolation(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateError{Message: msg}
	}
	return err
}

// DependencyError blocks a delete while other records still reference it
type DependencyError struct {
	Message      string
	Dependencies []integrity.Dependency
}

func (e *DependencyError) Error() string { return e.Message }

// ExternalError is a failure of the identity provider, mailer or storage
type ExternalError struct {
	Message string
	Err     error
}

func (e *ExternalError) Error() string { return e.Message + ": " + e.Err.Error() }
func (e *ExternalError) Unwrap() error { return e.Err }
