package services

import (
	"errors"

	"amparo/internal/database"
	"amparo/internal/validation"
)

var (
	ErrPasswordMismatch   = errors.New("new password and confirmation differ")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrEmailTaken         = errors.New("email already in use")
	ErrRoleNotAllowed     = errors.New("role not allowed")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
)

// ValidationError reports input that breaks a field rule. Message is shown to the user.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// validate runs the struct rules and converts failures to *ValidationError.
func validate(in interface{}) error {
	err := validation.ValidateStruct(in)
	if err == nil {
		return nil
	}
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		return &ValidationError{Message: verr.First(), Err: err}
	}
	return err
}

// storeErr maps store sentinels onto service errors and passes everything else through.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, database.ErrDuplicate):
		return ErrEmailTaken
	default:
		return err
	}
}
