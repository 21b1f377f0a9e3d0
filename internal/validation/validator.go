// Package validation provides struct validation using go-playground/validator v10.
//
// Inputs are validated through a singleton validator that carries the custom
// "password" rule: at least 6 characters, at most 72 bytes (the bcrypt input
// limit) and at least one digit. Failures are reported as a
// *RequestValidationError whose messages are ready to show to end users.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinLength = 6
	PasswordMaxBytes  = 72
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// RequestValidationError collects every failed rule of one struct.
type RequestValidationError struct {
	Fields []FieldError
}

func (e *RequestValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// First returns the message of the first failed rule.
func (e *RequestValidationError) First() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Errors report the label tag so messages match the form fields users see.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if label := fld.Tag.Get("label"); label != "" {
				return label
			}
			return fld.Name
		})
		if err := validate.RegisterValidation("password", validatePassword); err != nil {
			panic(fmt.Sprintf("register password validator: %v", err))
		}
	})
	return validate
}

func validatePassword(fl validator.FieldLevel) bool {
	return PasswordAcceptable(fl.Field().String())
}

// PasswordAcceptable reports whether password satisfies the password policy.
func PasswordAcceptable(password string) bool {
	if len([]rune(password)) < PasswordMinLength || len(password) > PasswordMaxBytes {
		return false
	}
	for _, r := range password {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// ValidateStruct validates s and returns a *RequestValidationError on failure.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &RequestValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório", fe.Field())
	case "email":
		return "Informe um email válido"
	case "max":
		return fmt.Sprintf("O campo %s deve ter no máximo %s caracteres", fe.Field(), fe.Param())
	case "password":
		return fmt.Sprintf("A senha deve ter pelo menos %d caracteres e conter ao menos um número", PasswordMinLength)
	default:
		return fmt.Sprintf("Valor inválido para %s", fe.Field())
	}
}
