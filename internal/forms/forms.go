// Package forms validates user input before it is sent to the API.
//
// A request that fails validation must never reach the network, so every
// client-side entry point runs its input through one of the functions here
// and stops on a non-nil error.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

const (
	MinNameLength     = 3
	MinPasswordLength = 6
	MinTitleLength    = 3
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors maps a json field name to a human readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range e.Fields() {
		parts = append(parts, field+": "+e[field])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Fields returns the names of the invalid fields in a stable order.
func (e FieldErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

var messages = map[string]string{
	"name.min":                "name must be at least 3 characters",
	"email.required":          "email is required",
	"email.email":             "invalid email",
	"password.required":       "password is required",
	"password.min":            "password must be at least 6 characters",
	"confirmPassword.eqfield": "passwords do not match",
	"role.oneof":              "select a role",
	"title.min":               "title must be at least 3 characters",
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	fieldErrs := make(FieldErrors, len(validationErrs))
	for _, fe := range validationErrs {
		if _, exists := fieldErrs[fe.Field()]; exists {
			continue
		}
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		fieldErrs[fe.Field()] = msg
	}
	return fieldErrs
}

func ValidateSignUp(req models.SignUpRequest) error {
	return check(req)
}

func ValidateLogin(req models.LoginRequest) error {
	return check(req)
}

// NormalizeCreateTask trims the input and validates it. An empty
// description is dropped from the request.
func NormalizeCreateTask(req models.CreateTaskRequest) (models.CreateTaskRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = trimOptional(req.Description, true)
	return req, check(req)
}

// NormalizeUpdateTask trims the provided fields and validates them. An
// empty description is kept so that it clears the stored one.
func NormalizeUpdateTask(req models.UpdateTaskRequest) (models.UpdateTaskRequest, error) {
	req.Title = trimOptional(req.Title, false)
	req.Description = trimOptional(req.Description, false)
	return req, check(req)
}

func trimOptional(s *string, dropEmpty bool) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" && dropEmpty {
		return nil
	}
	return &trimmed
}
