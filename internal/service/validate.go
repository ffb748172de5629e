package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRejected is returned when the backend refuses a request as invalid,
	// e.g. a duplicate email on register.
	ErrRejected = errors.New("rejected")
)

// ValidationError lists field problems found before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Normalize trims the title and description and defaults the status to TODO.
func (in TaskInput) Normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = StatusTodo
	}
	return in
}

// Validate checks the input after normalization.
func (in TaskInput) Validate() error {
	return structErrors(validatorInstance().Struct(in.Normalize()))
}

// Validate checks that the email is well-formed and a password is present.
func (c Credentials) Validate() error {
	c.Email = strings.TrimSpace(c.Email)
	return structErrors(validatorInstance().Struct(c))
}

func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "email":
		return "email is not valid"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", name)
}
