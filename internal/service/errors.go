package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrActivityNotFound indicates the activity does not exist for the requested kind.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrSubjectNotFound indicates the subject is unknown to the directory.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrStudentNotFound indicates the student is unknown to the directory.
	ErrStudentNotFound = errors.New("student not found")
	// ErrUserNotFound indicates the user is unknown to the directory.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadySubmitted indicates the student already has an attempt for the activity.
	ErrAlreadySubmitted = errors.New("activity already submitted")
	// ErrStorage wraps persistence failures. Callers may retry.
	ErrStorage = errors.New("storage unavailable")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// FieldProblem describes one invalid input field.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in a payload.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}

	parts := make([]string, 0, len(e.Problems))
	for _, problem := range e.Problems {
		parts = append(parts, problem.Field+" "+problem.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a problem for field.
func (e *ValidationError) Add(field, message string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: message})
}

// Has reports whether field already has a problem.
func (e *ValidationError) Has(field string) bool {
	for _, problem := range e.Problems {
		if problem.Field == field {
			return true
		}
	}
	return false
}

// Merge absorbs the output of validator.Struct. Other errors are returned unchanged.
func (e *ValidationError) Merge(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	for _, fieldErr := range fieldErrors {
		e.Add(fieldPath(fieldErr.Namespace()), describeTag(fieldErr))
	}
	return nil
}

// Err returns e when it holds problems and nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// NewValidator builds a validator reporting fields by their JSON names, or query names for filters.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	return validate
}

func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func describeTag(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		if fieldErr.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fieldErr.Param())
		}
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fieldErr.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fieldErr.Param())
	case "datetime":
		return fmt.Sprintf("must match the format %s", fieldErr.Param())
	default:
		return fmt.Sprintf("failed %s validation", fieldErr.Tag())
	}
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
