package todo

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // dot path to the offending value, e.g. "[2].text"
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks each task's fields and that ids are unique.
// All problems are joined into the returned error.
func (l List) Validate() error {
	var errs []error
	seen := make(map[int64]int, len(l))
	for i, t := range l {
		path := fmt.Sprintf("[%d]", i)
		if err := validateTask(t, path); err != nil {
			errs = append(errs, err)
		}
		if strings.TrimSpace(t.Text) == "" && t.Text != "" {
			errs = append(errs, &ValidationError{Path: path + ".text", Err: errors.New("blank text")})
		}
		if !utf8.ValidString(t.Text) {
			errs = append(errs, &ValidationError{Path: path + ".text", Err: errors.New("invalid UTF-8")})
		}
		if prev, dup := seen[t.ID]; dup {
			errs = append(errs, &ValidationError{
				Path: path + ".id",
				Err:  fmt.Errorf("duplicate id %d (also at [%d])", t.ID, prev),
			})
			continue
		}
		seen[t.ID] = i
	}
	return errors.Join(errs...)
}

func validateTask(t Task, path string) error {
	err := structValidator().Struct(t)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Path: path, Err: err}
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &ValidationError{
			Path: path + "." + jsonFieldName(fe.Field()),
			Err:  fmt.Errorf("failed %q check", fe.Tag()),
		})
	}
	return errors.Join(errs...)
}

// jsonFieldName maps a Task field name to its wire name.
func jsonFieldName(field string) string {
	switch field {
	case "ID":
		return "id"
	case "Text":
		return "text"
	case "Completed":
		return "completed"
	case "CreatedAt":
		return "createdAt"
	default:
		return field
	}
}
