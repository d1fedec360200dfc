package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"grisera/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the struct tags of in. Failures come back as a
// *domain.ValidationError keyed by JSON field path.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalid("%v", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = message(fe)
	}
	return &domain.ValidationError{Message: "invalid input", Fields: fields}
}

// fieldPath drops the top-level type and embedded struct names from a
// validator namespace
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	kept := parts[:0]
	for _, p := range parts[1:] {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
