// Package validation checks configuration structs against their validate tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// stride is the detector's downsampling factor; input sizes must divide by it.
const stride = 32

// Validator wraps a go-playground validator configured with yaml field names
// and the stride32 rule.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator ready for the types in pkg/types.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("stride32", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%stride == 0
	})

	return &Validator{v: v}
}

// Fields validates s and returns field name to message, or nil when s is valid.
func (va *Validator) Fields(s any) map[string]string {
	err := va.v.Struct(s)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return map[string]string{"": err.Error()}
	}

	errMap := make(map[string]string, len(valErrs))
	for _, e := range valErrs {
		errMap[e.Field()] = message(e)
	}
	return errMap
}

// Struct validates s and folds all field messages into one error.
func (va *Validator) Struct(s any) error {
	fields := va.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(fields))
	for _, m := range fields {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", e.Field(), e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", e.Field())
	case "stride32":
		return fmt.Sprintf("%s must be a multiple of %d, got %v", e.Field(), stride, e.Value())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
