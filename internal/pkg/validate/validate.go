package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// v is shared by every caller; validator caches struct metadata per type.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so messages match the request body.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Struct validates s against its validate tags. Each failed field becomes one
// joined error naming the field and the rule it broke.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	errs := make([]error, 0, len(ve))
	for _, fe := range ve {
		errs = append(errs, fmt.Errorf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return errors.Join(errs...)
}

// Email reports whether addr is a syntactically valid e-mail address.
func Email(addr string) error {
	if err := v.Var(addr, "required,email"); err != nil {
		return fmt.Errorf("invalid email address %q", addr)
	}
	return nil
}
