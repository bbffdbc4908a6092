// Package validate registers the custom binding rules and turns validator
// failures into per-field messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	once    sync.Once
)

// Register installs the rules on gin's validator. It is safe to call more
// than once and panics if a rule cannot be installed.
func Register() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		rules := map[string]validator.Func{
			"phone": func(fl validator.FieldLevel) bool {
				return phoneRe.MatchString(fl.Field().String())
			},
			"personname": func(fl validator.FieldLevel) bool {
				return nameRe.MatchString(strings.TrimSpace(fl.Field().String()))
			},
			"strongpassword": func(fl validator.FieldLevel) bool {
				return StrongPassword(fl.Field().String())
			},
		}
		if err := install(v, rules); err != nil {
			panic(err)
		}
	})
}

func install(v *validator.Validate, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("validate: register %q: %w", tag, err)
		}
	}
	return nil
}

// Struct runs the binding rules on v outside a request, as the CLI does.
func Struct(v any) error {
	Register()
	return binding.Validator.ValidateStruct(v)
}

// StrongPassword requires six or more characters with a lower case letter,
// an upper case letter and a digit.
func StrongPassword(s string) bool {
	if len(s) < 6 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Fields maps validator errors to field messages. ok is false when err is
// not a validation failure.
func Fields(err error) (fields map[string]string, ok bool) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, false
	}
	fields = make(map[string]string, len(ve))
	for _, fe := range ve {
		key := fieldKey(fe)
		if _, seen := fields[key]; !seen {
			fields[key] = message(fe)
		}
	}
	return fields, true
}

// fieldKey drops the top-level struct name from the namespace.
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return "Please provide a valid email"
	case "phone":
		return "Please provide a valid phone number"
	case "personname":
		return "Name can only contain letters and spaces"
	case "strongpassword":
		return "Password must be at least 6 characters and contain at least one lowercase letter, one uppercase letter, and one number"
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return f + " must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	}
	return f + " is invalid"
}
