package user

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9-]+(?:\\.[a-zA-Z0-9-]+)*$")

func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// ValidationError 携带全部失败原因；对外统一折叠为 "incorrect form"
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid user payload: " + strings.Join(e.Reasons, "; ")
}

type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	if err := v.RegisterValidation("useremail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

// ValidateCreate 先做类型抽取，再走 struct tag 校验
func (val *Validator) ValidateCreate(payload map[string]any) (CreateInput, error) {
	var (
		in      CreateInput
		reasons []string
	)

	in.Email, reasons = stringField(payload, "email", reasons)
	in.Password, reasons = stringField(payload, "password", reasons)

	switch name := payload["name"].(type) {
	case map[string]any:
		in.FirstName, reasons = stringField(name, "firstName", reasons)
		in.LastName, reasons = stringField(name, "lastName", reasons)
	case nil:
		reasons = append(reasons, "name is required")
	default:
		reasons = append(reasons, "name must be an object")
	}

	if err := val.v.Struct(in); err != nil {
		if ves, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ves {
				reasons = appendUnique(reasons, describe(fe))
			}
		} else {
			reasons = append(reasons, err.Error())
		}
	}

	if len(reasons) > 0 {
		return CreateInput{}, &ValidationError{Reasons: reasons}
	}
	return in, nil
}

func stringField(m map[string]any, key string, reasons []string) (string, []string) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", reasons
	}
	s, ok := raw.(string)
	if !ok {
		return "", append(reasons, fmt.Sprintf("%s must be a string", key))
	}
	return s, reasons
}

func describe(fe validator.FieldError) string {
	field := jsonName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "useremail":
		return field + " is malformed"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func jsonName(field string) string {
	switch field {
	case "FirstName":
		return "firstName"
	case "LastName":
		return "lastName"
	default:
		return strings.ToLower(field)
	}
}

func appendUnique(xs []string, s string) []string {
	for _, x := range xs {
		if x == s {
			return xs
		}
	}
	return append(xs, s)
}
