package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	return v
}

// violationMessages maps "<field>.<tag>" to the message reported to callers.
var violationMessages = map[string]string{
	"name.notblank":   "Name cannot be blank",
	"salary.required": "Salary cannot be null",
	"salary.min":      "Salary must be greater than zero",
	"age.required":    "Age cannot be null",
	"age.min":         "Age must be at least 16",
	"age.max":         "Age cannot be more than 75",
	"title.notblank":  "Title cannot be blank",
	"email.notblank":  "Email cannot be blank",
	"email.email":     "Email should be valid",
}

// ValidateCreateInput checks in against the creation constraints and returns
// every violation at once, in field declaration order. A nil result means the
// input is valid.
func ValidateCreateInput(in EmployeeCreateInput) []FieldViolation {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []FieldViolation{{Field: "input", Message: err.Error()}}
	}

	violations := make([]FieldViolation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, FieldViolation{
			Field:   fe.Field(),
			Message: violationMessage(fe),
		})
	}
	return violations
}

// NewValidationError returns a *ValidationError for in, or nil if in is valid.
func NewValidationError(in EmployeeCreateInput) error {
	if violations := ValidateCreateInput(in); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func violationMessage(fe validator.FieldError) string {
	if msg, ok := violationMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s failed the %q check", fe.Field(), fe.Tag())
}
