package college

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phoneRE = regexp.MustCompile(`^\+?[0-9][0-9 \-]{8,14}[0-9]$`)
	ifscRE  = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

// formatRule runs a validator tag chain over one field. Only the first
// failing tag is reported.
type formatRule struct {
	field string
	label string
	tags  string
}

var formatRules = []formatRule{
	{"establishedYear", "Established Year", "number,len=4"},
	{"email", "Email", "email"},
	{"phone", "Phone", "phone"},
	{"representativePhone", "Representative Phone", "phone"},
	{"representativeEmail", "Representative Email", "email"},
	{"collegeWebsite", "College Website", "omitempty,url"},
	{"departments", "Departments", "omitempty,number"},
	{"totalStudents", "Total Students", "omitempty,number"},
	{"batchesPassedOut", "Batches Passed Out", "omitempty,number"},
	{"passPercentage", "Pass %", "omitempty,number"},
	{"coordinatorPhone", "Coordinator Phone", "phone"},
	{"coordinatorEmail", "Coordinator Email", "email"},
	{"accountNumber", "Account Number", "number,min=8"},
	{"ifscCode", "IFSC Code", "len=11,ifsc"},
}

// messages overrides the generic per-tag message for a field.
var messages = map[string]string{
	"establishedYear.len": "Established year must be 4 digits",
	"accountNumber.min":   "Account number must be at least 8 digits",
	"ifscCode.len":        "IFSC code must be 11 characters",
}

// NewValidator returns a validator with the registry's custom tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRE.MatchString(fl.Field().String())
	})
	v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return ifscRE.MatchString(fl.Field().String())
	})
	return v
}

// checkFormats returns a message per field whose value breaks its rule.
func checkFormats(v *validator.Validate, fields map[string]string) map[string]string {
	out := make(map[string]string)
	for _, rule := range formatRules {
		value := strings.TrimSpace(fields[rule.field])
		err := v.Var(value, rule.tags)
		if err == nil {
			continue
		}
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) || len(errs) == 0 {
			out[rule.field] = "Invalid value"
			continue
		}
		out[rule.field] = formatMessage(rule, errs[0])
	}
	return out
}

func formatMessage(rule formatRule, fe validator.FieldError) string {
	if msg, ok := messages[rule.field+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "number":
		return fmt.Sprintf("The %s field must contain only numbers.", rule.label)
	case "email":
		return "Valid email is required"
	case "phone":
		return "Enter a valid phone number"
	case "url":
		return "Enter a valid website URL"
	case "ifsc":
		return "Invalid IFSC Code format."
	case "len":
		return fmt.Sprintf("%s must be %s characters", rule.label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", rule.label, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", rule.label)
}
