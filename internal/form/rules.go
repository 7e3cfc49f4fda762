package form

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Values is a snapshot of the form's text inputs.
type Values map[Field]string

// Rule checks one constraint on a field value. Cross-field rules read the
// other values from the snapshot.
type Rule interface {
	Check(value string, values Values) (message string, ok bool)
}

// tags is shared by the format rules that delegate to validator tags.
var tags = validator.New()

type requiredRule struct{ msg string }

// Required fails on empty or whitespace-only values.
func Required(msg string) Rule { return requiredRule{msg: msg} }

func (r requiredRule) Check(value string, _ Values) (string, bool) {
	if strings.TrimSpace(value) == "" {
		return r.msg, false
	}
	return "", true
}

type minLengthRule struct {
	n   int
	msg string
}

func MinLength(n int, msg string) Rule { return minLengthRule{n: n, msg: msg} }

func (r minLengthRule) Check(value string, _ Values) (string, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < r.n {
		return r.msg, false
	}
	return "", true
}

type exactLengthRule struct {
	n   int
	msg string
}

func ExactLength(n int, msg string) Rule { return exactLengthRule{n: n, msg: msg} }

func (r exactLengthRule) Check(value string, _ Values) (string, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) != r.n {
		return r.msg, false
	}
	return "", true
}

type patternRule struct {
	re  *regexp.Regexp
	msg string
}

// Pattern panics if expr does not compile; rules are declared at init.
func Pattern(expr, msg string) Rule {
	return patternRule{re: regexp.MustCompile(expr), msg: msg}
}

func (r patternRule) Check(value string, _ Values) (string, bool) {
	if !r.re.MatchString(strings.TrimSpace(value)) {
		return r.msg, false
	}
	return "", true
}

type tagRule struct {
	tag string
	msg string
}

func EmailAddress(msg string) Rule { return tagRule{tag: "email", msg: msg} }

func AbsoluteURL(msg string) Rule { return tagRule{tag: "url", msg: msg} }

// Numeric accepts ASCII digits only.
func Numeric(msg string) Rule { return tagRule{tag: "number", msg: msg} }

func (r tagRule) Check(value string, _ Values) (string, bool) {
	if err := tags.Var(strings.TrimSpace(value), r.tag); err != nil {
		return r.msg, false
	}
	return "", true
}

type equalsFieldRule struct {
	other Field
	msg   string
}

// EqualsField requires the value to match another field exactly.
func EqualsField(other Field, msg string) Rule {
	return equalsFieldRule{other: other, msg: msg}
}

func (r equalsFieldRule) Check(value string, values Values) (string, bool) {
	if value != values[r.other] {
		return r.msg, false
	}
	return "", true
}

// FilterNumeric drops every non-digit rune. It is applied to keystrokes on
// numeric inputs; the Numeric rule stays authoritative.
func FilterNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
