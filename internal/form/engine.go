package form

import "strings"

// Engine evaluates the descriptor table against a values snapshot.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ValidateFields returns the first failing rule's message for every named
// field that fails. Fields that pass, unknown fields, and empty optional fields
// have no entry.
func (e *Engine) ValidateFields(values Values, fields ...Field) map[Field]string {
	errs := make(map[Field]string)
	for _, f := range fields {
		if msg, ok := e.ValidateField(values, f); !ok {
			errs[f] = msg
		}
	}
	return errs
}

// ValidateField runs f's rules in declaration order and stops at the first failure.
func (e *Engine) ValidateField(values Values, f Field) (string, bool) {
	d, ok := Lookup(f)
	if !ok {
		return "", true
	}

	value := values[f]
	if !d.Required && strings.TrimSpace(value) == "" {
		return "", true
	}

	for _, rule := range d.Rules {
		if msg, ok := rule.Check(value, values); !ok {
			return msg, false
		}
	}
	return "", true
}

// ValidateSection checks the required fields of one section.
func (e *Engine) ValidateSection(values Values, section int) map[Field]string {
	return e.ValidateFields(values, RequiredFields(section)...)
}

// ValidateAll checks the required fields of every section.
func (e *Engine) ValidateAll(values Values) map[Field]string {
	return e.ValidateFields(values, AllRequiredFields()...)
}

// FirstInvalid returns the first field, in the given order, present in errs.
func FirstInvalid(fields []Field, errs map[Field]string) (Field, bool) {
	for _, f := range fields {
		if _, bad := errs[f]; bad {
			return f, true
		}
	}
	return "", false
}
