package form

import (
	"errors"
	"fmt"
)

var ErrUnknownField = errors.New("unknown form field")

// FieldState tracks where a field's error, if any, came from.
//
//	edit            any         -> Untouched (both slots cleared)
//	validate ok     Untouched,
//	                LocalError,
//	                Valid       -> Valid
//	validate fail   Untouched,
//	                LocalError,
//	                Valid       -> LocalError
//	validate *      RemoteError -> RemoteError
//	remote error    any         -> RemoteError
//	clear           *Error      -> Untouched
type FieldState int

const (
	Untouched FieldState = iota
	LocalError
	RemoteError
	Valid
)

func (s FieldState) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case LocalError:
		return "local_error"
	case RemoteError:
		return "remote_error"
	case Valid:
		return "valid"
	}
	return fmt.Sprintf("FieldState(%d)", int(s))
}

type fieldEntry struct {
	value  string
	state  FieldState
	local  string
	remote string
}

// State holds the form's values and per-field error slots. It is owned by a
// single UI goroutine and is not safe for concurrent use.
type State struct {
	entries map[Field]*fieldEntry
}

func NewState() *State {
	s := &State{entries: make(map[Field]*fieldEntry, len(descriptors)+2)}
	for _, d := range descriptors {
		s.entries[d.Field] = &fieldEntry{}
	}
	return s
}

func (s *State) entry(f Field) *fieldEntry {
	e, ok := s.entries[f]
	if !ok {
		e = &fieldEntry{}
		s.entries[f] = e
	}
	return e
}

// SetField stores value and clears both error slots of f.
func (s *State) SetField(f Field, value string) error {
	if !f.Known() {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	e := s.entry(f)
	e.value = value
	e.state = Untouched
	e.local = ""
	e.remote = ""
	return nil
}

// Input is SetField behind the keystroke filter of numeric inputs.
func (s *State) Input(f Field, raw string) error {
	if d, ok := Lookup(f); ok && d.NumericInput {
		raw = FilterNumeric(raw)
	}
	return s.SetField(f, raw)
}

func (s *State) Value(f Field) string {
	if e, ok := s.entries[f]; ok {
		return e.value
	}
	return ""
}

// Values returns a copy of every text field's value.
func (s *State) Values() Values {
	out := make(Values, len(descriptors))
	for _, d := range descriptors {
		out[d.Field] = s.entries[d.Field].value
	}
	return out
}

func (s *State) FieldState(f Field) FieldState {
	if e, ok := s.entries[f]; ok {
		return e.state
	}
	return Untouched
}

// ApplyValidation records the outcome of validating fields; errs holds the
// failures among them.
func (s *State) ApplyValidation(fields []Field, errs map[Field]string) {
	for _, f := range fields {
		e := s.entry(f)
		if e.state == RemoteError {
			continue
		}
		if msg, bad := errs[f]; bad {
			e.state = LocalError
			e.local = msg
			continue
		}
		e.state = Valid
		e.local = ""
	}
}

// SetLocalError marks f as failing a client-side check outside the rule table,
// such as a missing attachment.
func (s *State) SetLocalError(f Field, msg string) {
	e := s.entry(f)
	if e.state == RemoteError {
		return
	}
	e.state = LocalError
	e.local = msg
}

// ApplyRemote stores server-reported messages. They win over local errors
// until the field is edited again.
func (s *State) ApplyRemote(errs map[Field]string) {
	for f, msg := range errs {
		e := s.entry(f)
		e.state = RemoteError
		e.remote = msg
	}
}

// ClearField drops the errors of f without touching its value.
func (s *State) ClearField(f Field) {
	e, ok := s.entries[f]
	if !ok {
		return
	}
	if e.state == LocalError || e.state == RemoteError {
		e.state = Untouched
	}
	e.local = ""
	e.remote = ""
}

// ClearErrors resets every errored field to Untouched.
func (s *State) ClearErrors() {
	for f := range s.entries {
		s.ClearField(f)
	}
}

// Error returns the message shown for f: the remote one if present, else the local one.
func (s *State) Error(f Field) (string, bool) {
	e, ok := s.entries[f]
	if !ok {
		return "", false
	}
	switch e.state {
	case RemoteError:
		return e.remote, true
	case LocalError:
		return e.local, true
	}
	return "", false
}

// RemoteMessage returns only the remote slot of f.
func (s *State) RemoteMessage(f Field) (string, bool) {
	e, ok := s.entries[f]
	if !ok || e.state != RemoteError {
		return "", false
	}
	return e.remote, true
}

// Errors returns the effective message of every errored field.
func (s *State) Errors() map[Field]string {
	out := make(map[Field]string)
	for f := range s.entries {
		if msg, ok := s.Error(f); ok {
			out[f] = msg
		}
	}
	return out
}

func (s *State) HasErrors() bool {
	for f := range s.entries {
		if _, ok := s.Error(f); ok {
			return true
		}
	}
	return false
}
