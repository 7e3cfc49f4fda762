package form

// Navigator walks the sections in order. Forward moves are gated on the
// current section's required fields; backward moves are not.
type Navigator struct {
	state   *State
	engine  *Engine
	current int
}

func NewNavigator(state *State, engine *Engine) *Navigator {
	return &Navigator{state: state, engine: engine}
}

func (n *Navigator) Current() int { return n.current }

func (n *Navigator) Section() Section { return sections[n.current] }

func (n *Navigator) Len() int { return len(sections) }

// IsTerminal reports whether the navigator is on the section submission happens from.
func (n *Navigator) IsTerminal() bool { return n.current == len(sections)-1 }

// Progress is the completed fraction shown by the step indicator.
func (n *Navigator) Progress() float64 {
	return float64(n.current+1) / float64(len(sections))
}

// Next validates the current section and advances by one when it is clean.
// On failure it stays put, records the errors and returns the first failing
// field. On the terminal section it is a no-op.
func (n *Navigator) Next() (bool, Field) {
	if n.IsTerminal() {
		return false, ""
	}

	fields := RequiredFields(n.current)
	errs := n.engine.ValidateFields(n.state.Values(), fields...)
	n.state.ApplyValidation(fields, errs)

	if first, bad := FirstInvalid(fields, errs); bad {
		return false, first
	}
	n.current++
	return true, ""
}

// Previous clears every error and steps back one section if possible.
func (n *Navigator) Previous() bool {
	n.state.ClearErrors()
	if n.current == 0 {
		return false
	}
	n.current--
	return true
}

// Resume advances towards target section by section, stopping at the first
// section that does not validate. It returns the section reached and, when
// it stopped short, the first failing field there.
func (n *Navigator) Resume(target int) (int, Field) {
	if target >= len(sections) {
		target = len(sections) - 1
	}
	for n.current < target {
		if moved, first := n.Next(); !moved {
			return n.current, first
		}
	}
	return n.current, ""
}
