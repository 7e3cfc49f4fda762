package form

import (
	"context"
	"fmt"
	"log/slog"
)

// Session bundles the pieces of one registration form.
type Session struct {
	State       *State
	Engine      *Engine
	Navigator   *Navigator
	Files       *Attachments
	Coordinator *Coordinator
}

func NewSession(registrar Registrar, logger *slog.Logger) *Session {
	state := NewState()
	engine := NewEngine()
	nav := NewNavigator(state, engine)
	files := NewAttachments()

	return &Session{
		State:       state,
		Engine:      engine,
		Navigator:   nav,
		Files:       files,
		Coordinator: NewCoordinator(state, engine, nav, files, registrar, logger),
	}
}

// Fill types every value into the form as a user would, numeric filter
// included. Unknown fields are refused before anything is stored.
func (s *Session) Fill(values Values) error {
	for f := range values {
		if !f.Known() {
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}
	for _, d := range descriptors {
		if v, ok := values[d.Field]; ok {
			if err := s.State.Input(d.Field, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// AttachChequeFile loads path and attaches it as the cancelled cheque.
func (s *Session) AttachChequeFile(path string) error {
	f, err := LoadFile(path, s.Files.maxSize)
	if err != nil {
		s.State.ClearField(CancelledCheque)
		s.State.SetLocalError(CancelledCheque, FileMessage(err))
		return err
	}
	return s.AttachCheque(f)
}

func (s *Session) AddInfrastructureFile(path string) error {
	f, err := LoadFile(path, s.Files.maxSize)
	if err != nil {
		s.State.ClearField(InfrastructureFiles)
		s.State.SetLocalError(InfrastructureFiles, FileMessage(err))
		return err
	}
	return s.AddInfrastructure(f)
}

// AttachCheque attaches the cancelled cheque and reflects the result in the
// cheque slot's error. An attempt counts as an edit, so it drops any message
// the registry left on the slot.
func (s *Session) AttachCheque(f UploadedFile) error {
	s.State.ClearField(CancelledCheque)
	if err := s.Files.AttachCheque(f); err != nil {
		s.State.SetLocalError(CancelledCheque, FileMessage(err))
		return err
	}
	return nil
}

func (s *Session) AddInfrastructure(f UploadedFile) error {
	s.State.ClearField(InfrastructureFiles)
	if err := s.Files.AddInfrastructure(f); err != nil {
		s.State.SetLocalError(InfrastructureFiles, FileMessage(err))
		return err
	}
	return nil
}

func (s *Session) Submit(ctx context.Context) Outcome {
	return s.Coordinator.Submit(ctx)
}
