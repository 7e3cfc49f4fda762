package form

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	msgChequeRequired   = "Please upload a cancelled cheque"
	msgNotFinalSection  = "submission must be made from the final section"
	msgInProgress       = "submission already in progress"
	msgSubmissionFailed = "Failed to submit registration. Please try again."
	msgRegistrationFail = "Registration failed"
)

// Submission is what the coordinator hands to the registry.
type Submission struct {
	Values         Values
	Cheque         UploadedFile
	Infrastructure []UploadedFile
}

// Response is the registry's answer to a registration, already decoded.
// FieldErrors is set when the registry rejected individual fields.
type Response struct {
	Success     bool
	CollegeID   string
	Status      string
	SubmittedAt string
	Message     string
	FieldErrors map[string]string
}

// Registrar sends a submission to the registry. A non-nil error means the
// request did not produce a usable response.
type Registrar interface {
	Register(ctx context.Context, sub Submission) (*Response, error)
}

// Outcome is one of Success, FieldErrors or Failure.
type Outcome interface {
	outcome()
}

type Success struct {
	ID          string
	Status      string
	SubmittedAt time.Time
}

// FieldErrors carries per-field messages. Remote is false when the
// submission was stopped locally before any request.
type FieldErrors struct {
	Fields map[Field]string
	Remote bool
}

type Failure struct {
	Message string
	Err     error
}

func (Success) outcome()     {}
func (FieldErrors) outcome() {}
func (Failure) outcome()     {}

// Coordinator runs the final gate and dispatches a registration.
type Coordinator struct {
	state     *State
	engine    *Engine
	nav       *Navigator
	files     *Attachments
	registrar Registrar
	logger    *slog.Logger
	inFlight  atomic.Bool
}

func NewCoordinator(state *State, engine *Engine, nav *Navigator, files *Attachments, registrar Registrar, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		state:     state,
		engine:    engine,
		nav:       nav,
		files:     files,
		registrar: registrar,
		logger:    logger,
	}
}

// Submit validates every section, checks the cheque attachment and sends
// exactly one request. It never retries.
func (c *Coordinator) Submit(ctx context.Context) Outcome {
	if !c.nav.IsTerminal() {
		return Failure{Message: msgNotFinalSection}
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return Failure{Message: msgInProgress}
	}
	defer c.inFlight.Store(false)

	values := c.state.Values()
	required := AllRequiredFields()
	errs := c.engine.ValidateFields(values, required...)
	c.state.ApplyValidation(required, errs)

	cheque, hasCheque := c.files.Cheque()
	if !hasCheque {
		errs[CancelledCheque] = msgChequeRequired
		c.state.SetLocalError(CancelledCheque, msgChequeRequired)
	}

	if len(errs) > 0 {
		c.logger.InfoContext(ctx, "registration blocked by local validation", "fields", len(errs))
		return FieldErrors{Fields: errs}
	}

	c.logger.InfoContext(ctx, "submitting registration",
		"college", values[CollegeName],
		"infrastructure_files", len(c.files.Infrastructure()),
	)

	resp, err := c.registrar.Register(ctx, Submission{
		Values:         values,
		Cheque:         cheque,
		Infrastructure: c.files.Infrastructure(),
	})
	if err == nil && resp == nil {
		err = errors.New("registry returned no response")
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "registration request failed", "error", err)
		return Failure{Message: msgSubmissionFailed, Err: err}
	}

	if len(resp.FieldErrors) > 0 {
		remote := make(map[Field]string, len(resp.FieldErrors))
		for name, msg := range resp.FieldErrors {
			remote[Field(name)] = msg
		}
		c.state.ApplyRemote(remote)
		c.logger.InfoContext(ctx, "registry rejected fields", "fields", len(remote))
		return FieldErrors{Fields: remote, Remote: true}
	}

	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = msgRegistrationFail
		}
		c.logger.WarnContext(ctx, "registry refused registration", "message", msg)
		return Failure{Message: msg}
	}

	submittedAt, err := time.Parse(time.RFC3339Nano, resp.SubmittedAt)
	if err != nil {
		c.logger.WarnContext(ctx, "registry returned unparsable submittedAt",
			"collegeId", resp.CollegeID,
			"submittedAt", resp.SubmittedAt,
			"error", err,
		)
	}
	c.logger.InfoContext(ctx, "registration accepted", "collegeId", resp.CollegeID)
	return Success{
		ID:          resp.CollegeID,
		Status:      resp.Status,
		SubmittedAt: submittedAt,
	}
}
