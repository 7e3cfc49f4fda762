package college

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCollegeNotFound  = errors.New("college not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrMissingField     = errors.New("missing required field")
	ErrAccountMismatch  = errors.New("account numbers do not match")
	ErrInvalidFormat    = errors.New("invalid field format")
	ErrUploadTooLarge   = errors.New("upload too large")
	ErrUploadRejected   = errors.New("upload type not allowed")
	ErrInvalidInput     = errors.New("invalid input")
)

var allowedTypes = map[string][]string{
	DocumentCheque:         {"image/jpeg", "image/png", "application/pdf"},
	DocumentInfrastructure: {"image/jpeg", "image/png", "image/webp"},
}

// ValidationError is a refused registration. Fields is set when the refusal
// is per field; Message otherwise.
type ValidationError struct {
	Err     error
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%v: %d field(s)", e.Err, len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Upload is a file received with a registration.
type Upload struct {
	Field string
	Name  string
	Data  []byte
}

type RegistrationInput struct {
	Fields  map[string]string
	Uploads []Upload
}

// EventPublisher delivers registry events. key groups events of one record.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}

type Service interface {
	Register(ctx context.Context, in RegistrationInput) (*College, error)
	GetByID(ctx context.Context, id string) (*College, error)
	List(ctx context.Context) ([]College, error)
	UpdateStatus(ctx context.Context, id string, status string) (*College, error)
	GetDocument(ctx context.Context, collegeID, docID string) (*Document, []byte, error)
}

type Options struct {
	MaxUploadBytes int64
	// Now is overridden in tests.
	Now func() time.Time
}

type service struct {
	repo     Repository
	events   EventPublisher
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
	opts     Options
}

// NewService builds the registry service. events may be nil.
func NewService(repo Repository, events EventPublisher, logger *slog.Logger, m *metrics.Metrics, opts Options) Service {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 2 << 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &service{
		repo:     repo,
		events:   events,
		validate: NewValidator(),
		logger:   logger,
		metrics:  m,
		opts:     opts,
	}
}

func (s *service) Register(ctx context.Context, in RegistrationInput) (*College, error) {
	fields := make(map[string]string, len(in.Fields))
	for k, v := range in.Fields {
		fields[k] = v
	}

	for _, name := range RequiredFields {
		if strings.TrimSpace(fields[name]) == "" {
			s.metrics.RecordRegistrationRejected(ctx, "missing_field")
			return nil, &ValidationError{Err: ErrMissingField, Message: "Missing required field: " + name}
		}
	}

	if fields["accountNumber"] != fields["confirmAccountNumber"] {
		s.metrics.RecordRegistrationRejected(ctx, "account_mismatch")
		return nil, &ValidationError{Err: ErrAccountMismatch, Message: "Account numbers do not match"}
	}

	if errs := checkFormats(s.validate, fields); len(errs) > 0 {
		s.metrics.RecordRegistrationRejected(ctx, "invalid_format")
		return nil, &ValidationError{Err: ErrInvalidFormat, Fields: errs}
	}

	docs, files, err := s.checkUploads(in.Uploads)
	if err != nil {
		s.metrics.RecordRegistrationRejected(ctx, "upload")
		return nil, err
	}

	college := &College{
		Fields:    fields,
		Status:    StatusPending,
		Documents: docs,
	}

	if password := fields["password"]; password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		college.PasswordHash = string(hash)
	}
	delete(fields, "password")
	delete(fields, "confirmPassword")
	for k := range fields {
		if reserved[k] {
			delete(fields, k)
		}
	}

	now := s.opts.Now().UTC().Truncate(time.Millisecond)
	college.SubmittedAt = now
	college.CreatedAt = now

	created, err := s.repo.Create(ctx, college, files)
	if err != nil {
		return nil, fmt.Errorf("create college: %w", err)
	}

	s.logger.InfoContext(ctx, "college registered",
		"college_id", created.ID,
		"documents", len(created.Documents),
	)
	s.metrics.RecordCollegeRegistered(ctx)
	s.publish(ctx, EventRegistered, created)

	return created, nil
}

// UploadLimitMessage is the refusal for a file larger than max bytes.
func UploadLimitMessage(max int64) string {
	switch {
	case max%(1<<20) == 0:
		return fmt.Sprintf("File size must be less than %dMB", max>>20)
	case max%(1<<10) == 0:
		return fmt.Sprintf("File size must be less than %dKB", max>>10)
	}
	return fmt.Sprintf("File size must be less than %d bytes", max)
}

func (s *service) checkUploads(uploads []Upload) ([]Document, map[string][]byte, error) {
	if len(uploads) == 0 {
		return nil, nil, nil
	}

	docs := make([]Document, 0, len(uploads))
	files := make(map[string][]byte, len(uploads))
	for _, u := range uploads {
		allowed, ok := allowedTypes[u.Field]
		if !ok {
			return nil, nil, &ValidationError{Err: ErrUploadRejected, Message: "Unexpected file field: " + u.Field}
		}
		if int64(len(u.Data)) > s.opts.MaxUploadBytes {
			return nil, nil, &ValidationError{Err: ErrUploadTooLarge, Message: UploadLimitMessage(s.opts.MaxUploadBytes)}
		}
		contentType := mimetype.Detect(u.Data).String()
		if len(u.Data) == 0 || !mimetype.EqualsAny(contentType, allowed...) {
			return nil, nil, &ValidationError{
				Err:    ErrUploadRejected,
				Fields: map[string]string{u.Field: "Unsupported file type"},
			}
		}

		doc := Document{
			ID:          uuid.NewString(),
			Field:       u.Field,
			Name:        u.Name,
			Size:        int64(len(u.Data)),
			ContentType: contentType,
		}
		docs = append(docs, doc)
		files[doc.ID] = u.Data
	}
	return docs, files, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*College, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	college, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCollegeViewed(ctx)
	return college, nil
}

func (s *service) List(ctx context.Context) ([]College, error) {
	colleges, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCollegesListViewed(ctx)
	return colleges, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status string) (*College, error) {
	if err := s.validate.Var(status, "required"); err != nil {
		return nil, fmt.Errorf("%w: Status is required", ErrInvalidInput)
	}

	st := Status(status)
	if !st.Valid() {
		s.logger.WarnContext(ctx, "storing non-standard status", "college_id", id, "status", status)
	}

	at := s.opts.Now().UTC().Truncate(time.Millisecond)
	college, err := s.repo.UpdateStatus(ctx, id, st, at)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "college status updated", "college_id", id, "status", status)
	s.metrics.RecordStatusUpdated(ctx, status)
	s.publish(ctx, EventStatusUpdated, college)

	return college, nil
}

func (s *service) GetDocument(ctx context.Context, collegeID, docID string) (*Document, []byte, error) {
	return s.repo.GetDocument(ctx, collegeID, docID)
}

// publish never fails the operation that triggered it.
func (s *service) publish(ctx context.Context, eventType string, c *College) {
	if s.events == nil {
		return
	}
	event := Event{
		Type:      eventType,
		CollegeID: c.ID,
		Status:    c.Status,
		At:        s.opts.Now().UTC(),
	}
	err := s.events.Publish(ctx, c.ID, event)
	s.metrics.RecordEventPublished(ctx, eventType, err)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "type", eventType, "college_id", c.ID, "error", err)
	}
}
