package college

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/uptrace/bun"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known review states. The registry
// stores whatever status an admin sends; Valid is informational.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// TimeLayout matches JavaScript's Date.toISOString.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// RequiredFields lists the registration fields that must be non-empty, in
// the order they are checked.
var RequiredFields = []string{
	"collegeName", "phone", "email", "address", "establishedYear",
	"representativeName", "representativePhone", "representativeEmail",
	"coordinatorName", "coordinatorPhone", "coordinatorEmail", "coordinatorDesignation",
	"feeConcession", "bankName", "accountNumber", "confirmAccountNumber", "ifscCode",
}

// Document slots accepted on registration.
const (
	DocumentCheque         = "cancelledCheque"
	DocumentInfrastructure = "infrastructureFiles"
)

type Document struct {
	ID          string `json:"id"`
	Field       string `json:"field"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// College is a registration record. Fields holds the submitted form values;
// the remaining columns are owned by the registry.
type College struct {
	bun.BaseModel `bun:"table:colleges,alias:c"`

	ID           string            `bun:"id,pk"`
	Fields       map[string]string `bun:"fields,type:jsonb,notnull"`
	Status       Status            `bun:"status,notnull"`
	SubmittedAt  time.Time         `bun:"submitted_at,notnull"`
	CreatedAt    time.Time         `bun:"created_at,notnull"`
	UpdatedAt    *time.Time        `bun:"updated_at"`
	Documents    []Document        `bun:"documents,type:jsonb"`
	PasswordHash string            `bun:"password_hash"`
	Seq          int64             `bun:"seq,notnull"`
}

// StoredDocument holds the bytes of an uploaded file.
type StoredDocument struct {
	bun.BaseModel `bun:"table:college_documents,alias:cd"`

	ID        string `bun:"id,pk"`
	CollegeID string `bun:"college_id,notnull"`
	Data      []byte `bun:"data,type:bytea,notnull"`
}

// reserved keys are written by the registry and never taken from Fields.
var reserved = map[string]bool{
	"id":           true,
	"success":      true,
	"status":       true,
	"submittedAt":  true,
	"createdAt":    true,
	"updatedAt":    true,
	"documents":    true,
	"password":     true,
	"passwordHash": true,
}

// Field returns a submitted value.
func (c *College) Field(name string) string {
	return c.Fields[name]
}

// MarshalJSON renders the record flat: submitted fields next to the
// registry's metadata.
func (c College) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Fields)+6)
	for k, v := range c.Fields {
		if !reserved[k] {
			out[k] = v
		}
	}
	out["id"] = c.ID
	out["status"] = c.Status
	out["submittedAt"] = c.SubmittedAt.UTC().Format(TimeLayout)
	out["createdAt"] = c.CreatedAt.UTC().Format(TimeLayout)
	if c.UpdatedAt != nil {
		out["updatedAt"] = c.UpdatedAt.UTC().Format(TimeLayout)
	}
	if len(c.Documents) > 0 {
		out["documents"] = c.Documents
	}
	return json.Marshal(out)
}

func (c *College) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = College{Fields: make(map[string]string)}
	for k, v := range raw {
		var err error
		switch k {
		case "success":
		case "id":
			err = json.Unmarshal(v, &c.ID)
		case "status":
			err = json.Unmarshal(v, &c.Status)
		case "submittedAt":
			c.SubmittedAt, err = parseTime(v)
		case "createdAt":
			c.CreatedAt, err = parseTime(v)
		case "updatedAt":
			var t time.Time
			if t, err = parseTime(v); err == nil {
				c.UpdatedAt = &t
			}
		case "documents":
			err = json.Unmarshal(v, &c.Documents)
		default:
			var val any
			if err = json.Unmarshal(v, &val); err == nil {
				c.Fields[k], err = cast.ToStringE(val)
			}
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
	}
	return nil
}

func parseTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

// FormatID renders a sequence number as an identifier, e.g. COL001.
func FormatID(prefix string, width int, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// Event is published whenever a record is created or its status changes.
type Event struct {
	Type      string    `json:"type"`
	CollegeID string    `json:"collegeId"`
	Status    Status    `json:"status"`
	At        time.Time `json:"at"`
}

const (
	EventRegistered    = "college.registered"
	EventStatusUpdated = "college.status_updated"
)
