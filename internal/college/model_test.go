package college_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/college"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatID(t *testing.T) {
	assert.Equal(t, "COL001", college.FormatID("COL", 3, 1))
	assert.Equal(t, "COL042", college.FormatID("COL", 3, 42))
	assert.Equal(t, "COL999", college.FormatID("COL", 3, 999))
	assert.Equal(t, "COL1000", college.FormatID("COL", 3, 1000))
	assert.Equal(t, "UNI00007", college.FormatID("UNI", 5, 7))
}

func TestCollege_JSONIsFlat(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 8, 0, 0, 250*int(time.Millisecond), time.UTC)
	updated := submitted.Add(time.Hour)

	c := college.College{
		ID:           "COL007",
		Fields:       map[string]string{"collegeName": "Harbour Arts", "status": "approved", "id": "spoofed"},
		Status:       college.StatusPending,
		SubmittedAt:  submitted,
		CreatedAt:    submitted,
		UpdatedAt:    &updated,
		PasswordHash: "$2a$10$hash",
	}

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, map[string]any{
		"collegeName": "Harbour Arts",
		"id":          "COL007",
		"status":      "pending",
		"submittedAt": "2026-03-01T08:00:00.250Z",
		"createdAt":   "2026-03-01T08:00:00.250Z",
		"updatedAt":   "2026-03-01T09:00:00.250Z",
	}, body)

	var back college.College
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "COL007", back.ID)
	assert.Equal(t, college.StatusPending, back.Status)
	assert.True(t, submitted.Equal(back.SubmittedAt))
	require.NotNil(t, back.UpdatedAt)
	assert.True(t, updated.Equal(*back.UpdatedAt))
	assert.Equal(t, map[string]string{"collegeName": "Harbour Arts"}, back.Fields)
}

func TestCollege_UnmarshalToleratesLooseValues(t *testing.T) {
	raw := `{"success":true,"id":"COL002","status":"pending","submittedAt":"2026-03-01T08:00:00.000Z",` +
		`"totalStudents":1200,"hostel":true,"collegeWebsite":null}`

	var c college.College
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	assert.Equal(t, "COL002", c.ID)
	assert.Nil(t, c.UpdatedAt)
	assert.Equal(t, "1200", c.Field("totalStudents"))
	assert.Equal(t, "true", c.Field("hostel"))
	assert.Equal(t, "", c.Field("collegeWebsite"))
	assert.NotContains(t, c.Fields, "success")
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, college.StatusPending.Valid())
	assert.True(t, college.StatusApproved.Valid())
	assert.True(t, college.StatusRejected.Valid())
	assert.False(t, college.Status("archived").Valid())
	assert.False(t, college.Status("").Valid())
}
