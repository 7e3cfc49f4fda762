package registryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/college"
	"github.com/Thaththathirian/lifeboat-college/internal/form"

	"github.com/spf13/cast"
)

var ErrNotFound = errors.New("college not found")

var _ form.Registrar = (*Client)(nil)

// maxResponseBytes caps how much of a registry reply is read.
const maxResponseBytes = 4 << 20

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying client, e.g. with httptest's.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// reply is the union of the registry's answers to a registration:
// success carries status as a string, field errors carry status=false and
// an object message.
type reply struct {
	Success     bool            `json:"success"`
	CollegeID   string          `json:"collegeId"`
	Status      any             `json:"status"`
	SubmittedAt string          `json:"submittedAt"`
	Message     json.RawMessage `json:"message"`
}

// Register sends the submission. Files go as multipart/form-data; without
// files the fields are sent as a JSON object. A registry refusal is not an
// error: it is reported in the Response.
func (c *Client) Register(ctx context.Context, sub form.Submission) (*form.Response, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify_email", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var r reply
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	out := &form.Response{
		Success:     r.Success && resp.StatusCode < 300,
		CollegeID:   r.CollegeID,
		SubmittedAt: r.SubmittedAt,
	}
	if s, ok := r.Status.(string); ok {
		out.Status = s
	}

	if len(r.Message) > 0 {
		var msg string
		if err := json.Unmarshal(r.Message, &msg); err == nil {
			out.Message = msg
		} else {
			var fields map[string]any
			if err := json.Unmarshal(r.Message, &fields); err != nil {
				return nil, fmt.Errorf("failed to decode message: %w", err)
			}
			out.Success = false
			out.FieldErrors = make(map[string]string, len(fields))
			for k, v := range fields {
				out.FieldErrors[k] = cast.ToString(v)
			}
		}
	}

	if !out.Success && out.Message == "" && len(out.FieldErrors) == 0 && resp.StatusCode >= 500 {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	return out, nil
}

func encodeSubmission(sub form.Submission) (io.Reader, string, error) {
	hasFiles := len(sub.Cheque.Data) > 0 || len(sub.Infrastructure) > 0
	if !hasFiles {
		fields := make(map[string]string, len(sub.Values))
		for k, v := range sub.Values {
			fields[k.String()] = v
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	names := make([]string, 0, len(sub.Values))
	for k := range sub.Values {
		names = append(names, k.String())
	}
	sort.Strings(names)
	for _, name := range names {
		if err := mw.WriteField(name, sub.Values[form.Field(name)]); err != nil {
			return nil, "", err
		}
	}

	if len(sub.Cheque.Data) > 0 {
		if err := writeFile(mw, college.DocumentCheque, sub.Cheque); err != nil {
			return nil, "", err
		}
	}
	for _, f := range sub.Infrastructure {
		if err := writeFile(mw, college.DocumentInfrastructure, f); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, field string, f form.UploadedFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}

// GetCollege fetches one record. Unknown identifiers yield ErrNotFound.
func (c *Client) GetCollege(ctx context.Context, id string) (*college.College, error) {
	var out college.College
	if err := c.getJSON(ctx, "/get_college/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListColleges(ctx context.Context) ([]college.College, error) {
	var out struct {
		Colleges []college.College `json:"colleges"`
	}
	if err := c.getJSON(ctx, "/get_all_colleges", &out); err != nil {
		return nil, err
	}
	return out.Colleges, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*college.College, error) {
	raw, err := json.Marshal(college.UpdateStatusRequest{Status: status})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/update_college_status/"+url.PathEscape(id), bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		College *college.College `json:"college"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.College, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseBytes)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(body).Decode(&failure)
		if failure.Message == "" {
			failure.Message = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("registry returned status %d: %s", resp.StatusCode, failure.Message)
	}

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
