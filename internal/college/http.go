package college

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Thaththathirian/lifeboat-college/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
)

// maxInfrastructureFiles bounds how many infrastructure photos one request
// may carry.
const maxInfrastructureFiles = 10

// maxJSONBodyBytes caps JSON request bodies. Registrations carrying files use
// multipart and get a limit derived from the upload ceiling.
const maxJSONBodyBytes = 1 << 20

var ErrBodyTooLarge = errors.New("request body too large")

type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewHandler(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 2 << 20
	}
	return &Handler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterProtectedRoutes mounts the routes that need a bearer token.
func (h *Handler) RegisterProtectedRoutes(router chi.Router) {
	router.Post("/verify_email", h.Register)
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/get_college/{collegeId}", h.GetCollege)
	router.Get("/get_college/{collegeId}/documents/{docId}", h.GetDocument)
	router.Get("/get_all_colleges", h.GetAllColleges)
	router.Patch("/update_college_status/{collegeId}", h.UpdateStatus)
}

type RegisterResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	CollegeID   string `json:"collegeId"`
	Status      Status `json:"status"`
	SubmittedAt string `json:"submittedAt"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateStatusResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	College *College `json:"college"`
}

type ListResponse struct {
	Success  bool      `json:"success"`
	Colleges []College `json:"colleges"`
}

// FieldErrorResponse carries per-field messages for a refused registration.
type FieldErrorResponse struct {
	Success bool              `json:"success"`
	Status  bool              `json:"status"`
	Message map[string]string `json:"message"`
	Data    []any             `json:"data"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeRegistration(w, r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid registration request", "error", err)
		switch {
		case errors.Is(err, ErrUploadTooLarge):
			httputil.RespondWithError(w, http.StatusRequestEntityTooLarge, UploadLimitMessage(h.maxUploadBytes))
			return
		case errors.Is(err, ErrBodyTooLarge):
			httputil.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, RegisterResponse{
		Success:     true,
		Message:     "College registration submitted successfully",
		CollegeID:   created.ID,
		Status:      created.Status,
		SubmittedAt: created.SubmittedAt.UTC().Format(TimeLayout),
	})
}

func (h *Handler) decodeRegistration(w http.ResponseWriter, r *http.Request) (RegistrationInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.decodeMultipart(w, r)
	}

	var body map[string]any
	if err := decodeJSON(w, r, &body); err != nil {
		return RegistrationInput{}, err
	}
	fields, err := flatten(body)
	if err != nil {
		return RegistrationInput{}, err
	}
	return RegistrationInput{Fields: fields}, nil
}

func (h *Handler) decodeMultipart(w http.ResponseWriter, r *http.Request) (RegistrationInput, error) {
	limit := h.maxUploadBytes*(maxInfrastructureFiles+1) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return RegistrationInput{}, ErrUploadTooLarge
		}
		return RegistrationInput{}, err
	}

	in := RegistrationInput{Fields: make(map[string]string, len(r.MultipartForm.Value))}
	for k, vs := range r.MultipartForm.Value {
		if len(vs) > 0 {
			in.Fields[k] = vs[0]
		}
	}

	for _, field := range []string{DocumentCheque, DocumentInfrastructure} {
		headers := r.MultipartForm.File[field]
		if field == DocumentInfrastructure {
			headers = append(headers, r.MultipartForm.File[field+"[]"]...)
			if len(headers) > maxInfrastructureFiles {
				return RegistrationInput{}, fmt.Errorf("too many %s", field)
			}
		}
		for _, fh := range headers {
			if fh.Size > h.maxUploadBytes {
				return RegistrationInput{}, ErrUploadTooLarge
			}
			data, err := readPart(fh)
			if err != nil {
				return RegistrationInput{}, err
			}
			in.Uploads = append(in.Uploads, Upload{Field: field, Name: fh.Filename, Data: data})
		}
	}
	return in, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// decodeJSON reads a JSON body of at most maxJSONBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return err
	}
	return nil
}

// flatten turns a JSON object into form values. Nested objects and arrays
// are refused; null becomes an empty value.
func flatten(body map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(body))
	for k, v := range body {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("field %s: nested values are not supported", k)
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

func (h *Handler) GetCollege(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collegeId")

	h.logger.InfoContext(r.Context(), "fetching college", "college_id", id)
	college, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	body, err := withSuccess(college)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, body)
}

// withSuccess merges the success flag into the flat record.
func withSuccess(c *College) (map[string]any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out["success"] = true
	return out, nil
}

func (h *Handler) GetAllColleges(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "fetching all colleges")

	colleges, err := h.service.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, ListResponse{Success: true, Colleges: colleges})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collegeId")

	var req UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			httputil.RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	college, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, UpdateStatusResponse{
		Success: true,
		Message: "College status updated to " + req.Status,
		College: college,
	})
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	collegeID := chi.URLParam(r, "collegeId")
	docID := chi.URLParam(r, "docId")

	doc, data, err := h.service.GetDocument(r.Context(), collegeID, docID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var verr *ValidationError
	if errors.As(err, &verr) {
		h.logger.InfoContext(ctx, "registration refused", "reason", verr.Err)
		switch {
		case len(verr.Fields) > 0:
			httputil.RespondWithJSON(w, http.StatusBadRequest, FieldErrorResponse{
				Success: false,
				Status:  false,
				Message: verr.Fields,
				Data:    []any{},
			})
		case errors.Is(verr, ErrUploadTooLarge):
			httputil.RespondWithError(w, http.StatusRequestEntityTooLarge, verr.Message)
		default:
			httputil.RespondWithError(w, http.StatusBadRequest, verr.Message)
		}
		return
	}
	if errors.Is(err, ErrCollegeNotFound) {
		h.logger.InfoContext(ctx, "college not found")
		httputil.RespondWithError(w, http.StatusNotFound, "College not found")
		return
	}
	if errors.Is(err, ErrDocumentNotFound) {
		httputil.RespondWithError(w, http.StatusNotFound, "Document not found")
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		h.logger.InfoContext(ctx, "invalid input", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": "))
		return
	}
	h.logger.ErrorContext(ctx, "internal error", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}
