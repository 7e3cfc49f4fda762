package registryclient_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/auth"
	"github.com/Thaththathirian/lifeboat-college/internal/college"
	"github.com/Thaththathirian/lifeboat-college/internal/form"
	"github.com/Thaththathirian/lifeboat-college/internal/metrics"
	"github.com/Thaththathirian/lifeboat-college/internal/registryclient"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values() form.Values {
	return form.Values{
		form.CollegeName:            "Lifeboat Engineering College",
		form.EstablishedYear:        "1995",
		form.Address:                "12 Harbour Road, Chennai, Tamil Nadu",
		form.Email:                  "office@lifeboat.edu",
		form.Phone:                  "+91 9876543210",
		form.RepresentativeName:     "Priya Raman",
		form.RepresentativePhone:    "9876500000",
		form.RepresentativeEmail:    "priya@lifeboat.edu",
		form.CoordinatorName:        "Arun Kumar",
		form.CoordinatorDesignation: "Dean",
		form.CoordinatorPhone:       "9876511111",
		form.CoordinatorEmail:       "arun@lifeboat.edu",
		form.FeeConcession:          "50% tuition waiver for scholarship students",
		form.BankName:               "State Bank of India",
		form.AccountNumber:          "12345678",
		form.ConfirmAccountNumber:   "12345678",
		form.IFSCCode:               "SBIN0001234",
	}
}

func png(name string, size int) form.UploadedFile {
	data := make([]byte, size)
	copy(data, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	return form.NewUploadedFile(name, data)
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func TestClient_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("JSONWithoutFiles", func(t *testing.T) {
		var gotAuth, gotType string
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotType = r.Header.Get("Content-Type")
			json.NewDecoder(r.Body).Decode(&gotBody)
			respond(http.StatusCreated, `{"success":true,"message":"College registration submitted successfully","collegeId":"COL001","status":"pending","submittedAt":"2026-10-16T09:30:00.123Z"}`)(w, r)
		}))
		defer server.Close()

		client := registryclient.NewClient(server.URL, "id-token").WithHTTPClient(server.Client())
		resp, err := client.Register(ctx, form.Submission{Values: values()})
		require.NoError(t, err)

		assert.Equal(t, "Bearer id-token", gotAuth)
		assert.Equal(t, "application/json", gotType)
		assert.Equal(t, "SBIN0001234", gotBody["ifscCode"])

		assert.True(t, resp.Success)
		assert.Equal(t, "COL001", resp.CollegeID)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, "2026-10-16T09:30:00.123Z", resp.SubmittedAt)
	})

	t.Run("MultipartWithFiles", func(t *testing.T) {
		var fields map[string][]string
		var files map[string][]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			fields = r.MultipartForm.Value
			files = make(map[string][]string)
			for k, fhs := range r.MultipartForm.File {
				for _, fh := range fhs {
					files[k] = append(files[k], fh.Filename+":"+fh.Header.Get("Content-Type"))
				}
			}
			respond(http.StatusCreated, `{"success":true,"collegeId":"COL002","status":"pending","submittedAt":"2026-10-16T09:30:00.000Z"}`)(w, r)
		}))
		defer server.Close()

		client := registryclient.NewClient(server.URL, "t").WithHTTPClient(server.Client())
		resp, err := client.Register(ctx, form.Submission{
			Values:         values(),
			Cheque:         png("cheque.png", 512),
			Infrastructure: []form.UploadedFile{png("lab.png", 128), png("hall.png", 256)},
		})
		require.NoError(t, err)
		assert.Equal(t, "COL002", resp.CollegeID)

		assert.Equal(t, []string{"Priya Raman"}, fields["representativeName"])
		assert.Equal(t, []string{"cheque.png:image/png"}, files[college.DocumentCheque])
		assert.Equal(t, []string{"lab.png:image/png", "hall.png:image/png"}, files[college.DocumentInfrastructure])
	})

	t.Run("FieldErrors", func(t *testing.T) {
		server := httptest.NewServer(respond(http.StatusBadRequest,
			`{"success":false,"status":false,"message":{"ifscCode":"Invalid IFSC Code format.","email":"Valid email is required"},"data":[]}`))
		defer server.Close()

		client := registryclient.NewClient(server.URL, "t").WithHTTPClient(server.Client())
		resp, err := client.Register(ctx, form.Submission{Values: values()})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, map[string]string{
			"ifscCode": "Invalid IFSC Code format.",
			"email":    "Valid email is required",
		}, resp.FieldErrors)
	})

	t.Run("RefusalMessage", func(t *testing.T) {
		server := httptest.NewServer(respond(http.StatusBadRequest, `{"success":false,"message":"Account numbers do not match"}`))
		defer server.Close()

		client := registryclient.NewClient(server.URL, "t").WithHTTPClient(server.Client())
		resp, err := client.Register(ctx, form.Submission{Values: values()})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, "Account numbers do not match", resp.Message)
		assert.Empty(t, resp.FieldErrors)
	})

	t.Run("SuccessFlagWithErrorStatus", func(t *testing.T) {
		server := httptest.NewServer(respond(http.StatusUnauthorized, `{"success":true,"message":"odd"}`))
		defer server.Close()

		client := registryclient.NewClient(server.URL, "t").WithHTTPClient(server.Client())
		resp, err := client.Register(ctx, form.Submission{Values: values()})
		require.NoError(t, err)
		assert.False(t, resp.Success)
	})

	t.Run("NonJSONReply", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, "<html>bad gateway</html>")
		}))
		defer server.Close()

		client := registryclient.NewClient(server.URL, "t").WithHTTPClient(server.Client())
		_, err := client.Register(ctx, form.Submission{Values: values()})
		assert.Error(t, err)
	})

	t.Run("ServerErrorWithoutMessage", func(t *testing.T) {
		server := httptest.NewServer(respond(http.StatusInternalServerError, `{"success":false}`))
		defer server.Close()

		client := registryclient.NewClient(server.URL, "t").WithHTTPClient(server.Client())
		_, err := client.Register(ctx, form.Submission{Values: values()})
		assert.Error(t, err)
	})

	t.Run("Unreachable", func(t *testing.T) {
		server := httptest.NewServer(respond(http.StatusOK, `{}`))
		url := server.URL
		server.Close()

		client := registryclient.NewClient(url, "t")
		_, err := client.Register(ctx, form.Submission{Values: values()})
		assert.Error(t, err)
	})
}

func TestClient_Lookups(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/get_college/COL001", respond(http.StatusOK,
		`{"success":true,"id":"COL001","status":"pending","collegeName":"Harbour Arts","submittedAt":"2026-10-16T09:30:00.000Z","createdAt":"2026-10-16T09:30:00.000Z"}`))
	router.Get("/get_college/COL404", respond(http.StatusNotFound, `{"success":false,"message":"College not found"}`))
	router.Get("/get_all_colleges", respond(http.StatusOK,
		`{"success":true,"colleges":[{"id":"COL001","status":"pending","submittedAt":"2026-10-16T09:30:00.000Z","createdAt":"2026-10-16T09:30:00.000Z"}]}`))
	router.Patch("/update_college_status/COL001", respond(http.StatusOK,
		`{"success":true,"message":"College status updated to approved","college":{"id":"COL001","status":"approved","submittedAt":"2026-10-16T09:30:00.000Z","createdAt":"2026-10-16T09:30:00.000Z","updatedAt":"2026-10-16T10:00:00.000Z"}}`))
	router.Patch("/update_college_status/COL002", respond(http.StatusBadRequest, `{"success":false,"message":"Status is required"}`))

	server := httptest.NewServer(router)
	defer server.Close()

	ctx := context.Background()
	client := registryclient.NewClient(server.URL, "").WithHTTPClient(server.Client())

	c, err := client.GetCollege(ctx, "COL001")
	require.NoError(t, err)
	assert.Equal(t, "COL001", c.ID)
	assert.Equal(t, "Harbour Arts", c.Field("collegeName"))

	_, err = client.GetCollege(ctx, "COL404")
	assert.ErrorIs(t, err, registryclient.ErrNotFound)

	list, err := client.ListColleges(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	updated, err := client.UpdateStatus(ctx, "COL001", "approved")
	require.NoError(t, err)
	assert.Equal(t, college.StatusApproved, updated.Status)
	require.NotNil(t, updated.UpdatedAt)

	_, err = client.UpdateStatus(ctx, "COL002", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Status is required")
}

// TestRoundTrip drives a form session against a live registry handler.
func TestRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	repo := college.NewMemoryRepository("COL", 3, metrics.NewMock())
	svc := college.NewService(repo, nil, logger, metrics.NewMock(), college.Options{})
	handler := college.NewHandler(svc, logger, 0)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(auth.Config{Mode: auth.ModePresence}, logger))
		handler.RegisterProtectedRoutes(r)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	ctx := context.Background()
	client := registryclient.NewClient(server.URL, "firebase-id-token").WithHTTPClient(server.Client())

	submit := func(t *testing.T) form.Success {
		t.Helper()
		s := form.NewSession(client, logger)
		for f, v := range values() {
			require.NoError(t, s.State.SetField(f, v))
		}
		moved, blocked := s.Navigator.Next()
		require.True(t, moved, "blocked on %s", blocked)
		require.NoError(t, s.AttachCheque(png("cheque.png", 2048)))
		require.NoError(t, s.AddInfrastructure(png("campus.png", 1024)))

		outcome := s.Submit(ctx)
		success, ok := outcome.(form.Success)
		require.True(t, ok, "got %#v", outcome)
		return success
	}

	before := time.Now().UTC().Add(-time.Second)
	first := submit(t)
	second := submit(t)

	assert.Equal(t, "COL001", first.ID)
	assert.Equal(t, "COL002", second.ID)
	assert.Equal(t, "pending", first.Status)
	assert.True(t, first.SubmittedAt.After(before), "submittedAt %s", first.SubmittedAt)

	got, err := client.GetCollege(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, college.StatusPending, got.Status)
	assert.True(t, first.SubmittedAt.Equal(got.SubmittedAt))
	assert.Equal(t, "Lifeboat Engineering College", got.Field("collegeName"))
	assert.Len(t, got.Documents, 2)
	assert.Nil(t, got.UpdatedAt)

	updated, err := client.UpdateStatus(ctx, first.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, college.StatusApproved, updated.Status)
	require.NotNil(t, updated.UpdatedAt)

	list, err := client.ListColleges(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, college.StatusApproved, list[0].Status)
	assert.Equal(t, college.StatusPending, list[1].Status)
}
