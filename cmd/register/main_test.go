package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Thaththathirian/lifeboat-college/internal/auth"
	"github.com/Thaththathirian/lifeboat-college/internal/college"
	"github.com/Thaththathirian/lifeboat-college/internal/config"
	"github.com/Thaththathirian/lifeboat-college/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryServer(t *testing.T) (*httptest.Server, college.Repository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
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
	t.Cleanup(server.Close)
	return server, repo
}

func submission(t *testing.T, url string) *config.Submission {
	t.Helper()
	cheque := filepath.Join(t.TempDir(), "cheque.png")
	data := make([]byte, 2048)
	copy(data, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, os.WriteFile(cheque, data, 0o600))

	return &config.Submission{
		Registry: config.RegistryEndpoint{URL: url, Token: "registrar-token", TimeoutSeconds: 5},
		Section:  1,
		Fields: []config.FieldValue{
			{Name: "collegeName", Value: "Lifeboat Engineering College"},
			{Name: "establishedYear", Value: "1995"},
			{Name: "address", Value: "12 Harbour Road, Chennai, Tamil Nadu"},
			{Name: "email", Value: "office@lifeboat.edu"},
			{Name: "phone", Value: "9876543210"},
			{Name: "representativeName", Value: "Priya Raman"},
			{Name: "representativePhone", Value: "9876500000"},
			{Name: "representativeEmail", Value: "priya@lifeboat.edu"},
			{Name: "coordinatorName", Value: "Arun Kumar"},
			{Name: "coordinatorDesignation", Value: "Dean"},
			{Name: "coordinatorPhone", Value: "9876511111"},
			{Name: "coordinatorEmail", Value: "arun@lifeboat.edu"},
			{Name: "feeConcession", Value: "Merit scholarships for toppers"},
			{Name: "bankName", Value: "State Bank of India"},
			{Name: "accountNumber", Value: "12345678"},
			{Name: "confirmAccountNumber", Value: "12345678"},
			{Name: "ifscCode", Value: "SBIN0001234"},
		},
		Files: config.SubmissionFiles{CancelledCheque: cheque},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_Registers(t *testing.T) {
	server, repo := registryServer(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), submission(t, server.URL), discard(), &out))

	assert.Contains(t, out.String(), "registered COL001 (status pending")
	stored, err := repo.GetByID(context.Background(), "COL001")
	require.NoError(t, err)
	assert.Equal(t, "Lifeboat Engineering College", stored.Fields["collegeName"])
	require.Len(t, stored.Documents, 1)
	assert.Equal(t, college.DocumentCheque, stored.Documents[0].Field)
}

func TestRun_StopsOnInvalidSection(t *testing.T) {
	server, repo := registryServer(t)
	sub := submission(t, server.URL)
	sub.Fields[3].Value = "not-an-email"
	var out bytes.Buffer

	err := run(context.Background(), sub, discard(), &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped at section 1: email is invalid")
	assert.Contains(t, out.String(), "email:")
	all, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "nothing reaches the registry")
}

func TestRun_MissingChequeIsReported(t *testing.T) {
	server, _ := registryServer(t)
	sub := submission(t, server.URL)
	sub.Files.CancelledCheque = ""
	var out bytes.Buffer

	err := run(context.Background(), sub, discard(), &out)

	assert.ErrorIs(t, err, errNotSubmitted)
	assert.Contains(t, out.String(), "form rejected 1 field(s):")
	assert.Contains(t, out.String(), "cancelledCheque: Please upload a cancelled cheque")
}

func TestRun_UnknownField(t *testing.T) {
	sub := submission(t, "http://127.0.0.1:1")
	sub.Fields = append(sub.Fields, config.FieldValue{Name: "nickname", Value: "x"})

	err := run(context.Background(), sub, discard(), io.Discard)
	assert.Error(t, err)
}
