package form_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Thaththathirian/lifeboat-college/internal/form"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachments_SizeCeiling(t *testing.T) {
	a := form.NewAttachments()

	require.NoError(t, a.AttachCheque(pngFile("at-limit.png", int(form.MaxFileSize))))
	cheque, ok := a.Cheque()
	require.True(t, ok)
	assert.Equal(t, form.MaxFileSize, cheque.Size)

	err := a.AttachCheque(pngFile("too-big.png", int(form.MaxFileSize)+1))
	assert.ErrorIs(t, err, form.ErrFileTooLarge)

	cheque, _ = a.Cheque()
	assert.Equal(t, "at-limit.png", cheque.Name, "rejected file is never attached")
}

func TestAttachments_Rejections(t *testing.T) {
	a := form.NewAttachments()

	assert.ErrorIs(t, a.AttachCheque(form.NewUploadedFile("empty.pdf", nil)), form.ErrEmptyFile)
	assert.ErrorIs(t, a.AttachCheque(form.NewUploadedFile("notes.txt", []byte("plain text"))), form.ErrFileTypeRejected)
	require.NoError(t, a.AttachCheque(form.NewUploadedFile("cheque.pdf", []byte("%PDF-1.7\n%test"))))

	assert.ErrorIs(t, a.AddInfrastructure(form.NewUploadedFile("plan.pdf", []byte("%PDF-1.7\n"))), form.ErrFileTypeRejected)
	_, ok := a.Cheque()
	assert.True(t, ok)
}

func TestAttachments_InfrastructureLimit(t *testing.T) {
	a := form.NewAttachments()
	for i := 0; i < 10; i++ {
		require.NoError(t, a.AddInfrastructure(pngFile("campus.png", 64)))
	}
	assert.ErrorIs(t, a.AddInfrastructure(pngFile("extra.png", 64)), form.ErrTooManyFiles)

	a.RemoveInfrastructure(0)
	a.RemoveInfrastructure(42)
	assert.Len(t, a.Infrastructure(), 9)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "cheque.pdf")
	require.NoError(t, os.WriteFile(small, []byte("%PDF-1.4\nbody"), 0o600))

	f, err := form.LoadFile(small, form.MaxFileSize)
	require.NoError(t, err)
	assert.Equal(t, "cheque.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.ContentType)
	assert.Equal(t, int64(13), f.Size)

	_, err = form.LoadFile(small, 4)
	assert.ErrorIs(t, err, form.ErrFileTooLarge)

	_, err = form.LoadFile(filepath.Join(dir, "missing.pdf"), form.MaxFileSize)
	assert.Error(t, err)
}

func TestFileMessage(t *testing.T) {
	assert.Equal(t, "File size must be less than 2MB", form.FileMessage(form.ErrFileTooLarge))
	assert.Equal(t, "Unsupported file type", form.FileMessage(form.ErrFileTypeRejected))
}

func TestSession_AttachErrorsLandInSlot(t *testing.T) {
	s := form.NewSession(&fakeRegistrar{}, discardLogger())

	err := s.AttachCheque(pngFile("huge.png", int(form.MaxFileSize)+1))
	assert.ErrorIs(t, err, form.ErrFileTooLarge)
	msg, ok := s.State.Error(form.CancelledCheque)
	require.True(t, ok)
	assert.Equal(t, "File size must be less than 2MB", msg)

	err = s.AddInfrastructure(form.NewUploadedFile("a.txt", []byte("text")))
	assert.ErrorIs(t, err, form.ErrFileTypeRejected)
	_, ok = s.State.Error(form.InfrastructureFiles)
	assert.True(t, ok)
}

func TestSession_RejectedAttachReplacesRemoteMessage(t *testing.T) {
	s := form.NewSession(&fakeRegistrar{}, discardLogger())
	s.State.ApplyRemote(map[form.Field]string{
		form.CancelledCheque:     "Cheque is unreadable",
		form.InfrastructureFiles: "Photos are unreadable",
	})

	err := s.AttachCheque(pngFile("scan.png", 3<<20))
	assert.ErrorIs(t, err, form.ErrFileTooLarge)
	msg, ok := s.State.Error(form.CancelledCheque)
	require.True(t, ok)
	assert.Equal(t, "File size must be less than 2MB", msg)
	_, remote := s.State.RemoteMessage(form.CancelledCheque)
	assert.False(t, remote)

	err = s.AddInfrastructure(form.NewUploadedFile("notes.txt", []byte("plain text")))
	assert.ErrorIs(t, err, form.ErrFileTypeRejected)
	msg, ok = s.State.Error(form.InfrastructureFiles)
	require.True(t, ok)
	assert.Equal(t, "Unsupported file type", msg)

	require.NoError(t, s.AttachCheque(pngFile("scan.png", 1024)))
	_, ok = s.State.Error(form.CancelledCheque)
	assert.False(t, ok)
}

func TestSession_AttachFromPath(t *testing.T) {
	dir := t.TempDir()
	cheque := filepath.Join(dir, "cheque.png")
	require.NoError(t, os.WriteFile(cheque, pngFile("cheque.png", 1024).Data, 0o600))
	huge := filepath.Join(dir, "campus.png")
	require.NoError(t, os.WriteFile(huge, pngFile("campus.png", int(form.MaxFileSize)+1).Data, 0o600))

	s := form.NewSession(&fakeRegistrar{}, discardLogger())

	require.NoError(t, s.AttachChequeFile(cheque))
	got, ok := s.Files.Cheque()
	require.True(t, ok)
	assert.Equal(t, "cheque.png", got.Name)
	assert.Equal(t, "image/png", got.ContentType)

	err := s.AddInfrastructureFile(huge)
	assert.ErrorIs(t, err, form.ErrFileTooLarge)
	msg, ok := s.State.Error(form.InfrastructureFiles)
	require.True(t, ok)
	assert.Equal(t, "File size must be less than 2MB", msg)
	assert.Empty(t, s.Files.Infrastructure())

	err = s.AttachChequeFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
	msg, _ = s.State.Error(form.CancelledCheque)
	assert.Equal(t, "Could not attach file", msg)
	_, ok = s.Files.Cheque()
	assert.True(t, ok, "a failed load keeps the previous cheque")
}
