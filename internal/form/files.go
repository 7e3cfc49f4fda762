package form

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize is the per-file ceiling for attachments.
const MaxFileSize int64 = 2 << 20

const maxInfrastructureFiles = 10

var (
	ErrFileTooLarge     = errors.New("file exceeds the 2 MiB limit")
	ErrEmptyFile        = errors.New("file is empty")
	ErrTooManyFiles     = errors.New("too many infrastructure files")
	ErrFileTypeRejected = errors.New("file type not allowed")
)

var (
	chequeTypes         = []string{"image/jpeg", "image/png", "application/pdf"}
	infrastructureTypes = []string{"image/jpeg", "image/png", "image/webp"}
)

// UploadedFile is an attachment held in memory until submission.
type UploadedFile struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// NewUploadedFile sniffs the content type of data.
func NewUploadedFile(name string, data []byte) UploadedFile {
	return UploadedFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
}

// LoadFile reads path, refusing files over max before reading their content.
func LoadFile(path string, max int64) (UploadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadedFile{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return UploadedFile{}, err
	}
	if info.Size() > max {
		return UploadedFile{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrFileTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return UploadedFile{}, err
	}
	return NewUploadedFile(filepath.Base(path), data), nil
}

// Attachments holds the files that travel with a registration.
type Attachments struct {
	maxSize        int64
	cheque         *UploadedFile
	infrastructure []UploadedFile
}

func NewAttachments() *Attachments {
	return &Attachments{maxSize: MaxFileSize}
}

func (a *Attachments) check(f UploadedFile, allowed []string) error {
	size := int64(len(f.Data))
	if size == 0 {
		return fmt.Errorf("%s: %w", f.Name, ErrEmptyFile)
	}
	if size > a.maxSize {
		return fmt.Errorf("%s: %w", f.Name, ErrFileTooLarge)
	}
	if !mimetype.EqualsAny(mimetype.Detect(f.Data).String(), allowed...) {
		return fmt.Errorf("%s: %w", f.Name, ErrFileTypeRejected)
	}
	return nil
}

// AttachCheque replaces the cancelled cheque. Rejected files leave the
// current attachment untouched.
func (a *Attachments) AttachCheque(f UploadedFile) error {
	if err := a.check(f, chequeTypes); err != nil {
		return err
	}
	f.Size = int64(len(f.Data))
	a.cheque = &f
	return nil
}

func (a *Attachments) AddInfrastructure(f UploadedFile) error {
	if len(a.infrastructure) >= maxInfrastructureFiles {
		return ErrTooManyFiles
	}
	if err := a.check(f, infrastructureTypes); err != nil {
		return err
	}
	f.Size = int64(len(f.Data))
	a.infrastructure = append(a.infrastructure, f)
	return nil
}

func (a *Attachments) RemoveInfrastructure(i int) {
	if i < 0 || i >= len(a.infrastructure) {
		return
	}
	a.infrastructure = append(a.infrastructure[:i], a.infrastructure[i+1:]...)
}

func (a *Attachments) Cheque() (UploadedFile, bool) {
	if a.cheque == nil {
		return UploadedFile{}, false
	}
	return *a.cheque, true
}

func (a *Attachments) Infrastructure() []UploadedFile {
	out := make([]UploadedFile, len(a.infrastructure))
	copy(out, a.infrastructure)
	return out
}

// FileMessage turns an attachment error into the message shown next to the input.
func FileMessage(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return "File size must be less than 2MB"
	case errors.Is(err, ErrEmptyFile):
		return "File is empty"
	case errors.Is(err, ErrFileTypeRejected):
		return "Unsupported file type"
	case errors.Is(err, ErrTooManyFiles):
		return "You can upload at most 10 infrastructure files"
	}
	return "Could not attach file"
}
