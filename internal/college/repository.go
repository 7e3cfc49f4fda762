package college

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/metrics"
)

// Repository stores registration records. Create assigns the identifier;
// callers never set it. files maps each Document.ID of the record to its
// content and is stored together with the record.
type Repository interface {
	Create(ctx context.Context, college *College, files map[string][]byte) (*College, error)
	GetAll(ctx context.Context) ([]College, error)
	GetByID(ctx context.Context, id string) (*College, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*College, error)
	GetDocument(ctx context.Context, collegeID, docID string) (*Document, []byte, error)
}

// MemoryRepository keeps records for the lifetime of the process.
// Identifiers come from a per-instance counter starting at 1.
type MemoryRepository struct {
	prefix  string
	width   int
	counter atomic.Int64
	metrics *metrics.Metrics

	mu        sync.RWMutex
	colleges  []*College
	byID      map[string]*College
	documents map[string][]byte
}

func NewMemoryRepository(prefix string, width int, m *metrics.Metrics) *MemoryRepository {
	return &MemoryRepository{
		prefix:    prefix,
		width:     width,
		metrics:   m,
		byID:      make(map[string]*College),
		documents: make(map[string][]byte),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, college *College, files map[string][]byte) (*College, error) {
	start := time.Now()

	stored := clone(college)

	// list order follows identifier order
	r.mu.Lock()
	stored.Seq = r.counter.Add(1)
	stored.ID = FormatID(r.prefix, r.width, stored.Seq)
	r.colleges = append(r.colleges, stored)
	r.byID[stored.ID] = stored
	for docID, data := range files {
		r.documents[stored.ID+"/"+docID] = append([]byte(nil), data...)
	}
	r.mu.Unlock()

	r.metrics.RecordQuery(ctx, "insert", "colleges", time.Since(start), nil)
	return clone(stored), nil
}

func (r *MemoryRepository) GetAll(ctx context.Context) ([]College, error) {
	start := time.Now()

	r.mu.RLock()
	out := make([]College, 0, len(r.colleges))
	for _, c := range r.colleges {
		out = append(out, *clone(c))
	}
	r.mu.RUnlock()

	r.metrics.RecordQuery(ctx, "select", "colleges", time.Since(start), nil)
	return out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*College, error) {
	start := time.Now()

	r.mu.RLock()
	c, ok := r.byID[id]
	if ok {
		c = clone(c)
	}
	r.mu.RUnlock()

	r.metrics.RecordQuery(ctx, "select", "colleges", time.Since(start), nil)
	if !ok {
		return nil, ErrCollegeNotFound
	}
	return c, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*College, error) {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.metrics.RecordQuery(ctx, "update", "colleges", time.Since(start), nil) }()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrCollegeNotFound
	}
	c.Status = status
	c.UpdatedAt = &at
	return clone(c), nil
}

func (r *MemoryRepository) GetDocument(ctx context.Context, collegeID, docID string) (*Document, []byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[collegeID]
	if !ok {
		return nil, nil, ErrCollegeNotFound
	}
	for _, d := range c.Documents {
		if d.ID != docID {
			continue
		}
		data, ok := r.documents[collegeID+"/"+docID]
		if !ok {
			break
		}
		doc := d
		return &doc, data, nil
	}
	return nil, nil, ErrDocumentNotFound
}

func clone(c *College) *College {
	out := *c
	out.Fields = make(map[string]string, len(c.Fields))
	for k, v := range c.Fields {
		out.Fields[k] = v
	}
	if c.Documents != nil {
		out.Documents = append([]Document(nil), c.Documents...)
	}
	if c.UpdatedAt != nil {
		at := *c.UpdatedAt
		out.UpdatedAt = &at
	}
	return &out
}
