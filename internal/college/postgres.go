package college

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/metrics"

	"github.com/uptrace/bun"
)

const idSequence = "college_id_seq"

// PostgresRepository persists records with bun. Identifiers come from a
// Postgres sequence, so they survive restarts and are unique across replicas.
type PostgresRepository struct {
	db      *bun.DB
	prefix  string
	width   int
	metrics *metrics.Metrics
}

func NewPostgresRepository(db *bun.DB, prefix string, width int, m *metrics.Metrics) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		prefix:  prefix,
		width:   width,
		metrics: m,
	}
}

// Models returns the tables the repository needs, for db.RunMigrations.
func Models() []interface{} {
	return []interface{}{(*College)(nil), (*StoredDocument)(nil)}
}

// EnsureSequence creates the identifier sequence if it does not exist.
func (r *PostgresRepository) EnsureSequence(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "CREATE SEQUENCE IF NOT EXISTS "+idSequence+" START 1")
	return err
}

func (r *PostgresRepository) Create(ctx context.Context, college *College, files map[string][]byte) (*College, error) {
	start := time.Now()
	stored := clone(college)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var seq int64
		if err := tx.NewRaw("SELECT nextval(?)", idSequence).Scan(ctx, &seq); err != nil {
			return err
		}
		stored.Seq = seq
		stored.ID = FormatID(r.prefix, r.width, seq)

		if _, err := tx.NewInsert().Model(stored).Exec(ctx); err != nil {
			return err
		}

		for docID, data := range files {
			doc := &StoredDocument{ID: docID, CollegeID: stored.ID, Data: data}
			if _, err := tx.NewInsert().Model(doc).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})

	r.metrics.RecordQuery(ctx, "insert", "colleges", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]College, error) {
	start := time.Now()
	colleges := make([]College, 0)
	err := r.db.NewSelect().Model(&colleges).Order("seq ASC").Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "colleges", time.Since(start), err)

	return colleges, err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*College, error) {
	start := time.Now()
	college := new(College)
	err := r.db.NewSelect().Model(college).Where("id = ?", id).Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "colleges", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCollegeNotFound
		}
		return nil, err
	}
	return college, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*College, error) {
	start := time.Now()
	college := new(College)
	result, err := r.db.NewUpdate().
		Model(college).
		Set("status = ?", status).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)

	r.metrics.RecordQuery(ctx, "update", "colleges", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrCollegeNotFound
	}
	return college, nil
}

func (r *PostgresRepository) GetDocument(ctx context.Context, collegeID, docID string) (*Document, []byte, error) {
	college, err := r.GetByID(ctx, collegeID)
	if err != nil {
		return nil, nil, err
	}

	var meta *Document
	for _, d := range college.Documents {
		if d.ID == docID {
			doc := d
			meta = &doc
			break
		}
	}
	if meta == nil {
		return nil, nil, ErrDocumentNotFound
	}

	start := time.Now()
	stored := new(StoredDocument)
	err = r.db.NewSelect().
		Model(stored).
		Where("id = ?", docID).
		Where("college_id = ?", collegeID).
		Scan(ctx)

	r.metrics.RecordQuery(ctx, "select", "college_documents", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}
	return meta, stored.Data, nil
}
