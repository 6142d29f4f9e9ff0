package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/kbase/internal/db/postgres"
	"github.com/kailas-cloud/kbase/internal/domain"
	domdoc "github.com/kailas-cloud/kbase/internal/domain/document"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
)

const docColumns = `id, title, content, tags, summary, embedding, author_id, author_name, author_email,
	current_version, revision, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PGRepo stores documents in Postgres: one row per document plus one row
// per version, removed together through ON DELETE CASCADE.
type PGRepo struct {
	pool   *pgxpool.Pool
	tables postgres.Tables
}

// NewPostgres creates a Postgres-backed document repository.
func NewPostgres(pool *pgxpool.Pool, tables postgres.Tables) *PGRepo {
	return &PGRepo{pool: pool, tables: tables}
}

// Insert stores a new document with its initial versions.
func (r *PGRepo) Insert(ctx context.Context, doc *domdoc.Document) error {
	f := doc.Fields()

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`INSERT INTO %s (%s)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, r.tables.Documents, docColumns)
		_, err := tx.Exec(ctx, query,
			f.ID, f.Title, f.Content, nonNil(f.Tags), f.Summary, toVector(f.Embedding),
			f.Author.ID, f.Author.Name, f.Author.Email,
			f.CurrentVersion, f.Revision, f.CreatedAt, f.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return r.insertVersions(ctx, tx, f.ID, f.Versions, 0)
	})
	if err != nil {
		if postgres.IsDuplicateError(err) {
			return fmt.Errorf("document %s: %w", f.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert document %s: %w: %w", f.ID, domain.ErrStore, err)
	}
	return nil
}

// Get returns a document by ID.
func (r *PGRepo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, docColumns, r.tables.Documents)
	f, err := scanFields(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRowsError(err) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("get document %s: %w: %w", id, domain.ErrStore, err)
	}

	versions, err := r.loadVersions(ctx, []string{id})
	if err != nil {
		return domdoc.Document{}, err
	}
	f.Versions = versions[id]
	return domdoc.Reconstruct(f), nil
}

// Find pushes the text filter into SQL and returns matches most recently updated first.
func (r *PGRepo) Find(ctx context.Context, flt filter.Text) ([]domdoc.Document, error) {
	where, args := buildWhere(flt)
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY updated_at DESC, id`, docColumns, r.tables.Documents, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	var fields []domdoc.Fields
	var ids []string
	for rows.Next() {
		f, err := scanFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w: %w", domain.ErrStore, err)
		}
		fields = append(fields, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w: %w", domain.ErrStore, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	versions, err := r.loadVersions(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domdoc.Document, len(fields))
	for i, f := range fields {
		f.Versions = versions[f.ID]
		out[i] = domdoc.Reconstruct(f)
	}
	return out, nil
}

// CompareAndSwap updates the row only if its revision still equals
// expectedRevision and appends versions newer than the stored counter.
func (r *PGRepo) CompareAndSwap(ctx context.Context, doc *domdoc.Document, expectedRevision int) error {
	f := doc.Fields()

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var storedVersion, storedRevision int
		lock := fmt.Sprintf(`SELECT current_version, revision FROM %s WHERE id = $1 FOR UPDATE`, r.tables.Documents)
		if err := tx.QueryRow(ctx, lock, f.ID).Scan(&storedVersion, &storedRevision); err != nil {
			if postgres.IsNoRowsError(err) {
				return domain.ErrDocumentNotFound
			}
			return err
		}
		if storedRevision != expectedRevision {
			return domain.NewRevisionConflict(storedRevision)
		}

		update := fmt.Sprintf(`UPDATE %s SET title = $2, content = $3, tags = $4, summary = $5,
			embedding = $6, current_version = $7, revision = $8, updated_at = $9
			WHERE id = $1 AND revision = $10`, r.tables.Documents)
		tag, err := tx.Exec(ctx, update,
			f.ID, f.Title, f.Content, nonNil(f.Tags), f.Summary, toVector(f.Embedding),
			f.CurrentVersion, f.Revision, f.UpdatedAt, expectedRevision,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.NewRevisionConflict(storedRevision)
		}
		return r.insertVersions(ctx, tx, f.ID, f.Versions, storedVersion)
	})
	if err != nil {
		if isDomainErr(err) {
			return err
		}
		return fmt.Errorf("cas document %s: %w: %w", f.ID, domain.ErrStore, err)
	}
	return nil
}

// Delete removes a document; its versions cascade.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w: %w", id, domain.ErrStore, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *PGRepo) insertVersions(ctx context.Context, tx pgx.Tx, id string, versions []domdoc.Version, after int) error {
	batch := &pgx.Batch{}
	query := fmt.Sprintf(`INSERT INTO %s (document_id, version_number, title, content, tags, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, r.tables.Versions)
	for _, v := range versions {
		if v.VersionNumber <= after {
			continue
		}
		batch.Queue(query, id, v.VersionNumber, v.Title, v.Content, nonNil(v.Tags), v.Summary, v.CreatedAt)
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (r *PGRepo) loadVersions(ctx context.Context, ids []string) (map[string][]domdoc.Version, error) {
	query := fmt.Sprintf(`SELECT document_id, version_number, title, content, tags, summary, created_at
		FROM %s WHERE document_id = ANY($1) ORDER BY document_id, version_number`, r.tables.Versions)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("load versions: %w: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	out := make(map[string][]domdoc.Version, len(ids))
	for rows.Next() {
		var docID string
		var v domdoc.Version
		if err := rows.Scan(&docID, &v.VersionNumber, &v.Title, &v.Content, &v.Tags, &v.Summary, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w: %w", domain.ErrStore, err)
		}
		out[docID] = append(out[docID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w: %w", domain.ErrStore, err)
	}
	return out, nil
}

func (r *PGRepo) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// buildWhere translates the text filter into a WHERE clause and its arguments.
func buildWhere(f filter.Text) (string, []any) {
	var conds []string
	var args []any

	if q := f.Query(); q != "" {
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%[1]d OR content ILIKE $%[1]d OR summary ILIKE $%[1]d)", n))
	}
	if tags := f.Tags(); len(tags) > 0 {
		args = append(args, tags)
		conds = append(conds, fmt.Sprintf("tags && $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanFields(row pgx.Row) (domdoc.Fields, error) {
	var f domdoc.Fields
	var emb *pgvector.Vector
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&f.ID, &f.Title, &f.Content, &f.Tags, &f.Summary, &emb,
		&f.Author.ID, &f.Author.Name, &f.Author.Email,
		&f.CurrentVersion, &f.Revision, &createdAt, &updatedAt,
	)
	if err != nil {
		return domdoc.Fields{}, err
	}
	if emb != nil {
		f.Embedding = emb.Slice()
	}
	f.CreatedAt = createdAt.UTC()
	f.UpdatedAt = updatedAt.UTC()
	return f, nil
}

func toVector(v []float32) *pgvector.Vector {
	if len(v) == 0 {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}

func isDomainErr(err error) bool {
	return errors.Is(err, domain.ErrDocumentNotFound) || errors.Is(err, domain.ErrRevisionConflict)
}
