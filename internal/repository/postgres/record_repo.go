package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Sentinel/internal/domain/record"
)

var _ record.Store = (*RecordRepo)(nil)

// RecordRepo keeps every collection in one JSONB table keyed by (collection, id).
type RecordRepo struct {
	db *DB
}

func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

const (
	qRecordInsert = `
INSERT INTO records (collection, id, data)
VALUES ($1, $2, $3::jsonb);`

	qRecordGet = `
SELECT data
FROM records
WHERE collection = $1 AND id = $2;`

	qRecordUpdate = `
UPDATE records
SET data = $3::jsonb, updated_at = now()
WHERE collection = $1 AND id = $2;`

	qRecordDelete = `DELETE FROM records WHERE collection = $1 AND id = $2;`

	qRecordList = `
SELECT id
FROM records
WHERE collection = $1
ORDER BY id;`
)

func (r *RecordRepo) Create(ctx context.Context, collection, id string, data []byte) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qRecordInsert, collection, id, data); err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, id, mapErr(err))
	}
	return nil
}

func (r *RecordRepo) Read(ctx context.Context, collection, id string) ([]byte, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var data []byte
	if err := r.db.Pool.QueryRow(ctx, qRecordGet, collection, id).Scan(&data); err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", collection, id, mapErr(err))
	}
	return data, nil
}

// Update is a single statement, so concurrent writers of distinct records never interfere.
func (r *RecordRepo) Update(ctx context.Context, collection, id string, data []byte) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qRecordUpdate, collection, id, data)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, mapErr(err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update %s/%s: %w", collection, id, record.ErrNotFound)
	}
	return nil
}

func (r *RecordRepo) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qRecordDelete, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, mapErr(err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("delete %s/%s: %w", collection, id, record.ErrNotFound)
	}
	return nil
}

func (r *RecordRepo) List(ctx context.Context, collection string) ([]string, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qRecordList, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
