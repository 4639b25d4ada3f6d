// Package repository persists digest history in PostgreSQL.
package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"campusdigest/internal/model"
)

type DigestRepository struct {
	db *pgxpool.Pool
}

func NewDigestRepository(db *pgxpool.Pool) *DigestRepository {
	return &DigestRepository{db: db}
}

// Insert stores one built digest. The full record goes into a jsonb payload
// column; the scalar columns exist for querying history without unmarshaling.
func (r *DigestRepository) Insert(ctx context.Context, d *model.Digest) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO digests (id, generated_at, date_label, summary_text, push_urgency, payload)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err = r.db.Exec(ctx, query,
		d.ID,
		d.GeneratedAt,
		d.DateLabel,
		d.SummaryText,
		d.PushUrgency,
		payload,
	)
	return err
}

// Latest returns the most recently generated digest, or pgx.ErrNoRows.
func (r *DigestRepository) Latest(ctx context.Context) (*model.Digest, error) {
	query := `
        SELECT payload
        FROM digests
        ORDER BY generated_at DESC
        LIMIT 1
    `
	var payload []byte
	if err := r.db.QueryRow(ctx, query).Scan(&payload); err != nil {
		return nil, err
	}

	var d model.Digest
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// History returns recent digests, newest first.
func (r *DigestRepository) History(ctx context.Context, limit int) ([]model.Digest, error) {
	if limit <= 0 {
		limit = 7
	}
	query := `
        SELECT payload
        FROM digests
        ORDER BY generated_at DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Digest
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var d model.Digest
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
