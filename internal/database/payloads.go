package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UpsertSavedPayloadParams struct {
	PayloadKey  string
	Description pgtype.Text
	Source      pgtype.Text
	Payload     []byte
}

// UpsertSavedPayload stores a raw payload blob under its key; a repeat
// key replaces the payload but keeps an earlier description/source when
// the new one is absent.
func (q *Queries) UpsertSavedPayload(ctx context.Context, arg UpsertSavedPayloadParams) (SavedPayload, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO saved_payloads (payload_key, description, source, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (payload_key) DO UPDATE SET
			description = COALESCE(EXCLUDED.description, saved_payloads.description),
			source = COALESCE(EXCLUDED.source, saved_payloads.source),
			payload = EXCLUDED.payload,
			updated_at = now()
		RETURNING id, payload_key, description, source, payload, created_at, updated_at`,
		arg.PayloadKey, arg.Description, arg.Source, arg.Payload,
	)
	return scanSavedPayload(row)
}

func scanSavedPayload(row interface{ Scan(dest ...any) error }) (SavedPayload, error) {
	var p SavedPayload
	err := row.Scan(&p.ID, &p.PayloadKey, &p.Description, &p.Source, &p.Payload, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetSavedPayloadByKey fetches a payload by its client-visible key.
func (q *Queries) GetSavedPayloadByKey(ctx context.Context, key string) (SavedPayload, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, payload_key, description, source, payload, created_at, updated_at
		FROM saved_payloads WHERE payload_key = $1`, key)
	return scanSavedPayload(row)
}

// GetSavedPayloadByID fetches a payload by its internal id.
func (q *Queries) GetSavedPayloadByID(ctx context.Context, id uuid.UUID) (SavedPayload, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, payload_key, description, source, payload, created_at, updated_at
		FROM saved_payloads WHERE id = $1`, id)
	return scanSavedPayload(row)
}

// SavedPayloadSummary is a listing row: the blob itself is replaced by
// its size.
type SavedPayloadSummary struct {
	ID          uuid.UUID
	PayloadKey  string
	Description pgtype.Text
	Source      pgtype.Text
	Size        int64
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type ListSavedPayloadsParams struct {
	Source pgtype.Text
	Limit  int32
	Offset int32
}

// ListSavedPayloads returns payload summaries newest first.
func (q *Queries) ListSavedPayloads(ctx context.Context, arg ListSavedPayloadsParams) ([]SavedPayloadSummary, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, payload_key, description, source, length(payload::text), created_at, updated_at
		FROM saved_payloads
		WHERE ($1::text IS NULL OR source = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		arg.Source, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedPayloadSummary
	for rows.Next() {
		var s SavedPayloadSummary
		if err := rows.Scan(&s.ID, &s.PayloadKey, &s.Description, &s.Source, &s.Size, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountSavedPayloads counts payloads matching the ListSavedPayloads filter.
func (q *Queries) CountSavedPayloads(ctx context.Context, source pgtype.Text) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM saved_payloads WHERE ($1::text IS NULL OR source = $1)`, source).Scan(&n)
	return n, err
}
