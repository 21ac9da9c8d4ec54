package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/posgate/api/internal/apperr"
	"github.com/posgate/api/internal/database"
)

// PayloadStore defines the DB methods for saved raw payloads.
type PayloadStore interface {
	UpsertSavedPayload(ctx context.Context, arg database.UpsertSavedPayloadParams) (database.SavedPayload, error)
	GetSavedPayloadByKey(ctx context.Context, key string) (database.SavedPayload, error)
	GetSavedPayloadByID(ctx context.Context, id uuid.UUID) (database.SavedPayload, error)
	ListSavedPayloads(ctx context.Context, arg database.ListSavedPayloadsParams) ([]database.SavedPayloadSummary, error)
	CountSavedPayloads(ctx context.Context, source pgtype.Text) (int64, error)
}

// PayloadService stores raw webhook payloads for replay and debugging.
// A database without the saved_payloads table behaves as an empty
// archive rather than an error source.
type PayloadService struct {
	store PayloadStore
}

// NewPayloadService creates a PayloadService.
func NewPayloadService(store PayloadStore) *PayloadService {
	return &PayloadService{store: store}
}

// Save upserts a payload under key. Re-saving a key replaces the blob.
func (s *PayloadService) Save(ctx context.Context, key, description, source string, payload []byte) (*database.SavedPayload, error) {
	row, err := s.store.UpsertSavedPayload(ctx, database.UpsertSavedPayloadParams{
		PayloadKey:  key,
		Description: textOrNull(description),
		Source:      textOrNull(source),
		Payload:     payload,
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Get fetches a payload by key, falling back to id lookup when the key
// parses as a UUID and no key matches.
func (s *PayloadService) Get(ctx context.Context, key string) (*database.SavedPayload, error) {
	row, err := s.store.GetSavedPayloadByKey(ctx, key)
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !isMissingTable(err) {
		return nil, err
	}

	if id, parseErr := uuid.Parse(key); parseErr == nil {
		row, err = s.store.GetSavedPayloadByID(ctx, id)
		if err == nil {
			return &row, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) && !isMissingTable(err) {
			return nil, err
		}
	}
	return nil, apperr.NotFound("payload", key)
}

// PayloadPage is one page of payload summaries.
type PayloadPage struct {
	Payloads []database.SavedPayloadSummary
	Total    int64
}

// List returns payload summaries, newest first.
func (s *PayloadService) List(ctx context.Context, source string, limit, offset int32) (*PayloadPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.store.ListSavedPayloads(ctx, database.ListSavedPayloadsParams{
		Source: textOrNull(source),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		if isMissingTable(err) {
			return &PayloadPage{Payloads: []database.SavedPayloadSummary{}}, nil
		}
		return nil, err
	}
	total, err := s.store.CountSavedPayloads(ctx, textOrNull(source))
	if err != nil {
		return nil, err
	}
	return &PayloadPage{Payloads: rows, Total: total}, nil
}

func isMissingTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
