package platform

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/fetch/internal/repository"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// maxQueryLimit caps a single Query.
const maxQueryLimit = 500

// PostgresDocuments stores documents as JSONB rows in the documents table.
// created_at is assigned by the database.
type PostgresDocuments struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewPostgresDocuments creates a DocumentStore over queries.
func NewPostgresDocuments(queries *repository.Queries, logger *slog.Logger) *PostgresDocuments {
	return &PostgresDocuments{queries: queries, logger: logger}
}

// Insert implements DocumentStore. A "userId" field holding a UUID is also
// recorded as the row owner.
func (s *PostgresDocuments) Insert(ctx context.Context, collection string, record any) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", collection, err)
	}

	doc, err := s.queries.InsertDocument(ctx, repository.InsertDocumentParams{
		Collection: collection,
		OwnerID:    ownerOf(data),
		Data:       pqtype.NullRawMessage{RawMessage: data, Valid: true},
	})
	if err != nil {
		return "", fmt.Errorf("insert %s document: %w", collection, err)
	}

	s.logger.Debug("document inserted", "collection", collection, "id", doc.ID)
	return doc.ID.String(), nil
}

// Query implements DocumentStore.
func (s *PostgresDocuments) Query(ctx context.Context, collection string, order Order, limit int) ([]Document, error) {
	if limit <= 0 || limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	var (
		rows []repository.Document
		err  error
	)
	switch order {
	case OldestFirst:
		rows, err = s.queries.ListDocumentsOldest(ctx, repository.ListDocumentsOldestParams{
			Collection: collection,
			Limit:      int32(limit),
		})
	default:
		rows, err = s.queries.ListDocumentsNewest(ctx, repository.ListDocumentsNewestParams{
			Collection: collection,
			Limit:      int32(limit),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("query %s documents: %w", collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		data := json.RawMessage("{}")
		if row.Data.Valid {
			data = row.Data.RawMessage
		}
		docs = append(docs, Document{
			ID:        row.ID.String(),
			Data:      data,
			CreatedAt: row.CreatedAt,
		})
	}
	return docs, nil
}

// Merge implements DocumentStore with a JSONB concatenation.
func (s *PostgresDocuments) Merge(ctx context.Context, collection, id string, patch any) error {
	docID, err := uuid.Parse(id)
	if err != nil {
		return ErrDocumentNotFound
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal %s patch: %w", collection, err)
	}

	n, err := s.queries.MergeDocument(ctx, repository.MergeDocumentParams{
		Collection: collection,
		ID:         docID,
		Patch:      pqtype.NullRawMessage{RawMessage: data, Valid: true},
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("merge %s document: %w", collection, err)
	}
	if n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func ownerOf(data []byte) uuid.NullUUID {
	var probe struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return uuid.NullUUID{}
	}
	id, err := uuid.Parse(probe.UserID)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}
