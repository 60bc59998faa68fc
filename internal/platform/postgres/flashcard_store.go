package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/platform/logger"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/store"
)

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the
// FlashcardStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// Create implements store.FlashcardStore.Create.
// Returns store.ErrInvalidEntity if the deck does not exist.
func (s *PostgresFlashcardStore) Create(ctx context.Context, flashcard *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := flashcard.Validate(); err != nil {
		log.Warn("flashcard validation failed during create",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcard.ID.String()))
		return err
	}

	query := `
		INSERT INTO flashcards (id, deck_id, question, answer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		flashcard.ID,
		flashcard.DeckID,
		flashcard.Question,
		flashcard.Answer,
		flashcard.CreatedAt,
		flashcard.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during flashcard creation",
				slog.String("flashcard_id", flashcard.ID.String()),
				slog.String("deck_id", flashcard.DeckID.String()))
			return store.ErrInvalidEntity
		}

		log.Error("failed to create flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcard.ID.String()))
		return store.NewStoreError("flashcard", "create", "insert failed", err)
	}

	log.Debug("flashcard created",
		slog.String("flashcard_id", flashcard.ID.String()),
		slog.String("deck_id", flashcard.DeckID.String()))
	return nil
}

// GetByID implements store.FlashcardStore.GetByID.
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, deck_id, question, answer, created_at, updated_at
		FROM flashcards
		WHERE id = $1
	`

	var flashcard domain.Flashcard
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&flashcard.ID,
		&flashcard.DeckID,
		&flashcard.Question,
		&flashcard.Answer,
		&flashcard.CreatedAt,
		&flashcard.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("flashcard_id", id.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get flashcard by ID",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return nil, store.NewStoreError("flashcard", "get", "query failed", err)
	}

	return &flashcard, nil
}

// Delete implements store.FlashcardStore.Delete.
//
// The associated progress record is removed by the ON DELETE CASCADE
// constraint on progress.flashcard_id; application code does not delete it
// explicitly. If the schema ever drops the cascade, this method must be
// updated to keep referential integrity.
func (s *PostgresFlashcardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM flashcards WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return store.NewStoreError("flashcard", "delete", "delete failed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("flashcard", "delete", "rows affected", err)
	}
	if rowsAffected == 0 {
		log.Debug("flashcard not found for delete", slog.String("flashcard_id", id.String()))
		return store.ErrFlashcardNotFound
	}

	log.Info("flashcard deleted", slog.String("flashcard_id", id.String()))
	return nil
}

// ListDueByDeckID implements store.FlashcardStore.ListDueByDeckID.
func (s *PostgresFlashcardStore) ListDueByDeckID(
	ctx context.Context,
	deckID uuid.UUID,
	now time.Time,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT f.id, f.deck_id, f.question, f.answer, f.created_at, f.updated_at
		FROM flashcards f
		JOIN progress p ON p.flashcard_id = f.id
		WHERE f.deck_id = $1 AND p.next_review_date <= $2
		ORDER BY p.next_review_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, deckID, now)
	if err != nil {
		log.Error("failed to list due flashcards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, store.NewStoreError("flashcard", "list_due", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var flashcards []*domain.Flashcard
	for rows.Next() {
		var flashcard domain.Flashcard
		err := rows.Scan(
			&flashcard.ID,
			&flashcard.DeckID,
			&flashcard.Question,
			&flashcard.Answer,
			&flashcard.CreatedAt,
			&flashcard.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan flashcard row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("flashcard", "list_due", "scan failed", err)
		}
		flashcards = append(flashcards, &flashcard)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating flashcard rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("flashcard", "list_due", "iteration failed", err)
	}

	return flashcards, nil
}

// WithTx implements store.FlashcardStore.WithTx.
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}
