// Package postgres provides PostgreSQL-backed implementations of the store
// interfaces.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/platform/logger"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/store"
)

// PostgreSQL error codes
const (
	pgUniqueViolationCode     = "23505"
	pgForeignKeyViolationCode = "23503"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

const progressColumns = `id, flashcard_id, review_count, correct_count, ease_factor,
	interval, last_review_date, next_review_date, difficulty_rating, created_at, updated_at`

// Create implements store.ProgressStore.Create.
// Returns store.ErrDuplicate if a record for the flashcard already exists and
// store.ErrInvalidEntity if the flashcard does not exist.
func (s *PostgresProgressStore) Create(ctx context.Context, progress *domain.Progress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during create",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", progress.FlashcardID.String()))
		return err
	}

	query := `
		INSERT INTO progress (id, flashcard_id, review_count, correct_count, ease_factor,
			interval, last_review_date, next_review_date, difficulty_rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.ID,
		progress.FlashcardID,
		progress.ReviewCount,
		progress.CorrectCount,
		progress.EaseFactor,
		progress.Interval,
		progress.LastReviewDate,
		progress.NextReviewDate,
		ratingToNullString(progress.DifficultyRating),
		progress.CreatedAt,
		progress.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolationCode:
				log.Warn("duplicate progress record",
					slog.String("flashcard_id", progress.FlashcardID.String()))
				return store.ErrDuplicate
			case pgForeignKeyViolationCode:
				log.Warn("foreign key violation during progress creation",
					slog.String("flashcard_id", progress.FlashcardID.String()))
				return store.ErrInvalidEntity
			}
		}

		log.Error("failed to create progress record",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", progress.FlashcardID.String()))
		return store.NewStoreError("progress", "create", "insert failed", err)
	}

	log.Debug("progress record created",
		slog.String("progress_id", progress.ID.String()),
		slog.String("flashcard_id", progress.FlashcardID.String()))
	return nil
}

// GetByFlashcardID implements store.ProgressStore.GetByFlashcardID.
// Returns store.ErrProgressNotFound if no record exists for the flashcard.
func (s *PostgresProgressStore) GetByFlashcardID(
	ctx context.Context,
	flashcardID uuid.UUID,
) (*domain.Progress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress
		WHERE flashcard_id = $1
	`
	return s.queryRow(ctx, query, flashcardID)
}

// GetForUpdate implements store.ProgressStore.GetForUpdate.
// The SELECT FOR UPDATE row lock serializes concurrent reviews of the same
// flashcard; it only has effect when called inside a transaction.
func (s *PostgresProgressStore) GetForUpdate(
	ctx context.Context,
	flashcardID uuid.UUID,
) (*domain.Progress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress
		WHERE flashcard_id = $1
		FOR UPDATE
	`
	return s.queryRow(ctx, query, flashcardID)
}

// Update implements store.ProgressStore.Update.
// Returns store.ErrProgressNotFound if no record exists for the flashcard.
func (s *PostgresProgressStore) Update(ctx context.Context, progress *domain.Progress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during update",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", progress.FlashcardID.String()))
		return err
	}

	query := `
		UPDATE progress
		SET review_count = $1, correct_count = $2, ease_factor = $3, interval = $4,
			last_review_date = $5, next_review_date = $6, difficulty_rating = $7, updated_at = $8
		WHERE flashcard_id = $9
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		progress.ReviewCount,
		progress.CorrectCount,
		progress.EaseFactor,
		progress.Interval,
		progress.LastReviewDate,
		progress.NextReviewDate,
		ratingToNullString(progress.DifficultyRating),
		progress.UpdatedAt,
		progress.FlashcardID,
	)
	if err != nil {
		log.Error("failed to update progress record",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", progress.FlashcardID.String()))
		return store.NewStoreError("progress", "update", "update failed", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("progress", "update", "rows affected", err)
	}
	if rowsAffected == 0 {
		log.Debug("progress record not found for update",
			slog.String("flashcard_id", progress.FlashcardID.String()))
		return store.ErrProgressNotFound
	}

	log.Debug("progress record updated",
		slog.String("flashcard_id", progress.FlashcardID.String()),
		slog.Int("review_count", progress.ReviewCount))
	return nil
}

// ListByDeckID implements store.ProgressStore.ListByDeckID.
func (s *PostgresProgressStore) ListByDeckID(
	ctx context.Context,
	deckID uuid.UUID,
) ([]*domain.Progress, error) {
	query := `
		SELECT p.id, p.flashcard_id, p.review_count, p.correct_count, p.ease_factor,
			p.interval, p.last_review_date, p.next_review_date, p.difficulty_rating,
			p.created_at, p.updated_at
		FROM progress p
		JOIN flashcards f ON f.id = p.flashcard_id
		WHERE f.deck_id = $1
	`
	return s.queryRows(ctx, query, deckID)
}

// ListByUserID implements store.ProgressStore.ListByUserID.
func (s *PostgresProgressStore) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Progress, error) {
	query := `
		SELECT p.id, p.flashcard_id, p.review_count, p.correct_count, p.ease_factor,
			p.interval, p.last_review_date, p.next_review_date, p.difficulty_rating,
			p.created_at, p.updated_at
		FROM progress p
		JOIN flashcards f ON f.id = p.flashcard_id
		JOIN decks d ON d.id = f.deck_id
		WHERE d.user_id = $1
	`
	return s.queryRows(ctx, query, userID)
}

// WithTx implements store.ProgressStore.WithTx.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresProgressStore) queryRow(
	ctx context.Context,
	query string,
	arg any,
) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, query, arg)

	progress, err := scanProgress(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get progress record", slog.String("error", err.Error()))
		return nil, store.NewStoreError("progress", "get", "query failed", err)
	}

	return progress, nil
}

func (s *PostgresProgressStore) queryRows(
	ctx context.Context,
	query string,
	arg any,
) ([]*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		log.Error("failed to list progress records", slog.String("error", err.Error()))
		return nil, store.NewStoreError("progress", "list", "query failed", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.Progress
	for rows.Next() {
		progress, err := scanProgress(rows.Scan)
		if err != nil {
			log.Error("failed to scan progress row", slog.String("error", err.Error()))
			return nil, store.NewStoreError("progress", "list", "scan failed", err)
		}
		records = append(records, progress)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating progress rows", slog.String("error", err.Error()))
		return nil, store.NewStoreError("progress", "list", "iteration failed", err)
	}

	return records, nil
}

// scanProgress reads one progress row using the given scan function, mapping
// the nullable difficulty_rating column onto the domain zero value.
func scanProgress(scan func(dest ...any) error) (*domain.Progress, error) {
	var progress domain.Progress
	var rating sql.NullString

	err := scan(
		&progress.ID,
		&progress.FlashcardID,
		&progress.ReviewCount,
		&progress.CorrectCount,
		&progress.EaseFactor,
		&progress.Interval,
		&progress.LastReviewDate,
		&progress.NextReviewDate,
		&rating,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rating.Valid {
		progress.DifficultyRating = domain.ReviewRating(rating.String)
	}

	return &progress, nil
}

// ratingToNullString maps the unset rating onto SQL NULL.
func ratingToNullString(rating domain.ReviewRating) sql.NullString {
	if rating == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(rating), Valid: true}
}
