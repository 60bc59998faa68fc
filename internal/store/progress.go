package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
)

// ProgressStore defines the interface for progress record persistence.
// There is exactly one progress record per flashcard, so records are
// addressed by flashcard ID.
type ProgressStore interface {
	// Create saves a new progress record.
	// It handles domain validation internally.
	// Returns ErrDuplicate if a record for the flashcard already exists.
	Create(ctx context.Context, progress *domain.Progress) error

	// GetByFlashcardID retrieves the progress record for a flashcard.
	// Returns ErrProgressNotFound if no record exists.
	// This method does NOT lock the row; use GetForUpdate when the record
	// will be modified.
	GetByFlashcardID(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error)

	// GetForUpdate retrieves the progress record with a row-level lock using
	// SELECT FOR UPDATE. It must be called within a transaction; the lock
	// serializes concurrent reviews of the same flashcard so no update is
	// lost. Returns ErrProgressNotFound if no record exists.
	GetForUpdate(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error)

	// Update modifies an existing progress record, identified by its
	// flashcard ID. Returns ErrProgressNotFound if no record exists.
	Update(ctx context.Context, progress *domain.Progress) error

	// ListByDeckID retrieves the progress records of every flashcard in a deck.
	ListByDeckID(ctx context.Context, deckID uuid.UUID) ([]*domain.Progress, error)

	// ListByUserID retrieves the progress records of every flashcard across
	// all of a user's decks.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Progress, error)

	// WithTx returns a ProgressStore that runs its operations on the given
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ProgressStore
}

// FlashcardStore defines the interface for flashcard persistence.
// Progress records are owned by flashcards: deleting a flashcard cascades to
// its progress record at the schema level.
type FlashcardStore interface {
	// Create saves a new flashcard.
	// Returns ErrInvalidEntity if the deck does not exist.
	Create(ctx context.Context, flashcard *domain.Flashcard) error

	// GetByID retrieves a flashcard by its unique ID.
	// Returns ErrFlashcardNotFound if the flashcard does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error)

	// Delete removes a flashcard. The associated progress record is removed
	// by the ON DELETE CASCADE constraint in the schema.
	// Returns ErrFlashcardNotFound if the flashcard does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListDueByDeckID retrieves the flashcards in a deck whose progress
	// records are due at the given time, i.e. next_review_date <= now.
	ListDueByDeckID(ctx context.Context, deckID uuid.UUID, now time.Time) ([]*domain.Flashcard, error)

	// WithTx returns a FlashcardStore that runs its operations on the given
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) FlashcardStore
}
