// Package progress orchestrates the spaced repetition progress engine:
// loading a flashcard's current progress record, computing its successor
// state through the scheduler and persisting the result, plus aggregate
// statistics over decks and users.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/store"
)

// Common error types for the progress service.
var (
	// ErrFlashcardNotFound indicates that the flashcard does not exist.
	ErrFlashcardNotFound = errors.New("flashcard not found")

	// ErrProgressNotFound indicates that the progress record does not exist.
	ErrProgressNotFound = errors.New("progress not found")

	// ErrInvalidRating indicates that a review rating failed basic shape checks.
	ErrInvalidRating = errors.New("invalid rating")
)

// PartialUpdate is the allow-listed field set accepted by ApplyPartialUpdate.
// Each recognized attribute has one optional field; anything outside this set
// is ignored by JSON decoding rather than treated as an error. Date fields
// are ISO-8601 strings with an optional Z suffix.
type PartialUpdate struct {
	ReviewCount      *int     `json:"review_count"`
	CorrectCount     *int     `json:"correct_count"`
	EaseFactor       *float64 `json:"ease_factor"`
	Interval         *float64 `json:"interval"`
	LastReviewDate   *string  `json:"last_review_date"`
	NextReviewDate   *string  `json:"next_review_date"`
	DifficultyRating *string  `json:"difficulty_rating"`
}

// Clock supplies the current time, injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// realClock is the production Clock backed by the system clock.
type realClock struct{}

// Now returns the current UTC time.
func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// NewRealClock returns a Clock backed by the system clock.
func NewRealClock() Clock {
	return realClock{}
}

// TxRunner abstracts transaction execution so that the service can be unit
// tested with fake stores and no database. The production implementation
// wraps store.RunInTransaction.
type TxRunner interface {
	Run(ctx context.Context, fn store.TxFn) error
}

// dbTxRunner runs functions inside real database transactions.
type dbTxRunner struct {
	db *sql.DB
}

// NewDBTxRunner returns a TxRunner backed by the given database.
func NewDBTxRunner(db *sql.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) Run(ctx context.Context, fn store.TxFn) error {
	return store.RunInTransaction(ctx, r.db, fn)
}

// Service provides the progress engine operations.
type Service interface {
	// Get returns the current progress record for a flashcard.
	// Returns ErrProgressNotFound if no record exists; it has no side effects.
	Get(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error)

	// RecordReview applies a review outcome to a flashcard's progress record
	// and persists the successor state. The default-state record is created
	// first if this is the flashcard's first-ever review.
	// Returns ErrFlashcardNotFound if the flashcard itself does not exist and
	// ErrInvalidRating if the rating is not one of again/hard/good/easy.
	RecordReview(ctx context.Context, flashcardID uuid.UUID, rating domain.ReviewRating) (*domain.Progress, error)

	// Reset restores a flashcard's progress record to its creation-time
	// default state, preserving identity. Resetting twice yields the same
	// state as resetting once.
	// Returns ErrProgressNotFound if no record exists.
	Reset(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error)

	// ApplyPartialUpdate overwrites the supplied fields on a flashcard's
	// progress record. Date strings must parse as ISO-8601 timestamps
	// (optional Z suffix) or the call fails with domain.ErrInvalidFormat.
	// Returns ErrProgressNotFound if no record exists.
	ApplyPartialUpdate(ctx context.Context, flashcardID uuid.UUID, update PartialUpdate) (*domain.Progress, error)

	// CreateFlashcard creates a flashcard together with its default-state
	// progress record in a single transaction.
	CreateFlashcard(ctx context.Context, deckID uuid.UUID, question, answer string) (*domain.Flashcard, *domain.Progress, error)

	// DeleteFlashcard removes a flashcard; its progress record is removed by
	// the schema-level cascade. Returns ErrFlashcardNotFound if absent.
	DeleteFlashcard(ctx context.Context, flashcardID uuid.UUID) error

	// DueFlashcards lists the flashcards in a deck that are due for review.
	DueFlashcards(ctx context.Context, deckID uuid.UUID) ([]*domain.Flashcard, error)

	// DeckStats reduces a deck's progress records to aggregate counts.
	DeckStats(ctx context.Context, deckID uuid.UUID) (domain.DeckStats, error)

	// UserStats reduces all of a user's progress records to aggregate counts
	// and overall accuracy.
	UserStats(ctx context.Context, userID uuid.UUID) (domain.UserStats, error)
}

// ServiceError wraps errors from the progress service with the operation that
// produced them, so consumers can differentiate failures with errors.As
// instead of string matching.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
