package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewRating is the four-valued difficulty rating a learner assigns to a
// review. It is mapped to an SM-2 quality score by the srs package.
type ReviewRating string

// Possible review rating values.
const (
	ReviewRatingAgain ReviewRating = "again"
	ReviewRatingHard  ReviewRating = "hard"
	ReviewRatingGood  ReviewRating = "good"
	ReviewRatingEasy  ReviewRating = "easy"
)

// IsValid reports whether the rating is one of the four recognized values.
func (r ReviewRating) IsValid() bool {
	switch r {
	case ReviewRatingAgain, ReviewRatingHard, ReviewRatingGood, ReviewRatingEasy:
		return true
	default:
		return false
	}
}

// Default scheduling state for a freshly created progress record.
const (
	DefaultEaseFactor   = 2.5
	DefaultIntervalDays = 1.0

	// MinEaseFactor and MaxEaseFactor bound the ease factor domain.
	MinEaseFactor = 1.3
	MaxEaseFactor = 2.5

	// MinIntervalDays is 10 minutes expressed in days; MaxIntervalDays is one year.
	MinIntervalDays = 10.0 / 1440.0
	MaxIntervalDays = 365.0
)

// Common validation errors for Progress.
var (
	ErrEmptyProgressFlashcardID = errors.New("progress flashcard ID cannot be empty")
	ErrNegativeReviewCount      = errors.New("review count cannot be negative")
	ErrNegativeCorrectCount     = errors.New("correct count cannot be negative")
	ErrCorrectExceedsReview     = errors.New("correct count cannot exceed review count")
	ErrEaseFactorOutOfRange     = errors.New("ease factor must be between 1.3 and 2.5")
	ErrIntervalOutOfRange       = errors.New("interval must be between 10 minutes and 365 days")
)

// Progress tracks the spaced repetition state of a single flashcard.
// There is exactly one Progress per flashcard; it is created together with the
// flashcard and removed with it through a cascading delete.
//
// Interval is measured in days and is fractional so that the minute-scale
// requeue intervals used for failed reviews survive persistence.
type Progress struct {
	ID               uuid.UUID    `json:"id"`
	FlashcardID      uuid.UUID    `json:"flashcard_id"`
	ReviewCount      int          `json:"review_count"`
	CorrectCount     int          `json:"correct_count"`
	EaseFactor       float64      `json:"ease_factor"`
	Interval         float64      `json:"interval"`
	LastReviewDate   time.Time    `json:"last_review_date"`
	NextReviewDate   time.Time    `json:"next_review_date"`
	DifficultyRating ReviewRating `json:"difficulty_rating,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// NewProgress creates the default-state progress record for a flashcard.
// The record is immediately due so that new cards show up in the next session.
func NewProgress(flashcardID uuid.UUID, now time.Time) (*Progress, error) {
	progress := &Progress{
		ID:             uuid.New(),
		FlashcardID:    flashcardID,
		ReviewCount:    0,
		CorrectCount:   0,
		EaseFactor:     DefaultEaseFactor,
		Interval:       DefaultIntervalDays,
		LastReviewDate: now,
		NextReviewDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks the Progress invariants.
// Returns an error if any field is outside its domain.
func (p *Progress) Validate() error {
	if p.FlashcardID == uuid.Nil {
		return ErrEmptyProgressFlashcardID
	}

	if p.ReviewCount < 0 {
		return ErrNegativeReviewCount
	}

	if p.CorrectCount < 0 {
		return ErrNegativeCorrectCount
	}

	if p.CorrectCount > p.ReviewCount {
		return ErrCorrectExceedsReview
	}

	if p.EaseFactor < MinEaseFactor || p.EaseFactor > MaxEaseFactor {
		return ErrEaseFactorOutOfRange
	}

	if p.Interval < MinIntervalDays || p.Interval > MaxIntervalDays {
		return ErrIntervalOutOfRange
	}

	if p.DifficultyRating != "" && !p.DifficultyRating.IsValid() {
		return ErrInvalidReviewRating
	}

	return nil
}

// Reset returns a copy restored to creation-time defaults while preserving
// identity and creation timestamp. Applying Reset twice yields the same state
// as applying it once.
func (p *Progress) Reset(now time.Time) *Progress {
	return &Progress{
		ID:             p.ID,
		FlashcardID:    p.FlashcardID,
		ReviewCount:    0,
		CorrectCount:   0,
		EaseFactor:     DefaultEaseFactor,
		Interval:       DefaultIntervalDays,
		LastReviewDate: now,
		NextReviewDate: now,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      now,
	}
}
