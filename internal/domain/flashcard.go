package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Flashcard.
var (
	ErrEmptyFlashcardDeckID = errors.New("flashcard deck ID cannot be empty")
	ErrEmptyQuestion        = errors.New("flashcard question cannot be empty")
	ErrEmptyAnswer          = errors.New("flashcard answer cannot be empty")
)

// Flashcard is a question/answer pair belonging to a deck. Its review
// scheduling state lives in the associated Progress record.
type Flashcard struct {
	ID        uuid.UUID `json:"id"`
	DeckID    uuid.UUID `json:"deck_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFlashcard creates a new flashcard for a deck.
func NewFlashcard(deckID uuid.UUID, question, answer string, now time.Time) (*Flashcard, error) {
	flashcard := &Flashcard{
		ID:        uuid.New(),
		DeckID:    deckID,
		Question:  question,
		Answer:    answer,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := flashcard.Validate(); err != nil {
		return nil, err
	}

	return flashcard, nil
}

// Validate checks if the Flashcard has valid data.
func (f *Flashcard) Validate() error {
	if f.DeckID == uuid.Nil {
		return ErrEmptyFlashcardDeckID
	}

	if f.Question == "" {
		return ErrEmptyQuestion
	}

	if f.Answer == "" {
		return ErrEmptyAnswer
	}

	return nil
}
