// Package srs implements the spaced repetition scheduling algorithm that
// decides, after each review, when a flashcard should next be shown.
package srs

import (
	"errors"
	"time"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("progress cannot be nil")
)

// Service defines the interface for scheduling operations.
type Service interface {
	// CalculateNextReview computes the successor progress state for a review
	// outcome. The computation is pure and deterministic given now; it never
	// fails for any rating value (unrecognized ratings degrade to the default
	// quality), only for a nil progress record.
	CalculateNextReview(
		progress *domain.Progress,
		rating domain.ReviewRating,
		now time.Time,
	) (*domain.Progress, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// CalculateNextReview implements the Service interface.
func (s *defaultService) CalculateNextReview(
	progress *domain.Progress,
	rating domain.ReviewRating,
	now time.Time,
) (*domain.Progress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	return calculateNextProgress(progress, rating, now, s.params), nil
}
