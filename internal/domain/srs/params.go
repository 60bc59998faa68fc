package srs

import (
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm.
//
// The algorithm is a hybrid: failed reviews requeue the card after a fixed
// number of minutes regardless of its history, while successful reviews grow
// the interval SM-2 style.
type Params struct {
	// Core limits
	MinEaseFactor   float64
	MaxEaseFactor   float64
	MinIntervalDays float64
	MaxIntervalDays float64

	// Quality maps each rating to its SM-2 quality score. Ratings missing
	// from the map fall back to DefaultQuality so malformed input degrades
	// gracefully instead of aborting the computation.
	Quality        map[domain.ReviewRating]int
	DefaultQuality int

	// Failure requeue intervals, in days.
	AgainIntervalDays float64
	HardIntervalDays  float64

	// FailureEasePenalty is subtracted from the ease factor on a failed review.
	FailureEasePenalty float64

	// Bootstrap intervals for the first and second successful review, in days.
	// These fixed values avoid unstable early-interval blowups from a small
	// easeFactor x interval product.
	FirstIntervalDays  float64
	SecondIntervalDays float64

	// EasyBonus multiplies the interval growth for a perfect (easy) review.
	EasyBonus float64
}

// NewDefaultParams creates a Params instance with the default tuning.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:   domain.MinEaseFactor,
		MaxEaseFactor:   domain.MaxEaseFactor,
		MinIntervalDays: domain.MinIntervalDays,
		MaxIntervalDays: domain.MaxIntervalDays,

		Quality: map[domain.ReviewRating]int{
			domain.ReviewRatingAgain: 0, // complete blackout
			domain.ReviewRatingHard:  2, // incorrect response
			domain.ReviewRatingGood:  3, // correct with difficulty
			domain.ReviewRatingEasy:  5, // perfect response
		},
		DefaultQuality: 3,

		AgainIntervalDays: 10.0 / 1440.0, // 10 minutes
		HardIntervalDays:  15.0 / 1440.0, // 15 minutes

		FailureEasePenalty: 0.2,

		FirstIntervalDays:  1,
		SecondIntervalDays: 6,

		EasyBonus: 1.3,
	}
}
