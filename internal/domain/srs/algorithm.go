package srs

import (
	"math"
	"time"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
)

// passThreshold is the quality score at and above which a review counts as
// correct.
const passThreshold = 3

// qualityForRating maps a rating to its SM-2 quality score. Unrecognized
// ratings fall back to the default quality rather than failing, so the
// transition stays total over its input domain.
func qualityForRating(rating domain.ReviewRating, params *Params) int {
	if quality, ok := params.Quality[rating]; ok {
		return quality
	}
	return params.DefaultQuality
}

// calculateNextProgress computes the successor state of a progress record
// after a single review. It is pure: the input record is not modified and a
// new record is returned.
//
// Failed reviews (quality < 3) requeue the card after a fixed short interval
// so that a forgotten card resurfaces almost immediately, no matter how long
// its interval had grown. Successful reviews use fixed bootstrap intervals for
// the first two repetitions and SM-2 compounding growth afterwards.
func calculateNextProgress(
	progress *domain.Progress,
	rating domain.ReviewRating,
	now time.Time,
	params *Params,
) *domain.Progress {
	quality := qualityForRating(rating, params)

	next := &domain.Progress{
		ID:               progress.ID,
		FlashcardID:      progress.FlashcardID,
		ReviewCount:      progress.ReviewCount + 1,
		CorrectCount:     progress.CorrectCount,
		EaseFactor:       progress.EaseFactor,
		Interval:         progress.Interval,
		DifficultyRating: rating,
		CreatedAt:        progress.CreatedAt,
	}

	if quality >= passThreshold {
		next.CorrectCount++
	}

	if quality < passThreshold {
		// Fixed requeue, independent of the prior interval and ease factor.
		if quality == 0 {
			next.Interval = params.AgainIntervalDays
		} else {
			next.Interval = params.HardIntervalDays
		}
		next.EaseFactor = progress.EaseFactor - params.FailureEasePenalty
	} else {
		switch next.ReviewCount {
		case 1:
			next.Interval = params.FirstIntervalDays
		case 2:
			next.Interval = params.SecondIntervalDays
		default:
			// Interval growth uses the pre-update ease factor.
			multiplier := 1.0
			if quality == 5 {
				multiplier = params.EasyBonus
			}
			next.Interval = math.Round(progress.Interval * progress.EaseFactor * multiplier)
		}

		// SM-2 ease update: the largest increase for quality 5, a small
		// negative adjustment for quality 3.
		q := float64(quality)
		next.EaseFactor = progress.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	}

	next.EaseFactor = roundTo2(clamp(next.EaseFactor, params.MinEaseFactor, params.MaxEaseFactor))
	next.Interval = clamp(next.Interval, params.MinIntervalDays, params.MaxIntervalDays)

	next.LastReviewDate = now
	next.NextReviewDate = now.Add(daysToDuration(next.Interval))
	next.UpdatedAt = now

	return next
}

// daysToDuration converts a fractional number of days to a time.Duration with
// millisecond resolution, preserving the 10/15-minute failure intervals.
func daysToDuration(days float64) time.Duration {
	return time.Duration(math.Round(days*24*60*60*1000)) * time.Millisecond
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
