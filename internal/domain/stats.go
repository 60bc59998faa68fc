package domain

import (
	"math"
	"time"
)

// Mastery thresholds. A card counts as mastered once it has been reviewed at
// least five times and its ease factor sits at the 2.5 ceiling.
const (
	MasteredMinReviews    = 5
	MasteredMinEaseFactor = 2.5
)

// DeckStats summarizes the progress records of a single deck at a point in
// time. New, Mastered and Learning are mutually exclusive and exhaustive;
// Due is an overlapping tag (a learning card can also be due).
type DeckStats struct {
	Total    int `json:"total"`
	Due      int `json:"due"`
	Mastered int `json:"mastered"`
	Learning int `json:"learning"`
	New      int `json:"new"`
}

// UserStats summarizes all progress records across a user's decks.
type UserStats struct {
	TotalFlashcards int     `json:"total_flashcards"`
	TotalReviews    int     `json:"total_reviews"`
	Accuracy        float64 `json:"accuracy"`
	DueToday        int     `json:"due_today"`
	Mastered        int     `json:"mastered"`
	Learning        int     `json:"learning"`
	New             int     `json:"new"`
}

// IsDue reports whether the card should be shown, i.e. its next review date
// has passed relative to now.
func (p *Progress) IsDue(now time.Time) bool {
	return !p.NextReviewDate.After(now)
}

// IsNew reports whether the card has never been reviewed.
func (p *Progress) IsNew() bool {
	return p.ReviewCount == 0
}

// IsMastered reports whether the card meets the mastery thresholds.
func (p *Progress) IsMastered() bool {
	return p.ReviewCount >= MasteredMinReviews && p.EaseFactor >= MasteredMinEaseFactor
}

// ComputeDeckStats reduces a deck's progress records to aggregate counts.
// The reduction is pure; callers pass the snapshot of records and "now".
func ComputeDeckStats(records []*Progress, now time.Time) DeckStats {
	stats := DeckStats{Total: len(records)}

	for _, p := range records {
		if p.IsDue(now) {
			stats.Due++
		}

		switch {
		case p.IsNew():
			stats.New++
		case p.IsMastered():
			stats.Mastered++
		default:
			stats.Learning++
		}
	}

	return stats
}

// ComputeUserStats reduces all of a user's progress records to aggregate
// counts plus overall accuracy. Accuracy is the percentage of correct reviews
// across every card, rounded to one decimal place, and 0.0 when the user has
// not reviewed anything yet.
func ComputeUserStats(records []*Progress, now time.Time) UserStats {
	stats := UserStats{TotalFlashcards: len(records)}

	totalCorrect := 0
	for _, p := range records {
		stats.TotalReviews += p.ReviewCount
		totalCorrect += p.CorrectCount

		if p.IsDue(now) {
			stats.DueToday++
		}

		switch {
		case p.IsNew():
			stats.New++
		case p.IsMastered():
			stats.Mastered++
		default:
			stats.Learning++
		}
	}

	if stats.TotalReviews > 0 {
		accuracy := float64(totalCorrect) / float64(stats.TotalReviews) * 100
		stats.Accuracy = math.Round(accuracy*10) / 10
	}

	return stats
}
