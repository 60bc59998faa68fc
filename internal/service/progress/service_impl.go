package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain/srs"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/platform/logger"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	flashcards store.FlashcardStore
	progress   store.ProgressStore
	srsService srs.Service
	tx         TxRunner
	clock      Clock
	logger     *slog.Logger
}

// NewService creates a new progress Service implementation.
// clock may be nil, in which case the system clock is used.
func NewService(
	flashcards store.FlashcardStore,
	progressStore store.ProgressStore,
	srsService srs.Service,
	tx TxRunner,
	clock Clock,
	log *slog.Logger,
) Service {
	if flashcards == nil {
		panic("flashcards store cannot be nil")
	}
	if progressStore == nil {
		panic("progress store cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if tx == nil {
		panic("tx runner cannot be nil")
	}

	if clock == nil {
		clock = NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		flashcards: flashcards,
		progress:   progressStore,
		srsService: srsService,
		tx:         tx,
		clock:      clock,
		logger:     log.With(slog.String("component", "progress_service")),
	}
}

// Get implements Service.Get.
func (s *serviceImpl) Get(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	record, err := s.progress.GetByFlashcardID(ctx, flashcardID)
	if err != nil {
		if errors.Is(err, store.ErrProgressNotFound) {
			log.Debug("progress not found", slog.String("flashcard_id", flashcardID.String()))
			return nil, ErrProgressNotFound
		}
		log.Error("failed to get progress",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()))
		return nil, &ServiceError{Operation: "get", Message: "failed to load progress", Err: err}
	}

	return record, nil
}

// RecordReview implements Service.RecordReview.
// The read-modify-write runs inside a transaction with a row-level lock on
// the progress record, so concurrent reviews of the same flashcard are
// serialized and no update is lost.
func (s *serviceImpl) RecordReview(
	ctx context.Context,
	flashcardID uuid.UUID,
	rating domain.ReviewRating,
) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !rating.IsValid() {
		log.Warn("invalid review rating",
			slog.String("flashcard_id", flashcardID.String()),
			slog.String("rating", string(rating)))
		return nil, ErrInvalidRating
	}

	var updated *domain.Progress
	err := s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		flashcards := s.flashcards.WithTx(tx)
		progressStore := s.progress.WithTx(tx)

		if _, err := flashcards.GetByID(ctx, flashcardID); err != nil {
			if errors.Is(err, store.ErrFlashcardNotFound) {
				return ErrFlashcardNotFound
			}
			return fmt.Errorf("failed to get flashcard: %w", err)
		}

		now := s.clock.Now()

		record, err := progressStore.GetForUpdate(ctx, flashcardID)
		created := false
		if err != nil {
			if !errors.Is(err, store.ErrProgressNotFound) {
				return fmt.Errorf("failed to get progress: %w", err)
			}
			// First-ever review: start from the default state.
			record, err = domain.NewProgress(flashcardID, now)
			if err != nil {
				return fmt.Errorf("failed to create progress: %w", err)
			}
			created = true
		}

		next, err := s.srsService.CalculateNextReview(record, rating, now)
		if err != nil {
			return fmt.Errorf("failed to calculate next review: %w", err)
		}

		if created {
			if err := progressStore.Create(ctx, next); err != nil {
				return fmt.Errorf("failed to create progress: %w", err)
			}
		} else {
			if err := progressStore.Update(ctx, next); err != nil {
				return fmt.Errorf("failed to update progress: %w", err)
			}
		}

		updated = next
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrFlashcardNotFound) {
			return nil, ErrFlashcardNotFound
		}
		log.Error("failed to record review",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()),
			slog.String("rating", string(rating)))
		return nil, &ServiceError{Operation: "record_review", Message: "failed to record review", Err: err}
	}

	log.Debug("review recorded",
		slog.String("flashcard_id", flashcardID.String()),
		slog.String("rating", string(rating)),
		slog.Int("review_count", updated.ReviewCount),
		slog.Float64("ease_factor", updated.EaseFactor),
		slog.Float64("interval_days", updated.Interval),
		slog.Time("next_review_date", updated.NextReviewDate))

	return updated, nil
}

// Reset implements Service.Reset.
func (s *serviceImpl) Reset(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var reset *domain.Progress
	err := s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progressStore := s.progress.WithTx(tx)

		record, err := progressStore.GetForUpdate(ctx, flashcardID)
		if err != nil {
			if errors.Is(err, store.ErrProgressNotFound) {
				return ErrProgressNotFound
			}
			return fmt.Errorf("failed to get progress: %w", err)
		}

		reset = record.Reset(s.clock.Now())
		if err := progressStore.Update(ctx, reset); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrProgressNotFound) {
			return nil, ErrProgressNotFound
		}
		log.Error("failed to reset progress",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()))
		return nil, &ServiceError{Operation: "reset", Message: "failed to reset progress", Err: err}
	}

	log.Info("progress reset", slog.String("flashcard_id", flashcardID.String()))
	return reset, nil
}

// ApplyPartialUpdate implements Service.ApplyPartialUpdate.
// Recognized fields overwrite the stored values; the record is then
// re-validated so invariants like correctCount <= reviewCount still hold.
// Every successful update stamps UpdatedAt and LastReviewDate to now,
// matching the out-of-band update semantics of the HTTP PUT contract.
func (s *serviceImpl) ApplyPartialUpdate(
	ctx context.Context,
	flashcardID uuid.UUID,
	update PartialUpdate,
) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Progress
	err := s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progressStore := s.progress.WithTx(tx)

		record, err := progressStore.GetForUpdate(ctx, flashcardID)
		if err != nil {
			if errors.Is(err, store.ErrProgressNotFound) {
				return ErrProgressNotFound
			}
			return fmt.Errorf("failed to get progress: %w", err)
		}

		if err := applyFields(record, update); err != nil {
			return err
		}

		now := s.clock.Now()
		record.LastReviewDate = now
		record.UpdatedAt = now

		if err := record.Validate(); err != nil {
			return domain.NewValidationError("progress", err.Error(), domain.ErrValidation)
		}

		if err := progressStore.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update progress: %w", err)
		}

		updated = record
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrProgressNotFound),
			errors.Is(err, domain.ErrInvalidFormat),
			errors.Is(err, domain.ErrValidation),
			errors.Is(err, domain.ErrInvalidReviewRating):
			return nil, err
		}
		log.Error("failed to apply partial update",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()))
		return nil, &ServiceError{Operation: "partial_update", Message: "failed to update progress", Err: err}
	}

	return updated, nil
}

// CreateFlashcard implements Service.CreateFlashcard.
// The flashcard and its default-state progress record are created in one
// transaction so the 1:1 ownership invariant holds from the start.
func (s *serviceImpl) CreateFlashcard(
	ctx context.Context,
	deckID uuid.UUID,
	question, answer string,
) (*domain.Flashcard, *domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.clock.Now()

	flashcard, err := domain.NewFlashcard(deckID, question, answer, now)
	if err != nil {
		return nil, nil, domain.NewValidationError("flashcard", err.Error(), domain.ErrValidation)
	}

	record, err := domain.NewProgress(flashcard.ID, now)
	if err != nil {
		return nil, nil, err
	}

	err = s.tx.Run(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.flashcards.WithTx(tx).Create(ctx, flashcard); err != nil {
			return fmt.Errorf("failed to create flashcard: %w", err)
		}
		if err := s.progress.WithTx(tx).Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create progress: %w", err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			return nil, nil, domain.NewValidationError("deck_id", "does not exist", domain.ErrValidation)
		}
		log.Error("failed to create flashcard",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, nil, &ServiceError{Operation: "create_flashcard", Message: "failed to create flashcard", Err: err}
	}

	log.Info("flashcard created",
		slog.String("flashcard_id", flashcard.ID.String()),
		slog.String("deck_id", deckID.String()))

	return flashcard, record, nil
}

// DeleteFlashcard implements Service.DeleteFlashcard.
func (s *serviceImpl) DeleteFlashcard(ctx context.Context, flashcardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.flashcards.Delete(ctx, flashcardID); err != nil {
		if errors.Is(err, store.ErrFlashcardNotFound) {
			return ErrFlashcardNotFound
		}
		log.Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()))
		return &ServiceError{Operation: "delete_flashcard", Message: "failed to delete flashcard", Err: err}
	}

	return nil
}

// DueFlashcards implements Service.DueFlashcards.
func (s *serviceImpl) DueFlashcards(ctx context.Context, deckID uuid.UUID) ([]*domain.Flashcard, error) {
	flashcards, err := s.flashcards.ListDueByDeckID(ctx, deckID, s.clock.Now())
	if err != nil {
		return nil, &ServiceError{Operation: "due_flashcards", Message: "failed to list due flashcards", Err: err}
	}
	return flashcards, nil
}

// DeckStats implements Service.DeckStats.
// Aggregation reads a snapshot of records; a record updated mid-aggregation
// is counted in either its old or new state, never partially.
func (s *serviceImpl) DeckStats(ctx context.Context, deckID uuid.UUID) (domain.DeckStats, error) {
	records, err := s.progress.ListByDeckID(ctx, deckID)
	if err != nil {
		return domain.DeckStats{}, &ServiceError{Operation: "deck_stats", Message: "failed to list progress", Err: err}
	}
	return domain.ComputeDeckStats(records, s.clock.Now()), nil
}

// UserStats implements Service.UserStats.
func (s *serviceImpl) UserStats(ctx context.Context, userID uuid.UUID) (domain.UserStats, error) {
	records, err := s.progress.ListByUserID(ctx, userID)
	if err != nil {
		return domain.UserStats{}, &ServiceError{Operation: "user_stats", Message: "failed to list progress", Err: err}
	}
	return domain.ComputeUserStats(records, s.clock.Now()), nil
}

// applyFields copies the supplied fields of a partial update onto the record.
func applyFields(record *domain.Progress, update PartialUpdate) error {
	if update.ReviewCount != nil {
		record.ReviewCount = *update.ReviewCount
	}
	if update.CorrectCount != nil {
		record.CorrectCount = *update.CorrectCount
	}
	if update.EaseFactor != nil {
		record.EaseFactor = *update.EaseFactor
	}
	if update.Interval != nil {
		record.Interval = *update.Interval
	}
	if update.LastReviewDate != nil {
		t, err := parseTimestamp(*update.LastReviewDate)
		if err != nil {
			return domain.NewValidationError("last_review_date", "is not an ISO-8601 timestamp", domain.ErrInvalidFormat)
		}
		record.LastReviewDate = t
	}
	if update.NextReviewDate != nil {
		t, err := parseTimestamp(*update.NextReviewDate)
		if err != nil {
			return domain.NewValidationError("next_review_date", "is not an ISO-8601 timestamp", domain.ErrInvalidFormat)
		}
		record.NextReviewDate = t
	}
	if update.DifficultyRating != nil {
		rating := domain.ReviewRating(*update.DifficultyRating)
		if !rating.IsValid() {
			return domain.NewValidationError("difficulty_rating", "must be one of again, hard, good, easy", domain.ErrInvalidReviewRating)
		}
		record.DifficultyRating = rating
	}
	return nil
}

// timestampLayouts lists the accepted ISO-8601 shapes: with a Z or numeric
// offset, and the offset-less form produced by naive datetimes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidFormat, value)
}
