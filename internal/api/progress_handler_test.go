package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/service/progress"
)

// fakeService implements progress.Service with overridable behavior per test.
type fakeService struct {
	getFn          func(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error)
	recordReviewFn func(ctx context.Context, flashcardID uuid.UUID, rating domain.ReviewRating) (*domain.Progress, error)
	resetFn        func(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error)
	partialFn      func(ctx context.Context, flashcardID uuid.UUID, update progress.PartialUpdate) (*domain.Progress, error)
	createFn       func(ctx context.Context, deckID uuid.UUID, question, answer string) (*domain.Flashcard, *domain.Progress, error)
	deleteFn       func(ctx context.Context, flashcardID uuid.UUID) error
	dueFn          func(ctx context.Context, deckID uuid.UUID) ([]*domain.Flashcard, error)
	deckStatsFn    func(ctx context.Context, deckID uuid.UUID) (domain.DeckStats, error)
	userStatsFn    func(ctx context.Context, userID uuid.UUID) (domain.UserStats, error)
}

func (f *fakeService) Get(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error) {
	return f.getFn(ctx, flashcardID)
}

func (f *fakeService) RecordReview(ctx context.Context, flashcardID uuid.UUID, rating domain.ReviewRating) (*domain.Progress, error) {
	return f.recordReviewFn(ctx, flashcardID, rating)
}

func (f *fakeService) Reset(ctx context.Context, flashcardID uuid.UUID) (*domain.Progress, error) {
	return f.resetFn(ctx, flashcardID)
}

func (f *fakeService) ApplyPartialUpdate(ctx context.Context, flashcardID uuid.UUID, update progress.PartialUpdate) (*domain.Progress, error) {
	return f.partialFn(ctx, flashcardID, update)
}

func (f *fakeService) CreateFlashcard(ctx context.Context, deckID uuid.UUID, question, answer string) (*domain.Flashcard, *domain.Progress, error) {
	return f.createFn(ctx, deckID, question, answer)
}

func (f *fakeService) DeleteFlashcard(ctx context.Context, flashcardID uuid.UUID) error {
	return f.deleteFn(ctx, flashcardID)
}

func (f *fakeService) DueFlashcards(ctx context.Context, deckID uuid.UUID) ([]*domain.Flashcard, error) {
	return f.dueFn(ctx, deckID)
}

func (f *fakeService) DeckStats(ctx context.Context, deckID uuid.UUID) (domain.DeckStats, error) {
	return f.deckStatsFn(ctx, deckID)
}

func (f *fakeService) UserStats(ctx context.Context, userID uuid.UUID) (domain.UserStats, error) {
	return f.userStatsFn(ctx, userID)
}

// newProgressRouter mounts a ProgressHandler on a fresh router.
func newProgressRouter(service progress.Service) http.Handler {
	r := chi.NewRouter()
	NewProgressHandler(service, nil).RegisterRoutes(r)
	return r
}

// sampleProgress builds a progress record for handler responses.
func sampleProgress(flashcardID uuid.UUID) *domain.Progress {
	now := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	return &domain.Progress{
		ID:             uuid.New(),
		FlashcardID:    flashcardID,
		ReviewCount:    3,
		CorrectCount:   2,
		EaseFactor:     2.2,
		Interval:       6,
		LastReviewDate: now,
		NextReviewDate: now.Add(6 * 24 * time.Hour),
		CreatedAt:      now.Add(-48 * time.Hour),
		UpdatedAt:      now,
	}
}

func TestGetProgress(t *testing.T) {
	t.Parallel()
	flashcardID := uuid.New()
	record := sampleProgress(flashcardID)

	testCases := []struct {
		name           string
		target         string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "success",
			target:         "/flashcards/" + flashcardID.String() + "/progress",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "progress not found",
			target:         "/flashcards/" + flashcardID.String() + "/progress",
			serviceErr:     progress.ErrProgressNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed flashcard ID",
			target:         "/flashcards/not-a-uuid/progress",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "service failure",
			target:         "/flashcards/" + flashcardID.String() + "/progress",
			serviceErr:     errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			service := &fakeService{
				getFn: func(ctx context.Context, id uuid.UUID) (*domain.Progress, error) {
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return record, nil
				},
			}

			rec := httptest.NewRecorder()
			newProgressRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))

			require.Equal(t, tc.expectedStatus, rec.Code)

			if tc.expectedStatus == http.StatusOK {
				var response ProgressResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
				assert.Equal(t, flashcardID.String(), response.FlashcardID)
				assert.Equal(t, 3, response.ReviewCount)
				assert.InDelta(t, 2.2, response.EaseFactor, 1e-9)
			}
		})
	}
}

func TestRecordReviewEndpoint(t *testing.T) {
	t.Parallel()
	flashcardID := uuid.New()

	testCases := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "success",
			body:           `{"rating": "good"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing rating",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unrecognized rating",
			body:           `{"rating": "medium"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `{"rating":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "flashcard not found",
			body:           `{"rating": "good"}`,
			serviceErr:     progress.ErrFlashcardNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var gotRating domain.ReviewRating
			service := &fakeService{
				recordReviewFn: func(ctx context.Context, id uuid.UUID, rating domain.ReviewRating) (*domain.Progress, error) {
					gotRating = rating
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return sampleProgress(id), nil
				},
			}

			target := "/flashcards/" + flashcardID.String() + "/progress/review"
			req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			newProgressRouter(service).ServeHTTP(rec, req)

			require.Equal(t, tc.expectedStatus, rec.Code)

			if tc.expectedStatus == http.StatusOK {
				assert.Equal(t, domain.ReviewRatingGood, gotRating)
			}
		})
	}
}

func TestUpdateProgressEndpoint(t *testing.T) {
	t.Parallel()
	flashcardID := uuid.New()
	target := "/flashcards/" + flashcardID.String() + "/progress"

	t.Run("forwards recognized fields", func(t *testing.T) {
		t.Parallel()
		var gotUpdate progress.PartialUpdate
		service := &fakeService{
			partialFn: func(ctx context.Context, id uuid.UUID, update progress.PartialUpdate) (*domain.Progress, error) {
				gotUpdate = update
				return sampleProgress(id), nil
			},
		}

		body := `{"review_count": 5, "ease_factor": 2.1, "unknown_field": true}`
		req := httptest.NewRequest(http.MethodPut, target, bytes.NewBufferString(body))

		rec := httptest.NewRecorder()
		newProgressRouter(service).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotUpdate.ReviewCount)
		assert.Equal(t, 5, *gotUpdate.ReviewCount)
		require.NotNil(t, gotUpdate.EaseFactor)
		assert.InDelta(t, 2.1, *gotUpdate.EaseFactor, 1e-9)
		assert.Nil(t, gotUpdate.CorrectCount)
	})

	t.Run("empty body is rejected", func(t *testing.T) {
		t.Parallel()
		service := &fakeService{
			partialFn: func(ctx context.Context, id uuid.UUID, update progress.PartialUpdate) (*domain.Progress, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}

		rec := httptest.NewRecorder()
		newProgressRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, target, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid date format maps to 400", func(t *testing.T) {
		t.Parallel()
		service := &fakeService{
			partialFn: func(ctx context.Context, id uuid.UUID, update progress.PartialUpdate) (*domain.Progress, error) {
				return nil, domain.NewValidationError("next_review_date", "is not an ISO-8601 timestamp", domain.ErrInvalidFormat)
			},
		}

		body := `{"next_review_date": "tomorrow"}`
		req := httptest.NewRequest(http.MethodPut, target, bytes.NewBufferString(body))

		rec := httptest.NewRecorder()
		newProgressRouter(service).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Contains(t, response["error"], "next_review_date")
	})
}

func TestResetProgressEndpoint(t *testing.T) {
	t.Parallel()
	flashcardID := uuid.New()
	target := "/flashcards/" + flashcardID.String() + "/progress/reset"

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		reset := sampleProgress(flashcardID)
		reset.ReviewCount = 0
		reset.CorrectCount = 0
		reset.EaseFactor = domain.DefaultEaseFactor
		reset.Interval = domain.DefaultIntervalDays

		service := &fakeService{
			resetFn: func(ctx context.Context, id uuid.UUID) (*domain.Progress, error) {
				return reset, nil
			},
		}

		rec := httptest.NewRecorder()
		newProgressRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var response ProgressResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, 0, response.ReviewCount)
		assert.Equal(t, domain.DefaultEaseFactor, response.EaseFactor)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		service := &fakeService{
			resetFn: func(ctx context.Context, id uuid.UUID) (*domain.Progress, error) {
				return nil, progress.ErrProgressNotFound
			},
		}

		rec := httptest.NewRecorder()
		newProgressRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, target, nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStatsEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("deck stats", func(t *testing.T) {
		t.Parallel()
		deckID := uuid.New()
		service := &fakeService{
			deckStatsFn: func(ctx context.Context, id uuid.UUID) (domain.DeckStats, error) {
				return domain.DeckStats{Total: 10, Due: 3, Mastered: 4, Learning: 3, New: 3}, nil
			},
		}

		rec := httptest.NewRecorder()
		newProgressRouter(service).ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/decks/"+deckID.String()+"/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var stats domain.DeckStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, domain.DeckStats{Total: 10, Due: 3, Mastered: 4, Learning: 3, New: 3}, stats)
	})

	t.Run("user stats", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		service := &fakeService{
			userStatsFn: func(ctx context.Context, id uuid.UUID) (domain.UserStats, error) {
				return domain.UserStats{TotalFlashcards: 4, TotalReviews: 12, Accuracy: 75.0, DueToday: 2, Mastered: 1, Learning: 2, New: 1}, nil
			},
		}

		rec := httptest.NewRecorder()
		newProgressRouter(service).ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/users/"+userID.String()+"/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var stats domain.UserStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.InDelta(t, 75.0, stats.Accuracy, 1e-9)
	})

	t.Run("stats failure maps to 500", func(t *testing.T) {
		t.Parallel()
		service := &fakeService{
			deckStatsFn: func(ctx context.Context, id uuid.UUID) (domain.DeckStats, error) {
				return domain.DeckStats{}, errors.New("connection refused")
			},
		}

		rec := httptest.NewRecorder()
		newProgressRouter(service).ServeHTTP(rec,
			httptest.NewRequest(http.MethodGet, "/decks/"+uuid.New().String()+"/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
