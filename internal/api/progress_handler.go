// Package api provides HTTP handlers for the API.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/api/shared"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/platform/logger"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/service/progress"
)

// ProgressResponse represents the response data for a progress record.
// Date fields serialize as ISO-8601 strings.
type ProgressResponse struct {
	ID               string    `json:"id"`
	FlashcardID      string    `json:"flashcard_id"`
	ReviewCount      int       `json:"review_count"`
	CorrectCount     int       `json:"correct_count"`
	EaseFactor       float64   `json:"ease_factor"`
	Interval         float64   `json:"interval"`
	LastReviewDate   time.Time `json:"last_review_date"`
	NextReviewDate   time.Time `json:"next_review_date"`
	DifficultyRating string    `json:"difficulty_rating,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ReviewRequest represents the request body for recording a review.
type ReviewRequest struct {
	Rating string `json:"rating" validate:"required,oneof=again hard good easy"`
}

// ProgressHandler handles progress-related HTTP requests.
type ProgressHandler struct {
	service  progress.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(service progress.Service, log *slog.Logger) *ProgressHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ProgressHandler{
		service:  service,
		validate: validator.New(),
		logger:   log.With(slog.String("component", "progress_handler")),
	}
}

// RegisterRoutes attaches the progress endpoints to the router.
func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Route("/flashcards/{flashcardID}/progress", func(r chi.Router) {
		r.Get("/", h.GetProgress)
		r.Put("/", h.UpdateProgress)
		r.Post("/review", h.RecordReview)
		r.Post("/reset", h.ResetProgress)
	})
	r.Get("/decks/{deckID}/stats", h.GetDeckStats)
	r.Get("/users/{userID}/stats", h.GetUserStats)
}

// GetProgress handles GET /flashcards/{flashcardID}/progress requests.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	flashcardID, ok := pathUUID(w, r, "flashcardID", log)
	if !ok {
		return
	}

	record, err := h.service.Get(r.Context(), flashcardID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(record))
}

// RecordReview handles POST /flashcards/{flashcardID}/progress/review requests.
// It applies a review outcome and returns the updated schedule.
func (h *ProgressHandler) RecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	flashcardID, ok := pathUUID(w, r, "flashcardID", log)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid review request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		log.Warn("review request validation failed",
			slog.String("rating", req.Rating),
			slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Rating must be one of: again, hard, good, easy")
		return
	}

	record, err := h.service.RecordReview(r.Context(), flashcardID, domain.ReviewRating(req.Rating))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("review recorded",
		slog.String("flashcard_id", flashcardID.String()),
		slog.String("rating", req.Rating))
	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(record))
}

// UpdateProgress handles PUT /flashcards/{flashcardID}/progress requests.
// The body is a partial update: recognized fields overwrite stored values,
// unknown fields are ignored.
func (h *ProgressHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	flashcardID, ok := pathUUID(w, r, "flashcardID", log)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request body is required")
		return
	}

	var update progress.PartialUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		log.Warn("invalid partial update body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.service.ApplyPartialUpdate(r.Context(), flashcardID, update)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(record))
}

// ResetProgress handles POST /flashcards/{flashcardID}/progress/reset requests.
// It restores the record to its creation-time default state.
func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	flashcardID, ok := pathUUID(w, r, "flashcardID", log)
	if !ok {
		return
	}

	record, err := h.service.Reset(r.Context(), flashcardID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(record))
}

// GetDeckStats handles GET /decks/{deckID}/stats requests.
func (h *ProgressHandler) GetDeckStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := pathUUID(w, r, "deckID", log)
	if !ok {
		return
	}

	stats, err := h.service.DeckStats(r.Context(), deckID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to get deck statistics", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetUserStats handles GET /users/{userID}/stats requests.
func (h *ProgressHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := pathUUID(w, r, "userID", log)
	if !ok {
		return
	}

	stats, err := h.service.UserStats(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to get user statistics", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// pathUUID extracts and parses a UUID path parameter, writing an error
// response on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, param string, log *slog.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, param+" is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid path parameter",
			slog.String("param", param),
			slog.String("value", raw))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+param+" format")
		return uuid.Nil, false
	}

	return id, true
}

// progressToResponse transforms a domain record to its API representation.
func progressToResponse(p *domain.Progress) ProgressResponse {
	return ProgressResponse{
		ID:               p.ID.String(),
		FlashcardID:      p.FlashcardID.String(),
		ReviewCount:      p.ReviewCount,
		CorrectCount:     p.CorrectCount,
		EaseFactor:       p.EaseFactor,
		Interval:         p.Interval,
		LastReviewDate:   p.LastReviewDate,
		NextReviewDate:   p.NextReviewDate,
		DifficultyRating: string(p.DifficultyRating),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
