package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/api/shared"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/platform/logger"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/service/progress"
)

// CreateFlashcardRequest represents the request body for creating a flashcard.
type CreateFlashcardRequest struct {
	Question string `json:"question" validate:"required,max=1024"`
	Answer   string `json:"answer"   validate:"required,max=1024"`
}

// FlashcardResponse represents the response data for a flashcard.
type FlashcardResponse struct {
	ID        string            `json:"id"`
	DeckID    string            `json:"deck_id"`
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Progress  *ProgressResponse `json:"progress,omitempty"`
}

// FlashcardHandler handles flashcard lifecycle HTTP requests. Creation and
// deletion live here because they drive the progress record lifecycle: a
// record is created with its flashcard and cascade-deleted with it.
type FlashcardHandler struct {
	service  progress.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(service progress.Service, log *slog.Logger) *FlashcardHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &FlashcardHandler{
		service:  service,
		validate: validator.New(),
		logger:   log.With(slog.String("component", "flashcard_handler")),
	}
}

// RegisterRoutes attaches the flashcard endpoints to the router.
func (h *FlashcardHandler) RegisterRoutes(r chi.Router) {
	r.Post("/decks/{deckID}/flashcards", h.CreateFlashcard)
	r.Get("/decks/{deckID}/flashcards/due", h.GetDueFlashcards)
	r.Delete("/flashcards/{flashcardID}", h.DeleteFlashcard)
}

// CreateFlashcard handles POST /decks/{deckID}/flashcards requests.
// The flashcard is created together with its default-state progress record.
func (h *FlashcardHandler) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := pathUUID(w, r, "deckID", log)
	if !ok {
		return
	}

	var req CreateFlashcardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid create flashcard body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		log.Warn("create flashcard validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Question and answer are required")
		return
	}

	flashcard, record, err := h.service.CreateFlashcard(r.Context(), deckID, req.Question, req.Answer)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("flashcard created",
		slog.String("flashcard_id", flashcard.ID.String()),
		slog.String("deck_id", deckID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, flashcardToResponse(flashcard, record))
}

// DeleteFlashcard handles DELETE /flashcards/{flashcardID} requests.
// The progress record is removed through the schema-level cascade.
func (h *FlashcardHandler) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	flashcardID, ok := pathUUID(w, r, "flashcardID", log)
	if !ok {
		return
	}

	if err := h.service.DeleteFlashcard(r.Context(), flashcardID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDueFlashcards handles GET /decks/{deckID}/flashcards/due requests.
// It lists the flashcards in the deck whose next review date has passed.
func (h *FlashcardHandler) GetDueFlashcards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, ok := pathUUID(w, r, "deckID", log)
	if !ok {
		return
	}

	flashcards, err := h.service.DueFlashcards(r.Context(), deckID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to list due flashcards", err)
		return
	}

	response := make([]FlashcardResponse, 0, len(flashcards))
	for _, flashcard := range flashcards {
		response = append(response, flashcardToResponse(flashcard, nil))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// flashcardToResponse transforms a domain flashcard to its API representation.
func flashcardToResponse(f *domain.Flashcard, record *domain.Progress) FlashcardResponse {
	response := FlashcardResponse{
		ID:        f.ID.String(),
		DeckID:    f.DeckID.String(),
		Question:  f.Question,
		Answer:    f.Answer,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}

	if record != nil {
		progressResponse := progressToResponse(record)
		response.Progress = &progressResponse
	}

	return response
}
