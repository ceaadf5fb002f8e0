package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"studytrack/internal/identity"
	"studytrack/internal/models"
	"studytrack/internal/service"
)

// APIHandler exposes the core operations as a JSON API
type APIHandler struct {
	resolver   identity.Resolver
	contents   *service.ContentService
	progress   *service.ProgressService
	milestones *service.MilestoneService
	logger     *zap.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(resolver identity.Resolver, contents *service.ContentService, progress *service.ProgressService, milestones *service.MilestoneService, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		resolver:   resolver,
		contents:   contents,
		progress:   progress,
		milestones: milestones,
		logger:     logger,
	}
}

// Routes registers all API routes on the mux
func (h *APIHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/content/quiz", h.GenerateQuiz)
	mux.HandleFunc("POST /api/content/flashcards", h.GenerateFlashcards)
	mux.HandleFunc("POST /api/content/explanation", h.GenerateExplanation)
	mux.HandleFunc("POST /api/content/discussion", h.GenerateDiscussion)
	mux.HandleFunc("POST /api/progress/quiz-result", h.TrackQuizResult)
	mux.HandleFunc("POST /api/progress/flashcards-studied", h.FlashcardsStudied)
	mux.HandleFunc("GET /api/progress/summary", h.Summary)
	mux.HandleFunc("GET /api/progress/dashboard", h.Dashboard)
	mux.HandleFunc("GET /api/milestones", h.Milestones)
}

// currentUser resolves the bearer token on the request to a user identity
func (h *APIHandler) currentUser(r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return models.User{}, fmt.Errorf("%w: missing bearer token", identity.ErrUnauthorized)
	}
	return h.resolver.Resolve(r.Context(), token)
}

type topicRequest struct {
	Topic string `json:"topic"`
}

func decodeTopic(r *http.Request) (string, error) {
	var req topicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("%w: invalid request body", service.ErrInvalidResult)
	}
	if strings.TrimSpace(req.Topic) == "" {
		return "", fmt.Errorf("%w: topic is required", service.ErrInvalidResult)
	}
	return req.Topic, nil
}

// GenerateQuiz handles POST /api/content/quiz
func (h *APIHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	topic, err := decodeTopic(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	quiz, err := h.contents.GenerateQuiz(r.Context(), user, topic)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, quiz)
}

// GenerateFlashcards handles POST /api/content/flashcards
func (h *APIHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	topic, err := decodeTopic(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	cards, err := h.contents.GenerateFlashcards(r.Context(), user, topic)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cards)
}

type textResponse struct {
	Text string `json:"text"`
}

// GenerateExplanation handles POST /api/content/explanation
func (h *APIHandler) GenerateExplanation(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	topic, err := decodeTopic(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	text, err := h.contents.GenerateExplanation(r.Context(), user, topic)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, textResponse{Text: text})
}

// GenerateDiscussion handles POST /api/content/discussion
func (h *APIHandler) GenerateDiscussion(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	topic, err := decodeTopic(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	text, err := h.contents.GenerateDiscussion(r.Context(), user, topic)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, textResponse{Text: text})
}

type quizResultRequest struct {
	Topic          string `json:"topic"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
}

type quizResultResponse struct {
	Message   string            `json:"message"`
	Milestone *models.Milestone `json:"milestone,omitempty"`
}

// TrackQuizResult handles POST /api/progress/quiz-result
func (h *APIHandler) TrackQuizResult(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req quizResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, fmt.Errorf("%w: invalid request body", service.ErrInvalidResult))
		return
	}

	milestone, err := h.progress.TrackQuizResult(r.Context(), user.ID, req.Topic, req.Score, req.TotalQuestions)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, quizResultResponse{
		Message:   "Quiz result tracked successfully.",
		Milestone: milestone,
	})
}

type flashcardsStudiedRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// FlashcardsStudied handles POST /api/progress/flashcards-studied
func (h *APIHandler) FlashcardsStudied(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req flashcardsStudiedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, fmt.Errorf("%w: invalid request body", service.ErrInvalidResult))
		return
	}

	if err := h.progress.RecordFlashcardsStudied(r.Context(), user.ID, req.Topic, req.Count); err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Flashcards recorded."})
}

// Summary handles GET /api/progress/summary
func (h *APIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	summary, err := h.progress.Summarize(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// Dashboard handles GET /api/progress/dashboard
func (h *APIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	dashboard, err := h.progress.Dashboard(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// Milestones handles GET /api/milestones
func (h *APIHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	milestones, err := h.milestones.ListMilestones(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, milestones)
}
