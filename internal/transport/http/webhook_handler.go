package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"voice-quiz-service/internal/app"
	"voice-quiz-service/internal/domain"
)

// WebhookHandler serves the assistant's fulfillment calls: one turn in, one reply out.
type WebhookHandler struct {
	service *app.QuizService
	logger  *slog.Logger
}

func NewWebhookHandler(service *app.QuizService, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{service: service, logger: logger}
}

// Fulfill handles POST /fulfillment. A turn without a conversation id starts a new one.
func (h *WebhookHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	var turn domain.Turn
	if err := json.NewDecoder(r.Body).Decode(&turn); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid turn payload"})
		return
	}
	if turn.ConversationID == "" {
		turn.ConversationID = uuid.NewString()
	}

	reply, err := h.service.HandleTurn(r.Context(), turn)
	if err != nil {
		status := statusFor(err)
		h.logger.Error("fulfillment failed", "conversation", turn.ConversationID, "intent", turn.Intent, "status", status, "error", err)
		writeJSON(w, status, errorPayload{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// EndSession handles DELETE /sessions/{conversationId}.
func (h *WebhookHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	if err := h.service.EndSession(r.Context(), conversationID); err != nil {
		h.logger.Error("end session failed", "conversation", conversationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingConversation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDatasetNotFound):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
