package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"voice-quiz-service/internal/app"
)

// NewRouter mounts the webhook, the canvas channel and the health check behind CORS.
func NewRouter(service *app.QuizService, logger *slog.Logger, allowedOrigins []string) http.Handler {
	webhook := NewWebhookHandler(service, logger)
	ws := NewWSHandler(service, logger, allowedOrigins)

	r := mux.NewRouter()
	r.HandleFunc("/fulfillment", webhook.Fulfill).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{conversationId}", webhook.EndSession).Methods(http.MethodDelete)
	r.HandleFunc("/canvas", ws.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}
