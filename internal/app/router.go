package app

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sqeprep/internal/app/observability"
	"sqeprep/internal/assistant"
	"sqeprep/internal/content"
	"sqeprep/internal/report"
	"sqeprep/internal/session"
	"sqeprep/internal/wrongstore"
)

// NewRouter wires the assessment engine behind the caller-facing HTTP API.
// db may be nil, in which case all stores run in memory.
func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)

	provider := content.NewSeededProvider()

	var wrongs wrongstore.Store
	var history session.HistoryStore
	if db != nil {
		wrongs = wrongstore.NewSQLStore(db)
		history = session.NewSQLHistory(db)
	} else {
		wrongs = wrongstore.NewMemoryStore()
		history = session.NewMemoryHistory()
	}

	engine := session.NewEngine(provider, wrongs, history)
	sessionHandler := session.NewHandler(engine)

	reportSvc := report.NewService(history, wrongs)
	reportHandler := report.NewHandler(reportSvc)

	assistantSvc := assistant.NewService(assistant.ServiceConfig{
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
	})
	assistantHandler := assistant.NewHandler(assistantSvc)

	startLimiter := NewIPRateLimiter(cfg.SessionStartRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.With(RateLimitMiddleware(startLimiter)).Post("/sessions", sessionHandler.Start)

		api.Get("/sessions/{id}", sessionHandler.Summary)
		api.Get("/sessions/{id}/questions/{index}", sessionHandler.Question)
		api.Put("/sessions/{id}/answer", sessionHandler.Answer)
		api.Post("/sessions/{id}/flag", sessionHandler.Flag)
		api.Post("/sessions/{id}/next", sessionHandler.Next)
		api.Post("/sessions/{id}/previous", sessionHandler.Previous)
		api.Post("/sessions/{id}/tick", sessionHandler.Tick)
		api.Post("/sessions/{id}/submit", sessionHandler.Submit)
		api.Get("/sessions/{id}/result", sessionHandler.Result)

		api.Get("/candidates/{candidateID}/wrong-questions", sessionHandler.WrongQuestions)
		api.Get("/candidates/{candidateID}/results", sessionHandler.History)
		api.Get("/candidates/{candidateID}/analytics", sessionHandler.Analytics)
		api.Get("/candidates/{candidateID}/export", reportHandler.Export)

		api.Post("/assistant/reply", assistantHandler.Reply)
	})

	return r
}
