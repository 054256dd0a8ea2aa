// Package api wires the HTTP handlers and middleware of the service.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/missing-receipts/internal/api/handlers"
	"github.com/dvloznov/missing-receipts/internal/api/middleware"
	"github.com/dvloznov/missing-receipts/internal/jobs"
	"github.com/rs/zerolog"
)

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Service   handlers.EmailService
	Publisher jobs.Publisher
	Store     jobs.JobStore
}

// method restricts h to one HTTP method.
func method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(deps Dependencies, log zerolog.Logger) http.Handler {
	pagesHandler := handlers.NewPagesHandler(deps.Service, log)
	emailHandler := handlers.NewEmailHandler(deps.Service, log)
	notificationsHandler := handlers.NewNotificationsHandler(deps.Publisher, log)
	jobsHandler := handlers.NewJobsHandler(deps.Store, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		method(http.MethodGet, pagesHandler.Index)(w, r)
	})

	// Email endpoints
	mux.HandleFunc("/api/email", method(http.MethodGet, emailHandler.Email))
	mux.HandleFunc("/api/email/preview", method(http.MethodGet, pagesHandler.Preview))
	mux.HandleFunc("/api/analysis", method(http.MethodGet, emailHandler.Analysis))
	mux.HandleFunc("/api/guides", method(http.MethodGet, emailHandler.Guides))

	// Notification jobs
	mux.HandleFunc("/api/notifications", method(http.MethodPost, notificationsHandler.Enqueue))

	mux.HandleFunc("/api/jobs", method(http.MethodGet, jobsHandler.ListJobs))
	mux.HandleFunc("/api/jobs/", method(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		// Extract job ID from path
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	}))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)
}
