package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/missing-receipts/internal/api/middleware"
	"github.com/dvloznov/missing-receipts/internal/jobs"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/dvloznov/missing-receipts/internal/pipeline"
	"github.com/dvloznov/missing-receipts/internal/views"
	"github.com/rs/zerolog"
)

// EmailService is the part of pipeline.Service the handlers call.
type EmailService interface {
	Run(ctx context.Context, req ledger.FetchRequest) (*pipeline.Result, error)
	Analyze(ctx context.Context, req ledger.FetchRequest) (*pipeline.Result, error)
	Guides(ctx context.Context, req ledger.FetchRequest) (*pipeline.Result, error)
}

// parseFetchRequest reads token, from, to, account and bank_account_id from
// the query string. A missing token is left for the pipeline to reject.
func parseFetchRequest(r *http.Request) (ledger.FetchRequest, error) {
	query := r.URL.Query()
	req := ledger.FetchRequest{
		Token: query.Get("token"),
		From:  query.Get("from"),
		To:    query.Get("to"),
	}

	for _, d := range []struct {
		name  string
		value string
	}{{"from", req.From}, {"to", req.To}} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d.value); err != nil {
			return req, errors.New("Invalid " + d.name + " format, expected YYYY-MM-DD")
		}
	}

	if s := query.Get("account"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return req, errors.New("Invalid account")
		}
		req.Account = v
	}
	if s := query.Get("bank_account_id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return req, errors.New("Invalid bank_account_id")
		}
		req.BankAccountID = v
	}
	return req, nil
}

// writePipelineError maps a pipeline failure onto an HTTP status. Only
// validation failures are reported to the caller in detail.
func writePipelineError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case pipeline.IsValidation(err):
		var verr *pipeline.ValidationError
		errors.As(err, &verr)
		middleware.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Str("stage", string(pipeline.FailedStage(err))).Msg("Pipeline timed out")
		middleware.WriteError(w, http.StatusGatewayTimeout, "Timed out generating email")
	default:
		log.Error().Err(err).Str("stage", string(pipeline.FailedStage(err))).Msg("Pipeline failed")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to generate email")
	}
}

// PagesHandler serves the HTML pages.
type PagesHandler struct {
	svc EmailService
	log zerolog.Logger
	now func() time.Time
}

// NewPagesHandler creates a new pages handler.
func NewPagesHandler(svc EmailService, log zerolog.Logger) *PagesHandler {
	return &PagesHandler{svc: svc, log: log, now: time.Now}
}

// Index handles GET /?token=
func (h *PagesHandler) Index(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		middleware.WriteError(w, http.StatusBadRequest, "token is required")
		return
	}

	page, err := views.Index(token, h.now())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render index")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render page")
		return
	}
	middleware.WriteHTML(w, http.StatusOK, page)
}

// Preview handles GET /api/email/preview?token=
func (h *PagesHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, err := parseFetchRequest(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Token == "" {
		middleware.WriteError(w, http.StatusBadRequest, "token is required")
		return
	}

	res, err := h.svc.Run(r.Context(), req)
	if err != nil {
		writePipelineError(w, h.log, err)
		return
	}

	page, err := views.Email(*res.Draft, req.Token, h.now())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render email preview")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render page")
		return
	}
	middleware.WriteHTML(w, http.StatusOK, page)
}

// EmailHandler serves the pipeline results as JSON.
type EmailHandler struct {
	svc EmailService
	log zerolog.Logger
}

// NewEmailHandler creates a new email handler.
func NewEmailHandler(svc EmailService, log zerolog.Logger) *EmailHandler {
	return &EmailHandler{svc: svc, log: log}
}

// Email handles GET /api/email
func (h *EmailHandler) Email(w http.ResponseWriter, r *http.Request) {
	req, err := parseFetchRequest(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Run(r.Context(), req)
	if err != nil {
		writePipelineError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res.Draft)
}

// Analysis handles GET /api/analysis
func (h *EmailHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	req, err := parseFetchRequest(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		writePipelineError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// Guides handles GET /api/guides
func (h *EmailHandler) Guides(w http.ResponseWriter, r *http.Request) {
	req, err := parseFetchRequest(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Guides(r.Context(), req)
	if err != nil {
		writePipelineError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res.Guide)
}

// NotificationsHandler enqueues asynchronous notification jobs.
type NotificationsHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(publisher jobs.Publisher, log zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{publisher: publisher, log: log}
}

// Enqueue handles POST /api/notifications
func (h *NotificationsHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Customer string `json:"customer"`
		From     string `json:"from"`
		To       string `json:"to"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Token == "" {
		middleware.WriteError(w, http.StatusBadRequest, "token is required")
		return
	}

	job := &jobs.NotificationJob{
		Token:    req.Token,
		Customer: req.Customer,
		From:     req.From,
		To:       req.To,
	}

	if err := h.publisher.PublishNotification(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue notification job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue notification job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("customer", job.Customer).Msg("Notification job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Customer: query.Get("customer"),
		Status:   jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	if jobsList == nil {
		jobsList = []*jobs.NotificationJob{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
