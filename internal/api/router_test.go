package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/jobs/inmemory"
	"github.com/dvloznov/missing-receipts/internal/ledger"
	"github.com/dvloznov/missing-receipts/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubService struct{}

func (stubService) Run(context.Context, ledger.FetchRequest) (*pipeline.Result, error) {
	return &pipeline.Result{Draft: &domain.EmailDraft{Subject: "s", Body: "b"}}, nil
}

func (stubService) Analyze(context.Context, ledger.FetchRequest) (*pipeline.Result, error) {
	return &pipeline.Result{}, nil
}

func (stubService) Guides(context.Context, ledger.FetchRequest) (*pipeline.Result, error) {
	return &pipeline.Result{Guide: &domain.ReceiptGuideResult{Guides: []domain.ReceiptGuideItem{}}}, nil
}

func TestRouter(t *testing.T) {
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(10, 1, store)
	defer queue.Close()

	router := NewRouter(Dependencies{Service: stubService{}, Publisher: queue, Store: store}, zerolog.Nop())

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusBadRequest},
		{http.MethodGet, "/?token=t", "", http.StatusOK},
		{http.MethodGet, "/favicon.ico", "", http.StatusNotFound},
		{http.MethodGet, "/api/email?token=t", "", http.StatusOK},
		{http.MethodPost, "/api/email?token=t", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/email/preview?token=t", "", http.StatusOK},
		{http.MethodGet, "/api/analysis?token=t", "", http.StatusOK},
		{http.MethodGet, "/api/guides?token=t", "", http.StatusOK},
		{http.MethodPost, "/api/notifications", `{"token":"t"}`, http.StatusAccepted},
		{http.MethodGet, "/api/notifications", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/jobs", "", http.StatusOK},
		{http.MethodGet, "/api/jobs/missing", "", http.StatusNotFound},
		{http.MethodOptions, "/api/email", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}
