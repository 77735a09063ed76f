package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jpong0810/fund-review-tracker/internal/blob"
	"github.com/jpong0810/fund-review-tracker/internal/core"
	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

func doJSON(t *testing.T, h http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeReview(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload struct {
		Review map[string]any `json:"review"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return payload.Review
}

func TestHandlerReviewLifecycle(t *testing.T) {
	svc := newReportService(t)
	handler := NewHandler(svc)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/reviews", map[string]any{
		"fund_name":     "Acme Fund III",
		"gp_name":       "Acme Capital",
		"analyst":       "Jordan",
		"assigned_date": "2024-05-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decodeReview(t, rec)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("no id in response: %v", created)
	}
	if created["stage"] != "assigned" {
		t.Fatalf("initial stage: %v", created["stage"])
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/reviews/"+id+"/stage", map[string]any{"stage": "analyst_review"})
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: %d %s", rec.Code, rec.Body.String())
	}
	advanced := decodeReview(t, rec)
	if advanced["percent_complete"] != float64(40) {
		t.Fatalf("percent: %v", advanced["percent_complete"])
	}
	if advanced["next_action"] != "Advance to VP Review" {
		t.Fatalf("next action: %v", advanced["next_action"])
	}
	if advanced["days_since_assigned"] != float64(9) {
		t.Fatalf("days since assigned: %v", advanced["days_since_assigned"])
	}

	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/reviews/"+id, map[string]any{"vp": "Sam"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", rec.Code, rec.Body.String())
	}
	if decodeReview(t, rec)["vp"] != "Sam" {
		t.Fatalf("patch not applied")
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reviews/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/reviews/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reviews/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted record still served: %d", rec.Code)
	}
}

func TestHandlerListWithFiltersAndSummary(t *testing.T) {
	svc := newReportService(t)
	seedPortfolio(t, svc)
	handler := NewHandler(svc)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/reviews?analyst=jordan&stage=analyst_review,vp_review", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Reviews []map[string]any `json:"reviews"`
		Summary core.Summary     `json:"summary"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Reviews) != 1 || payload.Summary.Count != 1 {
		t.Fatalf("unexpected matches: %d / %d", len(payload.Reviews), payload.Summary.Count)
	}
	if payload.Reviews[0]["fund_name"] != "Acme Fund III" {
		t.Fatalf("wrong record: %v", payload.Reviews[0]["fund_name"])
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reviews?stage=done", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad stage accepted: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reviews?sort=alphabetical", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sort accepted: %d", rec.Code)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	svc := newReportService(t)
	handler := NewHandler(svc)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/reviews", map[string]any{"fund_name": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("validation error not 400: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/reviews/missing/stage", map[string]any{"stage": "vp_review"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing record not 404: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/reviews", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("bad method not 405: %d", rec.Code)
	}
}

func TestHandlerBlockedTransitionMapsToConflict(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()
	cfg.AllowBackwardTransitions = false
	store := memoryStoreWithRules(t, cfg)
	svc := core.NewService(store, cfg)
	handler := NewHandler(svc)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/reviews", map[string]any{
		"fund_name":     "Fund",
		"assigned_date": "2024-05-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	id := decodeReview(t, rec)["id"].(string)

	if rec := doJSON(t, handler, http.MethodPost, "/api/v1/reviews/"+id+"/stage", map[string]any{"stage": "vp_review"}); rec.Code != http.StatusOK {
		t.Fatalf("forward: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/reviews/"+id+"/stage", map[string]any{"stage": "assigned"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("blocked transition not 409: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "backward_transition") {
		t.Fatalf("violation detail missing: %s", rec.Body.String())
	}
}

func TestHandlerExportEndpoints(t *testing.T) {
	svc := newReportService(t)
	seedPortfolio(t, svc)
	worker := NewWorker(svc, blob.NewMemory(), nil, nil)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()
	handler := &Handler{Service: svc, Exports: worker}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/exports", map[string]any{
		"analyst":      "Jordan",
		"formats":      []string{"csv"},
		"requested_by": "jordan",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue: %d %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Export ExportRecord `json:"export"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	record := waitForExport(t, worker, payload.Export.ID)
	if record.Status != ExportStatusSucceeded {
		t.Fatalf("export failed: %s", record.Error)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/exports/"+payload.Export.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get export: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/exports/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing export not 404: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/exports", map[string]any{"formats": []string{"xlsx"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format accepted: %d", rec.Code)
	}
}
