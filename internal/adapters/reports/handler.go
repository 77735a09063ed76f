// Package reports exposes the review pipeline over HTTP and materializes
// filtered views into stored export artifacts.
package reports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jpong0810/fund-review-tracker/internal/core"
	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

// Handler provides HTTP access to fund reviews and exports.
type Handler struct {
	Service *core.Service
	Exports ExportScheduler
}

// NewHandler constructs a reports HTTP handler.
func NewHandler(svc *core.Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "review service not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/reviews":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case strings.HasPrefix(path, "/api/v1/reviews/"):
		h.handleReview(w, r, strings.TrimPrefix(path, "/api/v1/reviews/"))
	case path == "/api/v1/exports":
		if h.Exports == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleExportCreate(w, r)
	case strings.HasPrefix(path, "/api/v1/exports/"):
		if h.Exports == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleExportGet(w, strings.TrimPrefix(path, "/api/v1/exports/"))
	default:
		http.NotFound(w, r)
	}
}

// reviewView decorates a stored record with its derived reporting fields.
type reviewView struct {
	domain.FundReview
	PercentComplete   int    `json:"percent_complete"`
	DaysSinceAssigned *int   `json:"days_since_assigned,omitempty"`
	NextAction        string `json:"next_action,omitempty"`
}

func (h *Handler) view(r domain.FundReview) reviewView {
	v := reviewView{
		FundReview:      r,
		PercentComplete: domain.PercentComplete(r, h.Service.Config()),
		NextAction:      domain.NextAction(r.Stage),
	}
	if days, ok := domain.DaysSince(r.AssignedDate, h.Service.Now().UTC()); ok {
		v.DaysSinceAssigned = &days
	}
	return v
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.Service.QueryFiltered(r.Context(), spec)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	views := make([]reviewView, 0, len(result.Reviews))
	for _, review := range result.Reviews {
		views = append(views, h.view(review))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reviews": views,
		"summary": result.Summary,
	})
}

func filterFromQuery(r *http.Request) (core.FilterSpec, error) {
	q := r.URL.Query()
	spec := core.FilterSpec{
		Analyst: q.Get("analyst"),
		VP:      q.Get("vp"),
		Text:    q.Get("q"),
	}
	for _, raw := range q["stage"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			stage := domain.Stage(part)
			if !domain.ValidStage(stage) {
				return core.FilterSpec{}, errors.New("unknown stage " + part)
			}
			spec.Stages = append(spec.Stages, stage)
		}
	}
	switch sort := q.Get("sort"); sort {
	case "", string(core.SortManual):
		spec.Sort = core.SortManual
	case string(core.SortCreated):
		spec.Sort = core.SortCreated
	case string(core.SortNewestFirst):
		spec.Sort = core.SortNewestFirst
	default:
		return core.FilterSpec{}, errors.New("unknown sort key " + sort)
	}
	return spec, nil
}

type createRequest struct {
	FundID          string `json:"fund_id"`
	FundName        string `json:"fund_name"`
	GPName          string `json:"gp_name"`
	VintageStrategy string `json:"vintage_strategy"`
	Analyst         string `json:"analyst"`
	VP              string `json:"vp"`
	Partner         string `json:"partner"`
	AssignedDate    string `json:"assigned_date"`
	DueDate         string `json:"due_date"`
	Notes           string `json:"notes"`
	OutreachDone    bool   `json:"outreach_done"`
	ContactName     string `json:"outreach_contact_name"`
	ContactEmail    string `json:"outreach_contact_email"`
	Ord             int    `json:"ord"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid review payload")
		return
	}
	created, err := h.Service.AddFund(r.Context(), core.NewFundInput{
		FundID:          req.FundID,
		FundName:        req.FundName,
		GPName:          req.GPName,
		VintageStrategy: req.VintageStrategy,
		Analyst:         req.Analyst,
		VP:              req.VP,
		Partner:         req.Partner,
		AssignedDate:    req.AssignedDate,
		DueDate:         req.DueDate,
		Notes:           req.Notes,
		OutreachDone:    req.OutreachDone,
		ContactName:     req.ContactName,
		ContactEmail:    req.ContactEmail,
		Ord:             req.Ord,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"review": h.view(created)})
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	id := segments[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			review, err := h.Service.GetFund(r.Context(), id)
			if err != nil {
				h.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"review": h.view(review)})
		case http.MethodPatch:
			h.handlePatch(w, r, id)
		case http.MethodDelete:
			if err := h.Service.DeleteFund(r.Context(), id); err != nil {
				h.writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	switch strings.Join(segments[1:], "/") {
	case "stage":
		h.handleStage(w, r, id)
	case "checklist":
		h.handleChecklist(w, r, id)
	case "checklist/reset":
		review, err := h.Service.ResetChecklist(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"review": h.view(review)})
	default:
		http.NotFound(w, r)
	}
}

type patchRequest struct {
	FundID          *string `json:"fund_id"`
	FundName        *string `json:"fund_name"`
	GPName          *string `json:"gp_name"`
	VintageStrategy *string `json:"vintage_strategy"`
	Analyst         *string `json:"analyst"`
	VP              *string `json:"vp"`
	Partner         *string `json:"partner"`
	AssignedDate    *string `json:"assigned_date"`
	DueDate         *string `json:"due_date"`
	Notes           *string `json:"notes"`
	OutreachDone    *bool   `json:"outreach_done"`
	ContactName     *string `json:"outreach_contact_name"`
	ContactEmail    *string `json:"outreach_contact_email"`
	Ord             *int    `json:"ord"`
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request, id string) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid patch payload")
		return
	}
	updated, err := h.Service.EditFields(r.Context(), id, core.FieldPatch{
		FundID:          req.FundID,
		FundName:        req.FundName,
		GPName:          req.GPName,
		VintageStrategy: req.VintageStrategy,
		Analyst:         req.Analyst,
		VP:              req.VP,
		Partner:         req.Partner,
		AssignedDate:    req.AssignedDate,
		DueDate:         req.DueDate,
		Notes:           req.Notes,
		OutreachDone:    req.OutreachDone,
		ContactName:     req.ContactName,
		ContactEmail:    req.ContactEmail,
		Ord:             req.Ord,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"review": h.view(updated)})
}

func (h *Handler) handleStage(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid stage payload")
		return
	}
	review, err := h.Service.AdvanceStage(r.Context(), id, domain.Stage(req.Stage))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"review": h.view(review)})
}

func (h *Handler) handleChecklist(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Item string `json:"item"`
		Done bool   `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid checklist payload")
		return
	}
	var review domain.FundReview
	var err error
	if req.Done {
		review, err = h.Service.CheckItem(r.Context(), id, domain.ChecklistItem(req.Item))
	} else {
		review, err = h.Service.UncheckItem(r.Context(), id, domain.ChecklistItem(req.Item))
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"review": h.view(review)})
}

type exportRequest struct {
	Stages      []string `json:"stages"`
	Analyst     string   `json:"analyst"`
	VP          string   `json:"vp"`
	Text        string   `json:"q"`
	Formats     []string `json:"formats"`
	RequestedBy string   `json:"requested_by"`
	Reason      string   `json:"reason"`
}

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		writeError(w, http.StatusBadRequest, "invalid export request payload")
		return
	}
	spec := core.FilterSpec{Analyst: req.Analyst, VP: req.VP, Text: req.Text}
	for _, raw := range req.Stages {
		stage := domain.Stage(strings.TrimSpace(raw))
		if !domain.ValidStage(stage) {
			writeError(w, http.StatusBadRequest, "unknown stage "+raw)
			return
		}
		spec.Stages = append(spec.Stages, stage)
	}
	formats := make([]Format, 0, len(req.Formats))
	for _, raw := range req.Formats {
		format, err := ParseFormat(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		formats = append(formats, format)
	}
	record, err := h.Exports.EnqueueExport(r.Context(), ExportInput{
		Filter:      spec,
		Formats:     formats,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func (h *Handler) handleExportGet(w http.ResponseWriter, id string) {
	record, ok := h.Exports.GetExport(id)
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": record})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		var rerr domain.RuleViolationError
		if errors.As(err, &rerr) {
			messages := make([]string, 0, len(rerr.Result.Violations))
			for _, v := range rerr.Result.Violations {
				messages = append(messages, v.Rule+": "+v.Message)
			}
			writeError(w, http.StatusConflict, strings.Join(messages, "; "))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
