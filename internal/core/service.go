// Package core implements the fund review pipeline service: record
// operations, built-in rules, query and filter evaluation, and operation
// level observability over the persistent store contract.
package core

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

// Service exposes the pipeline operations over a persistent store. All
// mutations run inside a store transaction so rule evaluation and rollback
// semantics apply uniformly.
type Service struct {
	store   PersistentStore
	cfg     PipelineConfig
	logger  *zap.Logger
	metrics MetricsRecorder
	nowFn   func() time.Time
}

// ServiceOption customizes Service construction.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger for operation outcomes.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches a metrics recorder for operation outcomes.
func WithMetrics(rec MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = rec }
}

// WithClock overrides the wall clock used for date stamping. Tests use this
// to pin "today".
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.nowFn = now }
}

// NewService wires a service over the given store and pipeline configuration.
func NewService(store PersistentStore, cfg PipelineConfig, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		cfg:    cfg,
		logger: zap.NewNop(),
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the pipeline configuration the service runs under.
func (s *Service) Config() PipelineConfig { return s.cfg }

// Store exposes the underlying persistent store.
func (s *Service) Store() PersistentStore { return s.store }

// Now returns the service wall clock reading. Derived reporting values use
// this so a pinned test clock flows through consistently.
func (s *Service) Now() time.Time { return s.nowFn() }

// today returns the current date in the canonical layout.
func (s *Service) today() string {
	return s.nowFn().UTC().Format(domain.DateLayout)
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, elapsed)
	}
	if err != nil {
		s.logger.Warn("operation failed", zap.String("operation", op), zap.Error(err))
		return
	}
	s.logger.Debug("operation complete", zap.String("operation", op), zap.Duration("elapsed", elapsed))
}

// NewFundInput carries the caller-supplied fields for a new fund review.
type NewFundInput struct {
	FundID          string
	FundName        string
	GPName          string
	VintageStrategy string
	Analyst         string
	VP              string
	Partner         string
	AssignedDate    string
	DueDate         string
	Notes           string
	OutreachDone    bool
	ContactName     string
	ContactEmail    string
	Ord             int
}

// AddFund validates and inserts a new fund review. The record starts at the
// initial stage for the configured policy.
func (s *Service) AddFund(ctx context.Context, input NewFundInput) (FundReview, error) {
	start := time.Now()
	review, err := s.addFund(ctx, input)
	s.observe(ctx, "add_fund", start, err)
	return review, err
}

func (s *Service) addFund(ctx context.Context, input NewFundInput) (FundReview, error) {
	name := strings.TrimSpace(input.FundName)
	if name == "" {
		return FundReview{}, ValidationError{Field: "fund_name", Message: "fund name is required"}
	}
	assigned := strings.TrimSpace(input.AssignedDate)
	if assigned == "" {
		return FundReview{}, ValidationError{Field: "assigned_date", Message: "assigned date is required"}
	}
	if _, err := domain.ParseDate(assigned); err != nil {
		return FundReview{}, ValidationError{Field: "assigned_date", Message: "assigned date must use the " + domain.DateLayout + " layout"}
	}

	var created FundReview
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateFundReview(FundReview{
			FundID:          strings.TrimSpace(input.FundID),
			FundName:        name,
			GPName:          strings.TrimSpace(input.GPName),
			VintageStrategy: strings.TrimSpace(input.VintageStrategy),
			Analyst:         strings.TrimSpace(input.Analyst),
			VP:              strings.TrimSpace(input.VP),
			Partner:         strings.TrimSpace(input.Partner),
			Stage:           s.cfg.InitialStage(),
			AssignedDate:    assigned,
			DueDate:         strings.TrimSpace(input.DueDate),
			Notes:           input.Notes,
			OutreachDone:    input.OutreachDone,

			OutreachContactName:  strings.TrimSpace(input.ContactName),
			OutreachContactEmail: strings.TrimSpace(input.ContactEmail),

			Ord: input.Ord,
		})
		return err
	})
	if err != nil {
		return FundReview{}, err
	}
	return created, nil
}

// AdvanceStage moves a review to the target stage, stamping the milestone
// date on first arrival.
func (s *Service) AdvanceStage(ctx context.Context, id string, target Stage) (FundReview, error) {
	start := time.Now()
	review, err := s.mutate(ctx, id, func(r *FundReview) error {
		return domain.Advance(r, target, s.today())
	})
	s.observe(ctx, "advance_stage", start, err)
	return review, err
}

// CheckItem marks a checklist item done, stamping its completion date on
// first completion.
func (s *Service) CheckItem(ctx context.Context, id string, item ChecklistItem) (FundReview, error) {
	start := time.Now()
	review, err := s.mutate(ctx, id, func(r *FundReview) error {
		return domain.Check(r, item, s.today())
	})
	s.observe(ctx, "check_item", start, err)
	return review, err
}

// UncheckItem clears a checklist boolean while retaining the stamped date.
func (s *Service) UncheckItem(ctx context.Context, id string, item ChecklistItem) (FundReview, error) {
	start := time.Now()
	review, err := s.uncheckItem(ctx, id, item)
	s.observe(ctx, "uncheck_item", start, err)
	return review, err
}

func (s *Service) uncheckItem(ctx context.Context, id string, item ChecklistItem) (FundReview, error) {
	if !s.cfg.AllowUncheck {
		return FundReview{}, ValidationError{Field: "item", Message: "unchecking is disabled"}
	}
	return s.mutate(ctx, id, func(r *FundReview) error {
		return domain.Uncheck(r, item)
	})
}

// ResetChecklist clears every checklist boolean and stamped date atomically.
func (s *Service) ResetChecklist(ctx context.Context, id string) (FundReview, error) {
	start := time.Now()
	review, err := s.mutate(ctx, id, func(r *FundReview) error {
		domain.ResetChecklist(r)
		return nil
	})
	s.observe(ctx, "reset_checklist", start, err)
	return review, err
}

// FieldPatch describes a partial edit. Nil fields are left untouched.
type FieldPatch struct {
	FundID          *string
	FundName        *string
	GPName          *string
	VintageStrategy *string
	Analyst         *string
	VP              *string
	Partner         *string
	AssignedDate    *string
	DueDate         *string
	Notes           *string
	OutreachDone    *bool
	ContactName     *string
	ContactEmail    *string
	Ord             *int
}

// EditFields applies a partial edit to the descriptive fields of a review.
// Stage, milestones and checklist state are only reachable through their
// dedicated operations.
func (s *Service) EditFields(ctx context.Context, id string, patch FieldPatch) (FundReview, error) {
	start := time.Now()
	review, err := s.mutate(ctx, id, func(r *FundReview) error {
		return applyPatch(r, patch)
	})
	s.observe(ctx, "edit_fields", start, err)
	return review, err
}

func applyPatch(r *FundReview, patch FieldPatch) error {
	if patch.FundName != nil {
		name := strings.TrimSpace(*patch.FundName)
		if name == "" {
			return ValidationError{Field: "fund_name", Message: "fund name cannot be cleared"}
		}
		r.FundName = name
	}
	if patch.AssignedDate != nil {
		assigned := strings.TrimSpace(*patch.AssignedDate)
		if assigned == "" {
			return ValidationError{Field: "assigned_date", Message: "assigned date cannot be cleared"}
		}
		if _, err := domain.ParseDate(assigned); err != nil {
			return ValidationError{Field: "assigned_date", Message: "assigned date must use the " + domain.DateLayout + " layout"}
		}
		r.AssignedDate = assigned
	}
	if patch.FundID != nil {
		r.FundID = strings.TrimSpace(*patch.FundID)
	}
	if patch.GPName != nil {
		r.GPName = strings.TrimSpace(*patch.GPName)
	}
	if patch.VintageStrategy != nil {
		r.VintageStrategy = strings.TrimSpace(*patch.VintageStrategy)
	}
	if patch.Analyst != nil {
		r.Analyst = strings.TrimSpace(*patch.Analyst)
	}
	if patch.VP != nil {
		r.VP = strings.TrimSpace(*patch.VP)
	}
	if patch.Partner != nil {
		r.Partner = strings.TrimSpace(*patch.Partner)
	}
	if patch.DueDate != nil {
		r.DueDate = strings.TrimSpace(*patch.DueDate)
	}
	if patch.Notes != nil {
		r.Notes = *patch.Notes
	}
	if patch.OutreachDone != nil {
		r.OutreachDone = *patch.OutreachDone
	}
	if patch.ContactName != nil {
		r.OutreachContactName = strings.TrimSpace(*patch.ContactName)
	}
	if patch.ContactEmail != nil {
		r.OutreachContactEmail = strings.TrimSpace(*patch.ContactEmail)
	}
	if patch.Ord != nil {
		r.Ord = *patch.Ord
	}
	return nil
}

// DeleteFund removes a review. When the configuration requires terminal
// deletes, only rejected reviews may be removed.
func (s *Service) DeleteFund(ctx context.Context, id string) error {
	start := time.Now()
	err := s.deleteFund(ctx, id)
	s.observe(ctx, "delete_fund", start, err)
	return err
}

func (s *Service) deleteFund(ctx context.Context, id string) error {
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		if s.cfg.RequireTerminalDelete {
			review, ok := tx.FindFundReview(id)
			if !ok {
				return NotFoundError{ID: id}
			}
			if !review.Rejected(s.cfg.Policy) {
				return ValidationError{Field: "stage", Message: "fund review " + id + " must be rejected before deletion"}
			}
		}
		return tx.DeleteFundReview(id)
	})
	return err
}

// GetFund returns a single review by ID.
func (s *Service) GetFund(ctx context.Context, id string) (FundReview, error) {
	start := time.Now()
	review, ok := s.store.GetFundReview(id)
	var err error
	if !ok {
		err = NotFoundError{ID: id}
	}
	s.observe(ctx, "get_fund", start, err)
	return review, err
}

func (s *Service) mutate(ctx context.Context, id string, mutator func(*FundReview) error) (FundReview, error) {
	var updated FundReview
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateFundReview(id, mutator)
		return err
	})
	if err != nil {
		return FundReview{}, err
	}
	return updated, nil
}
