// Package domain defines the fund-review record model, the pipeline stage
// vocabulary and policies, and the rule evaluation primitives shared by all
// storage backends.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityFundReview identifies a fund-review record.
	EntityFundReview EntityType = "fund_review"
)

// Stage represents a named step in the linear review pipeline.
type Stage string

// Canonical pipeline stages in review order. Rejected is a reporting
// classification, not a hard terminal state: transitions out remain legal.
const (
	StageAssigned            Stage = "assigned"
	StageOptionalOutreach    Stage = "optional_outreach"
	StageAnalystReview       Stage = "analyst_review"
	StageVPReview            Stage = "vp_review"
	StagePartnerConfirmation Stage = "partner_confirmation"
	StageFeedbackCall        Stage = "feedback_call"
	StageRejected            Stage = "rejected"
)

// ChecklistItem identifies an independent completion item under the
// checklist pipeline policy.
type ChecklistItem string

// Canonical checklist items. No ordering is enforced between them.
const (
	ItemOutreach ChecklistItem = "outreach"
	ItemAnalyst  ChecklistItem = "analyst"
	ItemVPReview ChecklistItem = "vp_review"
	ItemPartner  ChecklistItem = "partner"
	ItemFeedback ChecklistItem = "feedback"
	ItemRejected ChecklistItem = "rejected"
)

// ChecklistEntry captures completion state for a single checklist item.
// CompletedOn records the date the item was first completed; unchecking
// leaves it in place as a permanent "first completed on" stamp.
type ChecklistEntry struct {
	Done        bool   `json:"done"`
	CompletedOn string `json:"completed_on,omitempty"`
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FundReview is one tracked fund moving through the review pipeline.
//
// Milestone and scheduling dates are calendar-day ISO-8601 strings
// (YYYY-MM-DD) or empty; that matches the persisted layout and keeps
// unparsable legacy values representable so reporting can degrade
// instead of aborting.
type FundReview struct {
	Base
	FundID          string `json:"fund_id,omitempty"`
	FundName        string `json:"fund_name"`
	GPName          string `json:"gp_name,omitempty"`
	VintageStrategy string `json:"vintage_strategy,omitempty"`

	Analyst string `json:"analyst,omitempty"`
	VP      string `json:"vp,omitempty"`
	Partner string `json:"partner,omitempty"`

	Stage        Stage            `json:"stage,omitempty"`
	Milestones   map[Stage]string `json:"milestones,omitempty"`
	AssignedDate string           `json:"assigned_date"`
	DueDate      string           `json:"due_date,omitempty"`

	Checklist map[ChecklistItem]ChecklistEntry `json:"checklist,omitempty"`

	OutreachDone         bool   `json:"outreach_done"`
	OutreachContactName  string `json:"outreach_contact_name,omitempty"`
	OutreachContactEmail string `json:"outreach_contact_email,omitempty"`

	Notes string `json:"notes,omitempty"`

	// Ord is a manual display ordering hint with no pipeline semantics.
	Ord int `json:"ord"`
}

// Clone returns a deep copy of the record.
func (r FundReview) Clone() FundReview {
	dup := r
	if r.Milestones != nil {
		dup.Milestones = make(map[Stage]string, len(r.Milestones))
		for stage, date := range r.Milestones {
			dup.Milestones[stage] = date
		}
	}
	if r.Checklist != nil {
		dup.Checklist = make(map[ChecklistItem]ChecklistEntry, len(r.Checklist))
		for item, entry := range r.Checklist {
			dup.Checklist[item] = entry
		}
	}
	return dup
}

// MilestoneDate returns the stamped date for a stage, or "" when unset.
func (r FundReview) MilestoneDate(stage Stage) string {
	if r.Milestones == nil {
		return ""
	}
	return r.Milestones[stage]
}

// Rejected reports whether the record falls into the terminal/rejected
// reporting classification for the given policy.
func (r FundReview) Rejected(policy PipelinePolicy) bool {
	if policy == PolicyChecklist {
		return r.Checklist[ItemRejected].Done
	}
	return r.Stage == StageRejected
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured per transaction.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
