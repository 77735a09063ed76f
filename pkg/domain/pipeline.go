package domain

// PipelinePolicy selects how stage progress is tracked.
type PipelinePolicy string

// Supported pipeline policies.
const (
	// PolicyLinear tracks a single current stage from the ordered vocabulary.
	PolicyLinear PipelinePolicy = "linear"
	// PolicyChecklist tracks independent boolean checklist items.
	PolicyChecklist PipelinePolicy = "checklist"
)

// StageOrder is the canonical pipeline sequence for the linear policy.
var StageOrder = []Stage{
	StageAssigned,
	StageOptionalOutreach,
	StageAnalystReview,
	StageVPReview,
	StagePartnerConfirmation,
	StageFeedbackCall,
	StageRejected,
}

// MilestoneStages are the stages whose first arrival stamps a milestone date.
var MilestoneStages = map[Stage]struct{}{
	StageAnalystReview:       {},
	StageVPReview:            {},
	StagePartnerConfirmation: {},
	StageFeedbackCall:        {},
	StageRejected:            {},
}

// ChecklistItems is the canonical item set for the checklist policy.
var ChecklistItems = []ChecklistItem{
	ItemOutreach,
	ItemAnalyst,
	ItemVPReview,
	ItemPartner,
	ItemFeedback,
	ItemRejected,
}

// ValidStage reports whether s is a member of the fixed stage vocabulary.
func ValidStage(s Stage) bool {
	return StageIndex(s) >= 0
}

// StageIndex returns the position of s in the canonical order, or -1 when s
// is not part of the vocabulary.
func StageIndex(s Stage) int {
	for i, stage := range StageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// ValidChecklistItem reports whether item is part of the canonical set.
func ValidChecklistItem(item ChecklistItem) bool {
	for _, known := range ChecklistItems {
		if known == item {
			return true
		}
	}
	return false
}

// PipelineConfig parameterizes the pipeline model. The zero value is not
// usable; construct via DefaultPipelineConfig and override as needed.
type PipelineConfig struct {
	Policy PipelinePolicy

	// AllowBackwardTransitions keeps moving to an earlier stage legal,
	// matching observed free-form usage of the pipeline. Setting it to
	// false installs a blocking rule against backward moves.
	AllowBackwardTransitions bool

	// RequireTerminalDelete restricts deletion to records already carrying
	// the rejected classification.
	RequireTerminalDelete bool

	// AllowUncheck permits clearing a checklist boolean. The stamped
	// CompletedOn date survives unchecking either way.
	AllowUncheck bool
}

// DefaultPipelineConfig returns the permissive configuration matching the
// historical behavior of the tracker.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Policy:                   PolicyLinear,
		AllowBackwardTransitions: true,
		AllowUncheck:             true,
	}
}

// InitialStage returns the stage a new record starts in, which is empty
// under the checklist policy.
func (c PipelineConfig) InitialStage() Stage {
	if c.Policy == PolicyChecklist {
		return ""
	}
	return StageAssigned
}

// Advance moves the record to target and stamps the milestone date on first
// arrival. Re-entering an already stamped stage leaves the original date
// unchanged. Any vocabulary member is a legal target; monotonic progression
// is not enforced here.
func Advance(r *FundReview, target Stage, today string) error {
	if !ValidStage(target) {
		return ValidationError{Field: "stage", Message: "unknown stage " + string(target)}
	}
	r.Stage = target
	if _, milestone := MilestoneStages[target]; milestone {
		if r.Milestones == nil {
			r.Milestones = make(map[Stage]string, 1)
		}
		if r.Milestones[target] == "" {
			r.Milestones[target] = today
		}
	}
	return nil
}

// Check marks a checklist item done and stamps its date if no date was
// previously recorded.
func Check(r *FundReview, item ChecklistItem, today string) error {
	if !ValidChecklistItem(item) {
		return ValidationError{Field: "item", Message: "unknown checklist item " + string(item)}
	}
	if r.Checklist == nil {
		r.Checklist = make(map[ChecklistItem]ChecklistEntry, 1)
	}
	entry := r.Checklist[item]
	entry.Done = true
	if entry.CompletedOn == "" {
		entry.CompletedOn = today
	}
	r.Checklist[item] = entry
	return nil
}

// Uncheck clears a checklist boolean. The CompletedOn stamp is retained as a
// permanent record of first completion.
func Uncheck(r *FundReview, item ChecklistItem) error {
	if !ValidChecklistItem(item) {
		return ValidationError{Field: "item", Message: "unknown checklist item " + string(item)}
	}
	if r.Checklist == nil {
		return nil
	}
	entry, ok := r.Checklist[item]
	if !ok {
		return nil
	}
	entry.Done = false
	r.Checklist[item] = entry
	return nil
}

// ResetChecklist clears all checklist booleans and their dates in one step.
// Reset is the only operation that removes stamped checklist dates.
func ResetChecklist(r *FundReview) {
	r.Checklist = nil
}
