package domain

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the persisted calendar-day format for all tracked dates.
const DateLayout = "2006-01-02"

// percentByStage assigns a fixed completion percentage per linear stage.
// Values are monotonically non-decreasing along the canonical order, with
// rejected mapped to 100 so closed records sort as fully processed.
var percentByStage = map[Stage]int{
	StageAssigned:            10,
	StageOptionalOutreach:    20,
	StageAnalystReview:       40,
	StageVPReview:            60,
	StagePartnerConfirmation: 80,
	StageFeedbackCall:        90,
	StageRejected:            100,
}

// nextActionByStage provides the advisory next-step text per stage.
var nextActionByStage = map[Stage]string{
	StageAssigned:            "Consider outreach if needed",
	StageOptionalOutreach:    "Move to Analyst Review when info sufficient",
	StageAnalystReview:       "Advance to VP Review",
	StageVPReview:            "Send to Partner for confirmation",
	StagePartnerConfirmation: "Schedule feedback call w/ GP or placement",
	StageFeedbackCall:        "Decide: Reject or proceed to next internal step",
}

// PercentComplete derives a progress percentage in [0,100] from the record's
// pipeline state: the per-stage map for the linear policy, the completion
// ratio for the checklist policy. Unknown stages report 0.
func PercentComplete(r FundReview, cfg PipelineConfig) int {
	if cfg.Policy == PolicyChecklist {
		done := 0
		for _, item := range ChecklistItems {
			if r.Checklist[item].Done {
				done++
			}
		}
		return int(math.Round(100 * float64(done) / float64(len(ChecklistItems))))
	}
	return percentByStage[r.Stage]
}

// ParseDate interprets a stored calendar-day string.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, UnparsableDateError{Value: value}
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, UnparsableDateError{Value: value}
	}
	return t, nil
}

// DaysSince returns the elapsed whole days between the stored date and now.
// The second return is false when the date is absent or unparsable; callers
// must treat that as "no value", never as zero.
func DaysSince(dateStr string, now time.Time) (int, bool) {
	parsed, err := ParseDate(dateStr)
	if err != nil {
		return 0, false
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(parsed).Hours() / 24), true
}

// NextAction returns the suggested next step for a stage. Rejected records
// get a fixed closed hint; stages without a configured hint return "".
// The text is advisory only and has no behavioral effect.
func NextAction(stage Stage) string {
	if stage == StageRejected {
		return "None (Closed)"
	}
	return nextActionByStage[stage]
}
