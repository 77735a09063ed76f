package core

import (
	"context"
	"fmt"

	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

// MilestoneStageRule blocks milestone dates recorded against stages that do
// not stamp milestones. The stamps themselves are one-way and managed by the
// pipeline operations; this rule guards against writes that sidestep them.
type MilestoneStageRule struct{}

func (MilestoneStageRule) Name() string { return "milestone_stage" }

func (r MilestoneStageRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		review, ok := reviewChange(change)
		if !ok {
			continue
		}
		for stage, date := range review.Milestones {
			if date == "" {
				continue
			}
			if _, milestone := domain.MilestoneStages[stage]; !milestone {
				result.Violations = append(result.Violations, Violation{
					Rule:     r.Name(),
					Severity: SeverityBlock,
					Message:  fmt.Sprintf("stage %q does not record a milestone date", stage),
					Entity:   EntityFundReview,
					EntityID: review.ID,
				})
			}
		}
	}
	return result, nil
}
