package core

import (
	"context"
	"fmt"

	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

// BackwardTransitionRule blocks updates that move a record to an earlier
// stage. It is only registered when the configuration disables backward
// transitions; the default pipeline leaves every direction open.
type BackwardTransitionRule struct{}

func (BackwardTransitionRule) Name() string { return "backward_transition" }

func (r BackwardTransitionRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != EntityFundReview || change.Action != ActionUpdate {
			continue
		}
		before, okBefore := change.Before.(FundReview)
		after, okAfter := change.After.(FundReview)
		if !okBefore || !okAfter {
			continue
		}
		from, to := domain.StageIndex(before.Stage), domain.StageIndex(after.Stage)
		if from < 0 || to < 0 || to >= from {
			continue
		}
		result.Violations = append(result.Violations, Violation{
			Rule:     r.Name(),
			Severity: SeverityBlock,
			Message:  fmt.Sprintf("transition %s -> %s moves the review backward", before.Stage, after.Stage),
			Entity:   EntityFundReview,
			EntityID: after.ID,
		})
	}
	return result, nil
}
