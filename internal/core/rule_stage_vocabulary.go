package core

import (
	"context"
	"fmt"

	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

// StageVocabularyRule blocks any committed record whose stage falls outside
// the fixed vocabulary. Under the checklist policy an empty stage is legal.
type StageVocabularyRule struct {
	Config PipelineConfig
}

func (StageVocabularyRule) Name() string { return "stage_vocabulary" }

func (r StageVocabularyRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		review, ok := reviewChange(change)
		if !ok {
			continue
		}
		if review.Stage == "" && r.Config.Policy == PolicyChecklist {
			continue
		}
		if !domain.ValidStage(review.Stage) {
			result.Violations = append(result.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("stage %q is not part of the pipeline vocabulary", review.Stage),
				Entity:   EntityFundReview,
				EntityID: review.ID,
			})
		}
	}
	return result, nil
}
