package core

import "github.com/jpong0810/fund-review-tracker/pkg/domain"

type (
	Rule        = domain.Rule
	RuleView    = domain.RuleView
	RulesEngine = domain.RulesEngine
)

// NewDefaultRulesEngine builds the engine with the built-in invariant rules
// for the given pipeline configuration.
func NewDefaultRulesEngine(cfg PipelineConfig) *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StageVocabularyRule{Config: cfg})
	engine.Register(MilestoneStageRule{})
	if !cfg.AllowBackwardTransitions {
		engine.Register(BackwardTransitionRule{})
	}
	return engine
}

// reviewChange extracts the after-image of a fund review change, skipping
// deletes and changes for other entity types.
func reviewChange(change Change) (FundReview, bool) {
	if change.Entity != EntityFundReview || change.Action == ActionDelete {
		return FundReview{}, false
	}
	review, ok := change.After.(FundReview)
	return review, ok
}
