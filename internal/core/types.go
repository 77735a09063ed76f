package core

import "github.com/jpong0810/fund-review-tracker/pkg/domain"

type (
	EntityType         = domain.EntityType
	Stage              = domain.Stage
	ChecklistItem      = domain.ChecklistItem
	ChecklistEntry     = domain.ChecklistEntry
	PipelinePolicy     = domain.PipelinePolicy
	PipelineConfig     = domain.PipelineConfig
	Severity           = domain.Severity
	Base               = domain.Base
	FundReview         = domain.FundReview
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	ValidationError    = domain.ValidationError
	NotFoundError      = domain.NotFoundError
)

const (
	EntityFundReview = domain.EntityFundReview
)

const (
	StageAssigned            = domain.StageAssigned
	StageOptionalOutreach    = domain.StageOptionalOutreach
	StageAnalystReview       = domain.StageAnalystReview
	StageVPReview            = domain.StageVPReview
	StagePartnerConfirmation = domain.StagePartnerConfirmation
	StageFeedbackCall        = domain.StageFeedbackCall
	StageRejected            = domain.StageRejected
)

const (
	PolicyLinear    = domain.PolicyLinear
	PolicyChecklist = domain.PolicyChecklist
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
