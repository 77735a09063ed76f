package domain

import "testing"

func TestStageOrderAndVocabulary(t *testing.T) {
	if len(StageOrder) != 7 {
		t.Fatalf("expected 7 stages, got %d", len(StageOrder))
	}
	for i, stage := range StageOrder {
		if !ValidStage(stage) {
			t.Fatalf("stage %s should be valid", stage)
		}
		if StageIndex(stage) != i {
			t.Fatalf("stage %s index mismatch", stage)
		}
	}
	if ValidStage("due_diligence") {
		t.Fatalf("unexpected stage accepted")
	}
	if StageIndex("due_diligence") != -1 {
		t.Fatalf("expected -1 for unknown stage")
	}
}

func TestAdvanceStampsMilestoneOnce(t *testing.T) {
	r := FundReview{Stage: StageAssigned}
	if err := Advance(&r, StageAnalystReview, "2024-01-10"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got := r.MilestoneDate(StageAnalystReview); got != "2024-01-10" {
		t.Fatalf("expected stamp, got %q", got)
	}

	// Move backward, then forward again on a later day: the first stamp wins.
	if err := Advance(&r, StageAssigned, "2024-01-11"); err != nil {
		t.Fatalf("advance back: %v", err)
	}
	if err := Advance(&r, StageAnalystReview, "2024-02-01"); err != nil {
		t.Fatalf("advance again: %v", err)
	}
	if got := r.MilestoneDate(StageAnalystReview); got != "2024-01-10" {
		t.Fatalf("stamp overwritten: %q", got)
	}
	if r.Stage != StageAnalystReview {
		t.Fatalf("stage mismatch: %s", r.Stage)
	}
}

func TestAdvanceNonMilestoneStageLeavesNoDate(t *testing.T) {
	r := FundReview{Stage: StageAssigned}
	if err := Advance(&r, StageOptionalOutreach, "2024-01-10"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(r.Milestones) != 0 {
		t.Fatalf("unexpected milestone stamps: %v", r.Milestones)
	}
}

func TestAdvanceRejectsUnknownStage(t *testing.T) {
	r := FundReview{Stage: StageAssigned}
	err := Advance(&r, "due_diligence", "2024-01-10")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if r.Stage != StageAssigned {
		t.Fatalf("record mutated on rejected advance")
	}
}

func TestAdvanceOutOfRejectedIsLegal(t *testing.T) {
	r := FundReview{Stage: StageAssigned}
	if err := Advance(&r, StageRejected, "2024-01-10"); err != nil {
		t.Fatalf("advance to rejected: %v", err)
	}
	if err := Advance(&r, StageAnalystReview, "2024-01-11"); err != nil {
		t.Fatalf("advance out of rejected: %v", err)
	}
	if got := r.MilestoneDate(StageRejected); got != "2024-01-10" {
		t.Fatalf("rejected stamp lost: %q", got)
	}
}

func TestCheckStampsOnceAndUncheckKeepsDate(t *testing.T) {
	r := FundReview{}
	if err := Check(&r, ItemAnalyst, "2024-03-01"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if entry := r.Checklist[ItemAnalyst]; !entry.Done || entry.CompletedOn != "2024-03-01" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if err := Uncheck(&r, ItemAnalyst); err != nil {
		t.Fatalf("uncheck: %v", err)
	}
	if entry := r.Checklist[ItemAnalyst]; entry.Done {
		t.Fatalf("expected unchecked item")
	} else if entry.CompletedOn != "2024-03-01" {
		t.Fatalf("uncheck cleared stamp: %+v", entry)
	}

	if err := Check(&r, ItemAnalyst, "2024-04-01"); err != nil {
		t.Fatalf("re-check: %v", err)
	}
	if entry := r.Checklist[ItemAnalyst]; entry.CompletedOn != "2024-03-01" {
		t.Fatalf("re-check replaced stamp: %+v", entry)
	}
}

func TestCheckUnknownItem(t *testing.T) {
	r := FundReview{}
	if err := Check(&r, "legal_review", "2024-03-01"); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := Uncheck(&r, "legal_review"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestResetChecklistClearsBooleansAndDates(t *testing.T) {
	r := FundReview{}
	for _, item := range ChecklistItems[:3] {
		if err := Check(&r, item, "2024-03-01"); err != nil {
			t.Fatalf("check %s: %v", item, err)
		}
	}
	ResetChecklist(&r)
	for _, item := range ChecklistItems {
		if entry := r.Checklist[item]; entry.Done || entry.CompletedOn != "" {
			t.Fatalf("reset left state for %s: %+v", item, entry)
		}
	}
}

func TestUncheckWithoutPriorState(t *testing.T) {
	r := FundReview{}
	if err := Uncheck(&r, ItemOutreach); err != nil {
		t.Fatalf("uncheck on empty checklist: %v", err)
	}
}

func TestRejectedClassification(t *testing.T) {
	linear := DefaultPipelineConfig()
	checklist := DefaultPipelineConfig()
	checklist.Policy = PolicyChecklist

	r := FundReview{Stage: StageRejected}
	if !r.Rejected(linear.Policy) {
		t.Fatalf("linear rejected classification missed")
	}
	r = FundReview{Stage: StageVPReview}
	if r.Rejected(linear.Policy) {
		t.Fatalf("in-review record classified rejected")
	}

	r = FundReview{}
	if err := Check(&r, ItemRejected, "2024-01-01"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !r.Rejected(checklist.Policy) {
		t.Fatalf("checklist rejected classification missed")
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := FundReview{Stage: StageAnalystReview}
	if err := Advance(&r, StageVPReview, "2024-05-01"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := Check(&r, ItemOutreach, "2024-05-02"); err != nil {
		t.Fatalf("check: %v", err)
	}
	dup := r.Clone()
	dup.Milestones[StageVPReview] = "1999-01-01"
	dup.Checklist[ItemOutreach] = ChecklistEntry{}
	if r.Milestones[StageVPReview] != "2024-05-01" {
		t.Fatalf("clone shares milestone map")
	}
	if !r.Checklist[ItemOutreach].Done {
		t.Fatalf("clone shares checklist map")
	}
}
