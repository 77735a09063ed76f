package core

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

// SortKey selects the stable ordering applied to query results.
type SortKey string

const (
	// SortManual orders by the manual ordering hint, oldest creation first
	// among ties.
	SortManual SortKey = "manual"
	// SortCreated orders by creation time, oldest first.
	SortCreated SortKey = "created"
	// SortNewestFirst orders by creation time, newest first.
	SortNewestFirst SortKey = "newest_first"
)

// FilterSpec is a conjunctive filter over fund reviews. Zero-valued
// dimensions match everything.
type FilterSpec struct {
	// Stages restricts to records whose stage is in the set. Empty means
	// all stages.
	Stages []Stage
	// Analyst and VP match case-insensitively on substring.
	Analyst string
	VP      string
	// Text matches case-insensitively against fund name, GP name and fund ID.
	Text string
	// Sort selects the result ordering; empty falls back to SortManual.
	Sort SortKey
}

// Summary aggregates a filtered result set.
type Summary struct {
	// Count is the number of matching records.
	Count int `json:"count"`
	// InReview counts matches not carrying the rejected classification.
	InReview int `json:"in_review"`
	// AvgDaysSinceAssigned is nil when no match has a parsable assigned
	// date. Records without one are excluded from the mean, not counted
	// as zero.
	AvgDaysSinceAssigned *int `json:"avg_days_since_assigned,omitempty"`
	// MedianPercentComplete is 0 for an empty result set.
	MedianPercentComplete int `json:"median_percent_complete"`
}

// QueryResult bundles the ranked matches with their summary aggregates.
type QueryResult struct {
	Reviews []FundReview
	Summary Summary
}

// QueryFiltered evaluates the filter against a consistent snapshot of the
// store and returns the matches in a stable order plus summary aggregates.
func (s *Service) QueryFiltered(ctx context.Context, spec FilterSpec) (QueryResult, error) {
	start := time.Now()
	result, err := s.queryFiltered(ctx, spec)
	s.observe(ctx, "query_filtered", start, err)
	return result, err
}

func (s *Service) queryFiltered(ctx context.Context, spec FilterSpec) (QueryResult, error) {
	var matches []FundReview
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, review := range view.ListFundReviews() {
			if spec.matches(review) {
				matches = append(matches, review)
			}
		}
		return nil
	})
	if err != nil {
		return QueryResult{}, err
	}
	sortReviews(matches, spec.Sort)
	return QueryResult{
		Reviews: matches,
		Summary: s.summarize(matches),
	}, nil
}

func (spec FilterSpec) matches(r FundReview) bool {
	if len(spec.Stages) > 0 {
		found := false
		for _, stage := range spec.Stages {
			if r.Stage == stage {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if spec.Analyst != "" && !containsFold(r.Analyst, spec.Analyst) {
		return false
	}
	if spec.VP != "" && !containsFold(r.VP, spec.VP) {
		return false
	}
	if spec.Text != "" {
		if !containsFold(r.FundName, spec.Text) &&
			!containsFold(r.GPName, spec.Text) &&
			!containsFold(r.FundID, spec.Text) {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

// sortReviews orders results deterministically. Record ID is the final
// tie-break so equal keys still yield a reproducible order.
func sortReviews(reviews []FundReview, key SortKey) {
	if key == "" {
		key = SortManual
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		a, b := reviews[i], reviews[j]
		switch key {
		case SortNewestFirst:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		case SortCreated:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		default:
			if a.Ord != b.Ord {
				return a.Ord < b.Ord
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

func (s *Service) summarize(reviews []FundReview) Summary {
	summary := Summary{Count: len(reviews)}
	now := s.nowFn().UTC()
	daysSum, daysCount := 0, 0
	percents := make([]int, 0, len(reviews))
	for _, r := range reviews {
		if !r.Rejected(s.cfg.Policy) {
			summary.InReview++
		}
		if days, ok := domain.DaysSince(r.AssignedDate, now); ok {
			daysSum += days
			daysCount++
		}
		percents = append(percents, domain.PercentComplete(r, s.cfg))
	}
	if daysCount > 0 {
		avg := daysSum / daysCount
		summary.AvgDaysSinceAssigned = &avg
	}
	summary.MedianPercentComplete = medianInt(percents)
	return summary
}

func medianInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// ExportColumns is the flat column set for exported rows. Derived values are
// recomputed at export time; milestone dates render as stored ISO strings.
var ExportColumns = []string{
	"id",
	"fund_id",
	"fund_name",
	"gp_name",
	"vintage_strategy",
	"stage",
	"percent_complete",
	"days_since_assigned",
	"next_action",
	"analyst",
	"vp",
	"partner",
	"assigned_date",
	"due_date",
	"analyst_review_date",
	"vp_review_date",
	"partner_confirm_date",
	"feedback_call_date",
	"rejected_date",
	"outreach_done",
	"outreach_contact_name",
	"outreach_contact_email",
	"notes",
}

// ExportRows flattens reviews into rows matching ExportColumns. An undefined
// days-since value renders as an empty cell rather than zero.
func (s *Service) ExportRows(reviews []FundReview) [][]string {
	now := s.nowFn().UTC()
	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		days := ""
		if d, ok := domain.DaysSince(r.AssignedDate, now); ok {
			days = strconv.Itoa(d)
		}
		outreach := "no"
		if r.OutreachDone {
			outreach = "yes"
		}
		rows = append(rows, []string{
			r.ID,
			r.FundID,
			r.FundName,
			r.GPName,
			r.VintageStrategy,
			string(r.Stage),
			strconv.Itoa(domain.PercentComplete(r, s.cfg)),
			days,
			domain.NextAction(r.Stage),
			r.Analyst,
			r.VP,
			r.Partner,
			r.AssignedDate,
			r.DueDate,
			r.MilestoneDate(StageAnalystReview),
			r.MilestoneDate(StageVPReview),
			r.MilestoneDate(StagePartnerConfirmation),
			r.MilestoneDate(StageFeedbackCall),
			r.MilestoneDate(StageRejected),
			outreach,
			r.OutreachContactName,
			r.OutreachContactEmail,
			r.Notes,
		})
	}
	return rows
}
