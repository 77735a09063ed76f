package domain

import "context"

// Transaction exposes the record operations that a persistence
// implementation must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateFundReview(FundReview) (FundReview, error)
	UpdateFundReview(id string, mutator func(*FundReview) error) (FundReview, error)
	DeleteFundReview(id string) error
	FindFundReview(id string) (FundReview, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// query evaluation.
type TransactionView interface {
	ListFundReviews() []FundReview
	FindFundReview(id string) (FundReview, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetFundReview(id string) (FundReview, bool)
	ListFundReviews() []FundReview
}
