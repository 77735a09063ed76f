// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments. Durable backends wrap it
// and snapshot its state after each committed transaction.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// FundReview aliases domain.FundReview for in-memory persistence operations.
	FundReview = domain.FundReview
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	reviews map[string]FundReview
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Reviews map[string]FundReview `json:"reviews"`
}

func newMemoryState() memoryState {
	return memoryState{reviews: make(map[string]FundReview)}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.reviews {
		cloned.reviews[k] = v.Clone()
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{Reviews: make(map[string]FundReview, len(state.reviews))}
	for k, v := range state.reviews {
		s.Reviews[k] = v.Clone()
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Reviews {
		state.reviews[k] = v.Clone()
	}
	return state
}

// migrateSnapshot normalizes snapshots produced by earlier layouts: nil
// buckets become empty and records missing an id are dropped.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Reviews == nil {
		snapshot.Reviews = map[string]FundReview{}
	}
	for id, review := range snapshot.Reviews {
		if review.ID == "" {
			review.ID = id
		}
		if review.ID != id {
			delete(snapshot.Reviews, id)
			continue
		}
		snapshot.Reviews[id] = review
	}
	return snapshot
}

// Store provides an in-memory transactional store for fund-review records.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the store clock. Intended for tests that need
// deterministic milestone stamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListFundReviews returns all records within the transaction snapshot.
func (v transactionView) ListFundReviews() []FundReview {
	out := make([]FundReview, 0, len(v.state.reviews))
	for _, r := range v.state.reviews {
		out = append(out, r.Clone())
	}
	return out
}

// FindFundReview retrieves a record by ID from the snapshot.
func (v transactionView) FindFundReview(id string) (FundReview, bool) {
	r, ok := v.state.reviews[id]
	if !ok {
		return FundReview{}, false
	}
	return r.Clone(), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy becomes visible only after fn succeeds and no registered rule
// blocks the commit, so a stage change and its milestone stamp land together
// or not at all.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindFundReview exposes record lookup within the transaction scope.
func (tx *transaction) FindFundReview(id string) (FundReview, bool) {
	r, ok := tx.state.reviews[id]
	if !ok {
		return FundReview{}, false
	}
	return r.Clone(), true
}

// CreateFundReview stores a new record within the transaction.
func (tx *transaction) CreateFundReview(r FundReview) (FundReview, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.reviews[r.ID]; exists {
		return FundReview{}, domain.ValidationError{Field: "id", Message: "fund review " + r.ID + " already exists"}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.reviews[r.ID] = r.Clone()
	tx.recordChange(Change{Entity: domain.EntityFundReview, Action: domain.ActionCreate, After: r.Clone()})
	return r.Clone(), nil
}

// UpdateFundReview mutates a record using the provided mutator function.
func (tx *transaction) UpdateFundReview(id string, mutator func(*FundReview) error) (FundReview, error) {
	current, ok := tx.state.reviews[id]
	if !ok {
		return FundReview{}, domain.NotFoundError{ID: id}
	}
	before := current.Clone()
	working := current.Clone()
	if err := mutator(&working); err != nil {
		return FundReview{}, err
	}
	working.ID = id
	working.CreatedAt = before.CreatedAt
	working.UpdatedAt = tx.now
	tx.state.reviews[id] = working.Clone()
	tx.recordChange(Change{Entity: domain.EntityFundReview, Action: domain.ActionUpdate, Before: before, After: working.Clone()})
	return working.Clone(), nil
}

// DeleteFundReview removes a record from the transaction state.
func (tx *transaction) DeleteFundReview(id string) error {
	current, ok := tx.state.reviews[id]
	if !ok {
		return domain.NotFoundError{ID: id}
	}
	delete(tx.state.reviews, id)
	tx.recordChange(Change{Entity: domain.EntityFundReview, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// GetFundReview retrieves a record by ID from committed state.
func (s *Store) GetFundReview(id string) (FundReview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.reviews[id]
	if !ok {
		return FundReview{}, false
	}
	return r.Clone(), true
}

// ListFundReviews returns all records from committed state. The slice is a
// caller-owned copy.
func (s *Store) ListFundReviews() []FundReview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FundReview, 0, len(s.state.reviews))
	for _, r := range s.state.reviews {
		out = append(out, r.Clone())
	}
	return out
}
