// Package memory provides an in-memory implementation of the persistence
// ports. It backs the use case tests and local development without a
// database. Transactions serialize on one mutex and roll back by restoring
// a snapshot, which is enough to satisfy the atomicity the use cases expect.
// Calls outside a transaction take the same mutex, so a reader never sees a
// transaction's writes before they commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/atelier-ko/commission-core/internal/domain/entity"
	errs "github.com/atelier-ko/commission-core/internal/domain/error"
	"github.com/atelier-ko/commission-core/internal/domain/port/persistence"
)

type voteKey struct {
	userID       uint64
	submissionID uint64
}

type allowanceKey struct {
	userID uint64
	period string
}

// Store holds all state behind the persistence ports
type Store struct {
	mu sync.Mutex

	users        map[uint64]*entity.User
	transactions []*entity.CreditTransaction
	submissions  map[uint64]*entity.Submission
	votes        map[voteKey]*entity.Vote
	allowances   map[allowanceKey]*entity.VoteAllowance

	nextSubmissionID  uint64
	nextTransactionID uint64
	nextVoteID        uint64
	nextAllowanceID   uint64

	snapshot *storeSnapshot
}

type storeSnapshot struct {
	users        map[uint64]*entity.User
	transactions []*entity.CreditTransaction
	submissions  map[uint64]*entity.Submission
	votes        map[voteKey]*entity.Vote
	allowances   map[allowanceKey]*entity.VoteAllowance

	nextSubmissionID  uint64
	nextTransactionID uint64
	nextVoteID        uint64
	nextAllowanceID   uint64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:             make(map[uint64]*entity.User),
		submissions:       make(map[uint64]*entity.Submission),
		votes:             make(map[voteKey]*entity.Vote),
		allowances:        make(map[allowanceKey]*entity.VoteAllowance),
		nextSubmissionID:  1,
		nextTransactionID: 1,
		nextVoteID:        1,
		nextAllowanceID:   1,
	}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.LastCreditRefresh != nil {
		t := *u.LastCreditRefresh
		c.LastCreditRefresh = &t
	}
	return &c
}

func cloneSubmission(s *entity.Submission) *entity.Submission {
	c := *s
	if s.QueuePosition != nil {
		p := *s.QueuePosition
		c.QueuePosition = &p
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	if s.EstimatedAt != nil {
		t := *s.EstimatedAt
		c.EstimatedAt = &t
	}
	return &c
}

func cloneTransaction(t *entity.CreditTransaction) *entity.CreditTransaction {
	c := *t
	if t.SubmissionID != nil {
		id := *t.SubmissionID
		c.SubmissionID = &id
	}
	return &c
}

func cloneVote(v *entity.Vote) *entity.Vote {
	c := *v
	return &c
}

func cloneAllowance(a *entity.VoteAllowance) *entity.VoteAllowance {
	c := *a
	return &c
}

func (s *Store) takeSnapshot() *storeSnapshot {
	snap := &storeSnapshot{
		users:             make(map[uint64]*entity.User, len(s.users)),
		transactions:      make([]*entity.CreditTransaction, 0, len(s.transactions)),
		submissions:       make(map[uint64]*entity.Submission, len(s.submissions)),
		votes:             make(map[voteKey]*entity.Vote, len(s.votes)),
		allowances:        make(map[allowanceKey]*entity.VoteAllowance, len(s.allowances)),
		nextSubmissionID:  s.nextSubmissionID,
		nextTransactionID: s.nextTransactionID,
		nextVoteID:        s.nextVoteID,
		nextAllowanceID:   s.nextAllowanceID,
	}
	for id, u := range s.users {
		snap.users[id] = cloneUser(u)
	}
	for _, t := range s.transactions {
		snap.transactions = append(snap.transactions, cloneTransaction(t))
	}
	for id, sub := range s.submissions {
		snap.submissions[id] = cloneSubmission(sub)
	}
	for k, v := range s.votes {
		snap.votes[k] = cloneVote(v)
	}
	for k, a := range s.allowances {
		snap.allowances[k] = cloneAllowance(a)
	}
	return snap
}

func (s *Store) restoreSnapshot(snap *storeSnapshot) {
	s.users = snap.users
	s.transactions = snap.transactions
	s.submissions = snap.submissions
	s.votes = snap.votes
	s.allowances = snap.allowances
	s.nextSubmissionID = snap.nextSubmissionID
	s.nextTransactionID = snap.nextTransactionID
	s.nextVoteID = snap.nextVoteID
	s.nextAllowanceID = snap.nextAllowanceID
}

type txContextKey struct{}

// lockIfNoTx guards a repository call made outside any transaction. Inside
// one the mutex is already held by Begin; outside, the call takes it so a
// reader never observes a transaction's writes before Commit.
func (s *Store) lockIfNoTx(ctx context.Context) func() {
	if ctx.Value(txContextKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Begin locks the store and snapshots it so Rollback can restore
func (s *Store) Begin(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	s.snapshot = s.takeSnapshot()
	return context.WithValue(ctx, txContextKey{}, s), nil
}

// Commit discards the snapshot and releases the store
func (s *Store) Commit(ctx context.Context) error {
	s.snapshot = nil
	s.mu.Unlock()
	return nil
}

// Rollback restores the snapshot and releases the store
func (s *Store) Rollback(ctx context.Context) error {
	if s.snapshot != nil {
		s.restoreSnapshot(s.snapshot)
		s.snapshot = nil
	}
	s.mu.Unlock()
	return nil
}

// GetUserRepository returns a user repository over the store
func (s *Store) GetUserRepository(ctx context.Context) persistence.UserRepository {
	return (*userRepository)(s)
}

// GetCreditTransactionRepository returns an audit trail repository over the store
func (s *Store) GetCreditTransactionRepository(ctx context.Context) persistence.CreditTransactionRepository {
	return (*creditTransactionRepository)(s)
}

// GetSubmissionRepository returns a submission repository over the store
func (s *Store) GetSubmissionRepository(ctx context.Context) persistence.SubmissionRepository {
	return (*submissionRepository)(s)
}

// GetVoteRepository returns a vote repository over the store
func (s *Store) GetVoteRepository(ctx context.Context) persistence.VoteRepository {
	return (*voteRepository)(s)
}

// SeedUser inserts a user outside any transaction (test setup)
func (s *Store) SeedUser(user *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = cloneUser(user)
}

// userRepository implements persistence.UserRepository over the store
type userRepository Store

func (r *userRepository) GetByID(ctx context.Context, id uint64) (*entity.User, error) {
	defer (*Store)(r).lockIfNoTx(ctx)()

	user, ok := r.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*entity.User, error) {
	// The store mutex already serializes transactions
	return r.GetByID(ctx, id)
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	defer (*Store)(r).lockIfNoTx(ctx)()

	if _, exists := r.users[user.ID]; exists {
		return errs.ErrDuplicateUser
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	defer (*Store)(r).lockIfNoTx(ctx)()

	if _, ok := r.users[user.ID]; !ok {
		return errs.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

// creditTransactionRepository implements persistence.CreditTransactionRepository
type creditTransactionRepository Store

func (r *creditTransactionRepository) Append(ctx context.Context, transaction *entity.CreditTransaction) error {
	defer (*Store)(r).lockIfNoTx(ctx)()

	if _, ok := r.users[transaction.UserID]; !ok {
		return errs.ErrUserNotFound
	}
	stored := cloneTransaction(transaction)
	stored.ID = r.nextTransactionID
	r.nextTransactionID++
	r.transactions = append(r.transactions, stored)
	transaction.ID = stored.ID
	return nil
}

func (r *creditTransactionRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]*entity.CreditTransaction, error) {
	defer (*Store)(r).lockIfNoTx(ctx)()

	var result []*entity.CreditTransaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].UserID != userID {
			continue
		}
		result = append(result, cloneTransaction(r.transactions[i]))
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// submissionRepository implements persistence.SubmissionRepository
type submissionRepository Store

func (r *submissionRepository) GetByID(ctx context.Context, id uint64) (*entity.Submission, error) {
	defer (*Store)(r).lockIfNoTx(ctx)()

	sub, ok := r.submissions[id]
	if !ok {
		return nil, errs.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

func (r *submissionRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*entity.Submission, error) {
	return r.GetByID(ctx, id)
}

func (r *submissionRepository) Create(ctx context.Context, submission *entity.Submission) error {
	defer (*Store)(r).lockIfNoTx(ctx)()

	if _, ok := r.users[submission.OwnerID]; !ok {
		return errs.ErrUserNotFound
	}
	stored := cloneSubmission(submission)
	stored.ID = r.nextSubmissionID
	r.nextSubmissionID++
	r.submissions[stored.ID] = stored
	submission.ID = stored.ID
	return nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *entity.Submission) error {
	defer (*Store)(r).lockIfNoTx(ctx)()

	if _, ok := r.submissions[submission.ID]; !ok {
		return errs.ErrSubmissionNotFound
	}
	r.submissions[submission.ID] = cloneSubmission(submission)
	return nil
}

func (r *submissionRepository) ListPending(ctx context.Context, queue entity.QueueType) ([]*entity.Submission, error) {
	defer (*Store)(r).lockIfNoTx(ctx)()

	var pending []*entity.Submission
	for _, sub := range r.submissions {
		if sub.Status == entity.StatusPending && sub.QueueType == queue {
			pending = append(pending, cloneSubmission(sub))
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if queue == entity.QueueFree && a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID < b.ID
	})

	return pending, nil
}

func (r *submissionRepository) ListPendingForUpdate(ctx context.Context, queue entity.QueueType) ([]*entity.Submission, error) {
	return r.ListPending(ctx, queue)
}

func (r *submissionRepository) CountPendingByOwner(ctx context.Context, ownerID uint64) (int, error) {
	defer (*Store)(r).lockIfNoTx(ctx)()

	count := 0
	for _, sub := range r.submissions {
		if sub.OwnerID == ownerID && sub.Status == entity.StatusPending {
			count++
		}
	}
	return count, nil
}

func (r *submissionRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]*entity.Submission, error) {
	defer (*Store)(r).lockIfNoTx(ctx)()

	var owned []*entity.Submission
	for _, sub := range r.submissions {
		if sub.OwnerID == ownerID {
			owned = append(owned, cloneSubmission(sub))
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.After(b.SubmittedAt)
		}
		return a.ID > b.ID
	})

	return owned, nil
}

// voteRepository implements persistence.VoteRepository
type voteRepository Store

func (r *voteRepository) CreateVote(ctx context.Context, vote *entity.Vote) error {
	defer (*Store)(r).lockIfNoTx(ctx)()

	key := voteKey{userID: vote.UserID, submissionID: vote.SubmissionID}
	if _, exists := r.votes[key]; exists {
		return errs.ErrAlreadyVoted
	}
	stored := cloneVote(vote)
	stored.ID = r.nextVoteID
	r.nextVoteID++
	r.votes[key] = stored
	vote.ID = stored.ID
	return nil
}

func (r *voteRepository) DeleteVote(ctx context.Context, userID, submissionID uint64) error {
	defer (*Store)(r).lockIfNoTx(ctx)()

	key := voteKey{userID: userID, submissionID: submissionID}
	if _, exists := r.votes[key]; !exists {
		return errs.ErrVoteNotFound
	}
	delete(r.votes, key)
	return nil
}

func (r *voteRepository) HasVote(ctx context.Context, userID, submissionID uint64) (bool, error) {
	defer (*Store)(r).lockIfNoTx(ctx)()

	_, exists := r.votes[voteKey{userID: userID, submissionID: submissionID}]
	return exists, nil
}

func (r *voteRepository) GetOrCreateAllowance(ctx context.Context, userID uint64, period string, votesAvailable int) (*entity.VoteAllowance, error) {
	defer (*Store)(r).lockIfNoTx(ctx)()

	key := allowanceKey{userID: userID, period: period}
	if allowance, exists := r.allowances[key]; exists {
		return cloneAllowance(allowance), nil
	}

	allowance := entity.NewVoteAllowance(userID, period, votesAvailable)
	allowance.ID = r.nextAllowanceID
	r.nextAllowanceID++
	r.allowances[key] = cloneAllowance(allowance)
	return allowance, nil
}

func (r *voteRepository) UpdateAllowance(ctx context.Context, allowance *entity.VoteAllowance) error {
	defer (*Store)(r).lockIfNoTx(ctx)()

	key := allowanceKey{userID: allowance.UserID, period: allowance.Period}
	if _, exists := r.allowances[key]; !exists {
		return errs.ErrVoteNotFound
	}
	r.allowances[key] = cloneAllowance(allowance)
	return nil
}
