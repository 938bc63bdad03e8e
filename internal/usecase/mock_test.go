// File: internal/usecase/mock_test.go
//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"study-access-redemption/internal/domain"
	"study-access-redemption/internal/domain/model"
	"study-access-redemption/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// ---- fake clock ----

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ---- Mock AccessCodeRepo ----

// MockAccessCodeRepo reproduces the store's conditional-write semantics under
// a mutex, so concurrency tests exercise the same claim linearization the
// real store provides.
type MockAccessCodeRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.AccessCode
	byCode map[string]string // code -> id
	calls  int

	SaveFunc        func(ctx context.Context, code *model.AccessCode) error
	FindByCodeFunc  func(ctx context.Context, code string) (*model.AccessCode, error)
	ClaimFunc       func(ctx context.Context, id, userID string, at time.Time) (bool, error)
	MarkAppliedFunc func(ctx context.Context, id string) error
	ListFunc        func(ctx context.Context, limit int) ([]*model.AccessCode, error)
}

var _ repository.AccessCodeRepository = (*MockAccessCodeRepo)(nil)

func NewMockAccessCodeRepo() *MockAccessCodeRepo {
	return &MockAccessCodeRepo{
		byID:   make(map[string]*model.AccessCode),
		byCode: make(map[string]string),
	}
}

// Calls reports how many store operations ran (validation tests assert zero).
func (m *MockAccessCodeRepo) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockAccessCodeRepo) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *MockAccessCodeRepo) Save(ctx context.Context, code *model.AccessCode) error {
	m.count()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	m.byID[code.ID] = &cp
	m.byCode[code.Code] = code.ID
	return nil
}

func (m *MockAccessCodeRepo) FindByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	m.count()
	if m.FindByCodeFunc != nil {
		return m.FindByCodeFunc(ctx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MockAccessCodeRepo) Claim(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	m.count()
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, id, userID, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if c.IsUsed {
		return false, nil
	}
	c.IsUsed = true
	c.UsedByUserID = &userID
	usedAt := at
	c.UsedAt = &usedAt
	c.Applied = false
	return true, nil
}

func (m *MockAccessCodeRepo) MarkApplied(ctx context.Context, id string) error {
	m.count()
	if m.MarkAppliedFunc != nil {
		return m.MarkAppliedFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok || !c.IsUsed {
		return domain.ErrNotFound
	}
	c.Applied = true
	return nil
}

func (m *MockAccessCodeRepo) List(ctx context.Context, limit int) ([]*model.AccessCode, error) {
	m.count()
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.AccessCode, 0, len(m.byID))
	for _, c := range m.byID {
		if len(out) == limit {
			break
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// Get returns a copy of the stored code for assertions.
func (m *MockAccessCodeRepo) Get(id string) *model.AccessCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// ---- Mock SubscriptionRepo ----

// MockSubscriptionRepo enforces version checks and the one-per-user unique
// constraint under a mutex.
type MockSubscriptionRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.Subscription
	byUser map[string]string // userID -> subscription ID
	calls  int

	CreateFunc          func(ctx context.Context, sub *model.Subscription) error
	FindByUserIDFunc    func(ctx context.Context, userID string) (*model.Subscription, error)
	UpdateVersionedFunc func(ctx context.Context, sub *model.Subscription) error
	MarkExpiredFunc     func(ctx context.Context, now time.Time) (int, error)
	CountByStatusFunc   func(ctx context.Context) (map[model.SubscriptionStatus]int, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{
		byID:   make(map[string]*model.Subscription),
		byUser: make(map[string]string),
	}
}

func (m *MockSubscriptionRepo) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockSubscriptionRepo) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *MockSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	m.count()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sub)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[sub.UserID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *sub
	m.byID[sub.ID] = &cp
	m.byUser[sub.UserID] = sub.ID
	return nil
}

func (m *MockSubscriptionRepo) FindByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	m.count()
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MockSubscriptionRepo) UpdateVersioned(ctx context.Context, sub *model.Subscription) error {
	m.count()
	if m.UpdateVersionedFunc != nil {
		return m.UpdateVersionedFunc(ctx, sub)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[sub.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != sub.Version {
		return domain.ErrVersionConflict
	}
	cp := *sub
	cp.Version++
	m.byID[sub.ID] = &cp
	sub.Version++
	return nil
}

func (m *MockSubscriptionRepo) MarkExpired(ctx context.Context, now time.Time) (int, error) {
	m.count()
	if m.MarkExpiredFunc != nil {
		return m.MarkExpiredFunc(ctx, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.byID {
		if s.Status == model.SubscriptionStatusActive && now.After(s.EndDate) {
			s.Status = model.SubscriptionStatusExpired
			s.Version++
			n++
		}
	}
	return n, nil
}

func (m *MockSubscriptionRepo) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	m.count()
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.SubscriptionStatus]int)
	for _, s := range m.byID {
		out[s.Status]++
	}
	return out, nil
}

// GetByUser returns a copy of the user's subscription for assertions.
func (m *MockSubscriptionRepo) GetByUser(userID string) *model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userID]
	if !ok {
		return nil
	}
	cp := *m.byID[id]
	return &cp
}

// ---- Mock Locker ----

type MockLocker struct {
	mu     sync.Mutex
	held   map[string]string
	Locked []string // keys passed to TryLock, in order

	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var _ repository.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]string)}
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Locked = append(m.Locked, key)
	if _, ok := m.held[key]; ok {
		return "", domain.ErrLockNotAcquired
	}
	token := key + "-token"
	m.held[key] = token
	return token, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}
