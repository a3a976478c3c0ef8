package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)
var _ repo.PreferenceStore = (*Store)(nil)
var _ repo.ResultStore = (*Results)(nil)

type Store struct {
	mu      sync.RWMutex
	targets map[domain.TargetID]*domain.Target
	order   []domain.TargetID
	results map[domain.TargetID][]*domain.SpeedTestResult
	prefs   map[string]*domain.SpeedTestPreference
}

// Results is a view over the same store satisfying repo.ResultStore.
type Results struct{ s *Store }

func New() *Store {
	return &Store{
		targets: make(map[domain.TargetID]*domain.Target),
		results: make(map[domain.TargetID][]*domain.SpeedTestResult),
		prefs:   make(map[string]*domain.SpeedTestPreference),
	}
}

func (m *Store) Results() *Results { return &Results{s: m} }

// ---- TargetStore ----

func (m *Store) Create(ctx context.Context, data repo.CreateTarget) (*domain.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &domain.Target{
		ID:        domain.TargetID("target-" + uuid.NewString()),
		Name:      data.Name,
		Address:   data.Address,
		OwnerID:   data.OwnerID,
		CreatedAt: time.Now().UTC(),
	}
	m.targets[t.ID] = t
	m.order = append(m.order, t.ID)
	return m.withRelationsLocked(t), nil
}

func (m *Store) FindByID(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Store) FindByIDWithRelations(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return m.withRelationsLocked(t), nil
}

func (m *Store) FindByOwnerWithRelations(ctx context.Context, ownerID string) ([]*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Target, 0)
	for _, id := range m.order {
		t := m.targets[id]
		if t != nil && t.OwnerID == ownerID {
			out = append(out, m.withRelationsLocked(t))
		}
	}
	return out, nil
}

func (m *Store) AllWithRelations(ctx context.Context) ([]*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Target, 0, len(m.order))
	for _, id := range m.order {
		if t := m.targets[id]; t != nil {
			out = append(out, m.withRelationsLocked(t))
		}
	}
	return out, nil
}

func (m *Store) Update(ctx context.Context, id domain.TargetID, data repo.UpdateTarget) (*domain.Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if data.Name != nil {
		t.Name = *data.Name
	}
	if data.Address != nil {
		t.Address = *data.Address
	}
	return m.withRelationsLocked(t), nil
}

func (m *Store) Delete(ctx context.Context, id domain.TargetID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.targets, id)
	delete(m.results, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// ---- ResultStore ----

func (r *Results) Create(ctx context.Context, data repo.CreateResult) (*domain.SpeedTestResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	res := &domain.SpeedTestResult{
		ID:        uuid.NewString(),
		TargetID:  data.TargetID,
		Ping:      data.Ping,
		Download:  data.Download,
		Upload:    data.Upload,
		Status:    data.Status,
		Error:     data.Error,
		Timestamp: now,
		CreatedAt: now,
	}
	r.s.results[data.TargetID] = append(r.s.results[data.TargetID], res)
	return res, nil
}

func (r *Results) FindByTargetID(ctx context.Context, id domain.TargetID, limit int) ([]*domain.SpeedTestResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rs := r.s.results[id]
	// newest first
	out := make([]*domain.SpeedTestResult, 0, len(rs))
	for i := len(rs) - 1; i >= 0; i-- {
		out = append(out, rs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ---- PreferenceStore ----

func (m *Store) GetByUserID(ctx context.Context, userID string) (*domain.SpeedTestPreference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prefs[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Store) SetPreference(ctx context.Context, p domain.SpeedTestPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[p.UserID] = &p
	return nil
}

// withRelationsLocked copies the target and attaches its stored results.
// Alert rules live in external services; the collection is always present but
// stays empty here.
func (m *Store) withRelationsLocked(t *domain.Target) *domain.Target {
	cp := *t
	rs := m.results[t.ID]
	cp.SpeedTestResults = make([]domain.SpeedTestResult, 0, len(rs))
	for _, r := range rs {
		cp.SpeedTestResults = append(cp.SpeedTestResults, *r)
	}
	cp.AlertRules = []domain.AlertRule{}
	return &cp
}
