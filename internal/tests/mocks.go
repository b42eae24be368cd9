package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK JOB REPOSITORY
// ──────────────────────────────────────────────

// MockJobRepository is a mock implementation of repository.JobRepository.
type MockJobRepository struct {
	mu      sync.RWMutex
	jobs    map[string]*domain.Job
	history map[string][]domain.HistoryEntry

	// Counters for verification
	ApplyTransitionCallCount int32

	// Error injection
	ApplyTransitionError error
}

// NewMockJobRepository creates a new mock job repository.
func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		jobs:    make(map[string]*domain.Job),
		history: make(map[string][]domain.HistoryEntry),
	}
}

// AddJob adds a job to the mock repository.
func (m *MockJobRepository) AddJob(job *domain.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
}

func (m *MockJobRepository) Create(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *MockJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyJob(job), nil
}

func (m *MockJobRepository) GetAll(ctx context.Context) ([]*domain.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		result = append(result, copyJob(j))
	}
	return result, nil
}

func (m *MockJobRepository) ApplyTransition(ctx context.Context, t repository.StageTransition) error {
	atomic.AddInt32(&m.ApplyTransitionCallCount, 1)
	if m.ApplyTransitionError != nil {
		return m.ApplyTransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[t.JobID]
	if !ok {
		return repository.ErrNotFound
	}
	if job.StatusVersion != t.ExpectedVersion {
		return repository.ErrStaleVersion
	}

	// Verify every leg exists before mutating anything.
	for _, lu := range t.LegUpdates {
		if findLeg(job, lu.LegID) == nil {
			return repository.ErrNotFound
		}
	}

	job.Status = t.ToStatus
	job.StatusVersion++
	for _, lu := range t.LegUpdates {
		findLeg(job, lu.LegID).Status = lu.Status
	}
	m.history[t.JobID] = append(m.history[t.JobID], t.History)
	return nil
}

func (m *MockJobRepository) ListHistory(ctx context.Context, jobID string) ([]domain.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.HistoryEntry(nil), m.history[jobID]...), nil
}

// GetJob returns the stored job for test assertions.
func (m *MockJobRepository) GetJob(id string) *domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// HistoryLen returns the audit-trail length for test assertions.
func (m *MockJobRepository) HistoryLen(jobID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history[jobID])
}

// mutateJob applies the rejection-approval job mutation; shared with
// the mock rejection repository.
func (m *MockJobRepository) mutateJob(jobID string, expectedVersion int, status domain.JobStatus, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return repository.ErrNotFound
	}
	if job.StatusVersion != expectedVersion {
		return repository.ErrStaleVersion
	}
	job.Status = status
	job.DriverID = driverID
	job.StatusVersion++
	return nil
}

func findLeg(job *domain.Job, legID string) *domain.Leg {
	for i := range job.Legs {
		if job.Legs[i].ID == legID {
			return &job.Legs[i]
		}
	}
	return nil
}

func copyJob(job *domain.Job) *domain.Job {
	c := *job
	c.Legs = append([]domain.Leg(nil), job.Legs...)
	c.Vehicles = append([]domain.Vehicle(nil), job.Vehicles...)
	return &c
}

// ──────────────────────────────────────────────
// MOCK EVIDENCE REPOSITORY
// ──────────────────────────────────────────────

// MockEvidenceRepository is a mock implementation of repository.EvidenceRepository.
type MockEvidenceRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Evidence

	// Counters for verification
	AppendBatchCallCount int32

	// Error injection
	AppendBatchError error
}

// NewMockEvidenceRepository creates a new mock evidence repository.
func NewMockEvidenceRepository() *MockEvidenceRepository {
	return &MockEvidenceRepository{items: make(map[string]*domain.Evidence)}
}

// AddEvidence seeds evidence rows for test setup.
func (m *MockEvidenceRepository) AddEvidence(jobID string, phase domain.EvidencePhase, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	for _, e := range m.items {
		if e.JobID == jobID && e.Phase == phase {
			start++
		}
	}
	for i := start; i < start+count; i++ {
		id := fmt.Sprintf("%s-%s-%d", jobID, phase, i)
		m.items[id] = &domain.Evidence{
			ID:        id,
			JobID:     jobID,
			Phase:     phase,
			BlobRef:   "blob/" + id,
			CreatedAt: time.Now(),
		}
	}
}

func (m *MockEvidenceRepository) AppendBatch(ctx context.Context, items []domain.Evidence) error {
	atomic.AddInt32(&m.AppendBatchCallCount, 1)
	if m.AppendBatchError != nil {
		return m.AppendBatchError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range items {
		item := items[i]
		m.items[item.ID] = &item
	}
	return nil
}

func (m *MockEvidenceRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Evidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []domain.Evidence
	for _, e := range m.items {
		if e.JobID == jobID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *MockEvidenceRepository) CountByPhase(ctx context.Context, jobID string, phase domain.EvidencePhase) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.items {
		if e.JobID == jobID && e.Phase == phase {
			count++
		}
	}
	return count, nil
}

func (m *MockEvidenceRepository) GetByID(ctx context.Context, id string) (*domain.Evidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (m *MockEvidenceRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// Count returns the total number of stored rows for test assertions.
func (m *MockEvidenceRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// ──────────────────────────────────────────────
// MOCK REJECTION REPOSITORY
// ──────────────────────────────────────────────

// MockRejectionRepository is a mock implementation of
// repository.RejectionRepository. Approvals mutate jobs through the
// linked MockJobRepository, mirroring the single-transaction semantics
// of the real implementation.
type MockRejectionRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.RejectionRequest
	jobs     *MockJobRepository

	// Error injection
	CreateError error
	DecideError error
}

// NewMockRejectionRepository creates a new mock rejection repository.
func NewMockRejectionRepository(jobs *MockJobRepository) *MockRejectionRepository {
	return &MockRejectionRepository{
		requests: make(map[string]*domain.RejectionRequest),
		jobs:     jobs,
	}
}

func (m *MockRejectionRepository) Create(ctx context.Context, req *domain.RejectionRequest) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *req
	m.requests[req.ID] = &c
	return nil
}

func (m *MockRejectionRepository) GetByID(ctx context.Context, id string) (*domain.RejectionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *req
	return &c, nil
}

func (m *MockRejectionRepository) GetPending(ctx context.Context, jobID, driverID string) (*domain.RejectionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, req := range m.requests {
		if req.JobID == jobID && req.DriverID == driverID && req.Status == domain.RejectionStatusPending {
			c := *req
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockRejectionRepository) Decide(ctx context.Context, d repository.RejectionDecision) error {
	if m.DecideError != nil {
		return m.DecideError
	}
	m.mu.Lock()
	req, ok := m.requests[d.RequestID]
	if !ok || req.Status != domain.RejectionStatusPending {
		m.mu.Unlock()
		return repository.ErrNotFound
	}
	m.mu.Unlock()

	if d.MutateJob {
		if err := m.jobs.mutateJob(d.JobID, d.JobExpectedVersion, d.JobStatus, d.JobDriverID); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	req.Status = d.Status
	req.ReviewedBy = d.ReviewedBy
	req.ReassignedTo = d.ReassignedTo
	req.ReviewedAt = time.Now()
	return nil
}

// GetRequest returns the stored request for test assertions.
func (m *MockRejectionRepository) GetRequest(id string) *domain.RejectionRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[id]
}

// ──────────────────────────────────────────────
// MOCK BLOB STORE
// ──────────────────────────────────────────────

// MockBlobStore is an in-memory implementation of blob.Store with
// per-index failure injection.
type MockBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	// Counters for verification
	PutCallCount int32

	// Error injection: Put fails once the given call number is reached
	// (1-based; 0 disables).
	FailOnPut int32
	PutError  error
}

// NewMockBlobStore creates a new mock blob store.
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{objects: make(map[string][]byte)}
}

func (m *MockBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	call := atomic.AddInt32(&m.PutCallCount, 1)
	if m.FailOnPut > 0 && call >= m.FailOnPut {
		err := m.PutError
		if err == nil {
			err = fmt.Errorf("upload failed for %s", key)
		}
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return key, nil
}

func (m *MockBlobStore) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	m.deleted = append(m.deleted, ref)
	return nil
}

// StoredCount returns the number of live objects for test assertions.
func (m *MockBlobStore) StoredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// DeletedCount returns the number of deleted refs for test assertions.
func (m *MockBlobStore) DeletedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deleted)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of the batch lock.
type MockLockStore struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{held: make(map[string]bool)}
}

// Hold pre-acquires a lock so a test can simulate a batch in flight.
func (m *MockLockStore) Hold(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[jobID] = true
}

func (m *MockLockStore) AcquireBatchLock(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[jobID] {
		return false, nil
	}
	m.held[jobID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseBatchLock(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, jobID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK RATE CACHE
// ──────────────────────────────────────────────

// MockRateCache is an in-memory implementation of redis.RateCacheInterface.
type MockRateCache struct {
	mu      sync.RWMutex
	configs map[string]*domain.RateConfig

	// Counters for verification
	GetCallCount int32
	SetCallCount int32

	// Error injection
	GetError error
}

// NewMockRateCache creates a new mock rate cache.
func NewMockRateCache() *MockRateCache {
	return &MockRateCache{configs: make(map[string]*domain.RateConfig)}
}

func (m *MockRateCache) GetRateConfig(ctx context.Context, companyID string) (*domain.RateConfig, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configs[companyID], nil
}

func (m *MockRateCache) SetRateConfig(ctx context.Context, cfg *domain.RateConfig) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.CompanyID] = cfg
	return nil
}

func (m *MockRateCache) InvalidateRateConfig(ctx context.Context, companyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.configs, companyID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK RATE PROVIDER
// ──────────────────────────────────────────────

// MockRateProvider is a mock implementation of repository.RateProvider.
type MockRateProvider struct {
	mu      sync.RWMutex
	configs map[string]*domain.RateConfig

	// Counters for verification
	GetCallCount int32
}

// NewMockRateProvider creates a new mock rate provider.
func NewMockRateProvider() *MockRateProvider {
	return &MockRateProvider{configs: make(map[string]*domain.RateConfig)}
}

// AddConfig registers a company's rate configuration.
func (m *MockRateProvider) AddConfig(cfg *domain.RateConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.CompanyID] = cfg
}

func (m *MockRateProvider) GetRateConfig(ctx context.Context, companyID string) (*domain.RateConfig, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[companyID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cfg, nil
}
