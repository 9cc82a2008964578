package analysis

import (
	"context"
	"sync"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

// fakeAPI implements API with overridable functions.
type fakeAPI struct {
	latest     func(ctx context.Context) (*models.AnalysisRecord, error)
	byMonth    func(ctx context.Context, month string) (*models.AnalysisRecord, error)
	request    func(ctx context.Context, month string) (*models.AnalysisResult, error)
	deleteFn   func(ctx context.Context, month string) error
	history    func(ctx context.Context, month string) ([]models.AnalysisRecord, error)
	byID       func(ctx context.Context, id string) (*models.AnalysisRecord, error)
	compare    func(ctx context.Context, id1, id2 string) (*models.ComparisonResult, error)
	raw        func(ctx context.Context, month string) (models.SpendingSnapshot, error)
	peer       func(ctx context.Context, gender, ageGroup string) (*models.PeerAggregate, error)
	userInfo   func(ctx context.Context) (*models.UserProfile, error)
	prediction func(ctx context.Context) (*models.Prediction, error)
}

func (f *fakeAPI) LatestAnalysis(ctx context.Context) (*models.AnalysisRecord, error) {
	return f.latest(ctx)
}

func (f *fakeAPI) MonthAnalysis(ctx context.Context, month string) (*models.AnalysisRecord, error) {
	if f.byMonth == nil {
		return nil, api.ErrNotFound
	}
	return f.byMonth(ctx, month)
}

func (f *fakeAPI) RequestAnalysis(ctx context.Context, month string) (*models.AnalysisResult, error) {
	return f.request(ctx, month)
}

func (f *fakeAPI) DeleteAnalysis(ctx context.Context, month string) error {
	return f.deleteFn(ctx, month)
}

func (f *fakeAPI) AnalysisHistory(ctx context.Context, month string) ([]models.AnalysisRecord, error) {
	return f.history(ctx, month)
}

func (f *fakeAPI) AnalysisByID(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	return f.byID(ctx, id)
}

func (f *fakeAPI) CompareAnalyses(ctx context.Context, id1, id2 string) (*models.ComparisonResult, error) {
	return f.compare(ctx, id1, id2)
}

func (f *fakeAPI) RawSpending(ctx context.Context, month string) (models.SpendingSnapshot, error) {
	return f.raw(ctx, month)
}

func (f *fakeAPI) PeerAggregate(ctx context.Context, gender, ageGroup string) (*models.PeerAggregate, error) {
	return f.peer(ctx, gender, ageGroup)
}

func (f *fakeAPI) UserInfo(ctx context.Context) (*models.UserProfile, error) {
	return f.userInfo(ctx)
}

func (f *fakeAPI) Prediction(ctx context.Context) (*models.Prediction, error) {
	return f.prediction(ctx)
}

// memoryCache implements Cache in memory.
type memoryCache struct {
	records map[string]models.AnalysisRecord
	mu      sync.Mutex
}

func newMemoryCache() *memoryCache {
	return &memoryCache{records: make(map[string]models.AnalysisRecord)}
}

func (m *memoryCache) SaveAnalyses(records []models.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *memoryCache) CachedHistory(month string) ([]models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AnalysisRecord
	for _, r := range m.records {
		if r.Month == month {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryCache) CachedAnalysis(id string) (*models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, errNotCached
	}
	return &r, nil
}

func (m *memoryCache) DeleteCachedMonth(month string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.records {
		if r.Month == month {
			delete(m.records, id)
		}
	}
	return nil
}
