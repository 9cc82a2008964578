// Package analysistest provides a canned analysis API for tests of code
// built on the analysis controller.
package analysistest

import (
	"context"
	"sync"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

// StubAPI answers every call from its fields. A call whose error field is
// set fails with it; a call whose value field is nil fails with
// api.ErrNotFound.
type StubAPI struct {
	Latest        *models.AnalysisRecord
	LatestErr     error
	Result        *models.AnalysisResult
	RequestErr    error
	DeleteErr     error
	History       []models.AnalysisRecord
	HistoryErr    error
	Records       map[string]*models.AnalysisRecord
	RecordErr     error
	Comparison    *models.ComparisonResult
	CompareErr    error
	Spending      models.SpendingSnapshot
	SpendingErr   error
	Peer          *models.PeerAggregate
	PeerErr       error
	Profile       *models.UserProfile
	ProfileErr    error
	Forecast      *models.Prediction
	ForecastErr   error

	// Months answers MonthAnalysis by month.
	Months   map[string]*models.AnalysisRecord
	MonthErr error

	mu    sync.Mutex
	calls []string
}

// Calls returns the names of the methods called so far, in order.
func (s *StubAPI) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *StubAPI) called(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
}

// LatestAnalysis implements analysis.API.
func (s *StubAPI) LatestAnalysis(context.Context) (*models.AnalysisRecord, error) {
	s.called("LatestAnalysis")
	if s.LatestErr != nil {
		return nil, s.LatestErr
	}
	if s.Latest == nil {
		return nil, api.ErrNotFound
	}
	return s.Latest, nil
}

// MonthAnalysis implements analysis.API.
func (s *StubAPI) MonthAnalysis(_ context.Context, month string) (*models.AnalysisRecord, error) {
	s.called("MonthAnalysis")
	if s.MonthErr != nil {
		return nil, s.MonthErr
	}
	rec, ok := s.Months[month]
	if !ok || rec == nil {
		return nil, api.ErrNotFound
	}
	return rec, nil
}

// RequestAnalysis implements analysis.API.
func (s *StubAPI) RequestAnalysis(context.Context, string) (*models.AnalysisResult, error) {
	s.called("RequestAnalysis")
	if s.RequestErr != nil {
		return nil, s.RequestErr
	}
	if s.Result == nil {
		return &models.AnalysisResult{}, nil
	}
	return s.Result, nil
}

// DeleteAnalysis implements analysis.API.
func (s *StubAPI) DeleteAnalysis(context.Context, string) error {
	s.called("DeleteAnalysis")
	return s.DeleteErr
}

// AnalysisHistory implements analysis.API.
func (s *StubAPI) AnalysisHistory(context.Context, string) ([]models.AnalysisRecord, error) {
	s.called("AnalysisHistory")
	if s.HistoryErr != nil {
		return nil, s.HistoryErr
	}
	if s.History == nil {
		return nil, api.ErrNotFound
	}
	return append([]models.AnalysisRecord(nil), s.History...), nil
}

// AnalysisByID implements analysis.API.
func (s *StubAPI) AnalysisByID(_ context.Context, id string) (*models.AnalysisRecord, error) {
	s.called("AnalysisByID")
	if s.RecordErr != nil {
		return nil, s.RecordErr
	}
	rec, ok := s.Records[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return rec, nil
}

// CompareAnalyses implements analysis.API.
func (s *StubAPI) CompareAnalyses(context.Context, string, string) (*models.ComparisonResult, error) {
	s.called("CompareAnalyses")
	if s.CompareErr != nil {
		return nil, s.CompareErr
	}
	if s.Comparison == nil {
		return nil, api.ErrNotFound
	}
	return s.Comparison, nil
}

// RawSpending implements analysis.API.
func (s *StubAPI) RawSpending(context.Context, string) (models.SpendingSnapshot, error) {
	s.called("RawSpending")
	if s.SpendingErr != nil {
		return nil, s.SpendingErr
	}
	if s.Spending == nil {
		return nil, api.ErrNotFound
	}
	return s.Spending, nil
}

// PeerAggregate implements analysis.API.
func (s *StubAPI) PeerAggregate(context.Context, string, string) (*models.PeerAggregate, error) {
	s.called("PeerAggregate")
	if s.PeerErr != nil {
		return nil, s.PeerErr
	}
	if s.Peer == nil {
		return nil, api.ErrNotFound
	}
	return s.Peer, nil
}

// UserInfo implements analysis.API.
func (s *StubAPI) UserInfo(context.Context) (*models.UserProfile, error) {
	s.called("UserInfo")
	if s.ProfileErr != nil {
		return nil, s.ProfileErr
	}
	if s.Profile == nil {
		return nil, api.ErrNotFound
	}
	return s.Profile, nil
}

// Prediction implements analysis.API.
func (s *StubAPI) Prediction(context.Context) (*models.Prediction, error) {
	s.called("Prediction")
	if s.ForecastErr != nil {
		return nil, s.ForecastErr
	}
	if s.Forecast == nil {
		return nil, api.ErrNotFound
	}
	return s.Forecast, nil
}
