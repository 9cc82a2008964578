package analysis

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

var errNotCached = errors.New("not cached")

func netErr() error {
	return &api.NetworkError{Method: "GET", Path: "/x", Err: &url.Error{Op: "Get", URL: "/x", Err: errors.New("refused")}}
}

func result(summary string) *models.AnalysisResult {
	return &models.AnalysisResult{Sections: map[string]string{"summary": summary}}
}

func TestFetchLatest(t *testing.T) {
	tests := []struct {
		name   string
		month  string
		rec    *models.AnalysisRecord
		err    error
		want   Kind
		errMsg string
	}{
		{name: "Success", month: "2024-03", rec: &models.AnalysisRecord{ID: "a", Month: "2024-03", Result: result("s")}, want: KindSuccess},
		{name: "NotFoundIsEmpty", month: "2024-03", err: api.ErrNotFound, want: KindEmpty},
		{name: "EmptyObject", month: "2024-03", rec: &models.AnalysisRecord{}, want: KindEmpty},
		{name: "OtherMonthIsEmpty", month: "2024-04", rec: &models.AnalysisRecord{ID: "a", Month: "2024-03", Result: result("s")}, want: KindEmpty},
		{name: "AnyMonth", month: "", rec: &models.AnalysisRecord{ID: "a", Month: "2024-03", Result: result("s")}, want: KindSuccess},
		{name: "Unauthorized", month: "2024-03", err: api.ErrUnauthorized, want: KindUnauthorized},
		{name: "ServerError", month: "2024-03", err: &api.StatusError{StatusCode: 500, Body: "stack trace"}, want: KindError, errMsg: msgLoadFailed},
		{name: "Network", month: "2024-03", err: netErr(), want: KindError},
		{name: "InvalidMonth", month: "2024/03", want: KindError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(&fakeAPI{latest: func(context.Context) (*models.AnalysisRecord, error) {
				return tt.rec, tt.err
			}})

			out := c.FetchLatest(context.Background(), tt.month)
			assert.Equal(t, tt.want, out.Kind, out.Message)
			assert.Equal(t, OpFetchLatest, out.Op)
			if tt.errMsg != "" {
				assert.Equal(t, tt.errMsg, out.Message)
				assert.NotContains(t, out.Message, "stack trace")
			}
			if tt.want == KindSuccess {
				require.NotNil(t, out.Record)
			}
		})
	}
}

func TestFetchLatest_OlderMonth(t *testing.T) {
	var asked string
	c := NewController(&fakeAPI{
		latest: func(context.Context) (*models.AnalysisRecord, error) {
			return &models.AnalysisRecord{ID: "mar", Month: "2024-03", Version: 1, Result: result("march")}, nil
		},
		byMonth: func(_ context.Context, month string) (*models.AnalysisRecord, error) {
			asked = month
			return &models.AnalysisRecord{ID: "feb", Month: "2024-02", Version: 2, Result: result("february")}, nil
		},
	})

	out := c.FetchLatest(context.Background(), "2024-02")
	require.Equal(t, KindSuccess, out.Kind)
	assert.Equal(t, "2024-02", asked)
	assert.Equal(t, "feb", out.Record.ID)
	assert.Equal(t, "february", out.Record.Result.Section(models.ResultSummary))
}

func TestFetchLatest_OlderMonthErrors(t *testing.T) {
	latest := func(context.Context) (*models.AnalysisRecord, error) {
		return &models.AnalysisRecord{ID: "mar", Month: "2024-03", Result: result("march")}, nil
	}
	for _, tt := range []struct {
		name string
		rec  *models.AnalysisRecord
		err  error
		want Kind
	}{
		{"NotFound", nil, api.ErrNotFound, KindEmpty},
		{"EmptyObject", &models.AnalysisRecord{}, nil, KindEmpty},
		{"Unauthorized", nil, api.ErrUnauthorized, KindUnauthorized},
		{"ServerError", nil, &api.StatusError{StatusCode: 500}, KindError},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(&fakeAPI{
				latest: latest,
				byMonth: func(context.Context, string) (*models.AnalysisRecord, error) {
					return tt.rec, tt.err
				},
			})
			assert.Equal(t, tt.want, c.FetchLatest(context.Background(), "2024-02").Kind)
		})
	}
}

func TestFetchLatest_InvalidMonthSendsNoRequest(t *testing.T) {
	called := false
	c := NewController(&fakeAPI{latest: func(context.Context) (*models.AnalysisRecord, error) {
		called = true
		return nil, nil
	}})

	out := c.FetchLatest(context.Background(), "March")
	assert.Equal(t, KindError, out.Kind)
	var ve *ValidationError
	assert.ErrorAs(t, out.Err, &ve)
	assert.False(t, called)
}

func TestRequestAnalysis(t *testing.T) {
	c := NewController(&fakeAPI{request: func(_ context.Context, month string) (*models.AnalysisResult, error) {
		assert.Equal(t, "2024-03", month)
		return result("fresh"), nil
	}})

	out := c.RequestAnalysis(context.Background(), "2024-03")
	require.Equal(t, KindSuccess, out.Kind)
	assert.Equal(t, "2024-03", out.Record.Month)
	assert.True(t, out.Record.IsLatest)
	assert.Equal(t, "fresh", out.Record.Result.Section(models.ResultSummary))
}

func TestRequestAnalysis_Errors(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want Kind
	}{
		{api.ErrUnauthorized, KindUnauthorized},
		{&api.StatusError{StatusCode: 500}, KindError},
		{netErr(), KindError},
	} {
		c := NewController(&fakeAPI{request: func(context.Context, string) (*models.AnalysisResult, error) {
			return nil, tt.err
		}})
		assert.Equal(t, tt.want, c.RequestAnalysis(context.Background(), "2024-03").Kind)
	}
}

func TestRequestAnalysis_SupersedesFetch(t *testing.T) {
	release := make(chan struct{})
	c := NewController(&fakeAPI{
		latest: func(context.Context) (*models.AnalysisRecord, error) {
			<-release
			return &models.AnalysisRecord{ID: "old", Month: "2024-03", Result: result("old")}, nil
		},
		request: func(context.Context, string) (*models.AnalysisResult, error) {
			return result("new"), nil
		},
	})

	fetchDone := make(chan Outcome)
	token := c.BeginView("2024-03")
	go func() {
		fetchDone <- c.FetchLatestFor(context.Background(), "2024-03", token)
	}()

	requested := c.RequestAnalysis(context.Background(), "2024-03")
	close(release)
	fetched := <-fetchDone

	assert.True(t, c.IsCurrent(requested))
	assert.False(t, c.IsCurrent(fetched), "stale fetch must be discarded")
}

func TestDeleteAnalysis(t *testing.T) {
	cache := newMemoryCache()
	require.NoError(t, cache.SaveAnalyses([]models.AnalysisRecord{{ID: "a", Month: "2024-03"}}))

	c := NewController(&fakeAPI{deleteFn: func(context.Context, string) error { return nil }}, WithCache(cache))

	out := c.DeleteAnalysis(context.Background(), "2024-03")
	assert.Equal(t, KindDeleted, out.Kind)

	cached, _ := cache.CachedHistory("2024-03")
	assert.Empty(t, cached)
}

func TestDeleteAnalysis_UsesBodyAsDetail(t *testing.T) {
	c := NewController(&fakeAPI{deleteFn: func(context.Context, string) error {
		return &api.StatusError{StatusCode: 500, Body: "delete failed on server"}
	}})

	out := c.DeleteAnalysis(context.Background(), "2024-03")
	assert.Equal(t, KindError, out.Kind)
	assert.Equal(t, "delete failed on server", out.Message)
}

func TestDeleteAnalysis_Unauthorized(t *testing.T) {
	c := NewController(&fakeAPI{deleteFn: func(context.Context, string) error {
		return api.ErrUnauthorized
	}})
	assert.Equal(t, KindUnauthorized, c.DeleteAnalysis(context.Background(), "2024-03").Kind)
}

func TestListHistory_SortedNewestFirst(t *testing.T) {
	cache := newMemoryCache()
	c := NewController(&fakeAPI{history: func(context.Context, string) ([]models.AnalysisRecord, error) {
		return []models.AnalysisRecord{
			{ID: "v1", Version: 1},
			{ID: "v3", Version: 3, IsLatest: true},
			{ID: "v2", Version: 2},
		}, nil
	}}, WithCache(cache))

	out := c.ListHistory(context.Background(), "2024-03")
	require.Equal(t, KindSuccess, out.Kind)
	require.Len(t, out.History, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{out.History[0].Version, out.History[1].Version, out.History[2].Version})
	assert.True(t, out.History[0].IsLatest)
	assert.Equal(t, "2024-03", out.History[2].Month)

	cached, _ := cache.CachedHistory("2024-03")
	assert.Len(t, cached, 3)
}

func TestListHistory_EmptyAndErrors(t *testing.T) {
	for _, tt := range []struct {
		name    string
		records []models.AnalysisRecord
		err     error
		want    Kind
	}{
		{"Empty", nil, nil, KindEmpty},
		{"NotFound", nil, api.ErrNotFound, KindEmpty},
		{"Unauthorized", nil, api.ErrUnauthorized, KindUnauthorized},
		{"ServerError", nil, &api.StatusError{StatusCode: 500}, KindError},
		{"NetworkNoCache", nil, netErr(), KindError},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(&fakeAPI{history: func(context.Context, string) ([]models.AnalysisRecord, error) {
				return tt.records, tt.err
			}})
			assert.Equal(t, tt.want, c.ListHistory(context.Background(), "2024-03").Kind)
		})
	}
}

func TestListHistory_OfflineFallback(t *testing.T) {
	cache := newMemoryCache()
	require.NoError(t, cache.SaveAnalyses([]models.AnalysisRecord{
		{ID: "v1", Month: "2024-03", Version: 1},
		{ID: "v2", Month: "2024-03", Version: 2},
	}))

	c := NewController(&fakeAPI{history: func(context.Context, string) ([]models.AnalysisRecord, error) {
		return nil, netErr()
	}}, WithCache(cache))

	out := c.ListHistory(context.Background(), "2024-03")
	require.Equal(t, KindSuccess, out.Kind)
	assert.True(t, out.Cached)
	assert.Equal(t, "v2", out.History[0].ID)
	assert.True(t, out.History[0].Cached)
	assert.True(t, out.History[0].IsLatest)
}

func TestGetByID(t *testing.T) {
	c := NewController(&fakeAPI{byID: func(_ context.Context, id string) (*models.AnalysisRecord, error) {
		return &models.AnalysisRecord{ID: id, Month: "2024-03", Version: 2, Result: result("x")}, nil
	}})

	out := c.GetByID(context.Background(), "abc")
	require.Equal(t, KindSuccess, out.Kind)
	assert.Equal(t, "abc", out.Record.ID)
	assert.Equal(t, "2024-03", out.Month)

	assert.Equal(t, KindError, c.GetByID(context.Background(), "").Kind)
}

func TestGetByID_OfflineFallback(t *testing.T) {
	cache := newMemoryCache()
	require.NoError(t, cache.SaveAnalyses([]models.AnalysisRecord{{ID: "abc", Month: "2024-03", Version: 2}}))

	c := NewController(&fakeAPI{byID: func(context.Context, string) (*models.AnalysisRecord, error) {
		return nil, netErr()
	}}, WithCache(cache))

	out := c.GetByID(context.Background(), "abc")
	require.Equal(t, KindSuccess, out.Kind)
	assert.True(t, out.Cached)
	assert.True(t, out.Record.Cached)
}

func TestCompare(t *testing.T) {
	cache := newMemoryCache()
	created := models.Timestamp{Time: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, cache.SaveAnalyses([]models.AnalysisRecord{
		{ID: "new", Version: 2, CreatedAt: created},
		{ID: "old", Version: 1},
	}))

	c := NewController(&fakeAPI{compare: func(_ context.Context, id1, id2 string) (*models.ComparisonResult, error) {
		assert.Equal(t, "new", id1)
		assert.Equal(t, "old", id2)
		return &models.ComparisonResult{Differences: map[string]models.FieldDiff{
			"summary": {Before: "a", After: "b"},
		}}, nil
	}}, WithCache(cache))

	out := c.Compare(context.Background(), "new", "old")
	require.Equal(t, KindSuccess, out.Kind)
	assert.Equal(t, 2, out.Comparison.Version1)
	assert.Equal(t, 1, out.Comparison.Version2)
	assert.True(t, out.Comparison.CreatedAt1.Equal(created.Time))
	assert.Len(t, out.Comparison.Differences, 1)
}

func TestCompare_Self(t *testing.T) {
	c := NewController(&fakeAPI{})

	out := c.Compare(context.Background(), "same", "same")
	require.Equal(t, KindSuccess, out.Kind)
	assert.Empty(t, out.Comparison.Differences)
}

func TestCompare_ServerReportedError(t *testing.T) {
	c := NewController(&fakeAPI{compare: func(context.Context, string, string) (*models.ComparisonResult, error) {
		return nil, &api.StatusError{StatusCode: 200, Message: "Analysis not found"}
	}})

	out := c.Compare(context.Background(), "a", "b")
	assert.Equal(t, KindError, out.Kind)
	assert.Equal(t, "Analysis not found", out.Message)
}

func TestCompare_OfflineUsesLocalDiff(t *testing.T) {
	cache := newMemoryCache()
	require.NoError(t, cache.SaveAnalyses([]models.AnalysisRecord{
		{ID: "new", Version: 2, Result: &models.AnalysisResult{Sections: map[string]string{"summary": "b", "tip": "t"}}},
		{ID: "old", Version: 1, Result: &models.AnalysisResult{Sections: map[string]string{"summary": "a", "tip": "t"}}},
	}))

	c := NewController(&fakeAPI{compare: func(context.Context, string, string) (*models.ComparisonResult, error) {
		return nil, netErr()
	}}, WithCache(cache))

	out := c.Compare(context.Background(), "new", "old")
	require.Equal(t, KindSuccess, out.Kind)
	assert.True(t, out.Cached)
	assert.Equal(t, map[string]models.FieldDiff{"summary": {Before: "a", After: "b"}}, out.Comparison.Differences)
}

func TestPredict(t *testing.T) {
	total := decimal.NewNullDecimal(decimal.NewFromInt(350000))

	tests := []struct {
		name string
		p    *models.Prediction
		err  error
		want Kind
		msg  string
	}{
		{name: "Forecast", p: &models.Prediction{TotalPredictedAmount: total}, want: KindSuccess},
		{name: "NoHistory", p: &models.Prediction{Message: "not enough spending history"}, want: KindNoHistory, msg: "not enough spending history"},
		{name: "ServerMessage", err: &api.StatusError{StatusCode: 500, Message: "model offline"}, want: KindError, msg: "model offline"},
		{name: "ServerNoMessage", err: &api.StatusError{StatusCode: 500}, want: KindError, msg: msgPredictFailed},
		{name: "Unauthorized", err: api.ErrUnauthorized, want: KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(&fakeAPI{prediction: func(context.Context) (*models.Prediction, error) {
				return tt.p, tt.err
			}})
			out := c.Predict(context.Background())
			assert.Equal(t, tt.want, out.Kind)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, out.Message)
			}
		})
	}
}

func TestClassify_UnauthorizedNeverSwallowed(t *testing.T) {
	out := classify(Outcome{Op: OpHistory}, api.ErrUnauthorized, "ignored")
	assert.Equal(t, KindUnauthorized, out.Kind)
	assert.Equal(t, msgUnauthorized, out.Message)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "success", KindSuccess.String())
	assert.Equal(t, "no peer data", KindNoPeerData.String())
	assert.Equal(t, "unknown", Kind(99).String())
	assert.True(t, Outcome{Kind: KindNoPeerData}.OK())
	assert.False(t, Outcome{Kind: KindEmpty}.OK())
}
