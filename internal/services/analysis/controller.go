package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

// API is the subset of the HTTP client the controller needs.
type API interface {
	LatestAnalysis(ctx context.Context) (*models.AnalysisRecord, error)
	MonthAnalysis(ctx context.Context, month string) (*models.AnalysisRecord, error)
	RequestAnalysis(ctx context.Context, month string) (*models.AnalysisResult, error)
	DeleteAnalysis(ctx context.Context, month string) error
	AnalysisHistory(ctx context.Context, month string) ([]models.AnalysisRecord, error)
	AnalysisByID(ctx context.Context, id string) (*models.AnalysisRecord, error)
	CompareAnalyses(ctx context.Context, id1, id2 string) (*models.ComparisonResult, error)
	RawSpending(ctx context.Context, month string) (models.SpendingSnapshot, error)
	PeerAggregate(ctx context.Context, gender, ageGroup string) (*models.PeerAggregate, error)
	UserInfo(ctx context.Context) (*models.UserProfile, error)
	Prediction(ctx context.Context) (*models.Prediction, error)
}

// Cache stores fetched analysis records locally.
type Cache interface {
	SaveAnalyses(records []models.AnalysisRecord) error
	CachedHistory(month string) ([]models.AnalysisRecord, error)
	CachedAnalysis(id string) (*models.AnalysisRecord, error)
	DeleteCachedMonth(month string) error
}

// User-facing messages. Raw server bodies are only shown for deletions
// and predictions.
const (
	msgLoadFailed     = "Failed to load the analysis. Press r to retry."
	msgRequestFailed  = "The analysis could not be generated. Press r to retry."
	msgDeleteFailed   = "Failed to delete the analysis."
	msgHistoryFailed  = "Failed to load the analysis history."
	msgCompareFailed  = "Failed to compare the two versions."
	msgProfileMissing = "Your profile needs a gender and birth date to compare with peers."
	msgProfileFailed  = "Failed to load your profile."
	msgNoUserData     = "No spending recorded for this month, so there is nothing to compare."
	msgNoPeerData     = "No peer averages yet. Showing your spending only."
	msgPredictFailed  = "Failed to build a prediction."
	msgUnauthorized   = "Your session has expired. Sign in again."
	msgOffline        = "Server unreachable. Showing cached history."
)

// Option configures a Controller.
type Option func(*Controller)

// WithCache enables the local record cache.
func WithCache(cache Cache) Option {
	return func(c *Controller) {
		c.cache = cache
	}
}

// WithClock overrides the clock used for age buckets.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller runs analysis operations and classifies their outcomes.
// Operations block until the server answers; callers run them off the UI
// goroutine and drop outcomes for which IsCurrent is false.
type Controller struct {
	api   API
	cache Cache
	seq   *Sequencer
	now   func() time.Time
}

// NewController creates a controller over client.
func NewController(client API, opts ...Option) *Controller {
	c := &Controller{
		api: client,
		seq: NewSequencer(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsCurrent reports whether o is the latest outcome for its resource.
func (c *Controller) IsCurrent(o Outcome) bool {
	return c.seq.IsCurrent(o.Key, o.Token)
}

func (c *Controller) begin(op Op, key, month string) Outcome {
	return Outcome{Op: op, Key: key, Month: month, Token: c.seq.Begin(key)}
}

// BeginView issues the token for the analysis view of month. Fetch and
// request outcomes carry it so the view can match them.
func (c *Controller) BeginView(month string) uint64 {
	return c.seq.Begin(viewKey(month))
}

// FetchLatest loads the most recent analysis. The server answers with the
// user's latest record overall; when month is set and that record belongs
// to another month, the latest version of month is fetched instead.
func (c *Controller) FetchLatest(ctx context.Context, month string) Outcome {
	return c.fetchLatest(ctx, month, c.BeginView(month))
}

// FetchLatestFor runs FetchLatest under a token from BeginView.
func (c *Controller) FetchLatestFor(ctx context.Context, month string, token uint64) Outcome {
	return c.fetchLatest(ctx, month, token)
}

func (c *Controller) fetchLatest(ctx context.Context, month string, token uint64) Outcome {
	out := Outcome{Op: OpFetchLatest, Key: viewKey(month), Month: month, Token: token}

	if month != "" {
		if err := ValidateMonth(month); err != nil {
			return fail(out, err, err.Error())
		}
	}

	rec, err := c.api.LatestAnalysis(ctx)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			out.Kind = KindEmpty
			return out
		}
		return classify(out, err, msgLoadFailed)
	}

	if rec.IsZero() {
		out.Kind = KindEmpty
		return out
	}

	if month != "" && rec.Month != "" && rec.Month != month {
		rec, err = c.api.MonthAnalysis(ctx, month)
		if err != nil {
			if errors.Is(err, api.ErrNotFound) {
				out.Kind = KindEmpty
				return out
			}
			return classify(out, err, msgLoadFailed)
		}
		if rec.IsZero() {
			out.Kind = KindEmpty
			return out
		}
		if rec.Month == "" {
			rec.Month = month
		}
	}

	c.store(*rec)
	out.Kind = KindSuccess
	out.Record = rec
	return out
}

// RequestAnalysis generates a new analysis for month. It can take tens of
// seconds; the UI confirms before calling it. It supersedes any in-flight
// FetchLatest for the same month.
func (c *Controller) RequestAnalysis(ctx context.Context, month string) Outcome {
	return c.RequestAnalysisFor(ctx, month, c.BeginView(month))
}

// RequestAnalysisFor runs RequestAnalysis under a token from BeginView.
func (c *Controller) RequestAnalysisFor(ctx context.Context, month string, token uint64) Outcome {
	out := Outcome{Op: OpRequestAnalysis, Key: viewKey(month), Month: month, Token: token}

	if err := ValidateMonth(month); err != nil {
		return fail(out, err, err.Error())
	}

	logger.Info("requesting analysis", "month", month)
	start := c.now()

	result, err := c.api.RequestAnalysis(ctx, month)
	if err != nil {
		return classify(out, err, msgRequestFailed)
	}

	logger.Info("analysis generated", "month", month, "duration", c.now().Sub(start))

	out.Kind = KindSuccess
	out.Record = &models.AnalysisRecord{
		Month:     month,
		CreatedAt: models.Timestamp{Time: c.now()},
		IsLatest:  true,
		Result:    result,
	}
	return out
}

// DeleteAnalysis removes every version stored for month.
func (c *Controller) DeleteAnalysis(ctx context.Context, month string) Outcome {
	out := c.begin(OpDelete, deleteKey(month), month)

	if err := ValidateMonth(month); err != nil {
		return fail(out, err, err.Error())
	}

	if err := c.api.DeleteAnalysis(ctx, month); err != nil {
		msg := msgDeleteFailed
		var se *api.StatusError
		if errors.As(err, &se) && se.Detail() != "" {
			msg = se.Detail()
		}
		return classify(out, err, msg)
	}

	if c.cache != nil {
		if err := c.cache.DeleteCachedMonth(month); err != nil {
			logger.Warn("failed to drop cached month", "month", month, "error", err)
		}
	}

	// A pending fetch for this month would show a deleted record.
	c.seq.Begin(viewKey(month))

	out.Kind = KindDeleted
	return out
}

// ListHistory returns every version for month, newest first. Index 0 is
// the latest. On network failure cached records are returned instead.
func (c *Controller) ListHistory(ctx context.Context, month string) Outcome {
	out := c.begin(OpHistory, historyKey(month), month)

	if err := ValidateMonth(month); err != nil {
		return fail(out, err, err.Error())
	}

	records, err := c.api.AnalysisHistory(ctx, month)
	if err != nil {
		if api.IsNetwork(err) {
			if cached := c.cachedHistory(month); len(cached) > 0 {
				out.Kind = KindSuccess
				out.History = cached
				out.Cached = true
				out.Err = err
				out.Message = msgOffline
				return out
			}
		}
		if errors.Is(err, api.ErrNotFound) {
			out.Kind = KindEmpty
			return out
		}
		return classify(out, err, msgHistoryFailed)
	}

	if len(records) == 0 {
		out.Kind = KindEmpty
		return out
	}

	models.SortByVersionDesc(records)
	for i := range records {
		if records[i].Month == "" {
			records[i].Month = month
		}
	}
	c.store(records...)

	out.Kind = KindSuccess
	out.History = records
	return out
}

func (c *Controller) cachedHistory(month string) []models.AnalysisRecord {
	if c.cache == nil {
		return nil
	}
	records, err := c.cache.CachedHistory(month)
	if err != nil {
		logger.Warn("failed to read cached history", "month", month, "error", err)
		return nil
	}
	models.SortByVersionDesc(records)
	for i := range records {
		records[i].Cached = true
	}
	return records
}

// GetByID loads one analysis version.
func (c *Controller) GetByID(ctx context.Context, id string) Outcome {
	out := c.begin(OpGetByID, recordKey, "")

	if id == "" {
		err := &ValidationError{Field: "id", Reason: "select an analysis"}
		return fail(out, err, err.Error())
	}

	rec, err := c.api.AnalysisByID(ctx, id)
	if err != nil {
		if api.IsNetwork(err) {
			if cached := c.cachedRecord(id); cached != nil {
				out.Kind = KindSuccess
				out.Record = cached
				out.Month = cached.Month
				out.Cached = true
				out.Message = msgOffline
				return out
			}
		}
		return classify(out, err, msgLoadFailed)
	}

	c.store(*rec)
	out.Kind = KindSuccess
	out.Record = rec
	out.Month = rec.Month
	return out
}

func (c *Controller) cachedRecord(id string) *models.AnalysisRecord {
	if c.cache == nil {
		return nil
	}
	rec, err := c.cache.CachedAnalysis(id)
	if err != nil {
		logger.Debug("analysis not in cache", "id", id, "error", err)
		return nil
	}
	rec.Cached = true
	return rec
}

// Compare diffs newerID against olderID. Version and timestamp metadata
// missing from the server response is filled from the cache.
func (c *Controller) Compare(ctx context.Context, newerID, olderID string) Outcome {
	out := c.begin(OpCompare, compareKey, "")

	if newerID == "" || olderID == "" {
		err := &ValidationError{Field: "id", Reason: "select two analyses to compare"}
		return fail(out, err, err.Error())
	}

	if newerID == olderID {
		out.Kind = KindSuccess
		out.Comparison = &models.ComparisonResult{Differences: map[string]models.FieldDiff{}}
		c.fillComparison(out.Comparison, newerID, olderID)
		return out
	}

	cmp, err := c.api.CompareAnalyses(ctx, newerID, olderID)
	if err != nil {
		if api.IsNetwork(err) {
			if local := c.compareCached(newerID, olderID); local != nil {
				out.Kind = KindSuccess
				out.Comparison = local
				out.Cached = true
				out.Message = msgOffline
				return out
			}
		}
		msg := msgCompareFailed
		var se *api.StatusError
		if errors.As(err, &se) && se.StatusCode == 200 && se.Message != "" {
			msg = se.Message
		}
		return classify(out, err, msg)
	}

	c.fillComparison(cmp, newerID, olderID)
	out.Kind = KindSuccess
	out.Comparison = cmp
	return out
}

func (c *Controller) fillComparison(cmp *models.ComparisonResult, newerID, olderID string) {
	if c.cache == nil || (cmp.Version1 != 0 && cmp.Version2 != 0) {
		return
	}
	if newer := c.cachedRecord(newerID); newer != nil && cmp.Version1 == 0 {
		cmp.Version1 = newer.Version
		cmp.CreatedAt1 = newer.CreatedAt
	}
	if older := c.cachedRecord(olderID); older != nil && cmp.Version2 == 0 {
		cmp.Version2 = older.Version
		cmp.CreatedAt2 = older.CreatedAt
	}
}

func (c *Controller) compareCached(newerID, olderID string) *models.ComparisonResult {
	newer := c.cachedRecord(newerID)
	older := c.cachedRecord(olderID)
	if newer == nil || older == nil {
		return nil
	}
	return &models.ComparisonResult{
		Version1:    newer.Version,
		Version2:    older.Version,
		CreatedAt1:  newer.CreatedAt,
		CreatedAt2:  older.CreatedAt,
		Differences: models.DiffResults(newer.Result, older.Result),
	}
}

// Predict loads the next-month forecast.
func (c *Controller) Predict(ctx context.Context) Outcome {
	out := c.begin(OpPredict, predictKey, "")

	p, err := c.api.Prediction(ctx)
	if err != nil {
		msg := msgPredictFailed
		var se *api.StatusError
		if errors.As(err, &se) && se.Message != "" {
			msg = se.Message
		}
		return classify(out, err, msg)
	}

	if !p.HasForecast() {
		out.Kind = KindNoHistory
		out.Message = p.Message
		out.Prediction = p
		return out
	}

	out.Kind = KindSuccess
	out.Prediction = p
	out.Message = p.Message
	return out
}

func (c *Controller) store(records ...models.AnalysisRecord) {
	if c.cache == nil {
		return
	}
	keep := make([]models.AnalysisRecord, 0, len(records))
	for _, r := range records {
		if r.ID != "" && !r.Cached {
			keep = append(keep, r)
		}
	}
	if len(keep) == 0 {
		return
	}
	if err := c.cache.SaveAnalyses(keep); err != nil {
		logger.Warn("failed to cache analyses", "count", len(keep), "error", err)
	}
}

// classify converts an error into a terminal outcome.
func classify(out Outcome, err error, msg string) Outcome {
	if errors.Is(err, api.ErrUnauthorized) {
		out.Kind = KindUnauthorized
		out.Err = err
		out.Message = msgUnauthorized
		return out
	}
	logger.Warn("analysis operation failed", "op", out.Op, "month", out.Month, "error", err)
	return fail(out, err, msg)
}

func fail(out Outcome, err error, msg string) Outcome {
	out.Kind = KindError
	out.Err = err
	out.Message = msg
	return out
}
