package models

import "time"

// APICall represents a logged API call to the database.
type APICall struct {
	Timestamp  time.Time
	Method     string
	Path       string
	Outcome    string
	Error      string
	RequestID  string
	ID         int64
	StatusCode int
	DurationMs int
}

// CallStats aggregates the API call log.
type CallStats struct {
	LastCall      time.Time
	TotalCalls    int
	FailedCalls   int
	Unauthorized  int
	AvgDurationMs float64
	MaxDurationMs int
}

// SuccessRate returns the share of calls that did not fail, in percent.
func (s CallStats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.TotalCalls-s.FailedCalls) / float64(s.TotalCalls) * 100
}
