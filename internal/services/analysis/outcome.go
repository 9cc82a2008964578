// Package analysis coordinates the analysis workflow against the API and
// classifies every call into a single Outcome.
package analysis

import (
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
)

// Kind is the terminal classification of one operation.
type Kind int

const (
	// KindSuccess carries the operation payload.
	KindSuccess Kind = iota
	// KindEmpty means nothing exists yet. It is not an error.
	KindEmpty
	// KindUnauthorized means the session is missing or expired.
	KindUnauthorized
	// KindError is any other failure, including client-side validation.
	KindError
	// KindDeleted confirms a deletion.
	KindDeleted
	// KindNoUserData means the user has no spending for the month.
	KindNoUserData
	// KindNoPeerData means peer averages were unavailable; the user's
	// series is still present with zero peer amounts.
	KindNoPeerData
	// KindNoHistory means there is not enough history for a prediction.
	KindNoHistory
)

// String returns the display name for a kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmpty:
		return "empty"
	case KindUnauthorized:
		return "unauthorized"
	case KindError:
		return "error"
	case KindDeleted:
		return "deleted"
	case KindNoUserData:
		return "no user data"
	case KindNoPeerData:
		return "no peer data"
	case KindNoHistory:
		return "no history"
	default:
		return "unknown"
	}
}

// Op names a controller operation.
type Op string

// Operations.
const (
	OpFetchLatest     Op = "latest"
	OpRequestAnalysis Op = "request"
	OpDelete          Op = "delete"
	OpHistory         Op = "history"
	OpGetByID         Op = "record"
	OpCompare         Op = "compare"
	OpPeers           Op = "peers"
	OpPredict         Op = "predict"
)

// Outcome is the single terminal result of an operation. Only the payload
// field matching Op is set on success.
type Outcome struct {
	Err        error
	Record     *models.AnalysisRecord
	Comparison *models.ComparisonResult
	Peers      *models.PeerComparison
	Prediction *models.Prediction
	Op         Op
	Key        string
	Month      string
	Message    string
	History    []models.AnalysisRecord
	Token      uint64
	Kind       Kind
	// Cached is set when the payload came from the local cache.
	Cached     bool
}

// OK reports whether the outcome carries a usable payload.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess || o.Kind == KindNoPeerData
}
