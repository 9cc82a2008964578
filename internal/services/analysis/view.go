package analysis

// ViewState is the state of one analysis-month view.
type ViewState int

const (
	// ViewIdle is the state before the first fetch.
	ViewIdle ViewState = iota
	// ViewLoading is set while a request is in flight.
	ViewLoading
	// ViewEmpty shows the empty-state prompt.
	ViewEmpty
	// ViewUnauthorized shows the login hint.
	ViewUnauthorized
	// ViewLoaded shows the result.
	ViewLoaded
	// ViewError shows the error with a retry action.
	ViewError
)

// String returns the display name for a view state.
func (v ViewState) String() string {
	switch v {
	case ViewIdle:
		return "idle"
	case ViewLoading:
		return "loading"
	case ViewEmpty:
		return "empty"
	case ViewUnauthorized:
		return "unauthorized"
	case ViewLoaded:
		return "loaded"
	case ViewError:
		return "error"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state ends a fetch cycle.
func (v ViewState) IsTerminal() bool {
	return v >= ViewEmpty
}

// View is the state of the analysis view for one month. The displayed
// outcome and the state change together so the empty and result views
// are never shown at once.
type View struct {
	Last  *Outcome
	Month string
	Token uint64
	State ViewState
}

// Begin enters Loading for a new cycle tied to token.
func (v *View) Begin(month string, token uint64) {
	v.Month = month
	v.Token = token
	v.State = ViewLoading
}

// Apply ends the cycle with o. Outcomes for another cycle are ignored and
// Apply reports false.
func (v *View) Apply(o Outcome) bool {
	if v.State != ViewLoading || o.Token != v.Token || o.Month != v.Month {
		return false
	}

	switch o.Kind {
	case KindSuccess:
		v.State = ViewLoaded
		v.Last = &o
	case KindEmpty, KindDeleted:
		v.State = ViewEmpty
		v.Last = nil
	case KindUnauthorized:
		v.State = ViewUnauthorized
		v.Last = nil
	default:
		v.State = ViewError
		v.Last = &o
	}
	return true
}
