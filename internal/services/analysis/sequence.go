package analysis

import "sync"

// Sequencer issues monotonic tokens per resource key so that completions
// of superseded requests can be discarded.
type Sequencer struct {
	latest map[string]uint64
	mu     sync.Mutex
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Begin issues a new token for key, superseding earlier ones.
func (s *Sequencer) Begin(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key]++
	return s.latest[key]
}

// IsCurrent reports whether token is the latest issued for key.
func (s *Sequencer) IsCurrent(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token != 0 && s.latest[key] == token
}

// Keys for the stale-response guard. The analysis view key is shared by
// fetch and request so a new analysis supersedes an in-flight fetch.
func viewKey(month string) string {
	return "analysis:" + month
}

func historyKey(month string) string {
	return "history:" + month
}

func peersKey(month string) string {
	return "peers:" + month
}

func deleteKey(month string) string {
	return "delete:" + month
}

const (
	recordKey  = "record"
	compareKey = "compare"
	predictKey = "predict"
)
