// Package models defines data structures and domain types.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// ResultKey names one narrative section of an analysis result.
type ResultKey string

const (
	// ResultSummary is the monthly summary.
	ResultSummary ResultKey = "summary"
	// ResultHabit describes spending habits.
	ResultHabit ResultKey = "habit"
	// ResultTip suggests savings.
	ResultTip ResultKey = "tip"
	// ResultAnomaly flags unusual spending.
	ResultAnomaly ResultKey = "anomaly"
	// ResultGuide is the action guide for next month.
	ResultGuide ResultKey = "guide"
)

// categorySpendingKey carries the optional per-category amounts.
const categorySpendingKey = "categorySpending"

// ResultKeys lists the known sections in display order.
var ResultKeys = []ResultKey{ResultSummary, ResultHabit, ResultTip, ResultAnomaly, ResultGuide}

// SectionMeta is the display metadata for a result section.
type SectionMeta struct {
	Title string
	Icon  string
	Color string
}

var sectionMeta = map[ResultKey]SectionMeta{
	ResultSummary: {Title: "Monthly Summary", Icon: "✅", Color: "green"},
	ResultHabit:   {Title: "Spending Habits", Icon: "🧾", Color: "yellow"},
	ResultTip:     {Title: "Saving Tips", Icon: "💡", Color: "blue"},
	ResultAnomaly: {Title: "Unusual Spending", Icon: "❗", Color: "red"},
	ResultGuide:   {Title: "Next Month Guide", Icon: "📌", Color: "purple"},
}

// Meta returns the display metadata for k. Unknown keys use the raw key
// as title and report false.
func (k ResultKey) Meta() (SectionMeta, bool) {
	meta, ok := sectionMeta[k]
	if !ok {
		return SectionMeta{Title: string(k), Icon: "•", Color: "gray"}, false
	}
	return meta, true
}

// AnalysisResult is the decoded content of an analysis.
type AnalysisResult struct {
	Sections         map[string]string
	CategorySpending map[string]decimal.Decimal
}

// Section returns the text of a known section.
func (r *AnalysisResult) Section(k ResultKey) string {
	if r == nil {
		return ""
	}
	return r.Sections[string(k)]
}

// IsEmpty reports whether the result carries no content.
func (r *AnalysisResult) IsEmpty() bool {
	return r == nil || (len(r.Sections) == 0 && len(r.CategorySpending) == 0)
}

// UnmarshalJSON implements json.Unmarshaler. String fields become sections,
// other scalars are kept as their JSON text.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("analysis result: %w", err)
	}

	r.Sections = make(map[string]string, len(raw))
	r.CategorySpending = nil

	for key, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) == 0 || bytes.Equal(value, []byte("null")) {
			continue
		}
		if key == categorySpendingKey {
			var amounts map[string]decimal.Decimal
			if err := json.Unmarshal(value, &amounts); err != nil {
				return fmt.Errorf("analysis result %s: %w", key, err)
			}
			r.CategorySpending = amounts
			continue
		}
		if value[0] == '"' {
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return fmt.Errorf("analysis result %s: %w", key, err)
			}
			r.Sections[key] = s
			continue
		}
		r.Sections[key] = string(value)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Sections)+1)
	for k, v := range r.Sections {
		out[k] = v
	}
	if len(r.CategorySpending) > 0 {
		out[categorySpendingKey] = r.CategorySpending
	}
	return json.Marshal(out)
}

// DecodeResult decodes a result that is either an object or a JSON string
// holding an object.
func DecodeResult(raw json.RawMessage) (*AnalysisResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &AnalysisResult{}, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode result string: %w", err)
		}
		if inner == "" {
			return &AnalysisResult{}, nil
		}
		raw = json.RawMessage(inner)
	}

	var result AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalysisRecord is one stored analysis version.
type AnalysisRecord struct {
	CreatedAt Timestamp       `json:"createdAt"`
	Result    *AnalysisResult `json:"result"`
	ID        string          `json:"id"`
	Month     string          `json:"month"`
	Version   int             `json:"version"`
	IsLatest  bool            `json:"isLatest"`
	// Cached marks a record served from the local cache.
	Cached bool `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler. The id may be a string or a
// number and result may be double encoded.
func (a *AnalysisRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		CreatedAt Timestamp       `json:"createdAt"`
		ID        json.RawMessage `json:"id"`
		Result    json.RawMessage `json:"result"`
		Month     string          `json:"month"`
		Version   int             `json:"version"`
		IsLatest  bool            `json:"isLatest"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("analysis record: %w", err)
	}

	id, err := decodeID(wire.ID)
	if err != nil {
		return err
	}
	result, err := DecodeResult(wire.Result)
	if err != nil {
		return fmt.Errorf("analysis record %s: %w", id, err)
	}

	*a = AnalysisRecord{
		ID:        id,
		Month:     wire.Month,
		Version:   wire.Version,
		CreatedAt: wire.CreatedAt,
		IsLatest:  wire.IsLatest,
		Result:    result,
	}
	return nil
}

// IsZero reports whether the record carries neither an id nor content.
func (a *AnalysisRecord) IsZero() bool {
	return a == nil || (a.ID == "" && a.Result.IsEmpty())
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("analysis id: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("analysis id: %w", err)
	}
	return n.String(), nil
}

// SortByVersionDesc orders records newest version first. When no record is
// flagged latest, the first one is.
func SortByVersionDesc(records []AnalysisRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Version > records[j].Version
	})
	if len(records) == 0 {
		return
	}
	for _, r := range records {
		if r.IsLatest {
			return
		}
	}
	records[0].IsLatest = true
}

// FieldDiff is a before/after pair for one changed section.
type FieldDiff struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// ComparisonResult is the difference between two analysis versions.
// Version1 is the newer record.
type ComparisonResult struct {
	CreatedAt1  Timestamp            `json:"createdAt1"`
	CreatedAt2  Timestamp            `json:"createdAt2"`
	Differences map[string]FieldDiff `json:"differences"`
	Error       string               `json:"error,omitempty"`
	Version1    int                  `json:"version1"`
	Version2    int                  `json:"version2"`
}

// Keys returns the changed section keys, known sections first.
func (c *ComparisonResult) Keys() []string {
	return SortSectionKeys(c.Differences)
}

// SortSectionKeys orders keys by section display order, then alphabetically.
func SortSectionKeys[V any](m map[string]V) []string {
	rank := make(map[string]int, len(ResultKeys))
	for i, k := range ResultKeys {
		rank[string(k)] = i
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// DiffResults compares the sections of newer against older. Only keys
// present in newer are considered and equal values are omitted.
func DiffResults(newer, older *AnalysisResult) map[string]FieldDiff {
	diff := make(map[string]FieldDiff)
	if newer == nil {
		return diff
	}
	for key, after := range newer.Sections {
		before := older.Section(ResultKey(key))
		if before != after {
			diff[key] = FieldDiff{Before: before, After: after}
		}
	}
	return diff
}

// Label returns a short "v3" style label.
func (a *AnalysisRecord) Label() string {
	return "v" + strconv.Itoa(a.Version)
}
