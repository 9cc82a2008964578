package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SpendingSnapshot maps category to the user's spending for one month.
// It is fetched fresh for every comparison and never cached.
type SpendingSnapshot map[string]decimal.Decimal

// PeerAggregate is the average spending of a demographic group.
type PeerAggregate struct {
	CategoryAverageSpending map[string]decimal.Decimal `json:"categoryAverageSpending"`
	ID                      string                     `json:"id,omitempty"`
	Gender                  string                     `json:"gender"`
	AgeGroup                string                     `json:"ageGroup"`
	UserCount               int64                      `json:"userCount,omitempty"`
}

// CategoryComparison is one row of a user versus peer comparison.
type CategoryComparison struct {
	Category string
	User     decimal.Decimal
	Peer     decimal.Decimal
}

// PeerComparison is the combined user and peer series for a month.
type PeerComparison struct {
	Month    string
	Gender   string
	AgeGroup string
	Rows     []CategoryComparison
	// UserCount is the size of the peer group, zero when unknown.
	UserCount int64
	// PeerMissing is set when peer averages could not be loaded.
	PeerMissing bool
}

// CombineSpending merges user spending and peer averages over the union of
// categories. Missing amounts count as zero and categories where both are
// zero are dropped. User categories come first, each group sorted by name.
func CombineSpending(user SpendingSnapshot, peer *PeerAggregate) []CategoryComparison {
	var peerAmounts map[string]decimal.Decimal
	if peer != nil {
		peerAmounts = peer.CategoryAverageSpending
	}

	userKeys := make([]string, 0, len(user))
	for k := range user {
		userKeys = append(userKeys, k)
	}
	sort.Strings(userKeys)

	peerOnly := make([]string, 0, len(peerAmounts))
	for k := range peerAmounts {
		if _, ok := user[k]; !ok {
			peerOnly = append(peerOnly, k)
		}
	}
	sort.Strings(peerOnly)

	rows := make([]CategoryComparison, 0, len(userKeys)+len(peerOnly))
	for _, category := range append(userKeys, peerOnly...) {
		u := user[category]
		p := peerAmounts[category]
		if !u.IsZero() || !p.IsZero() {
			rows = append(rows, CategoryComparison{Category: category, User: u, Peer: p})
		}
	}
	return rows
}
