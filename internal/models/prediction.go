package models

import "github.com/shopspring/decimal"

// Prediction is the next-month spending forecast.
type Prediction struct {
	TotalPredictedAmount     decimal.NullDecimal        `json:"totalPredictedAmount"`
	CategoryPredictedAmounts map[string]decimal.Decimal `json:"categoryPredictedAmounts"`
	Message                  string                     `json:"message,omitempty"`
}

// HasForecast reports whether a total was produced.
func (p *Prediction) HasForecast() bool {
	return p != nil && p.TotalPredictedAmount.Valid
}
