package model

// RateQuote is the rate breakdown returned for a pool and borrower score.
type RateQuote struct {
	Pool                  string `json:"pool"`
	Score                 uint8  `json:"score"`
	RateBps               uint64 `json:"rate_bps"`
	UtilizationAdjustment uint64 `json:"utilization_adjustment_bps"`
	TermAdjustmentBps     uint64 `json:"term_adjustment_bps,omitempty"`
	CombinedRateBps       uint64 `json:"combined_rate_bps,omitempty"`
}

// LimitQuote is the borrow limit returned for a pool and borrower score.
// Amounts are decimal strings in the pool's own decimals.
type LimitQuote struct {
	Pool               string `json:"pool"`
	Score              uint8  `json:"score"`
	LimitAdjustmentBps uint64 `json:"limit_adjustment_bps"`
	BorrowLimit        string `json:"borrow_limit"`
	PoolDecimals       uint8  `json:"pool_decimals"`
}
