package model

// BorrowLimitConfig shapes the borrow limit curve and its protocol caps.
type BorrowLimitConfig struct {
	// ScoreFloor is the lowest borrower score that receives any limit.
	ScoreFloor uint8 `json:"score_floor"`
	// LimitAdjustmentPower is the score exponent in basis points (7500 = 0.75).
	LimitAdjustmentPower uint32 `json:"limit_adjustment_power"`
	// TVLLimitCoefficientBps caps a single borrower at a share of protocol TVL.
	TVLLimitCoefficientBps uint32 `json:"tvl_limit_coefficient_bps"`
	// PoolValueLimitCoefficientBps caps a single borrower at a share of the pool.
	PoolValueLimitCoefficientBps uint32 `json:"pool_value_limit_coefficient_bps"`
}

// RateConfig holds every tunable coefficient of the rate and limit engine.
// Fields are fixed-width; any value representable by the type is accepted.
type RateConfig struct {
	RiskPremiumBps                     uint32            `json:"risk_premium_bps"`
	CreditAdjustmentCoefficient        uint32            `json:"credit_adjustment_coefficient"`
	UtilizationAdjustmentCoefficient   uint32            `json:"utilization_adjustment_coefficient"`
	UtilizationAdjustmentPower         uint32            `json:"utilization_adjustment_power"`
	FixedTermLoanAdjustmentCoefficient uint32            `json:"fixed_term_loan_adjustment_coefficient"`
	BorrowLimit                        BorrowLimitConfig `json:"borrow_limit"`
	MaxRateBps                         uint32            `json:"max_rate_bps"`
}

const (
	DefaultRiskPremiumBps                     = 200
	DefaultCreditAdjustmentCoefficient        = 1000
	DefaultUtilizationAdjustmentCoefficient   = 50
	DefaultUtilizationAdjustmentPower         = 2
	DefaultFixedTermLoanAdjustmentCoefficient = 25
	DefaultScoreFloor                         = 40
	DefaultLimitAdjustmentPower               = 7500
	DefaultTVLLimitCoefficientBps             = 1500
	DefaultPoolValueLimitCoefficientBps       = 1500
	DefaultMaxRateBps                         = 50000
)

// DefaultRateConfig returns the configuration installed at engine start.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		RiskPremiumBps:                     DefaultRiskPremiumBps,
		CreditAdjustmentCoefficient:        DefaultCreditAdjustmentCoefficient,
		UtilizationAdjustmentCoefficient:   DefaultUtilizationAdjustmentCoefficient,
		UtilizationAdjustmentPower:         DefaultUtilizationAdjustmentPower,
		FixedTermLoanAdjustmentCoefficient: DefaultFixedTermLoanAdjustmentCoefficient,
		BorrowLimit: BorrowLimitConfig{
			ScoreFloor:                   DefaultScoreFloor,
			LimitAdjustmentPower:         DefaultLimitAdjustmentPower,
			TVLLimitCoefficientBps:       DefaultTVLLimitCoefficientBps,
			PoolValueLimitCoefficientBps: DefaultPoolValueLimitCoefficientBps,
		},
		MaxRateBps: DefaultMaxRateBps,
	}
}
