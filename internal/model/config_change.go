package model

import "encoding/json"

// Config change event names, one per setter.
const (
	EventRiskPremiumChanged                        = "RiskPremiumChanged"
	EventCreditAdjustmentCoefficientChanged        = "CreditAdjustmentCoefficientChanged"
	EventUtilizationAdjustmentCoefficientChanged   = "UtilizationAdjustmentCoefficientChanged"
	EventUtilizationAdjustmentPowerChanged         = "UtilizationAdjustmentPowerChanged"
	EventFixedTermLoanAdjustmentCoefficientChanged = "FixedTermLoanAdjustmentCoefficientChanged"
	EventBorrowLimitConfigChanged                  = "BorrowLimitConfigChanged"
	EventBaseRateOracleChanged                     = "BaseRateOracleChanged"
)

// ConfigChange is the notification emitted after a successful setter call.
// Args hold the new values in setter argument order: decimal strings for
// numbers, checksummed hex for addresses.
type ConfigChange struct {
	Event string   `json:"event"`
	Args  []string `json:"args"`
}

// ConfigChangeRecord is a ConfigChange as journaled by a sink.
type ConfigChangeRecord struct {
	Event      string   `json:"event"`
	Args       []string `json:"args"`
	Caller     string   `json:"caller"`
	IngestedAt string   `json:"ingested_at"`
}

// MarshalJSON ensures ConfigChangeRecord is encoded with stable field names
// and never writes a null args list.
func (r ConfigChangeRecord) MarshalJSON() ([]byte, error) {
	type Alias ConfigChangeRecord
	if r.Args == nil {
		r.Args = []string{}
	}
	return json.Marshal(Alias(r))
}
