package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"rateAdjuster/internal/fixedpoint"
	"rateAdjuster/internal/model"
)

const (
	// MaxCreditScore is the best possible borrower score.
	MaxCreditScore = 255
	// TermBucket is the length of one fixed-term adjustment step in seconds.
	TermBucket = 30 * 24 * 60 * 60
)

// Rate returns the borrow rate for pool and score in bps: base rate, risk
// premium, credit adjustment and utilization adjustment, capped at the
// maximum rate. The fixed-term adjustment is not included.
func (e *Engine) Rate(ctx context.Context, pool common.Address, score uint8) (rate uint64, err error) {
	defer func(started time.Time) { e.recorder.ObserveCall("rate", started, err) }(time.Now())
	snap := e.load()
	return e.rate(ctx, snap, pool, score)
}

func (e *Engine) rate(ctx context.Context, snap *snapshot, pool common.Address, score uint8) (uint64, error) {
	cfg := snap.cfg
	base, err := e.baseRate(ctx, snap, pool)
	if err != nil {
		return 0, err
	}
	utilization, err := e.utilizationAdjustmentRate(ctx, cfg, pool)
	if err != nil {
		return 0, err
	}
	return sumRate(cfg, base, score, utilization)
}

func sumRate(cfg model.RateConfig, base *uint256.Int, score uint8, utilization uint64) (uint64, error) {
	total, err := fixedpoint.Add(base, uint256.NewInt(uint64(cfg.RiskPremiumBps)))
	if err != nil {
		return 0, err
	}
	total, err = fixedpoint.Add(total, uint256.NewInt(creditScoreAdjustment(cfg, score)))
	if err != nil {
		return 0, err
	}
	total, err = fixedpoint.Add(total, uint256.NewInt(utilization))
	if err != nil {
		return 0, err
	}
	return capRate(total, uint64(cfg.MaxRateBps)), nil
}

func (e *Engine) baseRate(ctx context.Context, snap *snapshot, pool common.Address) (*uint256.Int, error) {
	oracle, ok := snap.oracles[pool]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoOracleBound, pool.Hex())
	}
	weekly, err := e.oracles.WeeklyRate(ctx, oracle)
	if err != nil {
		e.logger.Warn("weekly rate read failed", zap.String("pool", pool.Hex()), zap.String("oracle", oracle.Hex()), zap.Error(err))
		return nil, fmt.Errorf("%w: weekly rate of %s: %w", ErrCollaboratorUnavailable, oracle.Hex(), err)
	}
	base, err := fixedpoint.FromBig(weekly)
	if err != nil {
		return nil, fmt.Errorf("weekly rate of %s: %w", oracle.Hex(), err)
	}
	return base, nil
}

// CreditScoreAdjustmentRate returns coefficient * (255 - score) / score in
// bps. A zero score yields the maximum rate.
func (e *Engine) CreditScoreAdjustmentRate(score uint8) uint64 {
	return creditScoreAdjustment(e.load().cfg, score)
}

func creditScoreAdjustment(cfg model.RateConfig, score uint8) uint64 {
	if score == 0 {
		return uint64(cfg.MaxRateBps)
	}
	return uint64(cfg.CreditAdjustmentCoefficient) * uint64(MaxCreditScore-score) / uint64(score)
}

// FixedTermLoanAdjustment returns the coefficient times the number of whole
// 30-day periods in termSeconds.
func (e *Engine) FixedTermLoanAdjustment(termSeconds uint64) (adjustment uint64, err error) {
	defer func(started time.Time) { e.recorder.ObserveCall("fixed_term_adjustment", started, err) }(time.Now())
	return fixedTermAdjustment(e.load().cfg, termSeconds)
}

func fixedTermAdjustment(cfg model.RateConfig, termSeconds uint64) (uint64, error) {
	buckets := uint256.NewInt(termSeconds / TermBucket)
	adjustment, err := fixedpoint.Mul(buckets, uint256.NewInt(uint64(cfg.FixedTermLoanAdjustmentCoefficient)))
	if err != nil {
		return 0, err
	}
	if !adjustment.IsUint64() {
		return 0, ErrOverflow
	}
	return adjustment.Uint64(), nil
}

// CombinedRate returns Rate plus the fixed-term adjustment for termSeconds,
// capped at the maximum rate.
func (e *Engine) CombinedRate(ctx context.Context, pool common.Address, score uint8, termSeconds uint64) (rate uint64, err error) {
	defer func(started time.Time) { e.recorder.ObserveCall("combined_rate", started, err) }(time.Now())
	snap := e.load()
	current, err := e.rate(ctx, snap, pool, score)
	if err != nil {
		return 0, err
	}
	term, err := fixedTermAdjustment(snap.cfg, termSeconds)
	if err != nil {
		return 0, err
	}
	total, err := fixedpoint.Add(uint256.NewInt(current), uint256.NewInt(term))
	if err != nil {
		return 0, err
	}
	return capRate(total, uint64(snap.cfg.MaxRateBps)), nil
}
