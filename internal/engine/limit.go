package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"rateAdjuster/internal/fixedpoint"
	"rateAdjuster/internal/model"
)

// ReferenceDecimals is the precision of the nominal borrower limit.
const ReferenceDecimals = 18

// BorrowLimitRequest carries the borrower and protocol figures for a limit.
type BorrowLimitRequest struct {
	Pool  common.Address
	Score uint8
	// MaxBorrowerLimit is the nominal credit line in ReferenceDecimals.
	MaxBorrowerLimit *big.Int
	// TotalTVL is protocol TVL expressed with TVLDecimals.
	TotalTVL    *big.Int
	TVLDecimals uint8
	// TotalBorrowed is the amount already drawn, in pool decimals.
	TotalBorrowed *big.Int
}

// BorrowLimitAdjustment returns 10000 * (score/255)^(power/10000) in bps,
// where power is the configured limit adjustment power.
func (e *Engine) BorrowLimitAdjustment(score uint8) uint64 {
	return borrowLimitAdjustment(e.load().cfg, score)
}

func borrowLimitAdjustment(cfg model.RateConfig, score uint8) uint64 {
	return fixedpoint.RatioPowBps(uint64(score), MaxCreditScore, cfg.BorrowLimit.LimitAdjustmentPower)
}

// BorrowLimit returns how much more the borrower may draw from the pool, in
// pool decimals. It is the smallest of the score, TVL and pool value caps
// minus what is already borrowed, floored at zero. Scores below the floor
// get no limit.
func (e *Engine) BorrowLimit(ctx context.Context, req BorrowLimitRequest) (limit *big.Int, err error) {
	defer func(started time.Time) { e.recorder.ObserveCall("borrow_limit", started, err) }(time.Now())
	cfg := e.load().cfg
	if req.Score < cfg.BorrowLimit.ScoreFloor {
		return new(big.Int), nil
	}

	poolDecimals, err := e.poolDecimals(ctx, req.Pool)
	if err != nil {
		return nil, err
	}
	poolValue, err := e.poolValue(ctx, req.Pool)
	if err != nil {
		return nil, err
	}

	out, err := borrowLimit(cfg, req, poolDecimals, poolValue)
	if err != nil {
		return nil, err
	}
	return out.ToBig(), nil
}

func (e *Engine) poolDecimals(ctx context.Context, pool common.Address) (uint8, error) {
	decimals, err := e.pools.Decimals(ctx, pool)
	if err != nil {
		e.logger.Warn("pool decimals read failed", zap.String("pool", pool.Hex()), zap.Error(err))
		return 0, fmt.Errorf("%w: decimals of %s: %w", ErrCollaboratorUnavailable, pool.Hex(), err)
	}
	return decimals, nil
}

func (e *Engine) poolValue(ctx context.Context, pool common.Address) (*big.Int, error) {
	value, err := e.pools.PoolValue(ctx, pool)
	if err != nil {
		e.logger.Warn("pool value read failed", zap.String("pool", pool.Hex()), zap.Error(err))
		return nil, fmt.Errorf("%w: pool value of %s: %w", ErrCollaboratorUnavailable, pool.Hex(), err)
	}
	return value, nil
}

func borrowLimit(cfg model.RateConfig, req BorrowLimitRequest, poolDecimals uint8, poolValue *big.Int) (*uint256.Int, error) {
	adjustment := borrowLimitAdjustment(cfg, req.Score)

	maxLimit, err := amount("borrower limit", req.MaxBorrowerLimit)
	if err != nil {
		return nil, err
	}
	maxLimit, err = fixedpoint.ScaleDecimals(maxLimit, ReferenceDecimals, poolDecimals)
	if err != nil {
		return nil, fmt.Errorf("normalize borrower limit: %w", err)
	}
	tvl, err := amount("total tvl", req.TotalTVL)
	if err != nil {
		return nil, err
	}
	tvl, err = fixedpoint.ScaleDecimals(tvl, req.TVLDecimals, poolDecimals)
	if err != nil {
		return nil, fmt.Errorf("normalize total tvl: %w", err)
	}
	value, err := amount("pool value", poolValue)
	if err != nil {
		return nil, err
	}
	borrowed, err := amount("total borrowed", req.TotalBorrowed)
	if err != nil {
		return nil, err
	}

	scoreCap, err := fixedpoint.MulBps(maxLimit, adjustment)
	if err != nil {
		return nil, fmt.Errorf("score limit: %w", err)
	}
	tvlCap, err := fixedpoint.MulBps(tvl, uint64(cfg.BorrowLimit.TVLLimitCoefficientBps))
	if err != nil {
		return nil, fmt.Errorf("tvl limit: %w", err)
	}
	tvlCap, err = fixedpoint.MulBps(tvlCap, adjustment)
	if err != nil {
		return nil, fmt.Errorf("tvl limit: %w", err)
	}
	poolCap, err := fixedpoint.MulBps(value, uint64(cfg.BorrowLimit.PoolValueLimitCoefficientBps))
	if err != nil {
		return nil, fmt.Errorf("pool value limit: %w", err)
	}

	creditLimit := fixedpoint.Min(scoreCap, tvlCap, poolCap)
	return fixedpoint.SaturatingSub(creditLimit, borrowed), nil
}

func amount(name string, value *big.Int) (*uint256.Int, error) {
	out, err := fixedpoint.FromBig(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
