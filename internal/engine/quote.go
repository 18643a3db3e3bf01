package engine

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"rateAdjuster/internal/fixedpoint"
	"rateAdjuster/internal/model"
)

// QuoteRate returns the full rate breakdown for pool and score from a single
// configuration snapshot. A zero termSeconds leaves the term fields empty.
func (e *Engine) QuoteRate(ctx context.Context, pool common.Address, score uint8, termSeconds uint64) (quote model.RateQuote, err error) {
	defer func(started time.Time) { e.recorder.ObserveCall("quote_rate", started, err) }(time.Now())
	snap := e.load()
	cfg := snap.cfg

	base, err := e.baseRate(ctx, snap, pool)
	if err != nil {
		return model.RateQuote{}, err
	}
	utilization, err := e.utilizationAdjustmentRate(ctx, cfg, pool)
	if err != nil {
		return model.RateQuote{}, err
	}
	rate, err := sumRate(cfg, base, score, utilization)
	if err != nil {
		return model.RateQuote{}, err
	}
	quote = model.RateQuote{
		Pool:                  pool.Hex(),
		Score:                 score,
		RateBps:               rate,
		UtilizationAdjustment: utilization,
	}
	if termSeconds == 0 {
		return quote, nil
	}

	term, err := fixedTermAdjustment(cfg, termSeconds)
	if err != nil {
		return model.RateQuote{}, err
	}
	total, err := fixedpoint.Add(uint256.NewInt(rate), uint256.NewInt(term))
	if err != nil {
		return model.RateQuote{}, err
	}
	quote.TermAdjustmentBps = term
	quote.CombinedRateBps = capRate(total, uint64(cfg.MaxRateBps))
	return quote, nil
}

// QuoteLimit returns the borrow limit for req together with the score
// adjustment and the pool decimals the limit is expressed in.
func (e *Engine) QuoteLimit(ctx context.Context, req BorrowLimitRequest) (quote model.LimitQuote, err error) {
	defer func(started time.Time) { e.recorder.ObserveCall("quote_limit", started, err) }(time.Now())
	cfg := e.load().cfg

	poolDecimals, err := e.poolDecimals(ctx, req.Pool)
	if err != nil {
		return model.LimitQuote{}, err
	}
	limit := new(uint256.Int)
	if req.Score >= cfg.BorrowLimit.ScoreFloor {
		poolValue, err := e.poolValue(ctx, req.Pool)
		if err != nil {
			return model.LimitQuote{}, err
		}
		limit, err = borrowLimit(cfg, req, poolDecimals, poolValue)
		if err != nil {
			return model.LimitQuote{}, err
		}
	}

	return model.LimitQuote{
		Pool:               req.Pool.Hex(),
		Score:              req.Score,
		LimitAdjustmentBps: borrowLimitAdjustment(cfg, req.Score),
		BorrowLimit:        limit.ToBig().String(),
		PoolDecimals:       poolDecimals,
	}, nil
}
