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

// UtilizationAdjustmentRate returns the utilization penalty for pool in bps,
// capped at the maximum rate.
func (e *Engine) UtilizationAdjustmentRate(ctx context.Context, pool common.Address) (rate uint64, err error) {
	defer func(started time.Time) { e.recorder.ObserveCall("utilization_adjustment", started, err) }(time.Now())
	return e.utilizationAdjustmentRate(ctx, e.load().cfg, pool)
}

func (e *Engine) utilizationAdjustmentRate(ctx context.Context, cfg model.RateConfig, pool common.Address) (uint64, error) {
	liquidRatio, err := e.pools.LiquidRatio(ctx, pool)
	if err != nil {
		e.logger.Warn("liquid ratio read failed", zap.String("pool", pool.Hex()), zap.Error(err))
		return 0, fmt.Errorf("%w: liquid ratio of %s: %w", ErrCollaboratorUnavailable, pool.Hex(), err)
	}
	return utilizationAdjustment(cfg, liquidRatio)
}

// utilizationAdjustment evaluates coefficient * (10000/L)^power - coefficient
// with floor division, where L is the liquid ratio in bps, capped at the
// maximum rate. L == 0 means the pool is fully utilized and yields the
// maximum rate.
func utilizationAdjustment(cfg model.RateConfig, liquidRatio *big.Int) (uint64, error) {
	if liquidRatio == nil || liquidRatio.Sign() < 0 || liquidRatio.Cmp(big.NewInt(fixedpoint.BasisPoints)) > 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLiquidRatio, liquidRatio)
	}
	maxRate := uint64(cfg.MaxRateBps)
	if liquidRatio.Sign() == 0 {
		return maxRate, nil
	}

	coefficient := new(big.Int).SetUint64(uint64(cfg.UtilizationAdjustmentCoefficient))
	num := big.NewInt(fixedpoint.BasisPoints)
	den := new(big.Int).Set(liquidRatio)
	gcd := new(big.Int).GCD(nil, nil, num, den)
	num.Quo(num, gcd)
	den.Quo(den, gcd)
	if coefficient.Sign() == 0 || num.Cmp(den) == 0 {
		return 0, nil
	}

	// Any coefficient * ratio at or above this bound floors past the cap.
	bound := new(big.Int).SetUint64(maxRate + uint64(cfg.UtilizationAdjustmentCoefficient) + 1)
	powNum, powDen, ok := boundedRatioPow(num, den, cfg.UtilizationAdjustmentPower, coefficient, bound)
	if !ok {
		return maxRate, nil
	}

	scaled := new(big.Int).Mul(coefficient, powNum)
	scaled.Quo(scaled, powDen)
	return scaled.Sub(scaled, coefficient).Uint64(), nil
}

// boundedRatioPow raises num/den (num > den) to exp by squaring. It gives up
// with ok false as soon as coefficient * partial >= bound, since every later
// factor is at least one.
func boundedRatioPow(num, den *big.Int, exp uint32, coefficient, bound *big.Int) (*big.Int, *big.Int, bool) {
	exceeds := func(n, d *big.Int) bool {
		lhs := new(big.Int).Mul(coefficient, n)
		return lhs.Cmp(new(big.Int).Mul(bound, d)) >= 0
	}

	resNum, resDen := big.NewInt(1), big.NewInt(1)
	baseNum, baseDen := new(big.Int).Set(num), new(big.Int).Set(den)
	for exp > 0 {
		if exp&1 == 1 {
			resNum.Mul(resNum, baseNum)
			resDen.Mul(resDen, baseDen)
			if exceeds(resNum, resDen) {
				return nil, nil, false
			}
		}
		exp >>= 1
		if exp > 0 {
			baseNum.Mul(baseNum, baseNum)
			baseDen.Mul(baseDen, baseDen)
			if exceeds(baseNum, baseDen) {
				return nil, nil, false
			}
		}
	}
	return resNum, resDen, true
}

func capRate(raw *uint256.Int, maxRate uint64) uint64 {
	if !raw.IsUint64() || raw.Uint64() > maxRate {
		return maxRate
	}
	return raw.Uint64()
}
