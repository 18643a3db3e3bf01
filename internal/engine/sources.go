package engine

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"rateAdjuster/internal/model"
)

// RateOracle supplies the weekly base rate published by an oracle.
type RateOracle interface {
	WeeklyRate(ctx context.Context, oracle common.Address) (*big.Int, error)
}

// PoolInfo supplies live pool state. Values are read on every call.
type PoolInfo interface {
	LiquidRatio(ctx context.Context, pool common.Address) (*big.Int, error)
	PoolValue(ctx context.Context, pool common.Address) (*big.Int, error)
	Decimals(ctx context.Context, pool common.Address) (uint8, error)
}

// Notifier receives configuration changes after they are installed.
type Notifier interface {
	Notify(ctx context.Context, caller common.Address, change model.ConfigChange)
}

// Recorder observes engine calls for metrics.
type Recorder interface {
	ObserveCall(op string, started time.Time, err error)
	ObserveConfigChange(event string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, common.Address, model.ConfigChange) {}

type nopRecorder struct{}

func (nopRecorder) ObserveCall(string, time.Time, error) {}

func (nopRecorder) ObserveConfigChange(string) {}
