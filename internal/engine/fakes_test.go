package engine

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"rateAdjuster/internal/model"
)

var (
	owner    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	borrower = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testPool = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testOrcl = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

type fakeOracles struct {
	rate *big.Int
	err  error
}

func (f *fakeOracles) WeeklyRate(context.Context, common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rate, nil
}

type fakePools struct {
	liquidRatio *big.Int
	value       *big.Int
	decimals    uint8
	err         error
}

func (f *fakePools) LiquidRatio(context.Context, common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.liquidRatio, nil
}

func (f *fakePools) PoolValue(context.Context, common.Address) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

func (f *fakePools) Decimals(context.Context, common.Address) (uint8, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.decimals, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []model.ConfigChange
	callers []common.Address
}

func (n *recordingNotifier) Notify(_ context.Context, caller common.Address, change model.ConfigChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	n.callers = append(n.callers, caller)
}

func (n *recordingNotifier) last(t *testing.T) model.ConfigChange {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.changes) == 0 {
		t.Fatalf("no change notified")
	}
	return n.changes[len(n.changes)-1]
}

func newTestEngine(t *testing.T, oracles *fakeOracles, pools *fakePools, notifier Notifier) *Engine {
	t.Helper()
	eng, err := New(Options{
		Authority: owner,
		Oracles:   oracles,
		Pools:     pools,
		Notifier:  notifier,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

// liquidRatioForUtilization returns the liquid ratio in bps for a
// utilization given in whole percent.
func liquidRatioForUtilization(percent int64) *big.Int {
	return big.NewInt(10000 - percent*100)
}

// units returns whole * 10^decimals.
func units(whole int64, decimals int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	return scale.Mul(scale, big.NewInt(whole))
}
