package engine

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rateAdjuster/internal/model"
)

// snapshot is an immutable view of the configuration. Writers install a
// modified copy; readers never mutate one.
type snapshot struct {
	cfg     model.RateConfig
	oracles map[common.Address]common.Address
}

func (s *snapshot) clone() *snapshot {
	oracles := make(map[common.Address]common.Address, len(s.oracles))
	for pool, oracle := range s.oracles {
		oracles[pool] = oracle
	}
	return &snapshot{cfg: s.cfg, oracles: oracles}
}

// ConfigStore holds the engine configuration behind a single authority.
// Reads load one snapshot without locking; writes are serialized and swap
// the snapshot atomically.
type ConfigStore struct {
	authority common.Address
	notifier  Notifier
	recorder  Recorder
	logger    *zap.Logger

	mu      sync.Mutex
	current atomic.Pointer[snapshot]
	// notifyMu is taken before mu is released so observers see changes in
	// install order.
	notifyMu sync.Mutex
}

// NewConfigStore builds a store seeded with cfg.
func NewConfigStore(authority common.Address, cfg model.RateConfig, notifier Notifier, recorder Recorder, logger *zap.Logger) *ConfigStore {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ConfigStore{
		authority: authority,
		notifier:  notifier,
		recorder:  recorder,
		logger:    logger,
	}
	s.current.Store(&snapshot{cfg: cfg, oracles: make(map[common.Address]common.Address)})
	return s
}

// Authority returns the only identity allowed to change configuration.
func (s *ConfigStore) Authority() common.Address {
	return s.authority
}

// Config returns a copy of the current configuration.
func (s *ConfigStore) Config() model.RateConfig {
	return s.current.Load().cfg
}

// BaseRateOracle returns the oracle bound to pool.
func (s *ConfigStore) BaseRateOracle(pool common.Address) (common.Address, bool) {
	oracle, ok := s.current.Load().oracles[pool]
	return oracle, ok
}

// Oracles returns a copy of every pool to oracle binding.
func (s *ConfigStore) Oracles() map[common.Address]common.Address {
	return s.current.Load().clone().oracles
}

func (s *ConfigStore) load() *snapshot {
	return s.current.Load()
}

func (s *ConfigStore) authorize(caller common.Address) error {
	if caller != s.authority {
		return ErrUnauthorized
	}
	return nil
}

// update applies mutate to a copy of the current snapshot, installs it and
// notifies observers. Nothing is changed when the caller is not authorized.
func (s *ConfigStore) update(ctx context.Context, caller common.Address, change model.ConfigChange, mutate func(*snapshot)) error {
	if err := s.authorize(caller); err != nil {
		s.logger.Warn("config change rejected", zap.String("event", change.Event), zap.String("caller", caller.Hex()))
		return err
	}

	s.mu.Lock()
	next := s.current.Load().clone()
	mutate(next)
	s.current.Store(next)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.logger.Info("config changed", zap.String("event", change.Event), zap.Strings("args", change.Args))
	s.recorder.ObserveConfigChange(change.Event)
	s.notifier.Notify(ctx, caller, change)
	return nil
}

// SetRiskPremium sets the flat premium added to every rate.
func (s *ConfigStore) SetRiskPremium(ctx context.Context, caller common.Address, bps uint32) error {
	change := model.ConfigChange{Event: model.EventRiskPremiumChanged, Args: []string{formatUint(bps)}}
	return s.update(ctx, caller, change, func(next *snapshot) {
		next.cfg.RiskPremiumBps = bps
	})
}

// SetCreditAdjustmentCoefficient sets the weight of the borrower score penalty.
func (s *ConfigStore) SetCreditAdjustmentCoefficient(ctx context.Context, caller common.Address, coefficient uint32) error {
	change := model.ConfigChange{Event: model.EventCreditAdjustmentCoefficientChanged, Args: []string{formatUint(coefficient)}}
	return s.update(ctx, caller, change, func(next *snapshot) {
		next.cfg.CreditAdjustmentCoefficient = coefficient
	})
}

// SetUtilizationAdjustmentCoefficient sets the scale of the utilization curve.
func (s *ConfigStore) SetUtilizationAdjustmentCoefficient(ctx context.Context, caller common.Address, coefficient uint32) error {
	change := model.ConfigChange{Event: model.EventUtilizationAdjustmentCoefficientChanged, Args: []string{formatUint(coefficient)}}
	return s.update(ctx, caller, change, func(next *snapshot) {
		next.cfg.UtilizationAdjustmentCoefficient = coefficient
	})
}

// SetUtilizationAdjustmentPower sets the exponent of the utilization curve.
func (s *ConfigStore) SetUtilizationAdjustmentPower(ctx context.Context, caller common.Address, power uint32) error {
	change := model.ConfigChange{Event: model.EventUtilizationAdjustmentPowerChanged, Args: []string{formatUint(power)}}
	return s.update(ctx, caller, change, func(next *snapshot) {
		next.cfg.UtilizationAdjustmentPower = power
	})
}

// SetFixedTermLoanAdjustmentCoefficient sets the bps added per 30-day term bucket.
func (s *ConfigStore) SetFixedTermLoanAdjustmentCoefficient(ctx context.Context, caller common.Address, bps uint32) error {
	change := model.ConfigChange{Event: model.EventFixedTermLoanAdjustmentCoefficientChanged, Args: []string{formatUint(bps)}}
	return s.update(ctx, caller, change, func(next *snapshot) {
		next.cfg.FixedTermLoanAdjustmentCoefficient = bps
	})
}

// SetBorrowLimitConfig replaces all four borrow limit parameters at once.
func (s *ConfigStore) SetBorrowLimitConfig(ctx context.Context, caller common.Address, scoreFloor uint8, limitAdjustmentPower, tvlLimitCoefficientBps, poolValueLimitCoefficientBps uint32) error {
	change := model.ConfigChange{Event: model.EventBorrowLimitConfigChanged, Args: []string{
		formatUint(uint32(scoreFloor)),
		formatUint(limitAdjustmentPower),
		formatUint(tvlLimitCoefficientBps),
		formatUint(poolValueLimitCoefficientBps),
	}}
	return s.update(ctx, caller, change, func(next *snapshot) {
		next.cfg.BorrowLimit = model.BorrowLimitConfig{
			ScoreFloor:                   scoreFloor,
			LimitAdjustmentPower:         limitAdjustmentPower,
			TVLLimitCoefficientBps:       tvlLimitCoefficientBps,
			PoolValueLimitCoefficientBps: poolValueLimitCoefficientBps,
		}
	})
}

// SetBaseRateOracle binds pool to the oracle its base rate is read from.
func (s *ConfigStore) SetBaseRateOracle(ctx context.Context, caller common.Address, pool, oracle common.Address) error {
	change := model.ConfigChange{Event: model.EventBaseRateOracleChanged, Args: []string{pool.Hex(), oracle.Hex()}}
	return s.update(ctx, caller, change, func(next *snapshot) {
		next.oracles[pool] = oracle
	})
}

func formatUint(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
