package engine

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rateAdjuster/internal/model"
)

// Options configures an Engine.
type Options struct {
	Authority common.Address
	// Config seeds the store; nil installs model.DefaultRateConfig.
	Config   *model.RateConfig
	Oracles  RateOracle
	Pools    PoolInfo
	Notifier Notifier
	Recorder Recorder
	Logger   *zap.Logger
}

// Engine computes borrow rates and limits from the configuration and live
// oracle and pool reads. Configuration setters are promoted from the store.
type Engine struct {
	*ConfigStore

	oracles  RateOracle
	pools    PoolInfo
	recorder Recorder
	logger   *zap.Logger
}

// New builds an Engine with its collaborators.
func New(opts Options) (*Engine, error) {
	if opts.Oracles == nil {
		return nil, errors.New("rate oracle source is nil")
	}
	if opts.Pools == nil {
		return nil, errors.New("pool info source is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	cfg := model.DefaultRateConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	return &Engine{
		ConfigStore: NewConfigStore(opts.Authority, cfg, opts.Notifier, recorder, logger),
		oracles:     opts.Oracles,
		pools:       opts.Pools,
		recorder:    recorder,
		logger:      logger,
	}, nil
}
