package onchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Source reads base rates and pool state through eth_call. Every call hits
// the chain; nothing is cached.
type Source struct {
	caller ethereum.ContractCaller
	logger *zap.Logger
}

// NewSource builds a Source over any contract caller, usually a chain.Client.
func NewSource(caller ethereum.ContractCaller, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{caller: caller, logger: logger}
}

// WeeklyRate returns the oracle's weekly averaged APY in bps.
func (s *Source) WeeklyRate(ctx context.Context, oracle common.Address) (*big.Int, error) {
	oracleABI, err := RateOracleABI()
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}
	values, err := s.call(ctx, oracle, oracleABI, "getWeeklyAPY")
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// LiquidRatio returns the share of the pool held as liquid funds, in bps.
func (s *Source) LiquidRatio(ctx context.Context, pool common.Address) (*big.Int, error) {
	poolABI, err := LendingPoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := s.call(ctx, pool, poolABI, "liquidRatio")
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// PoolValue returns the pool's total value in its own decimals.
func (s *Source) PoolValue(ctx context.Context, pool common.Address) (*big.Int, error) {
	poolABI, err := LendingPoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := s.call(ctx, pool, poolABI, "poolValue")
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// Decimals returns the precision of the pool's token.
func (s *Source) Decimals(ctx context.Context, pool common.Address) (uint8, error) {
	poolABI, err := LendingPoolABI()
	if err != nil {
		return 0, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := s.call(ctx, pool, poolABI, "decimals")
	if err != nil {
		return 0, err
	}
	return asUint8(values[0])
}

func (s *Source) call(ctx context.Context, to common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	if s.caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := s.caller.CallContract(ctx, msg, nil)
	if err != nil {
		s.logger.Debug("contract call failed", zap.String("to", to.Hex()), zap.String("method", method), zap.Error(err))
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return values, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v.String())
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
