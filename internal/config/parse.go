package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}

// ParseOracleBindings converts pool=oracle pairs into a binding map.
// A later pair for the same pool overrides an earlier one.
func ParseOracleBindings(inputs []string) (map[common.Address]common.Address, error) {
	out := make(map[common.Address]common.Address, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		parts := strings.SplitN(input, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid oracle binding %q: want pool=oracle", input)
		}
		pool, err := ParseAddress(parts[0])
		if err != nil {
			return nil, fmt.Errorf("oracle binding pool: %w", err)
		}
		oracle, err := ParseAddress(parts[1])
		if err != nil {
			return nil, fmt.Errorf("oracle binding oracle: %w", err)
		}
		out[pool] = oracle
	}
	return out, nil
}
