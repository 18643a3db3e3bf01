package onchain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const rateOracleABIJSON = `[
  {"inputs": [], "name": "getWeeklyAPY", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const lendingPoolABIJSON = `[
  {"inputs": [], "name": "liquidRatio", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "poolValue", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var (
	rateOracleABI     abi.ABI
	rateOracleABIOnce sync.Once
	rateOracleABIErr  error

	lendingPoolABI     abi.ABI
	lendingPoolABIOnce sync.Once
	lendingPoolABIErr  error
)

// RateOracleABI returns the parsed base rate oracle ABI.
func RateOracleABI() (abi.ABI, error) {
	rateOracleABIOnce.Do(func() {
		rateOracleABI, rateOracleABIErr = abi.JSON(strings.NewReader(rateOracleABIJSON))
	})
	return rateOracleABI, rateOracleABIErr
}

// LendingPoolABI returns the parsed lending pool ABI.
func LendingPoolABI() (abi.ABI, error) {
	lendingPoolABIOnce.Do(func() {
		lendingPoolABI, lendingPoolABIErr = abi.JSON(strings.NewReader(lendingPoolABIJSON))
	})
	return lendingPoolABI, lendingPoolABIErr
}
