package farm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Synthetix-style StakingRewards pool, as used by YAM/YFFI-era farms.
const stakingPoolABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "earned", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "rewardRate", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "periodFinish", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const uintGetterABIFormat = `[
  {"inputs": [], "name": %q, "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	stakingPoolABI     abi.ABI
	stakingPoolABIOnce sync.Once
	stakingPoolABIErr  error

	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error

	getterMu   sync.Mutex
	getterABIs = make(map[string]abi.ABI)
)

// StakingPoolABI returns the parsed staking pool ABI.
func StakingPoolABI() (abi.ABI, error) {
	stakingPoolABIOnce.Do(func() {
		stakingPoolABI, stakingPoolABIErr = abi.JSON(strings.NewReader(stakingPoolABIJSON))
	})
	return stakingPoolABI, stakingPoolABIErr
}

// ERC20ABI returns the parsed ERC20 decimals/balanceOf ABI.
func ERC20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// UintGetterABI returns an ABI with a single no-arg uint256 view method,
// e.g. yamsScalingFactor.
func UintGetterABI(method string) (abi.ABI, error) {
	if method == "" {
		return abi.ABI{}, fmt.Errorf("getter method is required")
	}

	getterMu.Lock()
	defer getterMu.Unlock()

	if parsed, ok := getterABIs[method]; ok {
		return parsed, nil
	}
	parsed, err := abi.JSON(strings.NewReader(fmt.Sprintf(uintGetterABIFormat, method)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse %s abi: %w", method, err)
	}
	getterABIs[method] = parsed
	return parsed, nil
}
