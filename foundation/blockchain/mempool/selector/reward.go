package selector

import (
	"math/big"

	"github.com/ardanlabs/msgpool/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// gasReward returns the reward the block producer collects for including the
// message: min(fee cap - base fee, premium) * gas limit. The reward is
// negative when the fee cap is below the base fee.
func gasReward(msg database.SignedMessage, baseFee *uint256.Int) *big.Int {
	maxPremium := new(big.Int).Sub(toBig(msg.GasFeeCap), toBig(baseFee))

	premium := toBig(msg.GasPremium)
	if maxPremium.Cmp(premium) > 0 {
		maxPremium = premium
	}

	return maxPremium.Mul(maxPremium, new(big.Int).SetUint64(msg.GasLimit))
}

// density returns the reward per unit of gas.
func density(reward *big.Int, gasLimit uint64) float64 {
	if gasLimit == 0 {
		return 0
	}

	r := new(big.Rat).SetFrac(reward, new(big.Int).SetUint64(gasLimit))
	f, _ := r.Float64()
	return f
}

// cmpDensity compares reward1/gas1 with reward2/gas2 exactly by cross
// multiplication, so the result never depends on float rounding.
func cmpDensity(reward1 *big.Int, gas1 uint64, reward2 *big.Int, gas2 uint64) int {
	a := new(big.Int).Mul(reward1, new(big.Int).SetUint64(gas2))
	b := new(big.Int).Mul(reward2, new(big.Int).SetUint64(gas1))
	return a.Cmp(b)
}

// toBig converts the amount, treating a missing amount as zero.
func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}
