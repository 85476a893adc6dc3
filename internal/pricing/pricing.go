package pricing

import (
	"math/big"

	"roomShare/internal/models"
)

// finney is the contract's price unit (milli-ether) in wei.
var finney = big.NewInt(1_000_000_000_000_000)

var ether = new(big.Float).SetInt(big.NewInt(1_000_000_000_000_000_000))

// ComputeRentalCost does not validate the range; the contract rejects
// checkOut <= checkIn when the rental is submitted.
func ComputeRentalCost(ratePerDay, checkIn, checkOut int64) int64 {
	return ratePerDay * (checkOut - checkIn)
}

func ToDisplayCurrency(amount, exchangeRate float64) float64 {
	return amount * exchangeRate
}

func NewQuote(ratePerDay, checkIn, checkOut int64, exchangeRate float64) models.Quote {
	cost := ComputeRentalCost(ratePerDay, checkIn, checkOut)

	return models.Quote{
		Nights:  checkOut - checkIn,
		Cost:    cost,
		Display: ToDisplayCurrency(float64(cost), exchangeRate),
	}
}

// PaymentWei converts a cost in finney into the wei attached to rentRoom.
func PaymentWei(cost int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(cost), finney)
}

func WeiToEther(wei *big.Int) string {
	if wei == nil {
		return `0`
	}

	return new(big.Float).Quo(new(big.Float).SetInt(wei), ether).Text('f', -1)
}
