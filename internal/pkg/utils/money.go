package utils

import "github.com/shopspring/decimal"

const chargeablePlaces = 2

// IsChargeableAmount reports whether amount can be charged exactly: positive
// and with no more than two decimal places.
func IsChargeableAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(chargeablePlaces))
}
