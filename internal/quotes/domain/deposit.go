package domain

import "math"

const (
	// depositRate is the fraction of the final price collected up front.
	depositRate = 0.30
	// depositFloor is the minimum deposit regardless of price.
	depositFloor = 100
)

// ResolveFinalPrice resolves the effective final price:
// explicit override -> stored final price -> estimate target.
func ResolveFinalPrice(override *int64, q *Quote) int64 {
	if override != nil {
		return *override
	}
	if q.FinalPrice != nil {
		return *q.FinalPrice
	}
	return q.EstimateTarget
}

// ResolveDepositAmount resolves the deposit to charge:
// explicit request value -> stored deposit amount -> computed default.
func ResolveDepositAmount(requested *int64, q *Quote, finalPrice int64) int64 {
	if requested != nil {
		return *requested
	}
	if q.DepositAmount != nil {
		return *q.DepositAmount
	}
	return DefaultDeposit(finalPrice)
}

// DefaultDeposit computes max(100, round(finalPrice * 0.30)).
func DefaultDeposit(finalPrice int64) int64 {
	deposit := int64(math.Round(float64(finalPrice) * depositRate))
	if deposit < depositFloor {
		return depositFloor
	}
	return deposit
}
