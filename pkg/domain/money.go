package domain

import (
	"fmt"

	dErrors "subvene/pkg/domain-errors"
)

// Amount is a fixed-point currency value in minor units (e.g. cents, or the
// smallest on-ledger denomination). Escrow math never touches floats.
type Amount int64

// ParseAmount validates that a raw value is usable as an escrow amount.
func ParseAmount(v int64) (Amount, error) {
	if v <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return Amount(v), nil
}

func (a Amount) Int64() int64 { return int64(a) }

func (a Amount) String() string { return fmt.Sprintf("%d", int64(a)) }

// SumAmounts adds milestone amounts without silently wrapping.
func SumAmounts(amounts []Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		next := total + a
		if next < total {
			return 0, dErrors.New(dErrors.CodeValidation, "amount sum overflows int64")
		}
		total = next
	}
	return total, nil
}
