package lottery

import "math/bits"

// addUint64Checked adds a and b, failing with ErrTicketsSoldOverflow
// instead of wrapping. Grounded on the teacher's own
// apps/cosmos/.../keeper/arithmetic.go helper of the same name.
func addUint64Checked(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, newError(ErrTicketsSoldOverflow, "addUint64Checked(%d, %d) overflows uint64", a, b)
	}
	return sum, nil
}

// subUint64Checked subtracts b from a, failing instead of wrapping when
// b > a.
func subUint64Checked(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, newError(ErrInsufficientOperationalFunds, "subUint64Checked(%d, %d) underflows uint64", a, b)
	}
	return diff, nil
}

// mulUint64Checked multiplies a and b, failing instead of wrapping on
// overflow.
func mulUint64Checked(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, newError(ErrTicketsSoldOverflow, "mulUint64Checked(%d, %d) overflows uint64", a, b)
	}
	return lo, nil
}

// splitByBps computes (fee, remainder) for an amount split at bps basis
// points (0-10000), the same bps-scaled-share shape as the teacher's
// slashAmount helper. The whole/remainder decomposition (amount = whole*
// 10000 + rem, rem < 10000) keeps every intermediate product within
// uint64 range regardless of amount's magnitude, unlike a direct
// bits.Mul64/bits.Div64 by the fixed divisor 10000, which would panic via
// divide-overflow once amount's high word reached 10000. Division
// truncates per spec.md §9.
func splitByBps(amount uint64, bps uint16) (fee uint64, remainder uint64, err error) {
	whole := amount / 10000
	rem := amount % 10000

	feeFromWhole, err := mulUint64Checked(whole, uint64(bps))
	if err != nil {
		return 0, 0, err
	}
	feeFromRem := rem * uint64(bps) / 10000

	fee, err = addUint64Checked(feeFromWhole, feeFromRem)
	if err != nil {
		return 0, 0, err
	}
	remainder, err = subUint64Checked(amount, fee)
	return fee, remainder, err
}
