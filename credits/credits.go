// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package credits

import "math"

// Cost returns the credits spent by casting votes on a single option.
func Cost(votes int) int {
	return votes * votes
}

// MaxVotes returns the largest v with v*v <= credits.
func MaxVotes(credits int) int {
	if credits <= 0 {
		return 0
	}

	// Integer Newton iteration, avoids float rounding near perfect squares
	x := credits
	y := x/2 + x%2
	for y < x {
		x = y
		y = (x + credits/x) / 2
	}
	return x
}

// TotalCost sums the cost of every amount.
func TotalCost(amounts ...int) int {
	total := 0
	for _, a := range amounts {
		total += Cost(a)
	}
	return total
}

// CappedTotalCost is TotalCost clamped to math.MaxInt. Amounts whose cost
// does not fit in an int saturate instead of wrapping.
func CappedTotalCost(amounts ...int) int {
	limit := MaxVotes(math.MaxInt)
	total := 0
	for _, a := range amounts {
		if a > limit || a < -limit {
			return math.MaxInt
		}
		c := Cost(a)
		if total > math.MaxInt-c {
			return math.MaxInt
		}
		total += c
	}
	return total
}

// Remaining returns budget minus the total cost of amounts.
// The result may be negative; callers decide what that means.
func Remaining(budget int, amounts ...int) int {
	return budget - TotalCost(amounts...)
}

// MarginalCost returns the extra credits needed to move an option from
// current votes to current+delta votes.
func MarginalCost(current, delta int) int {
	return Cost(current+delta) - Cost(current)
}
