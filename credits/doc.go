// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package credits implements the quadratic cost model.

Casting n votes on one option costs n² credits:

	credits.Cost(3)              // 9
	credits.MaxVotes(100)        // 10
	credits.TotalCost(3, 2)      // 13
	credits.Remaining(100, 3, 2) // 87
	credits.MarginalCost(3, 1)   // 7 (16 - 9)

All functions are pure. Negative inputs are a caller error and are not
checked here; the ballot validator rejects them before they reach this
package.
*/
package credits
