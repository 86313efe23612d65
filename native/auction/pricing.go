package auction

import "math/big"

// decayPrecision is the fixed-point scale used by the decay rate. All
// divisions truncate toward zero; the scaled rate is authoritative, so an
// interior price can sit one unit below the unscaled rational value when the
// ramp does not divide evenly. The rule is documented in the README and must
// never be mixed with ad hoc evaluation for the same auction.
var decayPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// absoluteDecay precomputes the scaled price decay per counter unit:
// (ceiling-floor)*1e18/(end-start). A flat schedule (ceiling == floor) has a
// zero rate. Callers must ensure end > start and ceiling >= floor.
func absoluteDecay(ceiling, floor *big.Int, start, end uint64) *big.Int {
	if ceiling.Cmp(floor) <= 0 {
		return big.NewInt(0)
	}
	rate := new(big.Int).Sub(ceiling, floor)
	rate.Mul(rate, decayPrecision)
	return rate.Div(rate, new(big.Int).SetUint64(end-start))
}

// priceAt evaluates the descending schedule at the given counter value using
// a precomputed decay rate. Before the start marker it is the ceiling, at and
// past the end marker the floor, and in between
// floor + decay*(end-now)/1e18.
func priceAt(decay, ceiling, floor *big.Int, start, end, now uint64) *big.Int {
	if now <= start {
		return new(big.Int).Set(ceiling)
	}
	if decay.Sign() == 0 || now >= end {
		return new(big.Int).Set(floor)
	}
	price := new(big.Int).SetUint64(end - now)
	price.Mul(price, decay)
	price.Div(price, decayPrecision)
	return price.Add(price, floor)
}

// CurrentPrice computes the schedule price from the raw parameters, deriving
// the decay rate on the fly. The engine itself always goes through the rate
// stored on the auction record; this helper exists for callers that want to
// preview a schedule before creating it.
func CurrentPrice(ceiling, floor *big.Int, start, end, now uint64) *big.Int {
	return priceAt(absoluteDecay(ceiling, floor, start, end), ceiling, floor, start, end, now)
}
