// Package dedup removes payoff-equivalent candidates from a ranking,
// walking it in score order and keeping the first representative of each
// equivalence class (spec §4.8, component C8).
package dedup

import (
	"math"
	"sort"

	"github.com/optionstrat/engine/internal/optionmodel"
)

// MaxLossTolerance is the absolute tolerance on max-loss difference between
// two candidates still considered payoff-equivalent.
const MaxLossTolerance = 0.05

// StrikeTolerance is the absolute tolerance used when comparing strikes of
// corresponding legs across two candidates.
const StrikeTolerance = 1e-6

// leg is a (strike, isCall, sign) triple used to build a canonical,
// sort-order-independent signature for a candidate's legs.
type leg struct {
	strike float64
	isCall bool
	sign   optionmodel.Sign
}

func legsOf(c *optionmodel.Candidate) []leg {
	legs := make([]leg, len(c.Indices))
	for i := range c.Indices {
		legs[i] = leg{strike: c.Strikes[i], isCall: c.IsCalls[i], sign: c.Signs[i]}
	}
	sort.Slice(legs, func(i, j int) bool {
		if legs[i].strike != legs[j].strike {
			return legs[i].strike < legs[j].strike
		}
		if legs[i].isCall != legs[j].isCall {
			return !legs[i].isCall && legs[j].isCall
		}
		return legs[i].sign < legs[j].sign
	})
	return legs
}

// Equivalent reports whether a and b are the same payoff shape: same leg
// count, strikes matching pairwise within StrikeTolerance once both leg
// lists are sorted canonically, an even number of call/put mismatches
// across those pairs (a swapped call-for-put pairing that nets to the same
// payoff), and max-loss within MaxLossTolerance.
func Equivalent(a, b *optionmodel.Candidate) bool {
	if len(a.Indices) != len(b.Indices) {
		return false
	}
	if math.Abs(a.MaxLoss-b.MaxLoss) > MaxLossTolerance {
		return false
	}

	la, lb := legsOf(a), legsOf(b)
	mismatches := 0
	for i := range la {
		if math.Abs(la[i].strike-lb[i].strike) > StrikeTolerance {
			return false
		}
		if la[i].sign != lb[i].sign {
			return false
		}
		if la[i].isCall != lb[i].isCall {
			mismatches++
		}
	}
	return mismatches%2 == 0
}

// Filter walks order (a slice of indices into pool, already sorted by
// descending score) and keeps the first representative of each
// payoff-equivalence class, stopping once maxUnique representatives have
// been kept or order is exhausted. It returns the kept indices, in order,
// and the number of candidates it dropped as duplicates.
func Filter(pool []optionmodel.Candidate, order []int, maxUnique int) (kept []int, duplicates int) {
	if maxUnique <= 0 {
		return nil, 0
	}
	kept = make([]int, 0, maxUnique)
	for _, idx := range order {
		cand := &pool[idx]
		isDup := false
		for _, keptIdx := range kept {
			if Equivalent(cand, &pool[keptIdx]) {
				isDup = true
				break
			}
		}
		if isDup {
			duplicates++
			continue
		}
		kept = append(kept, idx)
		if len(kept) >= maxUnique {
			break
		}
	}
	return kept, duplicates
}
