// Package constraints evaluates a Candidate against an ordered chain of
// economic sanity filters, exiting at the first violation (spec §4.4,
// component C4).
package constraints

import (
	"math"

	"github.com/optionstrat/engine/internal/optionmodel"
)

// FilterID identifies one filter in the fixed evaluation order. Values are
// stable and used to index per-filter rejection counters.
type FilterID int

const (
	FilterUselessShort FilterID = iota
	FilterSelfCancel
	FilterLeftWing
	FilterRightWing
	FilterPremiumBound
	FilterDeltaBound
	FilterNonNegativeExpectation
	FilterZonalLoss

	FilterCount
)

func (f FilterID) String() string {
	switch f {
	case FilterUselessShort:
		return "USELESS_SHORT"
	case FilterSelfCancel:
		return "SELF_CANCEL"
	case FilterLeftWing:
		return "LEFT_WING"
	case FilterRightWing:
		return "RIGHT_WING"
	case FilterPremiumBound:
		return "PREMIUM_BOUND"
	case FilterDeltaBound:
		return "DELTA_BOUND"
	case FilterNonNegativeExpectation:
		return "NON_NEGATIVE_EXPECTATION"
	case FilterZonalLoss:
		return "ZONAL_LOSS"
	default:
		return "UNKNOWN_FILTER"
	}
}

// Set is an economically-motivated bound configuration, loaded from YAML per
// named constraint set (spec §6 process_multi parameters).
type Set struct {
	// MinPremiumSell is min_premium_sell: a short leg whose own premium
	// falls below this is a useless short (spec §4.4 #1).
	MinPremiumSell float64 `yaml:"min_premium_sell"`

	// OuvertGauche/OuvertDroite bound the wing openness: the excess of short
	// legs over long legs on the put side (gauche) and call side (droite)
	// (spec §4.4 #3, #4).
	OuvertGauche float64 `yaml:"ouvert_gauche"`
	OuvertDroite float64 `yaml:"ouvert_droite"`

	// MaxPremium bounds |total_premium| (spec §4.4 #5).
	MaxPremium float64 `yaml:"max_premium"`

	// DeltaMin/DeltaMax bound total_delta as an asymmetric range (spec §4.4
	// #6).
	DeltaMin float64 `yaml:"delta_min"`
	DeltaMax float64 `yaml:"delta_max"`

	// LimitLeft/LimitRight are the grid-price thresholds partitioning the
	// P&L vector into left wing, body, and right wing zones for the zonal
	// loss check (spec §4.4 #8, spec §6).
	LimitLeft  float64 `yaml:"limit_left"`
	LimitRight float64 `yaml:"limit_right"`

	// MaxLossLeft/MaxLossRight bound the worst loss observed in the left and
	// right wing zones respectively.
	MaxLossLeft  float64 `yaml:"max_loss_left"`
	MaxLossRight float64 `yaml:"max_loss_right"`
}

// DefaultSet returns permissive bounds suitable when a round omits an
// explicit constraint set.
func DefaultSet() Set {
	return Set{
		MinPremiumSell: -math.MaxFloat64,
		OuvertGauche:   math.MaxInt32,
		OuvertDroite:   math.MaxInt32,
		MaxPremium:     math.MaxFloat64,
		DeltaMin:       -math.MaxFloat64,
		DeltaMax:       math.MaxFloat64,
		LimitLeft:      -math.MaxFloat64,
		LimitRight:     math.MaxFloat64,
		MaxLossLeft:    math.MaxFloat64,
		MaxLossRight:   math.MaxFloat64,
	}
}

// Result reports the outcome of evaluating one candidate.
type Result struct {
	Pass   bool
	Failed FilterID
	Reason string
}

// Counters tallies rejections per filter across a round. Not safe for
// concurrent use; callers keep one Counters per worker and merge under a
// mutex (spec §9 supplemented reporting).
type Counters [FilterCount]int64

// Merge adds other's counts into c.
func (c *Counters) Merge(other Counters) {
	for i := range other {
		c[i] += other[i]
	}
}

// Evaluate runs the fixed filter chain against cand, mutating cand's
// MaxLossLeftSeen/MaxLossRightSeen as a side effect of the zonal-loss check
// (retained for presentation even when the candidate passes). grid supplies
// the prices parallel to cand.PnLVector, needed to partition the zonal loss
// check by limit_left/limit_right. Evaluate stops at the first failing
// filter and records the rejection in counters.
func Evaluate(cand *optionmodel.Candidate, s Set, grid optionmodel.PriceGrid, counters *Counters) Result {
	if failUselessShort(cand, s) {
		counters[FilterUselessShort]++
		return Result{Failed: FilterUselessShort, Reason: "short leg premium below minimum sell threshold"}
	}
	if failSelfCancel(cand) {
		counters[FilterSelfCancel]++
		return Result{Failed: FilterSelfCancel, Reason: "combination contains a self-cancelling pair"}
	}
	if float64(cand.ShortPuts-cand.LongPuts) > s.OuvertGauche {
		counters[FilterLeftWing]++
		return Result{Failed: FilterLeftWing, Reason: "left wing openness exceeds bound"}
	}
	if float64(cand.ShortCalls-cand.LongCalls) > s.OuvertDroite {
		counters[FilterRightWing]++
		return Result{Failed: FilterRightWing, Reason: "right wing openness exceeds bound"}
	}
	if math.Abs(cand.TotalPremium) > s.MaxPremium {
		counters[FilterPremiumBound]++
		return Result{Failed: FilterPremiumBound, Reason: "total premium outside configured bound"}
	}
	if cand.TotalDelta < s.DeltaMin || cand.TotalDelta > s.DeltaMax {
		counters[FilterDeltaBound]++
		return Result{Failed: FilterDeltaBound, Reason: "total delta outside configured range"}
	}
	if cand.TotalAveragePnL < 0 {
		counters[FilterNonNegativeExpectation]++
		return Result{Failed: FilterNonNegativeExpectation, Reason: "expected P&L is negative"}
	}

	n := len(cand.PnLVector)
	if n == 0 || n != len(grid) {
		return Result{Pass: true}
	}

	leftSeen, rightSeen, bodyLoss := math.MaxFloat64, math.MaxFloat64, math.MaxFloat64
	haveBody := false
	for j := 0; j < n; j++ {
		price, loss := grid[j], cand.PnLVector[j]
		switch {
		case price < s.LimitLeft:
			if loss < leftSeen {
				leftSeen = loss
			}
		case price > s.LimitRight:
			if loss < rightSeen {
				rightSeen = loss
			}
		default:
			haveBody = true
			if loss < bodyLoss {
				bodyLoss = loss
			}
		}
	}
	cand.MaxLossLeftSeen, cand.MaxLossRightSeen = leftSeen, rightSeen

	bodyBound := -math.Abs(cand.TotalPremium)
	if haveBody && bodyLoss < bodyBound {
		counters[FilterZonalLoss]++
		return Result{Failed: FilterZonalLoss, Reason: "body loss exceeds net premium bound"}
	}
	if leftSeen < -s.MaxLossLeft {
		counters[FilterZonalLoss]++
		return Result{Failed: FilterZonalLoss, Reason: "left wing loss exceeds bound"}
	}
	if rightSeen < -s.MaxLossRight {
		counters[FilterZonalLoss]++
		return Result{Failed: FilterZonalLoss, Reason: "right wing loss exceeds bound"}
	}

	return Result{Pass: true}
}

// failUselessShort rejects any short leg whose own premium does not clear
// the minimum sell threshold: shorting only makes economic sense when it is
// sold for enough.
func failUselessShort(cand *optionmodel.Candidate, s Set) bool {
	for i, sign := range cand.Signs {
		if sign != optionmodel.Short {
			continue
		}
		if cand.Premiums[i] < s.MinPremiumSell {
			return true
		}
	}
	return false
}

// failSelfCancel rejects combinations containing two legs at the same
// strike and type with opposite signs: they net to a flat, economically
// inert position.
func failSelfCancel(cand *optionmodel.Candidate) bool {
	n := len(cand.Indices)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if cand.IsCalls[i] == cand.IsCalls[j] &&
				math.Abs(cand.Strikes[i]-cand.Strikes[j]) < 1e-9 &&
				cand.Signs[i] != cand.Signs[j] {
				return true
			}
		}
	}
	return false
}
