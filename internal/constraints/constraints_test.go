package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optionstrat/engine/internal/optionmodel"
)

// baseGrid and baseCandidate pair a PnL vector with the price grid that
// produced it: 8 points spanning 60..130. limit_left/limit_right in
// DefaultSet put every grid price in the body, so unless a test narrows them
// the zonal-loss check reduces to the body bound -|total_premium|, which
// baseCandidate's worst P&L (-1 against a premium of 1) just meets.
var baseGrid = optionmodel.PriceGrid{60, 70, 80, 90, 100, 110, 120, 130}

func baseCandidate() optionmodel.Candidate {
	return optionmodel.Candidate{
		Indices:         []int{0, 1},
		Signs:           []optionmodel.Sign{optionmodel.Long, optionmodel.Short},
		Strikes:         []float64{95, 105},
		IsCalls:         []bool{true, true},
		Premiums:        []float64{5, 4},
		ShortCalls:      1,
		LongCalls:       1,
		TotalPremium:    1,
		TotalDelta:      0.1,
		TotalAveragePnL: 0.5,
		PnLVector:       []float64{-1, 0, 1, 2, 1, 0, -1, -1},
	}
}

func TestEvaluatePassesNeutralCandidate(t *testing.T) {
	cand := baseCandidate()
	var counters Counters
	res := Evaluate(&cand, DefaultSet(), baseGrid, &counters)
	assert.True(t, res.Pass)
	assert.Equal(t, Counters{}, counters)
}

func TestEvaluateRejectsSelfCancellingPair(t *testing.T) {
	cand := baseCandidate()
	cand.Strikes = []float64{100, 100}
	cand.Signs = []optionmodel.Sign{optionmodel.Long, optionmodel.Short}
	cand.IsCalls = []bool{true, true}

	var counters Counters
	res := Evaluate(&cand, DefaultSet(), baseGrid, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterSelfCancel, res.Failed)
	assert.EqualValues(t, 1, counters[FilterSelfCancel])
}

func TestEvaluateRejectsUselessShort(t *testing.T) {
	cand := optionmodel.Candidate{
		Indices:   []int{0},
		Signs:     []optionmodel.Sign{optionmodel.Short},
		Strikes:   []float64{100},
		IsCalls:   []bool{true},
		Premiums:  []float64{0.1},
		PnLVector: []float64{0, 0},
	}
	s := DefaultSet()
	s.MinPremiumSell = 1
	var counters Counters
	res := Evaluate(&cand, s, optionmodel.PriceGrid{90, 110}, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterUselessShort, res.Failed)
}

func TestEvaluatePassesShortClearingMinPremiumSell(t *testing.T) {
	cand := optionmodel.Candidate{
		Indices:   []int{0},
		Signs:     []optionmodel.Sign{optionmodel.Short},
		Strikes:   []float64{100},
		IsCalls:   []bool{true},
		Premiums:  []float64{2},
		PnLVector: []float64{0, 0},
	}
	s := DefaultSet()
	s.MinPremiumSell = 1
	var counters Counters
	res := Evaluate(&cand, s, optionmodel.PriceGrid{90, 110}, &counters)
	assert.True(t, res.Pass)
}

func TestEvaluateRejectsLeftWingOpenness(t *testing.T) {
	cand := baseCandidate()
	cand.ShortPuts = 3
	cand.LongPuts = 0
	s := DefaultSet()
	s.OuvertGauche = 2
	var counters Counters
	res := Evaluate(&cand, s, baseGrid, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterLeftWing, res.Failed)
}

func TestEvaluateRejectsRightWingOpenness(t *testing.T) {
	cand := baseCandidate()
	cand.ShortCalls = 3
	cand.LongCalls = 0
	s := DefaultSet()
	s.OuvertDroite = 2
	var counters Counters
	res := Evaluate(&cand, s, baseGrid, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterRightWing, res.Failed)
}

func TestEvaluateRejectsNegativeExpectation(t *testing.T) {
	cand := baseCandidate()
	cand.TotalAveragePnL = -0.01
	var counters Counters
	res := Evaluate(&cand, DefaultSet(), baseGrid, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterNonNegativeExpectation, res.Failed)
}

func TestEvaluateRejectsPremiumOutOfBound(t *testing.T) {
	cand := baseCandidate()
	s := DefaultSet()
	s.MaxPremium = 0.5
	var counters Counters
	res := Evaluate(&cand, s, baseGrid, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterPremiumBound, res.Failed)
}

func TestEvaluateRejectsDeltaOutOfRange(t *testing.T) {
	cand := baseCandidate()
	s := DefaultSet()
	s.DeltaMin = -0.2
	s.DeltaMax = 0.05
	var counters Counters
	res := Evaluate(&cand, s, baseGrid, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterDeltaBound, res.Failed)
}

func TestEvaluateTracksZonalLossSeenByPrice(t *testing.T) {
	cand := baseCandidate()
	s := DefaultSet()
	s.LimitLeft = 85
	s.LimitRight = 105
	var counters Counters
	res := Evaluate(&cand, s, baseGrid, &counters)
	assert.True(t, res.Pass)
	// prices < 85: 60,70,80 -> pnl -1,0,1 -> worst -1
	assert.Equal(t, -1.0, cand.MaxLossLeftSeen)
	// prices > 105: 110,120,130 -> pnl 0,-1,-1 -> worst -1
	assert.Equal(t, -1.0, cand.MaxLossRightSeen)
}

func TestEvaluateRejectsLeftWingLossBound(t *testing.T) {
	cand := baseCandidate()
	s := DefaultSet()
	s.LimitLeft = 85
	s.LimitRight = 105
	s.MaxLossLeft = 0.5
	var counters Counters
	res := Evaluate(&cand, s, baseGrid, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterZonalLoss, res.Failed)
}

func TestEvaluateRejectsBodyLossExceedingPremium(t *testing.T) {
	cand := baseCandidate()
	cand.TotalPremium = 0.1
	cand.PnLVector = []float64{-1, 0, 1, -2, 1, 0, -1, -1}
	s := DefaultSet()
	s.LimitLeft = 85
	s.LimitRight = 105
	var counters Counters
	res := Evaluate(&cand, s, baseGrid, &counters)
	assert.False(t, res.Pass)
	assert.Equal(t, FilterZonalLoss, res.Failed)
}

func TestCountersMerge(t *testing.T) {
	var a, b Counters
	a[FilterPremiumBound] = 2
	b[FilterPremiumBound] = 3
	b[FilterDeltaBound] = 1
	a.Merge(b)
	assert.EqualValues(t, 5, a[FilterPremiumBound])
	assert.EqualValues(t, 1, a[FilterDeltaBound])
}
