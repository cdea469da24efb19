package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionstrat/engine/internal/enumerate"
	"github.com/optionstrat/engine/internal/optioncache"
	"github.com/optionstrat/engine/internal/optionmodel"
)

func testGeneration(t *testing.T) *optioncache.Generation {
	t.Helper()
	grid := optionmodel.PriceGrid{90, 100, 110}
	measure := optionmodel.Measure{Mixture: []float64{0.2, 0.6, 0.2}, AverageMix: 100}

	opts := []optionmodel.OptionRecord{
		{
			Strike: 100, IsCall: true,
			Delta: 0.5, Gamma: 0.1, Vega: 0.2, Theta: -0.05,
			ImpliedVolatility: 0.3, Premium: 5,
			AveragePnL: 1, SigmaPnL: 2,
			Roll: 0.1, RollQuarterly: 0.3, RollSum: 0.4,
			TailPenalty: 0.4, TailPenaltyShort: 0.6,
			IntraLifePrices: [5]float64{1, 2, 3, 4, 5},
			IntraLifePnL:    [5]float64{0.1, 0.2, 0.3, 0.4, 0.5},
			PnLVector:       []float64{-5, 5, 15},
		},
		{
			Strike: 110, IsCall: true,
			Delta: 0.3, Gamma: 0.05, Vega: 0.1, Theta: -0.02,
			ImpliedVolatility: 0.25, Premium: 2,
			AveragePnL: 0.5, SigmaPnL: 1,
			Roll: 0.05, RollQuarterly: 0.1, RollSum: 0.15,
			TailPenalty: 0.2, TailPenaltyShort: 0.3,
			IntraLifePrices: [5]float64{1, 1, 1, 1, 1},
			IntraLifePnL:    [5]float64{0.05, 0.05, 0.05, 0.05, 0.05},
			PnLVector:       []float64{-2, -2, 8},
		},
	}

	c := optioncache.New()
	require.NoError(t, c.Initialize(opts, grid, measure, measure.AverageMix))
	return c.Current()
}

func TestAggregateSingleLegLong(t *testing.T) {
	gen := testGeneration(t)
	task := enumerate.Task{Indices: []int{0}, Signs: []optionmodel.Sign{optionmodel.Long}}

	cand := Aggregate(gen, task, NewScratch(gen.M))

	assert.Equal(t, 5.0, cand.TotalPremium)
	assert.Equal(t, 0.5, cand.TotalDelta)
	assert.Equal(t, 0.4, cand.TotalTailPenalty, "long leg uses TailPenalty")
	assert.Equal(t, []float64{-5, 5, 15}, cand.PnLVector)
	assert.Equal(t, 15.0, cand.MaxProfit)
	assert.Equal(t, -5.0, cand.MaxLoss)
	assert.Equal(t, 1, cand.CallCount)
	assert.Equal(t, 0, cand.PutCount)
}

func TestAggregateSingleLegShortUsesShortTailPenalty(t *testing.T) {
	gen := testGeneration(t)
	task := enumerate.Task{Indices: []int{0}, Signs: []optionmodel.Sign{optionmodel.Short}}

	cand := Aggregate(gen, task, NewScratch(gen.M))

	assert.Equal(t, -5.0, cand.TotalPremium)
	assert.Equal(t, -0.6, cand.TotalTailPenalty, "short leg uses TailPenaltyShort, negated")
}

func TestAggregateTwoLegSpreadIsLinear(t *testing.T) {
	gen := testGeneration(t)
	task := enumerate.Task{
		Indices: []int{0, 1},
		Signs:   []optionmodel.Sign{optionmodel.Long, optionmodel.Short},
	}

	cand := Aggregate(gen, task, NewScratch(gen.M))

	assert.InDelta(t, 5-2, cand.TotalPremium, 1e-12)
	assert.InDelta(t, 0.5-0.3, cand.TotalDelta, 1e-12)
	assert.Equal(t, []float64{-5 - -2, 5 - -2, 15 - 8}, cand.PnLVector)
	assert.Equal(t, 2, cand.CallCount)
	assert.Equal(t, 0, cand.PutCount)
}

func TestAggregateLeverageUsesEpsilonFloor(t *testing.T) {
	gen := testGeneration(t)
	// Equal legs with opposite sign net premium to zero: leverage denominator
	// must floor at MinLeverageDenominator rather than dividing by zero.
	task := enumerate.Task{
		Indices: []int{0, 0},
		Signs:   []optionmodel.Sign{optionmodel.Long, optionmodel.Short},
	}
	cand := Aggregate(gen, task, NewScratch(gen.M))
	assert.Equal(t, 0.0, cand.TotalPremium)
	assert.Equal(t, 0.0, cand.DeltaLeverage)
}

func TestBreakevensLinearInterpolation(t *testing.T) {
	grid := optionmodel.PriceGrid{0, 10}
	pnl := []float64{-5, 5}
	got := Breakevens(grid, pnl)
	require.Len(t, got, 1)
	assert.InDelta(t, 5, got[0], 1e-9)
}
