// Package aggregate synthesizes a Candidate from a (combination, signs) task
// against an option cache generation (spec §4.3, component C3).
package aggregate

import (
	"github.com/optionstrat/engine/internal/enumerate"
	"github.com/optionstrat/engine/internal/optioncache"
	"github.com/optionstrat/engine/internal/optionmodel"
)

// MinLeverageDenominator is ε_lev, the floor applied to |total premium|
// before dividing to compute a leverage ratio, avoiding blow-ups near zero
// premium.
const MinLeverageDenominator = 5e-3

// Scratch is thread-local working storage reused across tasks to keep the
// hot aggregation loop allocator-light (spec §9): only the PnL vector
// buffer, sized to the grid length M, is reused; the Candidate ultimately
// retained on acceptance gets its own fresh allocation.
type Scratch struct {
	pnl []float64
}

// NewScratch allocates a Scratch sized for a grid of length m.
func NewScratch(m int) *Scratch {
	return &Scratch{pnl: make([]float64, m)}
}

// Aggregate computes the full signed-sum Candidate for one task against gen,
// using s as scratch space for the pointwise P&L accumulation.
func Aggregate(gen *optioncache.Generation, task enumerate.Task, s *Scratch) optionmodel.Candidate {
	k := len(task.Indices)
	m := gen.M

	if cap(s.pnl) < m {
		s.pnl = make([]float64, m)
	}
	pnl := s.pnl[:m]
	for j := range pnl {
		pnl[j] = 0
	}

	var (
		totalPremium, totalDelta, totalGamma, totalVega, totalTheta float64
		totalAveragePnL, totalSigmaPnL, totalIV                     float64
		totalRoll, totalRollQuarterly, totalRollSum                 float64
		totalTailPenalty                                            float64
		callCount, putCount                                         int
		shortPuts, longPuts, shortCalls, longCalls                  int
	)

	var intraPrices, intraPnL [optionmodel.IntraLifePoints]float64

	strikes := make([]float64, k)
	isCalls := make([]bool, k)
	indices := make([]int, k)
	signs := make([]optionmodel.Sign, k)
	premiums := make([]float64, k)

	for leg := 0; leg < k; leg++ {
		idx := task.Indices[leg]
		sign := task.Signs[leg]
		opt := &gen.Options[idx]
		sf := float64(sign)

		indices[leg] = idx
		signs[leg] = sign
		strikes[leg] = opt.Strike
		isCalls[leg] = opt.IsCall
		premiums[leg] = opt.Premium

		if opt.IsCall {
			callCount++
			if sign == optionmodel.Short {
				shortCalls++
			} else {
				longCalls++
			}
		} else {
			putCount++
			if sign == optionmodel.Short {
				shortPuts++
			} else {
				longPuts++
			}
		}

		totalPremium += sf * opt.Premium
		totalDelta += sf * opt.Delta
		totalGamma += sf * opt.Gamma
		totalVega += sf * opt.Vega
		totalTheta += sf * opt.Theta
		totalAveragePnL += sf * opt.AveragePnL
		totalSigmaPnL += sf * opt.SigmaPnL
		totalIV += sf * opt.ImpliedVolatility
		totalRoll += sf * opt.Roll
		totalRollQuarterly += sf * opt.RollQuarterly
		totalRollSum += sf * opt.RollSum

		// Leg-direction tail penalty substitution: a long leg's own tail
		// risk uses TailPenalty, a short leg's uses TailPenaltyShort.
		if sign == optionmodel.Long {
			totalTailPenalty += opt.TailPenalty
		} else {
			totalTailPenalty -= opt.TailPenaltyShort
		}

		for t := 0; t < optionmodel.IntraLifePoints; t++ {
			intraPrices[t] += sf * opt.IntraLifePrices[t]
			intraPnL[t] += sf * opt.IntraLifePnL[t]
		}

		optPnL := opt.PnLVector
		for j := 0; j < m; j++ {
			pnl[j] += sf * optPnL[j]
		}
	}

	out := make([]float64, m)
	copy(out, pnl)

	denom := totalPremium
	if denom < 0 {
		denom = -denom
	}
	if denom < MinLeverageDenominator {
		denom = MinLeverageDenominator
	}

	var avgIntraLifePnL float64
	for t := 0; t < optionmodel.IntraLifePoints; t++ {
		avgIntraLifePnL += intraPnL[t]
	}
	avgIntraLifePnL /= float64(optionmodel.IntraLifePoints)

	maxProfit, maxLoss := out[0], out[0]
	for _, v := range out {
		if v > maxProfit {
			maxProfit = v
		}
		if v < maxLoss {
			maxLoss = v
		}
	}

	return optionmodel.Candidate{
		Indices:            indices,
		Signs:              signs,
		Strikes:            strikes,
		IsCalls:            isCalls,
		Premiums:           premiums,
		CallCount:          callCount,
		PutCount:           putCount,
		ShortPuts:          shortPuts,
		LongPuts:           longPuts,
		ShortCalls:         shortCalls,
		LongCalls:          longCalls,
		TotalPremium:       totalPremium,
		TotalDelta:         totalDelta,
		TotalGamma:         totalGamma,
		TotalVega:          totalVega,
		TotalTheta:         totalTheta,
		TotalAveragePnL:    totalAveragePnL,
		TotalSigmaPnL:      totalSigmaPnL,
		TotalIV:            totalIV,
		TotalRoll:          totalRoll,
		TotalRollQuarterly: totalRollQuarterly,
		TotalRollSum:       totalRollSum,
		TotalTailPenalty:   totalTailPenalty,
		DeltaLeverage:      totalDelta / denom,
		AvgPnLLeverage:     totalAveragePnL / denom,
		IntraLifePrices:    intraPrices,
		IntraLifePnL:       intraPnL,
		AvgIntraLifePnL:    avgIntraLifePnL,
		PnLVector:          out,
		MaxProfit:          maxProfit,
		MaxLoss:            maxLoss,
		Breakevens:         Breakevens(gen.Grid, out),
	}
}

// Breakevens returns the linearly-interpolated zero-crossings of the P&L
// vector across adjacent grid points. Used only for presentation (spec
// §4.4).
func Breakevens(grid optionmodel.PriceGrid, pnl []float64) []float64 {
	var crossings []float64
	for j := 1; j < len(pnl); j++ {
		a, b := pnl[j-1], pnl[j]
		if a == 0 {
			crossings = append(crossings, grid[j-1])
			continue
		}
		if (a < 0 && b > 0) || (a > 0 && b < 0) {
			t := -a / (b - a)
			price := grid[j-1] + t*(grid[j]-grid[j-1])
			crossings = append(crossings, price)
		}
	}
	return crossings
}

// SigmaPnLExact recomputes sigma_pnl exactly from the candidate's summed
// P&L under the measure, per the formula in spec §4.3:
// sqrt( Σ m[j]·(pnl[j] − total_average_pnl)² · dx / mass ), mass = Σ m[j]·dx.
// Not used by the default hot path (which retains the cheaper signed sum of
// per-option sigmas) but provided for callers who resolve the spec's open
// question the other way.
func SigmaPnLExact(grid optionmodel.PriceGrid, measure optionmodel.Measure, pnl []float64, totalAveragePnL float64) float64 {
	if len(grid) < 2 || len(pnl) != len(grid) || len(measure.Mixture) != len(grid) {
		return 0
	}
	var mass, weighted float64
	for j := 0; j < len(grid); j++ {
		var dx float64
		switch {
		case j == 0:
			dx = grid[1] - grid[0]
		case j == len(grid)-1:
			dx = grid[j] - grid[j-1]
		default:
			dx = (grid[j+1] - grid[j-1]) / 2
		}
		mass += measure.Mixture[j] * dx
		diff := pnl[j] - totalAveragePnL
		weighted += measure.Mixture[j] * diff * diff * dx
	}
	if mass <= 0 {
		return 0
	}
	return sqrt(weighted / mass)
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	// Newton's method avoids importing math solely for Sqrt in this file;
	// kept trivial since x is always >= 0 here.
	z := x
	for i := 0; i < 40; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}
