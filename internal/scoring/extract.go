package scoring

import (
	"math"

	"github.com/optionstrat/engine/internal/optionmodel"
)

// Extract returns the raw value of metric id for cand, coercing any
// non-finite result to 0 (spec §4.5: "non-finite extracted values coerced
// to 0" — component C5).
func Extract(cand *optionmodel.Candidate, id optionmodel.MetricID) float64 {
	var v float64
	switch id {
	case optionmodel.Premium:
		v = math.Abs(cand.TotalPremium)
	case optionmodel.AveragePnL:
		v = cand.TotalAveragePnL
	case optionmodel.Roll:
		v = cand.TotalRoll
	case optionmodel.AvgPnLLeverage:
		v = cand.AvgPnLLeverage
	case optionmodel.TailPenalty:
		v = math.Abs(cand.TotalTailPenalty)
	case optionmodel.AvgIntraLifePnL:
		v = cand.AvgIntraLifePnL
	case optionmodel.DeltaNeutral:
		v = math.Abs(cand.TotalDelta)
	case optionmodel.GammaLow:
		v = math.Abs(cand.TotalGamma)
	case optionmodel.VegaLow:
		v = math.Abs(cand.TotalVega)
	case optionmodel.ThetaPositive:
		v = cand.TotalTheta
	case optionmodel.IVModerate:
		v = cand.TotalIV
	case optionmodel.SigmaPnL:
		v = cand.TotalSigmaPnL
	case optionmodel.RollQuarterly:
		v = cand.TotalRollQuarterly
	case optionmodel.MaxLoss:
		v = math.Abs(cand.MaxLoss)
	case optionmodel.DeltaLeverage:
		v = math.Abs(cand.DeltaLeverage)
	default:
		v = 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
