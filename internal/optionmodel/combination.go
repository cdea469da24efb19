package optionmodel

// Combination is a non-decreasing tuple of option indices (a multiset of
// legs, repetition permitted) together with each leg's sign assignment.
type Combination struct {
	Indices []int
	Signs   []Sign
}

// Legs returns the number of legs in the combination.
func (c Combination) Legs() int {
	return len(c.Indices)
}

// Candidate is the full result of aggregating one (combination, signs) pair
// against an option cache: every linear aggregate, the summed P&L and
// intra-life vectors, and the originating leg quadruple kept for
// presentation and payoff-equivalence deduplication. ProfileScores and
// ConsensusScore are filled in by the scoring stage; Rank is not set by any
// stage, since ranks are reported on engine.RankedCandidate.
type Candidate struct {
	Indices []int
	Signs   []Sign
	Strikes []float64
	IsCalls []bool

	// Premiums holds each leg's own unsigned premium, parallel to Indices/
	// Signs/Strikes/IsCalls. The useless-short filter (spec §4.4 #1) needs a
	// leg's own premium, not the combination's signed total.
	Premiums []float64

	CallCount int
	PutCount  int

	// ShortPuts/LongPuts/ShortCalls/LongCalls are leg-type-and-sign tallies
	// used by the left-wing/right-wing openness filters (spec §4.4 #3, #4):
	// the excess of short legs over long legs on one side of the strikes.
	ShortPuts  int
	LongPuts   int
	ShortCalls int
	LongCalls  int

	TotalPremium    float64
	TotalDelta      float64
	TotalGamma      float64
	TotalVega       float64
	TotalTheta      float64
	TotalAveragePnL float64
	TotalSigmaPnL   float64
	TotalIV         float64
	TotalRoll       float64
	TotalRollQuarterly float64
	TotalRollSum    float64
	TotalTailPenalty float64

	DeltaLeverage   float64
	AvgPnLLeverage  float64

	IntraLifePrices [IntraLifePoints]float64
	IntraLifePnL    [IntraLifePoints]float64
	AvgIntraLifePnL float64

	// PnLVector is Σ sign[i]·options[indices[i]].PnLVector, pointwise, of
	// length M. Materialized because filtering, max-loss/max-profit,
	// breakeven analysis and deduplication all need it.
	PnLVector []float64

	MaxProfit        float64
	MaxLoss          float64
	MaxLossLeftSeen  float64
	MaxLossRightSeen float64
	Breakevens       []float64

	// ProfileScores holds one score per scoring profile supplied to the
	// round, in the order the profiles were given. ConsensusScore is the
	// unweighted sum across ProfileScores.
	ProfileScores  []float64
	ConsensusScore float64
	Rank           int
}
