package optionmodel

// MetricID is a closed enumeration of scoring metrics. The source this
// engine is modeled after dispatched on string metric names inside the hot
// loop; a small integer enum plus a normalization table keyed by it is the
// intended replacement (spec §9).
type MetricID int

const (
	Premium MetricID = iota
	AveragePnL
	Roll
	AvgPnLLeverage
	TailPenalty
	AvgIntraLifePnL

	// Additional ids beyond the required six.
	DeltaNeutral
	GammaLow
	VegaLow
	ThetaPositive
	IVModerate
	SigmaPnL
	RollQuarterly
	MaxLoss
	DeltaLeverage

	metricCount
)

func (m MetricID) String() string {
	switch m {
	case Premium:
		return "PREMIUM"
	case AveragePnL:
		return "AVERAGE_PNL"
	case Roll:
		return "ROLL"
	case AvgPnLLeverage:
		return "AVG_PNL_LEVERAGE"
	case TailPenalty:
		return "TAIL_PENALTY"
	case AvgIntraLifePnL:
		return "AVG_INTRA_LIFE_PNL"
	case DeltaNeutral:
		return "DELTA_NEUTRAL"
	case GammaLow:
		return "GAMMA_LOW"
	case VegaLow:
		return "VEGA_LOW"
	case ThetaPositive:
		return "THETA_POSITIVE"
	case IVModerate:
		return "IV_MODERATE"
	case SigmaPnL:
		return "SIGMA_PNL"
	case RollQuarterly:
		return "ROLL_QUARTERLY"
	case MaxLoss:
		return "MAX_LOSS"
	case DeltaLeverage:
		return "DELTA_LEVERAGE"
	default:
		return "UNKNOWN_METRIC"
	}
}

// Normalization selects how a metric's raw values are mapped into [0,1]
// across the candidate pool.
type Normalization int

const (
	NormMax    Normalization = iota // scale by max(|x|) across the pool
	NormMinMax                      // scale by [min,max] across the pool
)

// Polarity selects the scoring formula applied after normalization.
type Polarity int

const (
	LowerBetter Polarity = iota
	HigherBetter
	ModerateBetter
	PositiveBetter
)

// MetricSpec describes how one metric id is normalized and scored.
type MetricSpec struct {
	ID       MetricID
	Norm     Normalization
	Polarity Polarity
}

// DefaultMetricSpecs is the closed table of metric definitions, matching
// spec §4.5's table for the required six ids plus the optional extensions.
var DefaultMetricSpecs = map[MetricID]MetricSpec{
	Premium:         {Premium, NormMax, LowerBetter},
	AveragePnL:      {AveragePnL, NormMinMax, HigherBetter},
	Roll:            {Roll, NormMinMax, HigherBetter},
	AvgPnLLeverage:  {AvgPnLLeverage, NormMax, HigherBetter},
	TailPenalty:     {TailPenalty, NormMinMax, LowerBetter},
	AvgIntraLifePnL: {AvgIntraLifePnL, NormMinMax, HigherBetter},
	DeltaNeutral:    {DeltaNeutral, NormMax, LowerBetter},
	GammaLow:        {GammaLow, NormMax, LowerBetter},
	VegaLow:         {VegaLow, NormMax, LowerBetter},
	ThetaPositive:   {ThetaPositive, NormMinMax, PositiveBetter},
	IVModerate:      {IVModerate, NormMax, ModerateBetter},
	SigmaPnL:        {SigmaPnL, NormMax, LowerBetter},
	RollQuarterly:   {RollQuarterly, NormMinMax, HigherBetter},
	MaxLoss:         {MaxLoss, NormMax, LowerBetter},
	DeltaLeverage:   {DeltaLeverage, NormMax, LowerBetter},
}

// MetricWeight pairs a metric id with its weight within a ScoringProfile.
type MetricWeight struct {
	ID     MetricID
	Weight float64
}

// ScoringProfile is an ordered set of (metric-id, weight) pairs. A round
// receives a list of profiles; they share one normalization pass (spec
// §4.6 Step A).
type ScoringProfile struct {
	Name    string
	Weights []MetricWeight
}

// TotalWeight sums the profile's weights.
func (p ScoringProfile) TotalWeight() float64 {
	var sum float64
	for _, w := range p.Weights {
		sum += w.Weight
	}
	return sum
}
