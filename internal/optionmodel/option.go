// Package optionmodel defines the immutable data types shared by every stage
// of the combination engine: option records, the price grid, the mixture
// measure, leg combinations, and the candidates produced by aggregating them.
package optionmodel

// IntraLifePoints is the fixed number of evenly-spaced intermediate dates at
// which mark-to-market price and P&L are tracked for an option.
const IntraLifePoints = 5

// Sign is a leg's long/short assignment: +1 long, -1 short.
type Sign int8

const (
	Long  Sign = 1
	Short Sign = -1
)

// OptionRecord holds the immutable per-option inputs for one evaluation
// round: sensitivities, premium, terminal P&L statistics, calendar-forward
// yield metrics, tail-risk summaries, and the vectors needed to reconstruct
// a candidate's signed-sum aggregates.
type OptionRecord struct {
	Strike float64 `yaml:"strike"`
	IsCall bool    `yaml:"is_call"`

	Delta float64 `yaml:"delta"`
	Gamma float64 `yaml:"gamma"`
	Vega  float64 `yaml:"vega"`
	Theta float64 `yaml:"theta"`

	ImpliedVolatility float64 `yaml:"implied_volatility"`
	Premium           float64 `yaml:"premium"`

	AveragePnL float64 `yaml:"average_pnl"`
	SigmaPnL   float64 `yaml:"sigma_pnl"`

	Roll          float64 `yaml:"roll"`
	RollQuarterly float64 `yaml:"roll_quarterly"`
	RollSum       float64 `yaml:"roll_sum"`

	TailPenalty      float64 `yaml:"tail_penalty"`
	TailPenaltyShort float64 `yaml:"tail_penalty_short"`

	IntraLifePrices [IntraLifePoints]float64 `yaml:"intra_life_prices"`
	IntraLifePnL    [IntraLifePoints]float64 `yaml:"intra_life_pnl"`

	// PnLVector is the option's terminal P&L sampled on the shared price
	// grid. Length M, read-only for the lifetime of the cache generation
	// that owns it.
	PnLVector []float64 `yaml:"pnl_vector"`
}

// PriceGrid is the strictly increasing sequence of prices shared by every
// option's PnLVector in a cache generation.
type PriceGrid []float64

// Measure is the mixture density over the price grid used to weight
// terminal outcomes. It is opaque to the engine: never renormalized.
type Measure struct {
	Mixture    []float64
	AverageMix float64
}
