// Package scoring normalizes candidate metrics across a pool and combines
// them into per-profile weighted-geometric-mean scores plus a consensus
// score (spec §4.6, component C6).
package scoring

import (
	"fmt"
	"math"

	"github.com/optionstrat/engine/internal/optionmodel"
)

// FloorEpsilon is the minimum per-metric score fed into the weighted
// geometric mean, preventing one zero-scoring metric from zeroing the whole
// product.
const FloorEpsilon = 1e-6

// ErrZeroWeightProfile is returned when a profile's weights sum to zero;
// such a profile cannot produce a meaningful geometric mean.
var ErrZeroWeightProfile = fmt.Errorf("scoring: profile has zero total weight")

// bounds is the pool-wide range used to normalize one metric id.
type bounds struct {
	min, max    float64
	maxAbs      float64
}

// ValidateProfiles checks every profile has positive total weight.
func ValidateProfiles(profiles []optionmodel.ScoringProfile) error {
	for _, p := range profiles {
		if p.TotalWeight() <= 0 {
			return fmt.Errorf("%w: %q", ErrZeroWeightProfile, p.Name)
		}
	}
	return nil
}

// referencedMetrics returns the deduplicated set of metric ids used by any
// profile, so the normalization pass only touches metrics actually scored.
func referencedMetrics(profiles []optionmodel.ScoringProfile) []optionmodel.MetricID {
	seen := make(map[optionmodel.MetricID]bool)
	var ids []optionmodel.MetricID
	for _, p := range profiles {
		for _, w := range p.Weights {
			if !seen[w.ID] {
				seen[w.ID] = true
				ids = append(ids, w.ID)
			}
		}
	}
	return ids
}

// computeBounds runs the shared normalization pass (Step A): one min/max/
// max-abs scan per referenced metric across the whole candidate pool.
func computeBounds(pool []optionmodel.Candidate, ids []optionmodel.MetricID) map[optionmodel.MetricID]bounds {
	out := make(map[optionmodel.MetricID]bounds, len(ids))
	for _, id := range ids {
		b := bounds{min: math.Inf(1), max: math.Inf(-1)}
		for i := range pool {
			v := Extract(&pool[i], id)
			if v < b.min {
				b.min = v
			}
			if v > b.max {
				b.max = v
			}
			if math.Abs(v) > b.maxAbs {
				b.maxAbs = math.Abs(v)
			}
		}
		if len(pool) == 0 {
			b.min, b.max = 0, 0
		}
		out[id] = b
	}
	return out
}

// normalize maps a raw metric value into [0,1] using the metric's
// configured normalization, widening degenerate (zero-width or zero-scale)
// ranges so every candidate in a flat pool scores identically rather than
// dividing by zero.
func normalize(v float64, spec optionmodel.MetricSpec, b bounds) float64 {
	switch spec.Norm {
	case optionmodel.NormMax:
		scale := b.maxAbs
		if scale < FloorEpsilon {
			return 0.5
		}
		return math.Abs(v) / scale
	case optionmodel.NormMinMax:
		width := b.max - b.min
		if width < FloorEpsilon {
			return 0.5
		}
		n := (v - b.min) / width
		if n < 0 {
			n = 0
		}
		if n > 1 {
			n = 1
		}
		return n
	default:
		return 0.5
	}
}

// polarityScore applies the metric's polarity to a normalized value,
// returning a score in [0,1] where higher is always better for the purpose
// of the geometric mean.
func polarityScore(normalized, raw float64, spec optionmodel.MetricSpec, b bounds) float64 {
	switch spec.Polarity {
	case optionmodel.HigherBetter:
		return normalized
	case optionmodel.LowerBetter:
		return 1 - normalized
	case optionmodel.ModerateBetter:
		return 1 - math.Abs(normalized-0.5)*2
	case optionmodel.PositiveBetter:
		scale := b.maxAbs
		if scale < FloorEpsilon {
			return 0.5
		}
		signed := raw / scale
		if signed > 1 {
			signed = 1
		}
		if signed < -1 {
			signed = -1
		}
		return 0.5 + 0.5*signed
	default:
		return normalized
	}
}

// ScoreProfile scores every candidate in pool against one profile, writing
// into dst[i] (dst must have len(pool) entries). Candidates are not mutated
// here; callers assign the result into Candidate.ProfileScores themselves.
func ScoreProfile(pool []optionmodel.Candidate, profile optionmodel.ScoringProfile, specs map[optionmodel.MetricID]optionmodel.MetricSpec, boundsByMetric map[optionmodel.MetricID]bounds, dst []float64) {
	totalWeight := profile.TotalWeight()
	for i := range pool {
		var logSum float64
		for _, mw := range profile.Weights {
			spec := specs[mw.ID]
			b := boundsByMetric[mw.ID]
			raw := Extract(&pool[i], mw.ID)
			n := normalize(raw, spec, b)
			s := polarityScore(n, raw, spec, b)
			if s < FloorEpsilon {
				s = FloorEpsilon
			}
			logSum += mw.Weight * math.Log(s)
		}
		dst[i] = math.Exp(logSum / totalWeight)
	}
}

// ScorePool runs the full C6 contract: validates profiles, computes the
// shared normalization pass, scores every candidate against every profile,
// and sets ConsensusScore to the sum of a candidate's profile scores.
func ScorePool(pool []optionmodel.Candidate, profiles []optionmodel.ScoringProfile) error {
	if err := ValidateProfiles(profiles); err != nil {
		return err
	}
	ids := referencedMetrics(profiles)
	rawBounds := computeBounds(pool, ids)

	for i := range pool {
		pool[i].ProfileScores = make([]float64, len(profiles))
	}

	scratch := make([]float64, len(pool))
	for pi, profile := range profiles {
		ScoreProfile(pool, profile, optionmodel.DefaultMetricSpecs, rawBounds, scratch)
		for i := range pool {
			pool[i].ProfileScores[pi] = scratch[i]
		}
	}

	for i := range pool {
		pool[i].ConsensusScore = consensusScore(pool[i].ProfileScores)
	}
	return nil
}

// consensusScore sums a candidate's per-profile scores into its consensus
// score (spec §4.6 Step D): an unweighted sum, not an average, so a
// candidate that places consistently well across every profile can outrank
// one that wins a single profile outright.
func consensusScore(profileScores []float64) float64 {
	var sum float64
	for _, s := range profileScores {
		sum += s
	}
	return sum
}
