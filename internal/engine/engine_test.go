package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionstrat/engine/internal/constraints"
	"github.com/optionstrat/engine/internal/optioncache"
	"github.com/optionstrat/engine/internal/optionmodel"
)

func threeStrikeUniverse(t *testing.T) *optioncache.Cache {
	t.Helper()
	grid := optionmodel.PriceGrid{80, 90, 100, 110, 120}
	measure := optionmodel.Measure{Mixture: []float64{0.1, 0.2, 0.4, 0.2, 0.1}, AverageMix: 100}

	mk := func(strike float64, isCall bool, premium float64, pnl []float64) optionmodel.OptionRecord {
		return optionmodel.OptionRecord{
			Strike: strike, IsCall: isCall, Premium: premium,
			Delta: 0.4, AveragePnL: 0.1, PnLVector: pnl,
		}
	}

	opts := []optionmodel.OptionRecord{
		mk(90, true, 12, []float64{-12, -2, 8, 18, 28}),
		mk(100, true, 6, []float64{-6, -6, -6, 4, 14}),
		mk(110, true, 2, []float64{-2, -2, -2, -2, 8}),
	}

	cache := optioncache.New()
	require.NoError(t, cache.Initialize(opts, grid, measure, measure.AverageMix))
	return cache
}

func premiumSeekingProfile() optionmodel.ScoringProfile {
	return optionmodel.ScoringProfile{
		Name:    "low-premium",
		Weights: []optionmodel.MetricWeight{{ID: optionmodel.Premium, Weight: 1}},
	}
}

func pnlSeekingProfile() optionmodel.ScoringProfile {
	return optionmodel.ScoringProfile{
		Name:    "high-pnl",
		Weights: []optionmodel.MetricWeight{{ID: optionmodel.AveragePnL, Weight: 1}},
	}
}

func TestRunRejectsInvalidRequestSynchronously(t *testing.T) {
	cache := threeStrikeUniverse(t)
	orch := New(cache)

	_, err := orch.Run(context.Background(), Request{MaxLegs: 0, Profiles: []optionmodel.ScoringProfile{premiumSeekingProfile()}, TopR: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = orch.Run(context.Background(), Request{MaxLegs: 1, TopR: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunRejectsUninitializedCache(t *testing.T) {
	orch := New(optioncache.New())
	_, err := orch.Run(context.Background(), Request{
		MaxLegs:  1,
		Profiles: []optionmodel.ScoringProfile{premiumSeekingProfile()},
		TopR:     5,
	})
	assert.ErrorIs(t, err, ErrCacheNotInitialized)
}

func TestRunProducesRankingsAndConsensus(t *testing.T) {
	cache := threeStrikeUniverse(t)
	orch := New(cache)

	result, err := orch.Run(context.Background(), Request{
		MaxLegs:    2,
		Constraint: constraints.DefaultSet(),
		Profiles:   []optionmodel.ScoringProfile{premiumSeekingProfile(), pnlSeekingProfile()},
		TopR:       5,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RoundID)
	assert.Greater(t, result.NCandidates, 0)
	assert.Equal(t, 2, result.NWeightSets)
	assert.Contains(t, result.ProfileRankings, "low-premium")
	assert.Contains(t, result.ProfileRankings, "high-pnl")
	assert.NotEmpty(t, result.ConsensusRanking)

	for _, ranking := range result.ProfileRankings {
		for i := 1; i < len(ranking); i++ {
			assert.GreaterOrEqual(t, ranking[i-1].Score, ranking[i].Score, "ranking must be sorted descending")
			assert.Equal(t, i, ranking[i-1].Rank)
		}
	}
}

func TestRunHonorsStopBeforeCompletion(t *testing.T) {
	cache := threeStrikeUniverse(t)
	orch := New(cache)
	orch.Stop()

	_, err := orch.Run(context.Background(), Request{
		MaxLegs:  2,
		Profiles: []optionmodel.ScoringProfile{premiumSeekingProfile()},
		TopR:     5,
	})
	assert.ErrorIs(t, err, ErrCancelled)

	orch.Reset()
	assert.False(t, orch.IsStopRequested())
}

func TestRunHonorsContextCancellation(t *testing.T) {
	cache := threeStrikeUniverse(t)
	orch := New(cache)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Run(ctx, Request{
		MaxLegs:  1,
		Profiles: []optionmodel.ScoringProfile{premiumSeekingProfile()},
		TopR:     5,
	})
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestRunFiltersSelfCancellingCombinations(t *testing.T) {
	cache := threeStrikeUniverse(t)
	orch := New(cache)

	result, err := orch.Run(context.Background(), Request{
		MaxLegs:  2,
		Profiles: []optionmodel.ScoringProfile{premiumSeekingProfile()},
		TopR:     100,
	})
	require.NoError(t, err)

	for _, ranked := range result.ConsensusRanking {
		cand := ranked.Candidate
		if len(cand.Indices) != 2 {
			continue
		}
		same := cand.Strikes[0] == cand.Strikes[1] && cand.IsCalls[0] == cand.IsCalls[1] && cand.Signs[0] != cand.Signs[1]
		assert.False(t, same, "self-cancelling combination must be filtered")
	}
	assert.Greater(t, result.FilterCounters[constraints.FilterSelfCancel], int64(0))
}

// TestConsensusRankingFavorsConsistentScorerOverASingleDominantWin
// reproduces the three-profile crossover: X wins one profile outright
// (0.9) but scores only 0.1 on the other two (consensus 1.1), while Y
// scores 0.4 on every profile, second on the first and first on the other
// two (consensus 1.2). Summing per-profile scores, rather than taking a
// best-profile or average, must rank Y above X.
func TestConsensusRankingFavorsConsistentScorerOverASingleDominantWin(t *testing.T) {
	pool := []optionmodel.Candidate{
		{
			Indices: []int{0}, Strikes: []float64{100}, IsCalls: []bool{true},
			Signs: []optionmodel.Sign{optionmodel.Long}, MaxLoss: -5,
			ProfileScores: []float64{0.9, 0.1, 0.1}, ConsensusScore: 1.1,
		},
		{
			Indices: []int{1}, Strikes: []float64{110}, IsCalls: []bool{true},
			Signs: []optionmodel.Sign{optionmodel.Long}, MaxLoss: -20,
			ProfileScores: []float64{0.4, 0.4, 0.4}, ConsensusScore: 1.2,
		},
	}
	scores := []float64{pool[0].ConsensusScore, pool[1].ConsensusScore}
	ranked, _ := rankAndDedup(pool, scores, 2)

	require.Len(t, ranked, 2)
	assert.InDelta(t, 1.2, ranked[0].Score, 1e-9, "the consistent scorer must rank first on consensus")
	assert.InDelta(t, 1.1, ranked[1].Score, 1e-9)
}

func TestRunCompletesWithinReasonableTime(t *testing.T) {
	cache := threeStrikeUniverse(t)
	orch := New(cache)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := orch.Run(ctx, Request{
		MaxLegs:  3,
		Profiles: []optionmodel.ScoringProfile{premiumSeekingProfile()},
		TopR:     10,
	})
	require.NoError(t, err)
}
