// Package engine orchestrates a full evaluation round: enumerate every
// combination up to a configured leg count, aggregate, filter, score,
// select, and deduplicate, fanning work out across a worker pool with
// cooperative cancellation (spec §6, component C9).
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/optionstrat/engine/internal/aggregate"
	"github.com/optionstrat/engine/internal/constraints"
	"github.com/optionstrat/engine/internal/dedup"
	"github.com/optionstrat/engine/internal/enumerate"
	"github.com/optionstrat/engine/internal/metrics"
	"github.com/optionstrat/engine/internal/optioncache"
	"github.com/optionstrat/engine/internal/optionmodel"
	"github.com/optionstrat/engine/internal/roundcache"
	"github.com/optionstrat/engine/internal/scoring"
	"github.com/optionstrat/engine/internal/selector"
)

// ErrCancelled is returned when a round is stopped via Stop before it
// completes. It is only ever surfaced at the orchestrator boundary, never
// from within a worker.
var ErrCancelled = errors.New("engine: round cancelled")

// ErrCacheNotInitialized is returned when a round is requested before the
// option cache has ever been initialized.
var ErrCacheNotInitialized = errors.New("engine: option cache not initialized")

// ErrInvalidInput is returned when round parameters are nonsensical
// (e.g. a non-positive leg count, an empty profile list).
var ErrInvalidInput = errors.New("engine: invalid input")

// chunkSize is the number of tasks dispatched to a worker in one unit,
// balancing goroutine handoff overhead against load-balancing granularity.
const chunkSize = 64

// Request parameterizes one round.
type Request struct {
	MaxLegs    int
	Constraint constraints.Set
	Profiles   []optionmodel.ScoringProfile
	TopR       int
	Workers    int
}

// RankedCandidate pairs a selected candidate with its rank and score within
// one profile's ranking.
type RankedCandidate struct {
	Candidate optionmodel.Candidate
	Score     float64
	Rank      int
}

// Result is the full output of one round: a ranking per profile, a
// consensus ranking, and the supplemented round summary (spec §9).
type Result struct {
	RoundID          string
	ProfileRankings  map[string][]RankedCandidate
	ConsensusRanking []RankedCandidate

	NCandidates     int
	NWeightSets     int
	FilterCounters  constraints.Counters
	PerLegSurvivors map[int]int
	Duration        time.Duration

	// Cached reports whether this Result was served from the round cache
	// rather than recomputed.
	Cached bool
}

// Orchestrator drives rounds against a shared option cache. Safe for
// concurrent use by multiple callers; the stop flag is shared, so
// concurrent rounds observe each other's cancellation.
type Orchestrator struct {
	cache   *optioncache.Cache
	stop    int32
	metrics *metrics.Registry
	rounds  *roundcache.Cache
}

// New returns an Orchestrator reading from cache.
func New(cache *optioncache.Cache) *Orchestrator {
	return &Orchestrator{cache: cache, rounds: roundcache.New(nil, 0)}
}

// WithMetrics attaches a metrics registry that Run reports filter counters
// and round/leg durations into. Passing nil leaves instrumentation
// disabled.
func (o *Orchestrator) WithMetrics(reg *metrics.Registry) *Orchestrator {
	o.metrics = reg
	return o
}

// WithRoundCache attaches a round-result memoization layer. Passing nil (or
// never calling this) leaves every round uncached — correctness is
// unaffected either way.
func (o *Orchestrator) WithRoundCache(c *roundcache.Cache) *Orchestrator {
	o.rounds = c
	return o
}

// Stop requests cancellation of any in-flight or future round until Reset
// is called.
func (o *Orchestrator) Stop() { atomic.StoreInt32(&o.stop, 1) }

// Reset clears a prior Stop request.
func (o *Orchestrator) Reset() { atomic.StoreInt32(&o.stop, 0) }

// IsStopRequested reports whether Stop has been called since the last
// Reset.
func (o *Orchestrator) IsStopRequested() bool { return atomic.LoadInt32(&o.stop) != 0 }

// Run executes one round synchronously, respecting ctx cancellation and any
// prior Stop() call. It validates req and cache state before launching any
// goroutine, so InvalidInput/CacheNotInitialized are always synchronous.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	roundID := uuid.NewString()

	if req.MaxLegs <= 0 {
		return nil, fmt.Errorf("%w: max_legs must be positive", ErrInvalidInput)
	}
	if len(req.Profiles) == 0 {
		return nil, fmt.Errorf("%w: at least one scoring profile is required", ErrInvalidInput)
	}
	if req.TopR <= 0 {
		return nil, fmt.Errorf("%w: top_r must be positive", ErrInvalidInput)
	}
	if err := scoring.ValidateProfiles(req.Profiles); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !o.cache.Ready() {
		return nil, ErrCacheNotInitialized
	}
	gen := o.cache.Current()

	cacheKey, err := roundcache.Key(fmt.Sprintf("gen:%d", gen.Version), req)
	if err == nil {
		var cached Result
		if hit, _ := o.rounds.Get(ctx, cacheKey, &cached); hit {
			cached.Cached = true
			log.Debug().Str("round_id", cached.RoundID).Msg("round served from cache")
			return &cached, nil
		}
	}

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var pool []optionmodel.Candidate
	var filterCounters constraints.Counters
	perLeg := make(map[int]int)

	for legs := 1; legs <= req.MaxLegs; legs++ {
		if o.IsStopRequested() || ctx.Err() != nil {
			return nil, ErrCancelled
		}
		legStart := time.Now()
		survivors, counters, err := o.evaluateLegCount(ctx, gen, legs, req.Constraint, workers)
		if err != nil {
			return nil, err
		}
		if o.metrics != nil {
			o.metrics.LegDuration.WithLabelValues(fmt.Sprintf("%d", legs)).Observe(time.Since(legStart).Seconds())
		}
		filterCounters.Merge(counters)
		perLeg[legs] = len(survivors)
		pool = append(pool, survivors...)
	}

	if o.IsStopRequested() || ctx.Err() != nil {
		return nil, ErrCancelled
	}

	if err := scoring.ScorePool(pool, req.Profiles); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var duplicates int64
	profileRankings := make(map[string][]RankedCandidate, len(req.Profiles))
	for pi, profile := range req.Profiles {
		scores := make([]float64, len(pool))
		for i := range pool {
			scores[i] = pool[i].ProfileScores[pi]
		}
		ranked, dups := rankAndDedup(pool, scores, req.TopR)
		duplicates += int64(dups)
		profileRankings[profile.Name] = ranked
	}

	consensusScores := make([]float64, len(pool))
	for i := range pool {
		consensusScores[i] = pool[i].ConsensusScore
	}
	consensusRanking, dups := rankAndDedup(pool, consensusScores, req.TopR)
	duplicates += int64(dups)

	duration := time.Since(start)
	log.Info().Str("round_id", roundID).Int("n_candidates", len(pool)).
		Dur("duration", duration).Msg("round complete")

	if o.metrics != nil {
		var generated int64
		for _, n := range filterCounters {
			generated += n
		}
		generated += int64(len(pool))
		o.metrics.CandidatesGenerated.Add(float64(generated))
		o.metrics.RecordFilterCounters(filterCounters)
		o.metrics.CandidatesDeduped.Add(float64(duplicates))
		o.metrics.CandidatesSelected.Add(float64(len(consensusRanking)))
		o.metrics.RoundDuration.Observe(duration.Seconds())
	}

	result := &Result{
		RoundID:          roundID,
		ProfileRankings:  profileRankings,
		ConsensusRanking: consensusRanking,
		NCandidates:      len(pool),
		NWeightSets:      len(req.Profiles),
		FilterCounters:   filterCounters,
		PerLegSurvivors:  perLeg,
		Duration:         duration,
	}

	if err == nil {
		o.rounds.Put(ctx, cacheKey, result)
	}

	return result, nil
}

// rankAndDedup selects the top candidates by scores, then drops
// payoff-equivalent duplicates while walking the ranking in score order,
// stopping once r unique representatives are kept.
func rankAndDedup(pool []optionmodel.Candidate, scores []float64, r int) ([]RankedCandidate, int) {
	// Over-select before deduplication: some selected candidates may turn
	// out payoff-equivalent, so the pre-dedup pass takes a wider slice of
	// the pool than the final r requires.
	wide := r * 4
	if wide > len(pool) || wide <= 0 {
		wide = len(pool)
	}
	top := selector.TopR(scores, wide)
	order := make([]int, len(top))
	for i, t := range top {
		order[i] = t.Index
	}

	kept, duplicates := dedup.Filter(pool, order, r)

	out := make([]RankedCandidate, len(kept))
	scoreByIndex := make(map[int]float64, len(top))
	for _, t := range top {
		scoreByIndex[t.Index] = t.Score
	}
	for i, idx := range kept {
		out[i] = RankedCandidate{
			Candidate: pool[idx],
			Score:     scoreByIndex[idx],
			Rank:      i + 1,
		}
	}
	return out, duplicates
}

// evaluateLegCount enumerates every task for one leg count, fans the work
// across workers goroutines in chunks; each worker merges its thread-local
// buffer under a mutex as it finishes, and the merged pool is returned once
// all workers are done.
func (o *Orchestrator) evaluateLegCount(parentCtx context.Context, gen *optioncache.Generation, legs int, cset constraints.Set, workers int) ([]optionmodel.Candidate, constraints.Counters, error) {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if o.IsStopRequested() {
					cancel()
					return
				}
			}
		}
	}()

	var allTasks []enumerate.Task
	enumerate.Tasks(gen.N, legs, func(t enumerate.Task) bool {
		allTasks = append(allTasks, t)
		return true
	})

	type chunk struct {
		tasks []enumerate.Task
	}
	chunks := make(chan chunk)

	go func() {
		defer close(chunks)
		for i := 0; i < len(allTasks); i += chunkSize {
			end := i + chunkSize
			if end > len(allTasks) {
				end = len(allTasks)
			}
			select {
			case chunks <- chunk{tasks: allTasks[i:end]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		mu      sync.Mutex
		merged  []optionmodel.Candidate
		total   constraints.Counters
		wg      sync.WaitGroup
		aborted int32
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := aggregate.NewScratch(gen.M)
			var local []optionmodel.Candidate
			var localCounters constraints.Counters

			for c := range chunks {
				if o.IsStopRequested() || ctx.Err() != nil {
					atomic.StoreInt32(&aborted, 1)
					break
				}
				for _, task := range c.tasks {
					cand := aggregate.Aggregate(gen, task, scratch)
					res := constraints.Evaluate(&cand, cset, gen.Grid, &localCounters)
					if res.Pass {
						local = append(local, cand)
					}
				}
			}

			mu.Lock()
			merged = append(merged, local...)
			total.Merge(localCounters)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&aborted) != 0 || o.IsStopRequested() || ctx.Err() != nil {
		return nil, constraints.Counters{}, ErrCancelled
	}
	return merged, total, nil
}
