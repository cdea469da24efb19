// Package optioncache holds the immutable per-option inputs and the price
// grid / measure for the current evaluation round (spec §4.1, component C1).
package optioncache

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/optionstrat/engine/internal/optionmodel"
)

// ErrInvalidInput is returned when init arguments disagree on length or
// contain non-finite values the engine cannot reason about.
var ErrInvalidInput = errors.New("optioncache: invalid input")

// Generation is an immutable snapshot of one round's option universe: the
// per-option records, the shared price grid, and the mixture measure. It is
// written once by Cache.Initialize and never mutated afterward — safe to
// share across worker goroutines without locking.
type Generation struct {
	Options []optionmodel.OptionRecord
	Grid    optionmodel.PriceGrid
	Measure optionmodel.Measure
	N       int
	M       int

	// Version increments on every successful Initialize call, letting callers (e.g.
	// internal/roundcache) key a memoized result to the exact universe a
	// round ran against without hashing the full option slice.
	Version int64
}

// Cache holds the current Generation and atomically replaces it on
// Initialize. Reads never block a concurrent Initialize for longer than it
// takes to swap a pointer.
type Cache struct {
	mu      sync.RWMutex
	gen     *Generation
	version int64
}

// New returns an empty, uninitialized cache.
func New() *Cache {
	return &Cache{}
}

// Initialize replaces the cache's contents atomically. All per-option slices
// must have length N; grid and measure must have length M; every option's
// PnLVector must also have length M. Non-finite grid or measure values are
// rejected outright — a degenerate cache can never produce valid candidates.
func (c *Cache) Initialize(options []optionmodel.OptionRecord, grid optionmodel.PriceGrid, measure optionmodel.Measure, averageMix float64) error {
	n := len(options)
	m := len(grid)

	if m == 0 {
		return fmt.Errorf("%w: empty price grid", ErrInvalidInput)
	}
	if len(measure.Mixture) != m {
		return fmt.Errorf("%w: measure length %d != grid length %d", ErrInvalidInput, len(measure.Mixture), m)
	}
	for i := 1; i < m; i++ {
		if !(grid[i] > grid[i-1]) {
			return fmt.Errorf("%w: grid is not strictly increasing at index %d", ErrInvalidInput, i)
		}
	}
	for i, g := range grid {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return fmt.Errorf("%w: non-finite grid value at index %d", ErrInvalidInput, i)
		}
	}
	for i, mv := range measure.Mixture {
		if math.IsNaN(mv) || math.IsInf(mv, 0) || mv < 0 {
			return fmt.Errorf("%w: invalid measure value at index %d", ErrInvalidInput, i)
		}
	}
	for i, opt := range options {
		if len(opt.PnLVector) != m {
			return fmt.Errorf("%w: option %d pnl_vector length %d != grid length %d", ErrInvalidInput, i, len(opt.PnLVector), m)
		}
	}

	c.mu.Lock()
	c.version++
	gen := &Generation{
		Options: options,
		Grid:    grid,
		Measure: optionmodel.Measure{Mixture: measure.Mixture, AverageMix: averageMix},
		N:       n,
		M:       m,
		Version: c.version,
	}
	c.gen = gen
	c.mu.Unlock()
	return nil
}

// Current returns the active generation, or nil if Initialize has never
// been called. Callers must not mutate the returned value.
func (c *Cache) Current() *Generation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Ready reports whether the cache has been initialized at least once.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen != nil
}
