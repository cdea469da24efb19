// Package applog wires zerolog logging and a rate-limited progress
// reporter shared across the engine's packages.
package applog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// New returns a zerolog.Logger writing to w (or a colorized console writer
// over os.Stdout if w is nil and pretty is true).
func New(w io.Writer, pretty bool) zerolog.Logger {
	if w == nil {
		if pretty {
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		} else {
			w = os.Stdout
		}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// ProgressFunc receives a monotonically increasing completed/total pair.
type ProgressFunc func(completed, total int64)

// Reporter throttles progress callbacks so a hot enumeration loop calling
// Report on every task does not itself become the bottleneck.
type Reporter struct {
	limiter *rate.Limiter
	log     zerolog.Logger
	onTick  ProgressFunc
}

// NewReporter returns a Reporter that forwards to onTick (if non-nil) and
// logs at most once per interval.
func NewReporter(log zerolog.Logger, interval time.Duration, onTick ProgressFunc) *Reporter {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Reporter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		log:     log,
		onTick:  onTick,
	}
}

// Report emits a progress update if the rate limiter currently allows it;
// otherwise it is a no-op. The final call for a round should bypass the
// limiter via ReportFinal.
func (r *Reporter) Report(completed, total int64) {
	if !r.limiter.Allow() {
		return
	}
	r.emit(completed, total)
}

// ReportFinal always emits, regardless of the rate limiter, so the last
// progress update a caller sees reflects the true final state.
func (r *Reporter) ReportFinal(completed, total int64) {
	r.emit(completed, total)
}

func (r *Reporter) emit(completed, total int64) {
	r.log.Debug().Int64("completed", completed).Int64("total", total).Msg("round progress")
	if r.onTick != nil {
		r.onTick(completed, total)
	}
}
