package pipeline

import (
	"context"
	"sync"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/metrics"
)

// Loader owns the current model session. Starting a load cancels the one in
// flight; a result that arrives after a newer load was started is dropped.
type Loader struct {
	log     *logger.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	strategy   Strategy
	generation uint64
	cancel     context.CancelFunc
	current    *Session
}

// NewLoader creates a loader using the given strategy. metrics may be nil.
func NewLoader(strategy Strategy, log *logger.Logger, m *metrics.Metrics) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{
		log:      log,
		metrics:  m,
		strategy: strategy,
	}
}

// SetStrategy switches the strategy used by subsequent loads.
func (l *Loader) SetStrategy(s Strategy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.strategy = s
}

// Strategy returns the strategy used by the next load.
func (l *Loader) Strategy() Strategy {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.strategy
}

// Current returns the active session, or nil when idle.
func (l *Loader) Current() *Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load runs the pipeline for a file. It returns (nil, nil) when the result
// was superseded by a later Load. On failure there is no current session.
func (l *Loader) Load(ctx context.Context, file File, opts Options) (*Session, error) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	strategy := l.strategy
	l.mu.Unlock()
	defer cancel()

	if opts.Log == nil {
		opts.Log = l.log
	}
	if opts.Timings == nil {
		opts.Timings = metrics.NewLoadTimings(strategy.Name())
	}

	res, err := strategy.Run(ctx, file, opts)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		l.metrics.IncrementStale()
		l.log.Debug("discarding stale load result", "file", file.Name, "generation", gen)
		return nil, nil
	}
	l.cancel = nil

	opts.Timings.Finalize()
	l.metrics.RecordTimings(opts.Timings)

	if err != nil {
		l.current = nil
		l.metrics.RecordLoad(strategy.Name(), "error")
		l.log.Warn("model load failed", "file", file.Name, "strategy", strategy.Name(), "error", err)
		return nil, classify(err, "")
	}

	sess := NewSession(file.Name, strategy.Name(), res)
	l.current = sess
	l.metrics.RecordLoad(strategy.Name(), "ok")
	l.metrics.ObserveModel(int64(len(file.Data)), len(res.Elements))
	l.log.Info("model loaded",
		"session", sess.ID,
		"file", file.Name,
		"strategy", strategy.Name(),
		"elements", len(res.Elements),
		"groups", len(res.Groups),
	)
	return sess, nil
}
