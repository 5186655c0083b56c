package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/metrics"
	"takeoff-service/internal/parser"
)

// gatedStrategy blocks loads of "slow" until their context is cancelled.
type gatedStrategy struct {
	started chan struct{}
}

func (s *gatedStrategy) Name() string { return "gated" }

func (s *gatedStrategy) Run(ctx context.Context, file File, _ Options) (*Result, error) {
	switch file.Name {
	case "slow":
		close(s.started)
		<-ctx.Done()
		return nil, ctx.Err()
	case "broken":
		return nil, errors.New("boom")
	default:
		return &Result{MeshCount: 1}, nil
	}
}

type loadOutcome struct {
	sess *Session
	err  error
}

func TestLoaderDropsStaleResult(t *testing.T) {
	strategy := &gatedStrategy{started: make(chan struct{})}
	l := NewLoader(strategy, logger.NewNop(), metrics.New(prometheus.NewRegistry()))

	first := make(chan loadOutcome, 1)
	go func() {
		sess, err := l.Load(context.Background(), File{Name: "slow"}, Options{})
		first <- loadOutcome{sess, err}
	}()
	<-strategy.started

	sess, err := l.Load(context.Background(), File{Name: "fast"}, Options{})
	require.NoError(t, err)
	require.NotNil(t, sess)

	out := <-first
	assert.NoError(t, out.err)
	assert.Nil(t, out.sess)
	assert.Same(t, sess, l.Current())
}

func TestLoaderFailureClearsSession(t *testing.T) {
	l := NewLoader(&gatedStrategy{started: make(chan struct{})}, nil, nil)

	sess, err := l.Load(context.Background(), File{Name: "ok"}, Options{})
	require.NoError(t, err)
	require.NotNil(t, l.Current())
	assert.Equal(t, "gated", sess.Strategy)

	_, err = l.Load(context.Background(), File{Name: "broken"}, Options{})
	require.Error(t, err)
	assert.Equal(t, KindFailed, KindOf(err))
	assert.Nil(t, l.Current())
}

func TestLoaderSwitchStrategy(t *testing.T) {
	parsers := parser.NewRegistry(0)
	l := NewLoader(&LocalStrategy{Parsers: parsers, MaxBytes: 16}, nil, nil)

	_, err := l.Load(context.Background(), sampleFile(t, "model.json"), Options{})
	var le *LoadError
	require.ErrorAs(t, err, &le)
	require.Equal(t, KindSizeLimit, le.Kind)
	assert.Equal(t, StrategyWorker, le.Suggest)

	l.SetStrategy(NewWorkerStrategy(parsers, 64, 1, 0))
	sess, err := l.Load(context.Background(), sampleFile(t, "model.json"), Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategyWorker, sess.Strategy)
	assert.Len(t, sess.Result.Elements, 3)
}
