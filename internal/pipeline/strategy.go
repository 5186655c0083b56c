package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"takeoff-service/internal/parser"
)

// Strategy names as reported in metrics and size-limit suggestions.
const (
	StrategyLocal  = "local"
	StrategyWorker = "worker"
	StrategyRemote = "remote"
)

// File is one uploaded model file.
type File struct {
	Name string
	Data []byte
}

// Strategy decides where the pipeline core runs.
type Strategy interface {
	Name() string
	Run(ctx context.Context, file File, opts Options) (*Result, error)
}

// LocalStrategy runs the pipeline in-process. Run blocks until the result is
// ready; no separate result message is involved.
type LocalStrategy struct {
	Parsers   *parser.Registry
	ChunkSize int
	// MaxBytes rejects larger files with a size-limit error; zero disables it.
	MaxBytes int64
}

func (s *LocalStrategy) Name() string { return StrategyLocal }

func (s *LocalStrategy) Run(ctx context.Context, file File, opts Options) (*Result, error) {
	return run(ctx, s.Parsers, s.ChunkSize, s.MaxBytes, StrategyWorker, file, opts)
}

func run(ctx context.Context, parsers *parser.Registry, chunkSize int, maxBytes int64, suggest string, file File, opts Options) (*Result, error) {
	if maxBytes > 0 && int64(len(file.Data)) > maxBytes {
		return nil, sizeLimit(int64(len(file.Data)), maxBytes, suggest)
	}
	if !parsers.Supports(file.Name) {
		return nil, &LoadError{Kind: KindUnsupported, Err: fmt.Errorf("%w: %q", parser.ErrUnsupported, file.Name)}
	}

	opts.Timings.Start("parse")
	src, err := parsers.Open(ctx, file.Name, file.Data)
	opts.Timings.End("parse")
	if err != nil {
		return nil, classify(err, suggest)
	}
	defer src.Close()
	src.SetChunkSize(chunkSize)

	res, err := Process(ctx, src, opts)
	if err != nil {
		return nil, classify(err, suggest)
	}
	return res, nil
}

// WorkerStrategy runs the pipeline on a separate goroutine and receives the
// whole result as one message. At most Workers loads run at once.
type WorkerStrategy struct {
	parsers   *parser.Registry
	chunkSize int
	maxBytes  int64
	sem       *semaphore.Weighted
}

type message struct {
	result *Result
	err    error
}

// NewWorkerStrategy creates a worker strategy with the given number of slots.
func NewWorkerStrategy(parsers *parser.Registry, chunkSize, workers int, maxBytes int64) *WorkerStrategy {
	if workers < 1 {
		workers = 1
	}
	return &WorkerStrategy{
		parsers:   parsers,
		chunkSize: chunkSize,
		maxBytes:  maxBytes,
		sem:       semaphore.NewWeighted(int64(workers)),
	}
}

func (s *WorkerStrategy) Name() string { return StrategyWorker }

func (s *WorkerStrategy) Run(ctx context.Context, file File, opts Options) (*Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	out := make(chan message, 1)
	go func() {
		defer s.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				out <- message{err: &LoadError{Kind: KindFailed, Err: fmt.Errorf("worker panic: %v", r)}}
			}
		}()
		res, err := run(ctx, s.parsers, s.chunkSize, s.maxBytes, StrategyRemote, file, opts)
		out <- message{result: res, err: err}
	}()

	select {
	case msg := <-out:
		return msg.result, msg.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
