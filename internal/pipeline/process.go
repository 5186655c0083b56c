// Package pipeline runs the model ingestion pipeline behind interchangeable
// execution strategies and owns the resulting model session.
package pipeline

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"takeoff-service/internal/ingest"
	"takeoff-service/internal/logger"
	"takeoff-service/internal/metrics"
	"takeoff-service/internal/models"
	"takeoff-service/internal/render"
	"takeoff-service/internal/spatial"
	"takeoff-service/internal/takeoff"
	"takeoff-service/internal/typeindex"
)

// Source is a parsed model delivered as a stream of element chunks plus its
// object graph.
type Source interface {
	// Next returns the next chunk, or io.EOF once all elements were delivered.
	Next(ctx context.Context) (models.ElementChunk, error)
	Relations() models.Relations
	Lookup(id int) (name string, typeID int, ok bool)
	Properties(id int) (map[string]any, bool)
	Close() error
}

// Options tune a single pipeline run.
type Options struct {
	// Progress is called after every chunk with the number of raw elements
	// consumed so far. It runs on the goroutine executing the pipeline.
	Progress func(elements int)
	Log      *logger.Logger
	Timings  *metrics.LoadTimings
}

func (o Options) logger() *logger.Logger {
	if o.Log == nil {
		return logger.NewNop()
	}
	return o.Log
}

// Result holds everything derived from one model.
type Result struct {
	Elements  []models.ElementRecord
	Groups    []models.MaterialGroup
	Index     typeindex.Index
	Tree      *models.SpatialNode
	Storeys   []models.FlatNode
	Units     []render.Unit
	MeshCount int
	Stats     ingest.Stats
}

// Process is the pipeline core. Element chunks are normalized while the
// spatial hierarchy is built concurrently; the type index and the takeoff
// are derived once every chunk was ingested.
func Process(ctx context.Context, src Source, opts Options) (*Result, error) {
	log := opts.logger()
	res := &Result{}
	norm := ingest.NewNormalizer(log, src.Properties)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		opts.Timings.Start("hierarchy")
		defer opts.Timings.End("hierarchy")
		rel := src.Relations()
		res.Tree = spatial.Build(rel.Aggregates, rel.Containments, rel.RootID, src)
		if res.Tree == nil {
			log.Warn("model has no spatial structure", "root", rel.RootID)
			return nil
		}
		res.Storeys = spatial.Storeys(res.Tree)
		return gctx.Err()
	})

	g.Go(func() error {
		opts.Timings.Start("normalize")
		defer opts.Timings.End("normalize")
		consumed := 0
		for {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunk, err := src.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return errors.Wrap(err, "read element chunk")
			}
			norm.Ingest(chunk)
			for _, raw := range chunk.Elements {
				res.Units = append(res.Units, render.Units(raw)...)
			}
			consumed += len(chunk.Elements)
			if opts.Progress != nil {
				opts.Progress(consumed)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts.Timings.Start("aggregate")
	res.Elements = norm.Finalize()
	res.Stats = norm.Stats()
	res.Index = typeindex.Build(res.Elements)
	res.Groups = takeoff.Aggregate(res.Elements)
	res.MeshCount = len(res.Units)
	opts.Timings.End("aggregate")

	log.Debug("pipeline finished",
		"elements", len(res.Elements),
		"groups", len(res.Groups),
		"meshes", res.MeshCount,
		"degenerate", res.Stats.Degenerate,
		"failed", res.Stats.Failed,
	)
	return res, nil
}
