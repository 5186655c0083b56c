package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"takeoff-service/internal/render"
	"takeoff-service/internal/selection"
)

// DefaultMaterializeChunk is the number of units pushed to a scene between
// cancellation checks.
const DefaultMaterializeChunk = 512

// Session is one loaded model together with its selection state.
type Session struct {
	ID        string
	FileName  string
	Strategy  string
	CreatedAt time.Time
	Result    *Result
	Selection *selection.Coordinator
}

// NewSession wraps a pipeline result.
func NewSession(fileName, strategy string, res *Result) *Session {
	return &Session{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Strategy:  strategy,
		CreatedAt: time.Now(),
		Result:    res,
		Selection: selection.NewCoordinator(selection.Model{
			Elements: res.Elements,
			Groups:   res.Groups,
			Index:    res.Index,
			Tree:     res.Tree,
		}),
	}
}

// Materialize hands every renderable unit to the scene in chunks and then
// attaches the selection coordinator, which pushes the initial visibility
// and highlight state.
func (s *Session) Materialize(ctx context.Context, scene render.Scene, chunk int) error {
	if chunk <= 0 {
		chunk = DefaultMaterializeChunk
	}
	units := s.Result.Units
	for start := 0; start < len(units); start += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + chunk
		if end > len(units) {
			end = len(units)
		}
		for _, u := range units[start:end] {
			scene.AddRenderable(u)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Selection.Attach(scene)
	return nil
}
