// Package ingest turns the raw geometry stream of a model parser into
// normalized element records.
package ingest

import (
	"fmt"
	"sort"

	"cogentcore.org/core/math32"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/models"
)

// PropertyLookup returns the untyped property bag of an element, if any.
type PropertyLookup func(id int) (map[string]any, bool)

// Stats counts what the normalizer has seen so far.
type Stats struct {
	Elements   int `json:"elements"`
	Fragments  int `json:"fragments"`
	Degenerate int `json:"degenerate"`
	Failed     int `json:"failed"`
}

type elementState struct {
	record models.ElementRecord
	box    math32.Box3
}

// Normalizer accumulates element records across chunks. It is not safe for
// concurrent use; the pipeline feeds it from a single goroutine.
type Normalizer struct {
	log        *logger.Logger
	properties PropertyLookup
	elements   map[int]*elementState
	stats      Stats
	finalized  bool
}

// NewNormalizer creates a normalizer. properties may be nil.
func NewNormalizer(log *logger.Logger, properties PropertyLookup) *Normalizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Normalizer{
		log:        log,
		properties: properties,
		elements:   make(map[int]*elementState),
	}
}

// Ingest merges one chunk into the running element records. A failure on a
// single element is logged and counted; it never aborts the chunk.
func (n *Normalizer) Ingest(chunk models.ElementChunk) {
	if n.finalized {
		return
	}
	for _, raw := range chunk.Elements {
		if err := n.ingestElement(raw); err != nil {
			n.stats.Failed++
			n.log.Warn("skipping element", "element_id", raw.ID, "error", err)
		}
	}
}

func (n *Normalizer) ingestElement(raw models.RawElement) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while normalizing: %v", r)
		}
	}()

	st, ok := n.elements[raw.ID]
	if !ok {
		st = &elementState{
			record: models.ElementRecord{ID: raw.ID, TypeID: raw.TypeID},
			box:    math32.B3Empty(),
		}
		if n.properties != nil {
			if bag, found := n.properties(raw.ID); found {
				st.record.Hints = HintsFromProperties(bag)
			}
		}
		n.elements[raw.ID] = st
		n.stats.Elements++
	}

	for _, frag := range raw.Fragments {
		box, ok := FragmentBox(frag)
		if !ok {
			n.stats.Degenerate++
			continue
		}
		n.stats.Fragments++
		st.box.ExpandByBox(box)
		st.record.Area += FootprintArea(box)
		st.record.HasBounds = true
	}
	return nil
}

// Finalize freezes the normalizer and returns the element records ordered by id.
func (n *Normalizer) Finalize() []models.ElementRecord {
	n.finalized = true
	out := make([]models.ElementRecord, 0, len(n.elements))
	for _, st := range n.elements {
		rec := st.record
		if rec.HasBounds {
			size := st.box.Size()
			rec.BoundingSize = models.BoundingSize{
				Width:  float64(size.X) * 1000,
				Height: float64(size.Y) * 1000,
				Depth:  float64(size.Z) * 1000,
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns the running counters.
func (n *Normalizer) Stats() Stats {
	return n.stats
}

// FragmentBox returns the world-space bounding box of a fragment. The second
// result is false for degenerate fragments.
func FragmentBox(f models.Fragment) (math32.Box3, bool) {
	if f.Degenerate() {
		return math32.Box3{}, false
	}
	m, ok := Placement(f.Placement)
	if !ok {
		return math32.Box3{}, false
	}
	box := math32.B3Empty()
	for i := 0; i+2 < len(f.Vertices); i += 3 {
		p := math32.Vec4(f.Vertices[i], f.Vertices[i+1], f.Vertices[i+2], 1).MulMatrix4(&m)
		box.ExpandByPoint(math32.Vec3(p.X, p.Y, p.Z))
	}
	return box, !box.IsEmpty()
}

// Placement converts a flat column-major matrix into a math32.Matrix4. An
// empty slice yields the identity.
func Placement(values []float32) (math32.Matrix4, bool) {
	var m math32.Matrix4
	switch len(values) {
	case 0:
		m[0], m[5], m[10], m[15] = 1, 1, 1, 1
		return m, true
	case 16:
		copy(m[:], values)
		return m, true
	default:
		return m, false
	}
}

// FootprintArea approximates the area of a box in square metres as the
// product of its two largest dimensions.
func FootprintArea(box math32.Box3) float64 {
	size := box.Size()
	dims := []float64{float64(size.X), float64(size.Y), float64(size.Z)}
	sort.Sort(sort.Reverse(sort.Float64Slice(dims)))
	return dims[0] * dims[1]
}
