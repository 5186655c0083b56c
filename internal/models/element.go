package models

// NoGroupingType is the type id a scene pick carries when the picked element
// should be selected on its own rather than together with its type.
const NoGroupingType = 0

// Fragment is one piece of placed geometry as delivered by the model parser.
// Vertices and Normals are flat xyz triples in local space; Placement is a
// column-major 4x4 matrix.
type Fragment struct {
	Vertices  []float32  `json:"vertices"`
	Normals   []float32  `json:"normals,omitempty"`
	Indices   []uint32   `json:"indices"`
	Placement []float32  `json:"placement,omitempty"`
	Color     [4]float32 `json:"color"`
}

// Degenerate reports whether the fragment carries no usable geometry.
func (f Fragment) Degenerate() bool {
	return len(f.Vertices) < 3 || len(f.Indices) == 0
}

// RawElement is one element of a parser chunk with all fragments seen for it
// in that chunk. The same element id may appear again in a later chunk.
type RawElement struct {
	ID        int        `json:"id"`
	TypeID    int        `json:"type"`
	Fragments []Fragment `json:"fragments"`
}

// ElementChunk is a bounded batch of raw elements.
type ElementChunk struct {
	Elements []RawElement
}

// BoundingSize holds world-space bounding dimensions in millimetres.
type BoundingSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// SemanticHints is the fixed, sparse set of attributes used to build a
// human-readable spec string.
type SemanticHints struct {
	IsExternal  *bool  `json:"isExternal,omitempty"`
	LoadBearing *bool  `json:"loadBearing,omitempty"`
	FireRating  string `json:"fireRating,omitempty"`
	Reference   string `json:"reference,omitempty"`
	FinishType  string `json:"finishType,omitempty"`
	ObjectType  string `json:"objectType,omitempty"`
}

// Empty reports whether no attribute is set.
func (h *SemanticHints) Empty() bool {
	return h == nil || (h.IsExternal == nil && h.LoadBearing == nil && h.FireRating == "" &&
		h.Reference == "" && h.FinishType == "" && h.ObjectType == "")
}

// ElementRecord is the normalized, per-element result of the load pass.
type ElementRecord struct {
	ID           int            `json:"id"`
	TypeID       int            `json:"typeId"`
	BoundingSize BoundingSize   `json:"boundingSize"`
	Area         float64        `json:"area"`
	HasBounds    bool           `json:"hasBounds"`
	Hints        *SemanticHints `json:"hints,omitempty"`
}
