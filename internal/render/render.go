// Package render defines the boundary to the rendering engine and turns
// parser fragments into world-space renderable units.
package render

import (
	"math"

	"cogentcore.org/core/math32"

	"takeoff-service/internal/ingest"
	"takeoff-service/internal/models"
)

// Level is the highlight level of an element.
type Level int

const (
	LevelNone Level = iota
	LevelPrimary
	LevelSecondary
)

func (l Level) String() string {
	switch l {
	case LevelPrimary:
		return "primary"
	case LevelSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// Unit is one renderable piece of geometry in world space.
type Unit struct {
	ElementID int        `json:"elementId"`
	TypeID    int        `json:"typeId"`
	Vertices  []float32  `json:"vertices"`
	Normals   []float32  `json:"normals,omitempty"`
	Indices   []uint32   `json:"indices"`
	Color     [4]float32 `json:"color"`
}

// Scene is implemented by the rendering engine.
type Scene interface {
	AddRenderable(u Unit)
	SetVisible(elementID int, visible bool)
	SetHighlight(elementID int, level Level, xray bool)
}

// Units materializes the non-degenerate fragments of an element.
func Units(raw models.RawElement) []Unit {
	var out []Unit
	for _, f := range raw.Fragments {
		if f.Degenerate() {
			continue
		}
		m, ok := ingest.Placement(f.Placement)
		if !ok {
			continue
		}
		u := Unit{
			ElementID: raw.ID,
			TypeID:    raw.TypeID,
			Vertices:  make([]float32, 0, len(f.Vertices)),
			Indices:   append([]uint32(nil), f.Indices...),
			Color:     f.Color,
		}
		for i := 0; i+2 < len(f.Vertices); i += 3 {
			p := math32.Vec4(f.Vertices[i], f.Vertices[i+1], f.Vertices[i+2], 1).MulMatrix4(&m)
			u.Vertices = append(u.Vertices, p.X, p.Y, p.Z)
		}
		if len(f.Normals) == len(f.Vertices) {
			u.Normals = make([]float32, 0, len(f.Normals))
			for i := 0; i+2 < len(f.Normals); i += 3 {
				n := math32.Vec4(f.Normals[i], f.Normals[i+1], f.Normals[i+2], 0).MulMatrix4(&m)
				l := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z)))
				if l > 0 {
					n.X, n.Y, n.Z = n.X/l, n.Y/l, n.Z/l
				}
				u.Normals = append(u.Normals, n.X, n.Y, n.Z)
			}
		}
		out = append(out, u)
	}
	return out
}
