package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff-service/internal/models"
)

func TestUnitsTransformsToWorldSpace(t *testing.T) {
	raw := models.RawElement{ID: 3, TypeID: 7, Fragments: []models.Fragment{
		{
			Vertices:  []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Normals:   []float32{0, 0, 2, 0, 0, 2, 0, 0, 2},
			Indices:   []uint32{0, 1, 2},
			Placement: []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 0, 0, 1},
			Color:     [4]float32{1, 0, 0, 1},
		},
		{Vertices: nil, Indices: []uint32{0}},
	}}

	units := Units(raw)
	require.Len(t, units, 1)
	u := units[0]
	assert.Equal(t, 3, u.ElementID)
	assert.Equal(t, 7, u.TypeID)
	assert.Equal(t, []float32{5, 0, 0, 6, 0, 0, 5, 1, 0}, u.Vertices)
	// normals ignore translation and come back unit length
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, u.Normals)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, u.Color)
}

func TestMemoryScene(t *testing.T) {
	s := NewMemoryScene()
	s.AddRenderable(Unit{ElementID: 1})
	s.SetHighlight(1, LevelSecondary, false)
	s.SetVisible(1, false)

	st, ok := s.Element(1)
	require.True(t, ok)
	assert.Equal(t, ElementState{Visible: false, Level: LevelSecondary, Units: 1}, st)
	assert.Equal(t, 3, s.Commands())
	assert.Equal(t, "secondary", LevelSecondary.String())
}
