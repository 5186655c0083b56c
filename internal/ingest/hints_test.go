package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHintsFromProperties(t *testing.T) {
	tests := []struct {
		name string
		bag  map[string]any
	}{
		{
			name: "empty bag",
			bag:  nil,
		},
		{
			name: "unrelated properties only",
			bag:  map[string]any{"GlobalId": "3x9", "Name": "Wall"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, HintsFromProperties(tt.bag))
		})
	}
}

func TestHintsFromPropertiesUnwrapsValues(t *testing.T) {
	h := HintsFromProperties(map[string]any{
		"ObjectType": "Basic Wall:200mm",
		"Pset_WallCommon": map[string]any{
			"LoadBearing": map[string]any{"type": 3, "value": "F"},
			"FireRating":  map[string]any{"value": "EI60"},
			"FinishType":  " plaster ",
		},
	})
	require.NotNil(t, h)
	require.NotNil(t, h.LoadBearing)
	assert.False(t, *h.LoadBearing)
	assert.Nil(t, h.IsExternal)
	assert.Equal(t, "EI60", h.FireRating)
	assert.Equal(t, "plaster", h.FinishType)
	assert.Equal(t, "Basic Wall:200mm", h.ObjectType)
}

func TestHintsFromPropertiesOuterLevelWins(t *testing.T) {
	h := HintsFromProperties(map[string]any{
		"Reference": "outer",
		"Pset":      map[string]any{"Reference": "inner"},
	})
	require.NotNil(t, h)
	assert.Equal(t, "outer", h.Reference)
}

func TestToBool(t *testing.T) {
	for in, want := range map[any]bool{true: true, ".T.": true, "false": false, 1.0: true, 0: false} {
		got, ok := toBool(in)
		assert.True(t, ok, "%v", in)
		assert.Equal(t, want, got, "%v", in)
	}
	_, ok := toBool("maybe")
	assert.False(t, ok)
}
