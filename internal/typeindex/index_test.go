package typeindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"takeoff-service/internal/models"
)

func TestLookup(t *testing.T) {
	ix := Build([]models.ElementRecord{
		{ID: 1, TypeID: 10},
		{ID: 2, TypeID: 10},
		{ID: 3, TypeID: 20},
	})
	assert.Equal(t, []int{1, 2}, ix.Lookup(10))
	assert.Equal(t, []int{3}, ix.Lookup(20))
	assert.Equal(t, []int{10, 20}, ix.Types())

	// returned slices are copies
	got := ix.Lookup(10)
	got[0] = 99
	assert.Equal(t, []int{1, 2}, ix.Lookup(10))
}

func TestLookupIsTotal(t *testing.T) {
	var zero Index
	for _, ix := range []Index{zero, Build(nil)} {
		for _, typeID := range []int{0, -1, 42} {
			got := ix.Lookup(typeID)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		}
	}
}
