// Package typeindex maps element types to the elements of that type.
package typeindex

import (
	"sort"

	"takeoff-service/internal/models"
)

// Index is immutable once built.
type Index struct {
	byType map[int][]int
}

// Build indexes the elements by type id, keeping element order.
func Build(elements []models.ElementRecord) Index {
	byType := make(map[int][]int)
	for _, el := range elements {
		byType[el.TypeID] = append(byType[el.TypeID], el.ID)
	}
	return Index{byType: byType}
}

// Lookup returns the element ids of a type. It never returns nil.
func (ix Index) Lookup(typeID int) []int {
	ids, ok := ix.byType[typeID]
	if !ok {
		return []int{}
	}
	return append([]int(nil), ids...)
}

// Types returns the indexed type ids in ascending order.
func (ix Index) Types() []int {
	out := make([]int, 0, len(ix.byType))
	for t := range ix.byType {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of indexed types.
func (ix Index) Len() int {
	return len(ix.byType)
}
