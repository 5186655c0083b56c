// Package spatial reconstructs the containment hierarchy of a model.
package spatial

import (
	"fmt"

	"takeoff-service/internal/models"
)

// ObjectGraph resolves the name and type of an object id.
type ObjectGraph interface {
	Lookup(id int) (name string, typeID int, ok bool)
}

type builder struct {
	children map[int][]int
	elements map[int][]int
	graph    ObjectGraph
	visited  map[int]bool
	claimed  map[int]bool
}

// Build materializes the spatial tree rooted at rootID. It returns nil when
// the model has no resolvable root; that is not an error.
func Build(aggregates, containments []models.Relation, rootID int, graph ObjectGraph) *models.SpatialNode {
	if rootID == 0 {
		return nil
	}
	b := &builder{
		children: make(map[int][]int),
		elements: make(map[int][]int),
		graph:    graph,
		visited:  make(map[int]bool),
		claimed:  make(map[int]bool),
	}
	for _, rel := range aggregates {
		b.children[rel.Parent] = append(b.children[rel.Parent], rel.Children...)
	}
	for _, rel := range containments {
		b.elements[rel.Parent] = append(b.elements[rel.Parent], rel.Children...)
	}

	_, known := b.children[rootID]
	if !known {
		_, known = b.elements[rootID]
	}
	if !known && graph != nil {
		_, _, known = graph.Lookup(rootID)
	}
	if !known {
		return nil
	}
	return b.node(rootID)
}

func (b *builder) node(id int) *models.SpatialNode {
	b.visited[id] = true

	n := &models.SpatialNode{ID: id, Name: fmt.Sprintf("#%d", id)}
	if b.graph != nil {
		if name, typeID, ok := b.graph.Lookup(id); ok {
			if name != "" {
				n.Name = name
			}
			n.TypeID = typeID
		}
	}

	for _, el := range b.elements[id] {
		if b.claimed[el] {
			continue
		}
		b.claimed[el] = true
		n.DirectElementIDs = append(n.DirectElementIDs, el)
	}

	for _, child := range b.children[id] {
		if b.visited[child] {
			continue
		}
		n.Children = append(n.Children, b.node(child))
	}
	return n
}
