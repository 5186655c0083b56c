package spatial

import "takeoff-service/internal/models"

// Flatten lists the tree in pre-order. A nil root yields an empty list.
func Flatten(root *models.SpatialNode) []models.FlatNode {
	var out []models.FlatNode
	var walk func(n *models.SpatialNode, parent, depth int) int
	walk = func(n *models.SpatialNode, parent, depth int) int {
		idx := len(out)
		out = append(out, models.FlatNode{
			ID:          n.ID,
			ParentID:    parent,
			Name:        n.Name,
			TypeID:      n.TypeID,
			Depth:       depth,
			DirectCount: len(n.DirectElementIDs),
		})
		total := len(n.DirectElementIDs)
		for _, c := range n.Children {
			total += walk(c, n.ID, depth+1)
		}
		out[idx].TotalCount = total
		return total
	}
	if root != nil {
		walk(root, 0, 0)
	}
	return out
}

// Storeys returns the flattened building storeys of the tree.
func Storeys(root *models.SpatialNode) []models.FlatNode {
	var out []models.FlatNode
	for _, n := range Flatten(root) {
		if n.TypeID == models.TypeBuildingStorey {
			out = append(out, n)
		}
	}
	return out
}

// Find returns the node with the given id, or nil.
func Find(root *models.SpatialNode, id int) *models.SpatialNode {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, c := range root.Children {
		if n := Find(c, id); n != nil {
			return n
		}
	}
	return nil
}

// TransitiveElements returns the node's direct elements followed by those of
// all descendants, in pre-order.
func TransitiveElements(n *models.SpatialNode) []int {
	if n == nil {
		return nil
	}
	out := append([]int(nil), n.DirectElementIDs...)
	for _, c := range n.Children {
		out = append(out, TransitiveElements(c)...)
	}
	return out
}
