package models

// Relation links one relating object to the objects it aggregates or contains.
type Relation struct {
	Parent   int   `json:"parent"`
	Children []int `json:"children"`
}

// Relations groups the two relation tables of a model together with the id
// of the root candidate (0 when the model has none).
type Relations struct {
	Aggregates   []Relation
	Containments []Relation
	RootID       int
}

// SpatialNode is one entity of the containment hierarchy.
type SpatialNode struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	TypeID           int            `json:"typeId"`
	Children         []*SpatialNode `json:"children,omitempty"`
	DirectElementIDs []int          `json:"directElementIds,omitempty"`
}

// FlatNode is a pre-order row of a flattened SpatialNode tree.
type FlatNode struct {
	ID          int    `json:"id"`
	ParentID    int    `json:"parentId"`
	Name        string `json:"name"`
	TypeID      int    `json:"typeId"`
	Depth       int    `json:"depth"`
	DirectCount int    `json:"directCount"`
	TotalCount  int    `json:"totalCount"`
}
