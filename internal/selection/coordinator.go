// Package selection keeps one authoritative selection and visibility state
// for the scene, table and tree views of a loaded model.
//
// The coordinator tracks which view established the current primary
// selection. A table click replaces the selection when the table (or nothing)
// owns it, but only adds a secondary emphasis on top of a selection made in
// the 3D scene.
//
// A Coordinator is single-writer: all transitions must be called from the
// same goroutine.
package selection

import (
	"sort"

	"takeoff-service/internal/models"
	"takeoff-service/internal/render"
	"takeoff-service/internal/spatial"
	"takeoff-service/internal/takeoff"
	"takeoff-service/internal/typeindex"
)

// Model is the read-only data a coordinator works on.
type Model struct {
	Elements []models.ElementRecord
	Groups   []models.MaterialGroup
	Index    typeindex.Index
	Tree     *models.SpatialNode
}

type pushed struct {
	visible bool
	level   render.Level
	xray    bool
}

// Coordinator is the selection/visibility state machine.
type Coordinator struct {
	elements map[int]models.ElementRecord
	order    []int
	groups   []models.MaterialGroup
	groupOf  map[int]models.GroupKey
	known    map[models.GroupKey]struct{}
	index    typeindex.Index
	tree     *models.SpatialNode

	origin       Origin
	primary      idSet
	primaryRow   *models.GroupKey
	secondary    idSet
	secondaryRow *models.GroupKey
	hidden       map[models.GroupKey]struct{}
	storey       *int
	storeySet    idSet
	displayed    []models.MaterialGroup

	scene  render.Scene
	pushed map[int]pushed
}

// NewCoordinator starts in the idle state with everything visible.
func NewCoordinator(m Model) *Coordinator {
	c := &Coordinator{
		elements:  make(map[int]models.ElementRecord, len(m.Elements)),
		groups:    m.Groups,
		groupOf:   make(map[int]models.GroupKey),
		known:     make(map[models.GroupKey]struct{}, len(m.Groups)),
		index:     m.Index,
		tree:      m.Tree,
		primary:   idSet{},
		secondary: idSet{},
		hidden:    make(map[models.GroupKey]struct{}),
	}
	for _, el := range m.Elements {
		c.elements[el.ID] = el
		c.order = append(c.order, el.ID)
	}
	sort.Ints(c.order)
	for _, g := range m.Groups {
		c.known[g.Key] = struct{}{}
		for _, id := range g.MemberElementIDs {
			c.groupOf[id] = g.Key
		}
	}
	c.displayed = m.Groups
	return c
}

// PickScene handles a pick in the 3D view. A real type id selects every
// element of that type; NoGroupingType, or a type without elements, selects
// the picked element alone.
func (c *Coordinator) PickScene(elementID, typeID int) {
	if _, ok := c.elements[elementID]; !ok {
		return
	}
	ids := []int{elementID}
	if typeID != models.NoGroupingType {
		if byType := c.index.Lookup(typeID); len(byType) > 0 {
			ids = byType
		}
	}
	c.setPrimary(OriginScene, newIDSet(ids), nil)
	c.sync()
}

// MissScene handles a click on empty space in the 3D view.
func (c *Coordinator) MissScene() {
	c.Clear()
}

// ClickRow handles a click on a displayed takeoff row.
func (c *Coordinator) ClickRow(key models.GroupKey) {
	g := c.displayedGroup(key)
	if g == nil {
		return
	}

	if c.origin == OriginScene {
		if c.secondaryRow != nil && *c.secondaryRow == key {
			c.clearSecondary()
		} else {
			c.secondary = idSet{}
			for _, id := range g.MemberElementIDs {
				if c.primary.has(id) && c.filtered(id) {
					c.secondary[id] = struct{}{}
				}
			}
			c.secondaryRow = nil
			if len(c.secondary) > 0 {
				k := key
				c.secondaryRow = &k
			}
		}
		c.sync()
		return
	}

	if c.origin == OriginTable && c.primaryRow != nil && *c.primaryRow == key {
		c.reset()
	} else {
		k := key
		c.setPrimary(OriginTable, newIDSet(g.MemberElementIDs), &k)
	}
	c.sync()
}

// ClickNode selects every element contained, transitively, in a tree node.
func (c *Coordinator) ClickNode(nodeID int) {
	n := spatial.Find(c.tree, nodeID)
	if n == nil {
		return
	}
	ids := idSet{}
	for _, id := range spatial.TransitiveElements(n) {
		if _, ok := c.elements[id]; ok {
			ids[id] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return
	}
	c.setPrimary(OriginTree, ids, nil)
	c.sync()
}

// Clear returns to the idle state with both selections empty.
func (c *Coordinator) Clear() {
	c.reset()
	c.sync()
}

// ToggleGroup flips the visibility of one takeoff group.
func (c *Coordinator) ToggleGroup(key models.GroupKey) {
	if _, ok := c.known[key]; !ok {
		return
	}
	if _, hidden := c.hidden[key]; hidden {
		delete(c.hidden, key)
	} else {
		c.hidden[key] = struct{}{}
	}
	c.sync()
}

// ShowAll clears every visibility exclusion.
func (c *Coordinator) ShowAll() {
	c.hidden = make(map[models.GroupKey]struct{})
	c.sync()
}

// HideAll hides every known group.
func (c *Coordinator) HideAll() {
	c.hidden = make(map[models.GroupKey]struct{}, len(c.known))
	for k := range c.known {
		c.hidden[k] = struct{}{}
	}
	c.sync()
}

// SetStoreyFilter restricts visibility and the displayed groups to the
// elements contained in a spatial node.
func (c *Coordinator) SetStoreyFilter(nodeID int) {
	n := spatial.Find(c.tree, nodeID)
	if n == nil {
		return
	}
	id := nodeID
	c.storey = &id
	c.storeySet = newIDSet(spatial.TransitiveElements(n))
	c.displayed = takeoff.Filter(c.groups, c.elements, c.storeySet)

	for el := range c.secondary {
		if !c.storeySet.has(el) {
			delete(c.secondary, el)
		}
	}
	if len(c.secondary) == 0 {
		c.secondaryRow = nil
	}
	c.sync()
}

// ClearStoreyFilter removes the storey restriction.
func (c *Coordinator) ClearStoreyFilter() {
	c.storey = nil
	c.storeySet = nil
	c.displayed = c.groups
	c.sync()
}

// DisplayedGroups returns the takeoff rows under the current storey filter.
func (c *Coordinator) DisplayedGroups() []models.MaterialGroup {
	return c.displayed
}

// State returns a snapshot of the selection and visibility state.
func (c *Coordinator) State() State {
	st := State{
		Origin:    c.origin,
		Primary:   c.primary.sorted(),
		Secondary: c.secondary.sorted(),
	}
	for k := range c.hidden {
		st.HiddenGroups = append(st.HiddenGroups, k)
	}
	sort.Slice(st.HiddenGroups, func(i, j int) bool {
		a, b := st.HiddenGroups[i], st.HiddenGroups[j]
		if a.TypeID != b.TypeID {
			return a.TypeID < b.TypeID
		}
		return a.Spec < b.Spec
	})
	if c.storey != nil {
		id := *c.storey
		st.StoreyFilter = &id
	}
	return st
}

// Visible reports whether an element is shown under the group exclusions
// and the storey filter.
func (c *Coordinator) Visible(elementID int) bool {
	if _, ok := c.elements[elementID]; !ok {
		return false
	}
	if key, grouped := c.groupOf[elementID]; grouped {
		if _, hidden := c.hidden[key]; hidden {
			return false
		}
	}
	return c.filtered(elementID)
}

// Highlight returns the highlight level of an element and whether it should
// be drawn x-rayed because something else is selected.
func (c *Coordinator) Highlight(elementID int) (render.Level, bool) {
	switch {
	case c.secondary.has(elementID):
		return render.LevelSecondary, false
	case c.primary.has(elementID):
		return render.LevelPrimary, false
	default:
		return render.LevelNone, len(c.primary) > 0
	}
}

// Attach connects a scene. The full state is pushed once, then only the
// changes after each transition.
func (c *Coordinator) Attach(scene render.Scene) {
	c.scene = scene
	c.pushed = make(map[int]pushed, len(c.order))
	c.sync()
}

func (c *Coordinator) filtered(id int) bool {
	return c.storey == nil || c.storeySet.has(id)
}

func (c *Coordinator) displayedGroup(key models.GroupKey) *models.MaterialGroup {
	for i := range c.displayed {
		if c.displayed[i].Key == key {
			return &c.displayed[i]
		}
	}
	return nil
}

func (c *Coordinator) setPrimary(origin Origin, ids idSet, row *models.GroupKey) {
	if len(ids) == 0 {
		c.reset()
		return
	}
	c.origin = origin
	c.primary = ids
	c.primaryRow = row
	c.clearSecondary()
}

func (c *Coordinator) clearSecondary() {
	c.secondary = idSet{}
	c.secondaryRow = nil
}

func (c *Coordinator) reset() {
	c.origin = OriginIdle
	c.primary = idSet{}
	c.primaryRow = nil
	c.clearSecondary()
}

func (c *Coordinator) sync() {
	if c.scene == nil {
		return
	}
	for _, id := range c.order {
		level, xray := c.Highlight(id)
		next := pushed{visible: c.Visible(id), level: level, xray: xray}
		prev, seen := c.pushed[id]
		if !seen || prev.visible != next.visible {
			c.scene.SetVisible(id, next.visible)
		}
		if !seen || prev.level != next.level || prev.xray != next.xray {
			c.scene.SetHighlight(id, next.level, next.xray)
		}
		c.pushed[id] = next
	}
}
