package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takeoff-service/internal/models"
)

type object struct {
	name   string
	typeID int
}

type graph map[int]object

func (g graph) Lookup(id int) (string, int, bool) {
	o, ok := g[id]
	return o.name, o.typeID, ok
}

func sampleGraph() graph {
	return graph{
		1: {"Project", models.TypeProject},
		2: {"Site", models.TypeSite},
		3: {"Building", models.TypeBuilding},
		4: {"Level 0", models.TypeBuildingStorey},
		5: {"Level 1", models.TypeBuildingStorey},
		6: {"Room", models.TypeSpace},
	}
}

func TestBuildHierarchy(t *testing.T) {
	// relations arrive out of order
	aggregates := []models.Relation{
		{Parent: 3, Children: []int{4, 5}},
		{Parent: 1, Children: []int{2}},
		{Parent: 4, Children: []int{6}},
		{Parent: 2, Children: []int{3}},
	}
	containments := []models.Relation{
		{Parent: 6, Children: []int{7}},
		{Parent: 4, Children: []int{10, 11}},
		{Parent: 5, Children: []int{12}},
	}

	root := Build(aggregates, containments, 1, sampleGraph())
	require.NotNil(t, root)
	assert.Equal(t, "Project", root.Name)

	building := Find(root, 3)
	require.NotNil(t, building)
	require.Len(t, building.Children, 2)
	assert.Equal(t, 4, building.Children[0].ID)
	assert.Equal(t, 5, building.Children[1].ID)

	storey := Find(root, 4)
	assert.Equal(t, []int{10, 11}, storey.DirectElementIDs)
	assert.Equal(t, []int{10, 11, 7}, TransitiveElements(storey))
	assert.Equal(t, []int{10, 11, 7, 12}, TransitiveElements(root))
}

func TestBuildWithoutRoot(t *testing.T) {
	assert.Nil(t, Build(nil, nil, 0, sampleGraph()))
	assert.Nil(t, Build(nil, nil, 99, sampleGraph()))
}

func TestBuildSyntheticNames(t *testing.T) {
	root := Build([]models.Relation{{Parent: 100, Children: []int{101}}}, nil, 100, graph{})
	require.NotNil(t, root)
	assert.Equal(t, "#100", root.Name)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "#101", root.Children[0].Name)

	// a root that only contains elements is still known
	root = Build(nil, []models.Relation{{Parent: 9, Children: []int{1, 2}}}, 9, nil)
	require.NotNil(t, root)
	assert.Equal(t, "#9", root.Name)
	assert.Equal(t, []int{1, 2}, root.DirectElementIDs)
}

func TestBuildCutsCyclesAndDuplicateElements(t *testing.T) {
	aggregates := []models.Relation{
		{Parent: 1, Children: []int{2}},
		{Parent: 2, Children: []int{1, 3}},
	}
	containments := []models.Relation{
		{Parent: 2, Children: []int{50}},
		{Parent: 3, Children: []int{50, 51}},
	}
	root := Build(aggregates, containments, 1, sampleGraph())
	require.NotNil(t, root)
	require.Len(t, root.Children, 1)
	two := root.Children[0]
	require.Len(t, two.Children, 1)
	assert.Equal(t, []int{50}, two.DirectElementIDs)
	assert.Equal(t, []int{51}, two.Children[0].DirectElementIDs)
}

func TestFlattenAndStoreys(t *testing.T) {
	aggregates := []models.Relation{
		{Parent: 1, Children: []int{4, 5}},
		{Parent: 4, Children: []int{6}},
	}
	containments := []models.Relation{
		{Parent: 4, Children: []int{5001, 5002}},
		{Parent: 6, Children: []int{5003}},
	}
	root := Build(aggregates, containments, 1, sampleGraph())
	flat := Flatten(root)
	require.Len(t, flat, 4)
	assert.Equal(t, []int{1, 4, 6, 5}, []int{flat[0].ID, flat[1].ID, flat[2].ID, flat[3].ID})
	assert.Equal(t, 2, flat[2].Depth)
	assert.Equal(t, 4, flat[2].ParentID)
	assert.Equal(t, 3, flat[0].TotalCount)
	assert.Equal(t, 3, flat[1].TotalCount)
	assert.Equal(t, 2, flat[1].DirectCount)

	storeys := Storeys(root)
	require.Len(t, storeys, 2)
	assert.Equal(t, "Level 0", storeys[0].Name)
	assert.Empty(t, Flatten(nil))
}
