package takeoff

import (
	"fmt"

	"takeoff-service/internal/models"
)

// broad kinds used to phrase the exterior/interior label
type kind int

const (
	kindOther kind = iota
	kindWall
	kindSlab
	kindRoof
)

type typeInfo struct {
	category string
	name     string
	kind     kind
}

var typeTable = map[int]typeInfo{
	models.TypeWall:                 {"Walls", "IfcWall", kindWall},
	models.TypeWallStandardCase:     {"Walls", "IfcWallStandardCase", kindWall},
	models.TypeCurtainWall:          {"Walls", "IfcCurtainWall", kindWall},
	models.TypeSlab:                 {"Slabs", "IfcSlab", kindSlab},
	models.TypeRoof:                 {"Roofs", "IfcRoof", kindRoof},
	models.TypeCovering:             {"Coverings", "IfcCovering", kindOther},
	models.TypeDoor:                 {"Doors", "IfcDoor", kindOther},
	models.TypeWindow:               {"Windows", "IfcWindow", kindOther},
	models.TypeBeam:                 {"Structure", "IfcBeam", kindOther},
	models.TypeColumn:               {"Structure", "IfcColumn", kindOther},
	models.TypeMember:               {"Structure", "IfcMember", kindOther},
	models.TypePlate:                {"Structure", "IfcPlate", kindOther},
	models.TypeFooting:              {"Structure", "IfcFooting", kindOther},
	models.TypeStair:                {"Circulation", "IfcStair", kindOther},
	models.TypeStairFlight:          {"Circulation", "IfcStairFlight", kindOther},
	models.TypeRailing:              {"Circulation", "IfcRailing", kindOther},
	models.TypeFurnishingElement:    {"Furnishing", "IfcFurnishingElement", kindOther},
	models.TypeBuildingElementProxy: {"Other", "IfcBuildingElementProxy", kindOther},
	models.TypeOpeningElement:       {"Openings", "IfcOpeningElement", kindOther},
	models.TypeSpace:                {"Spaces", "IfcSpace", kindOther},
}

// Categorize returns the category and display name of a type id.
func Categorize(typeID int) (category, typeName string) {
	if info, ok := typeTable[typeID]; ok {
		return info.category, info.name
	}
	return "Other", fmt.Sprintf("Type %d", typeID)
}

func kindOf(typeID int) kind {
	return typeTable[typeID].kind
}
