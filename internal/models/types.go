package models

// IFC entity type codes as emitted by web-ifc style parsers.
const (
	TypeProject              = 103090709
	TypeSite                 = 4097777520
	TypeBuilding             = 4031249490
	TypeBuildingStorey       = 3124254112
	TypeSpace                = 3856911033
	TypeWall                 = 2391406946
	TypeWallStandardCase     = 3512223829
	TypeCurtainWall          = 3495092785
	TypeSlab                 = 1529196076
	TypeRoof                 = 2016517767
	TypeCovering             = 1973544240
	TypeDoor                 = 395920057
	TypeWindow               = 3304561284
	TypeBeam                 = 753842376
	TypeColumn               = 843113511
	TypeMember               = 1073191201
	TypePlate                = 3171933400
	TypeStair                = 331165859
	TypeStairFlight          = 4252922144
	TypeRailing              = 2262370178
	TypeFooting              = 900683007
	TypeFurnishingElement    = 263784265
	TypeBuildingElementProxy = 1095909175
	TypeOpeningElement       = 3588315303
)
