package models

import "fmt"

// GroupKey identifies one line of the quantity takeoff.
type GroupKey struct {
	TypeID int    `json:"typeId"`
	Spec   string `json:"spec"`
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%d/%s", k.TypeID, k.Spec)
}

// MaterialGroup is one aggregated takeoff row.
type MaterialGroup struct {
	Key              GroupKey `json:"key"`
	Category         string   `json:"category"`
	TypeName         string   `json:"typeName"`
	Count            int      `json:"count"`
	TotalArea        float64  `json:"totalArea"`
	AreaApproximate  bool     `json:"areaApproximate"`
	MemberElementIDs []int    `json:"memberElementIds"`
}
