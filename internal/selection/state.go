package selection

import (
	"sort"

	"takeoff-service/internal/models"
)

// Origin is the view that established the current primary selection.
type Origin int

const (
	OriginIdle Origin = iota
	OriginScene
	OriginTable
	OriginTree
)

func (o Origin) String() string {
	switch o {
	case OriginScene:
		return "scene"
	case OriginTable:
		return "table"
	case OriginTree:
		return "tree"
	default:
		return "idle"
	}
}

// State is a read-only snapshot of the coordinator.
type State struct {
	Origin       Origin            `json:"origin"`
	Primary      []int             `json:"primary"`
	Secondary    []int             `json:"secondary"`
	HiddenGroups []models.GroupKey `json:"hiddenGroups"`
	StoreyFilter *int              `json:"storeyFilter,omitempty"`
}

// SecondaryActive reports whether a drill-in emphasis is shown.
func (s State) SecondaryActive() bool {
	return len(s.Secondary) > 0
}

type idSet map[int]struct{}

func newIDSet(ids []int) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) sorted() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
