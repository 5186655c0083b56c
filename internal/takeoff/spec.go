package takeoff

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"takeoff-service/internal/models"
)

const specSeparator = ", "

// DeriveSpec builds the spec string of an element from its semantic hints,
// falling back to its bounding dimensions. It is a pure function.
func DeriveSpec(typeID int, hints *models.SemanticHints, size models.BoundingSize) string {
	if hints.Empty() {
		return dimensionSpec(size)
	}

	var parts []string
	if hints.IsExternal != nil {
		parts = append(parts, exposureLabel(kindOf(typeID), *hints.IsExternal))
	}
	if hints.Reference != "" {
		parts = append(parts, hints.Reference)
	}
	if hints.FinishType != "" {
		parts = append(parts, hints.FinishType)
	}
	if len(parts) == 0 && hints.ObjectType != "" {
		parts = append(parts, hints.ObjectType)
	}
	if hints.FireRating != "" {
		parts = append(parts, "FR "+hints.FireRating)
	}
	if hints.LoadBearing != nil && *hints.LoadBearing {
		parts = append(parts, "load-bearing")
	}

	if len(parts) == 0 {
		return dimensionSpec(size)
	}
	return strings.Join(parts, specSeparator)
}

func exposureLabel(k kind, external bool) string {
	switch k {
	case kindWall:
		if external {
			return "exterior wall"
		}
		return "interior wall"
	case kindSlab:
		if external {
			return "exterior floor"
		}
		return "interior floor"
	case kindRoof:
		if external {
			return "exterior roof"
		}
		return "interior ceiling"
	default:
		if external {
			return "exterior"
		}
		return "interior"
	}
}

// dimensionSpec renders the three dimensions, rounded to whole millimetres and
// sorted descending, as "L×M×S".
func dimensionSpec(size models.BoundingSize) string {
	dims := []float64{
		math.Round(size.Width),
		math.Round(size.Height),
		math.Round(size.Depth),
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(dims)))
	out := make([]string, len(dims))
	for i, d := range dims {
		out[i] = strconv.FormatFloat(d, 'f', 0, 64)
	}
	return strings.Join(out, "×")
}
