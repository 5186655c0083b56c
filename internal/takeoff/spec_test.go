package takeoff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"takeoff-service/internal/models"
)

func TestDeriveSpec(t *testing.T) {
	size := models.BoundingSize{Width: 300, Height: 2700, Depth: 200}
	tests := []struct {
		name   string
		typeID int
		hints  *models.SemanticHints
		want   string
	}{
		{"no hints", models.TypeWall, nil, "2700×300×200"},
		{"empty hints", models.TypeWall, &models.SemanticHints{}, "2700×300×200"},
		{"external wall", models.TypeWall, &models.SemanticHints{IsExternal: boolPtr(true)}, "exterior wall"},
		{"internal slab", models.TypeSlab, &models.SemanticHints{IsExternal: boolPtr(false)}, "interior floor"},
		{"internal roof", models.TypeRoof, &models.SemanticHints{IsExternal: boolPtr(false)}, "interior ceiling"},
		{"external door", models.TypeDoor, &models.SemanticHints{IsExternal: boolPtr(true)}, "exterior"},
		{
			"full set",
			models.TypeWall,
			&models.SemanticHints{
				IsExternal:  boolPtr(false),
				Reference:   "W-20",
				FinishType:  "plaster",
				ObjectType:  "ignored",
				FireRating:  "EI60",
				LoadBearing: boolPtr(true),
			},
			"interior wall, W-20, plaster, FR EI60, load-bearing",
		},
		{"object type fallback", models.TypeBeam, &models.SemanticHints{ObjectType: "HEA 200", LoadBearing: boolPtr(false)}, "HEA 200"},
		{"markers only", models.TypeColumn, &models.SemanticHints{FireRating: "R90"}, "FR R90"},
		{"load bearing false yields no text", models.TypeColumn, &models.SemanticHints{LoadBearing: boolPtr(false)}, "2700×300×200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveSpec(tt.typeID, tt.hints, size))
			// pure: same inputs, same output
			assert.Equal(t, DeriveSpec(tt.typeID, tt.hints, size), DeriveSpec(tt.typeID, tt.hints, size))
		})
	}
}

func TestDimensionSpecRounds(t *testing.T) {
	assert.Equal(t, "2700×300×200", dimensionSpec(models.BoundingSize{Width: 300.0000119, Height: 199.5, Depth: 2699.6}))
}

func TestCategorizeUnknown(t *testing.T) {
	category, name := Categorize(12345)
	assert.Equal(t, "Other", category)
	assert.Equal(t, "Type 12345", name)
}
