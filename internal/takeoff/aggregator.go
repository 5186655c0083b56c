// Package takeoff groups element records into quantity-takeoff rows.
package takeoff

import (
	"sort"

	"takeoff-service/internal/models"
)

// Aggregate groups elements by (type, spec). Elements without bounding
// metrics are left out. The result is ordered by category, type name and spec.
func Aggregate(elements []models.ElementRecord) []models.MaterialGroup {
	index := make(map[models.GroupKey]int)
	var groups []models.MaterialGroup

	for _, el := range elements {
		if !el.HasBounds {
			continue
		}
		key := KeyOf(el)
		i, ok := index[key]
		if !ok {
			category, typeName := Categorize(el.TypeID)
			groups = append(groups, models.MaterialGroup{
				Key:             key,
				Category:        category,
				TypeName:        typeName,
				AreaApproximate: true,
			})
			i = len(groups) - 1
			index[key] = i
		}
		g := &groups[i]
		g.MemberElementIDs = append(g.MemberElementIDs, el.ID)
		g.Count = len(g.MemberElementIDs)
		g.TotalArea += el.Area
	}

	Sort(groups)
	return groups
}

// KeyOf returns the group key of an element.
func KeyOf(el models.ElementRecord) models.GroupKey {
	return models.GroupKey{
		TypeID: el.TypeID,
		Spec:   DeriveSpec(el.TypeID, el.Hints, el.BoundingSize),
	}
}

// Sort orders groups by category, type name, spec and finally type id.
func Sort(groups []models.MaterialGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.TypeName != b.TypeName {
			return a.TypeName < b.TypeName
		}
		if a.Key.Spec != b.Key.Spec {
			return a.Key.Spec < b.Key.Spec
		}
		return a.Key.TypeID < b.Key.TypeID
	})
}

// Filter restricts each group to the allowed elements, recomputing count and
// area. Groups left empty are dropped. The input groups are not modified.
func Filter(groups []models.MaterialGroup, elements map[int]models.ElementRecord, allowed map[int]struct{}) []models.MaterialGroup {
	out := make([]models.MaterialGroup, 0, len(groups))
	for _, g := range groups {
		fg := g
		fg.MemberElementIDs = nil
		fg.TotalArea = 0
		for _, id := range g.MemberElementIDs {
			if _, ok := allowed[id]; !ok {
				continue
			}
			fg.MemberElementIDs = append(fg.MemberElementIDs, id)
			fg.TotalArea += elements[id].Area
		}
		fg.Count = len(fg.MemberElementIDs)
		if fg.Count > 0 {
			out = append(out, fg)
		}
	}
	return out
}
