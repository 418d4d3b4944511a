package limits

import (
	"maps"
	"slices"
)

// Plan describes a tier and its resource and feature constraints.
type Plan struct {
	ID       string
	Name     string
	Limits   map[Resource]int64
	Features []Feature
}

// Limit returns the plan's limit for res and whether the plan limits it.
func (p Plan) Limit(res Resource) (int64, bool) {
	l, ok := p.Limits[res]
	return l, ok
}

// HasFeature reports whether the plan enables f.
func (p Plan) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

func (p Plan) clone() Plan {
	p.Limits = maps.Clone(p.Limits)
	p.Features = slices.Clone(p.Features)
	return p
}
