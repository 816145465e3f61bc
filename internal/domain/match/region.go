package match

import "strings"

// RegionPolicy decides whether two location display names fall in the same
// designated region, switching the ranker between the skills-priority and
// distance-priority weighting regimes.
type RegionPolicy interface {
	SameRegion(a, b string) bool
}

// NamedRegionPolicy matches normalized location strings against a fixed
// list of region names: both locations must contain the same region name.
type NamedRegionPolicy struct {
	regions []string
}

func NewNamedRegionPolicy(regions []string) NamedRegionPolicy {
	if len(regions) == 0 {
		regions = DefaultRegions()
	}
	upper := make([]string, 0, len(regions))
	for _, r := range regions {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r != "" {
			upper = append(upper, r)
		}
	}
	return NamedRegionPolicy{regions: upper}
}

func (p NamedRegionPolicy) SameRegion(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ua := strings.ToUpper(a)
	ub := strings.ToUpper(b)
	for _, r := range p.regions {
		if strings.Contains(ua, r) && strings.Contains(ub, r) {
			return true
		}
	}
	return false
}

// DefaultRegions is the built-in named-region list (Canadian provinces and
// territories).
func DefaultRegions() []string {
	return []string{
		"Canada", "Ontario", "Alberta", "British Columbia", "Quebec", "Manitoba",
		"Saskatchewan", "Nova Scotia", "New Brunswick", "Newfoundland",
		"Prince Edward Island", "Northwest Territories", "Yukon", "Nunavut",
	}
}
