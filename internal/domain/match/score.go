package match

import (
	"math"

	"github.com/google/uuid"
)

// Params are the tiered ranker tunables.
type Params struct {
	SameRegionSkillWeight     float64
	SameRegionDistanceWeight  float64
	CrossRegionSkillWeight    float64
	CrossRegionDistanceWeight float64

	// DistanceNormKm normalizes distance into a [0,1] closeness score:
	// max(0, 1 - km/norm).
	DistanceNormKm float64

	// Tier 3 cutoffs: pairs beyond MaxDistanceKm, or with a combined score
	// at or below MinCombinedScore, are dropped.
	MaxDistanceKm    float64
	MinCombinedScore float64
}

func DefaultParams() Params {
	return Params{
		SameRegionSkillWeight:     0.7,
		SameRegionDistanceWeight:  0.3,
		CrossRegionSkillWeight:    0.4,
		CrossRegionDistanceWeight: 0.6,
		DistanceNormKm:            100,
		MaxDistanceKm:             500,
		MinCombinedScore:          0.1,
	}
}

// Combined blends skill similarity and proximity. An unknown distance
// contributes zero to the distance component. Shared by the batch ranker
// and the on-demand fallback so the two paths cannot drift.
func Combined(skillScore, distanceKm float64, distanceKnown bool, skillW, distW, normKm float64) float64 {
	ds := 0.0
	if distanceKnown && normKm > 0 {
		ds = math.Max(0, 1-distanceKm/normKm)
	}
	return Clamp01(skillW*skillScore + distW*ds)
}

// Record is one surviving (task, seeker) pair produced by the ranker.
type Record struct {
	TaskID        uuid.UUID
	SeekerID      uuid.UUID
	SkillScore    float64
	DistanceKm    float64
	CombinedScore float64
	MatchedSkills []string
}

// Rank scores a single eligible pair under the regional override and
// applies the tier-3 cutoffs. ok is false when the pair is dropped.
func Rank(p Params, policy RegionPolicy, taskLoc, seekerLoc string, skillScore, distanceKm float64, distanceKnown bool) (combined float64, ok bool) {
	if !distanceKnown || distanceKm > p.MaxDistanceKm {
		return 0, false
	}

	skillW := p.CrossRegionSkillWeight
	distW := p.CrossRegionDistanceWeight
	if policy != nil && policy.SameRegion(taskLoc, seekerLoc) {
		skillW = p.SameRegionSkillWeight
		distW = p.SameRegionDistanceWeight
	}

	combined = Combined(skillScore, distanceKm, true, skillW, distW, p.DistanceNormKm)
	if combined <= p.MinCombinedScore {
		return 0, false
	}
	return combined, true
}
