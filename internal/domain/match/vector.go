package match

import (
	"hash/fnv"
	"math"

	"github.com/google/uuid"
)

// SkillValue is one claim or demand: proficiency score for seekers, demand
// weight for tasks. Values are expected in [0,1].
type SkillValue struct {
	SkillID uuid.UUID
	Name    string
	Value   float64
}

// Scorer computes skill similarity between a seeker's claims and a task's
// demands, in [0,1].
type Scorer interface {
	Score(claims, demands []SkillValue) float64
}

// SparseScorer computes cosine similarity directly over the sparse
// (skill id -> value) mappings. Exact: no hash collisions.
type SparseScorer struct{}

func (SparseScorer) Score(claims, demands []SkillValue) float64 {
	return CosineSparse(sparseMap(claims), sparseMap(demands))
}

// HashedScorer reproduces the legacy fixed-dimension hashing sketch: each
// skill id hashes to a position modulo Dim, colliding slots keep the
// maximum value. Lossy on purpose; keep only when score parity with the
// legacy pipeline matters.
type HashedScorer struct {
	Dim int
}

func (s HashedScorer) Score(claims, demands []SkillValue) float64 {
	dim := s.Dim
	if dim <= 0 {
		dim = 1000
	}
	return CosineDense(BuildVector(claims, dim), BuildVector(demands, dim))
}

// BuildVector maps a sparse claim/demand set onto a dense vector of length
// dim. Seeker and task vectors must be built with the same dim so positions
// are comparable. Empty input yields the zero vector.
func BuildVector(values []SkillValue, dim int) []float64 {
	if dim <= 0 {
		return nil
	}
	v := make([]float64, dim)
	for _, sv := range values {
		if sv.SkillID == uuid.Nil {
			continue
		}
		pos := hashPosition(sv.SkillID, dim)
		if sv.Value > v[pos] {
			v[pos] = sv.Value
		}
	}
	return v
}

func hashPosition(id uuid.UUID, dim int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id.String()))
	return int(h.Sum64() % uint64(dim))
}

// CosineDense returns dot(a,b)/(|a||b|) clamped to [0,1]. A zero magnitude
// on either side yields 0, never NaN.
func CosineDense(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, x := range a {
		magA += x * x
	}
	for _, x := range b {
		magB += x * x
	}

	return normalizeCosine(dot, magA, magB)
}

// CosineSparse is CosineDense over sparse maps.
func CosineSparse(a, b map[uuid.UUID]float64) float64 {
	var dot, magA, magB float64
	for id, va := range a {
		magA += va * va
		if vb, ok := b[id]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		magB += vb * vb
	}

	return normalizeCosine(dot, magA, magB)
}

func normalizeCosine(dot, magA, magB float64) float64 {
	if magA == 0 || magB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	return Clamp01(sim)
}

// Clamp01 absorbs floating-point drift; all inputs are non-negative so the
// true range is already [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sparseMap(values []SkillValue) map[uuid.UUID]float64 {
	m := make(map[uuid.UUID]float64, len(values))
	for _, sv := range values {
		if sv.SkillID == uuid.Nil {
			continue
		}
		if sv.Value > m[sv.SkillID] {
			m[sv.SkillID] = sv.Value
		}
	}
	return m
}

// MatchedNames returns the sorted-by-input-order skill names present in
// both the claims and the demands. Display only; does not affect scoring.
func MatchedNames(claims, demands []SkillValue) []string {
	demanded := make(map[uuid.UUID]struct{}, len(demands))
	for _, d := range demands {
		demanded[d.SkillID] = struct{}{}
	}

	out := make([]string, 0)
	seen := make(map[uuid.UUID]struct{}, len(claims))
	for _, c := range claims {
		if _, ok := demanded[c.SkillID]; !ok {
			continue
		}
		if _, dup := seen[c.SkillID]; dup {
			continue
		}
		seen[c.SkillID] = struct{}{}
		out = append(out, c.Name)
	}
	return out
}
