package vecindex

import (
	"math"

	"github.com/viant/vec/search"
)

// angleSlack absorbs float32 rounding in cosine values before they enter
// triangle-inequality pruning. acos amplifies error close to cos=1.
const angleSlack = 1e-3

func magnitude(v []float32) float32 {
	return search.Float32s(v).Magnitude()
}

func validMagnitude(m float32) bool {
	f := float64(m)
	return f > 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// cosine returns the cosine similarity of a and b, clamped to [-1,1].
func cosine(a []float32, ma float32, b []float32, mb float32) float64 {
	d := search.Float32s(a).CosineDistanceWithMagnitude(b, ma, mb)
	return clamp(1-float64(d), -1, 1)
}

// score maps cosine similarity onto [0,1].
func score(cos float64) float64 {
	return clamp((cos+1)/2, 0, 1)
}

// minCosine is the lowest cosine whose score clears minScore.
func minCosine(minScore float64) float64 {
	return 2*minScore - 1
}

// angular is the angle between two vectors normalized to [0,1]; unlike
// 1-cos it satisfies the triangle inequality.
func angular(cos float64) float64 {
	return math.Acos(clamp(cos, -1, 1)) / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
