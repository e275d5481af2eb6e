package tracker

import (
	"math"
)

// CosineSimilarity returns the cosine of the angle between vectors a and b.
// Vectors of different length or zero magnitude have similarity 0.
func CosineSimilarity(a, b []float32) float64 {

	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}

	if na == 0 || nb == 0 {
		return 0
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// AppearanceDistance returns 1 - cosine similarity of two appearance
// embeddings.  Missing or mismatched embeddings give the distance 1, the
// value of two unrelated descriptors.
func AppearanceDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// NormalizeVec normalizes the input float32 slice to unit length and returns
// a new slice.  If the input vector has zero magnitude, it returns the
// original slice unchanged.
func NormalizeVec(v []float32) []float32 {

	var norm float64

	for _, x := range v {
		norm += float64(x) * float64(x)
	}

	if norm == 0 {
		return v
	}

	norm = math.Sqrt(norm)

	out := make([]float32, len(v))

	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}

	return out
}

// smoothDescriptor blends a new observation into a running descriptor with
// an exponential moving average and renormalizes the result.  alpha is the
// weight kept by the running descriptor.
func smoothDescriptor(running, obs []float32, alpha float32) []float32 {

	norm := NormalizeVec(obs)

	if len(running) == 0 || len(running) != len(norm) {
		out := make([]float32, len(norm))
		copy(out, norm)
		return out
	}

	out := make([]float32, len(norm))

	for i := range norm {
		out[i] = alpha*running[i] + (1-alpha)*norm[i]
	}

	return NormalizeVec(out)
}
