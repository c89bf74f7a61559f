//go:build arm64

package tree

import "github.com/viant/vec/search"

// cosineDistanceWithMagnitude calls the vec method exported for arm64.
func cosineDistanceWithMagnitude(v search.Float32s, vec []float32, m1, m2 float32) float32 {
	return v.CosineDistanceWithMagnitude(vec, m1, m2)
}
