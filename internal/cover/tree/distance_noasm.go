//go:build !arm64

package tree

import "github.com/viant/vec/search"

// cosineDistanceWithMagnitude calls the vec method exported for non-arm64
// targets, where the library names it CosineDistanceWithMagnitudesNeon.
func cosineDistanceWithMagnitude(v search.Float32s, vec []float32, m1, m2 float32) float32 {
	return v.CosineDistanceWithMagnitudesNeon(vec, m1, m2)
}
