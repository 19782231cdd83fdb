package utils

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVecNear(t *testing.T, expected, actual mgl32.Vec4) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-5, "component %d of %v", i, actual)
	}
}

func TestComputeTransformRotation(t *testing.T) {
	start := ComputeTransform(0, 4.0/3.0)
	assert.True(t, start.Model.ApproxEqual(mgl32.Ident4()))

	quarter := ComputeTransform(1, 4.0/3.0)
	assertVecNear(t, mgl32.Vec4{0, 1, 0, 1}, quarter.Model.Mul4x1(mgl32.Vec4{1, 0, 0, 1}))

	wrapped := ComputeTransform(5, 4.0/3.0)
	assert.True(t, wrapped.Model.ApproxEqualThreshold(quarter.Model, 1e-5))
}

func TestComputeTransformCamera(t *testing.T) {
	ubo := ComputeTransform(0, 1)

	assertVecNear(t, mgl32.Vec4{0, 0, 0, 1}, ubo.View.Mul4x1(mgl32.Vec4{2, 2, 2, 1}))

	// The origin is in front of the camera, which looks down -Z in view space.
	origin := ubo.View.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.Less(t, origin.Z(), float32(0))
}

func TestComputeTransformFlipsY(t *testing.T) {
	ubo := ComputeTransform(0, 16.0/9.0)
	unflipped := mgl32.Perspective(mgl32.DegToRad(45), 16.0/9.0, 0.1, 10)

	assert.Less(t, ubo.Proj[5], float32(0))
	assert.InDelta(t, -unflipped[5], ubo.Proj[5], 1e-6)
	assert.Equal(t, unflipped[0], ubo.Proj[0])
}
