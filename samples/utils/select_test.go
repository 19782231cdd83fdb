package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseSurfaceFormat(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ChooseSurfaceFormat(nil)
		assert.ErrorIs(t, err, ErrNoSurfaceFormats)
	})

	t.Run("single undefined uses preferred format and reported color space", func(t *testing.T) {
		format, err := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{
			{Format: core1_0.FormatUndefined, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		})
		require.NoError(t, err)
		assert.Equal(t, PreferredSurfaceFormat, format.Format)
		assert.Equal(t, khr_surface.ColorSpaceSRGBNonlinear, format.ColorSpace)
	})

	t.Run("first format even when the preferred one is listed later", func(t *testing.T) {
		format, err := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{
			{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			{Format: PreferredSurfaceFormat, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		})
		require.NoError(t, err)
		assert.Equal(t, core1_0.FormatR8G8B8A8SRGB, format.Format)
		assert.Equal(t, khr_surface.ColorSpaceSRGBNonlinear, format.ColorSpace)
	})

	t.Run("otherwise the first format", func(t *testing.T) {
		format, err := ChooseSurfaceFormat([]khr_surface.SurfaceFormat{
			{Format: core1_0.FormatR8G8B8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		})
		require.NoError(t, err)
		assert.Equal(t, core1_0.FormatR8G8B8A8SRGB, format.Format)
	})
}

func TestChoosePresentMode(t *testing.T) {
	modes := []khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}

	assert.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode(modes, false))
	assert.Equal(t, khr_surface.PresentModeMailbox, ChoosePresentMode(modes, true))
	assert.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode([]khr_surface.PresentMode{khr_surface.PresentModeFIFO}, true))
}

func TestChooseSwapExtent(t *testing.T) {
	caps := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: 1024, Height: 768},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, core1_0.Extent2D{Width: 1024, Height: 768}, ChooseSwapExtent(caps, 800, 600))

	caps.CurrentExtent = core1_0.Extent2D{Width: -1, Height: -1}
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, ChooseSwapExtent(caps, 800, 600))

	caps.MinImageExtent = core1_0.Extent2D{Width: 900, Height: 100}
	caps.MaxImageExtent = core1_0.Extent2D{Width: 1000, Height: 500}
	assert.Equal(t, core1_0.Extent2D{Width: 900, Height: 500}, ChooseSwapExtent(caps, 800, 600))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, 3, ChooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, 2, ChooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
	assert.Equal(t, 4, ChooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 0}))
}

func TestChoosePreTransform(t *testing.T) {
	rotated := khr_surface.SurfaceTransformFlags(2)

	caps := &khr_surface.SurfaceCapabilities{
		SupportedTransforms: khr_surface.TransformIdentity | rotated,
		CurrentTransform:    rotated,
	}
	assert.Equal(t, khr_surface.TransformIdentity, ChoosePreTransform(caps))

	caps.SupportedTransforms = rotated
	assert.Equal(t, rotated, ChoosePreTransform(caps))
}

func TestChooseCompositeAlpha(t *testing.T) {
	caps := &khr_surface.SurfaceCapabilities{
		SupportedCompositeAlpha: khr_surface.CompositeAlphaOpaque | khr_surface.CompositeAlphaInherit,
	}
	assert.Equal(t, khr_surface.CompositeAlphaOpaque, ChooseCompositeAlpha(caps))

	caps.SupportedCompositeAlpha = khr_surface.CompositeAlphaPostMultiplied | khr_surface.CompositeAlphaInherit
	assert.Equal(t, khr_surface.CompositeAlphaPostMultiplied, ChooseCompositeAlpha(caps))

	caps.SupportedCompositeAlpha = khr_surface.CompositeAlphaInherit
	assert.Equal(t, khr_surface.CompositeAlphaInherit, ChooseCompositeAlpha(caps))
}

func families(flags ...core1_0.QueueFlags) []*core1_0.QueueFamilyProperties {
	var out []*core1_0.QueueFamilyProperties
	for _, f := range flags {
		out = append(out, &core1_0.QueueFamilyProperties{QueueFlags: f, QueueCount: 1})
	}
	return out
}

func TestFindQueueFamilies(t *testing.T) {
	tests := []struct {
		name             string
		families         []*core1_0.QueueFamilyProperties
		present          []bool
		graphics, expect int
	}{
		{
			name:     "graphics family that presents",
			families: families(core1_0.QueueCompute, core1_0.QueueGraphics|core1_0.QueueCompute),
			present:  []bool{true, true},
			graphics: 1, expect: 1,
		},
		{
			name:     "shared family preferred over the first graphics family",
			families: families(core1_0.QueueGraphics, core1_0.QueueGraphics),
			present:  []bool{false, true},
			graphics: 1, expect: 1,
		},
		{
			name:     "separate present family",
			families: families(core1_0.QueueGraphics, core1_0.QueueCompute),
			present:  []bool{false, true},
			graphics: 0, expect: 1,
		},
		{
			name:     "no surface",
			families: families(core1_0.QueueTransfer, core1_0.QueueGraphics, core1_0.QueueGraphics),
			present:  nil,
			graphics: 1, expect: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graphics, present, err := FindQueueFamilies(tt.families, tt.present)
			require.NoError(t, err)
			assert.Equal(t, tt.graphics, graphics)
			assert.Equal(t, tt.expect, present)
		})
	}
}

func TestFindQueueFamiliesMissing(t *testing.T) {
	_, _, err := FindQueueFamilies(families(core1_0.QueueCompute), []bool{true})
	assert.ErrorIs(t, err, ErrNoQueueFamily)

	_, _, err = FindQueueFamilies(families(core1_0.QueueGraphics), []bool{false})
	assert.ErrorIs(t, err, ErrNoQueueFamily)

	_, _, err = FindQueueFamilies(nil, nil)
	assert.ErrorIs(t, err, ErrNoQueueFamily)
}

func TestFindMemoryType(t *testing.T) {
	props := &core1_0.PhysicalDeviceMemoryProperties{
		MemoryTypes: []core1_0.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
		},
	}

	index, err := FindMemoryType(props, 0b111, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	index, err = FindMemoryType(props, 0b110, core1_0.MemoryPropertyHostVisible)
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	_, err = FindMemoryType(props, 0b011, core1_0.MemoryPropertyHostCoherent)
	assert.Error(t, err)
}

func TestFirstSupportedFormat(t *testing.T) {
	props := map[core1_0.Format]*core1_0.FormatProperties{
		core1_0.FormatD32SignedFloat: {
			LinearTilingFeatures: core1_0.FormatFeatureDepthStencilAttachment,
		},
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt: {
			OptimalTilingFeatures: core1_0.FormatFeatureDepthStencilAttachment,
		},
	}
	lookup := func(format core1_0.Format) *core1_0.FormatProperties { return props[format] }

	candidates := []core1_0.Format{
		core1_0.FormatD32SignedFloat,
		core1_0.FormatD32SignedFloatS8UnsignedInt,
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
	}

	format, err := FirstSupportedFormat(candidates, core1_0.ImageTilingOptimal, core1_0.FormatFeatureDepthStencilAttachment, lookup)
	require.NoError(t, err)
	assert.Equal(t, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt, format)

	format, err = FirstSupportedFormat(candidates, core1_0.ImageTilingLinear, core1_0.FormatFeatureDepthStencilAttachment, lookup)
	require.NoError(t, err)
	assert.Equal(t, core1_0.FormatD32SignedFloat, format)

	_, err = FirstSupportedFormat(candidates[1:2], core1_0.ImageTilingOptimal, core1_0.FormatFeatureDepthStencilAttachment, lookup)
	assert.Error(t, err)
}

func TestBytesToBytecode(t *testing.T) {
	code, err := BytesToBytecode([]byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, code)

	for _, size := range []int{0, 3, 5, 7} {
		_, err := BytesToBytecode(make([]byte, size))
		assert.Error(t, err, "size %d", size)
	}
}
