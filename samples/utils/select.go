package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// ChooseSurfaceFormat picks the swapchain color format and color space: the
// first one the surface lists. A surface reporting a single UNDEFINED format
// accepts anything, so PreferredSurfaceFormat is used with the reported color
// space.
func ChooseSurfaceFormat(formats []khr_surface.SurfaceFormat) (khr_surface.SurfaceFormat, error) {
	if len(formats) == 0 {
		return khr_surface.SurfaceFormat{}, ErrNoSurfaceFormats
	}

	if len(formats) == 1 && formats[0].Format == core1_0.FormatUndefined {
		return khr_surface.SurfaceFormat{
			Format:     PreferredSurfaceFormat,
			ColorSpace: formats[0].ColorSpace,
		}, nil
	}

	return formats[0], nil
}

// ChoosePresentMode returns FIFO, which every implementation supports, unless
// mailbox is preferred and offered.
func ChoosePresentMode(available []khr_surface.PresentMode, preferMailbox bool) khr_surface.PresentMode {
	if preferMailbox {
		for _, mode := range available {
			if mode == khr_surface.PresentModeMailbox {
				return mode
			}
		}
	}

	return khr_surface.PresentModeFIFO
}

// ChooseSwapExtent uses the surface's current extent when it is defined and
// otherwise clamps the requested window size to the supported range.
func ChooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// ChooseImageCount asks for one image more than the minimum. A maximum of 0
// means there is no upper bound.
func ChooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func ChoosePreTransform(capabilities *khr_surface.SurfaceCapabilities) khr_surface.SurfaceTransformFlags {
	if capabilities.SupportedTransforms&khr_surface.TransformIdentity != 0 {
		return khr_surface.TransformIdentity
	}
	return capabilities.CurrentTransform
}

// ChooseCompositeAlpha returns the first supported mode; one of them is
// always set.
func ChooseCompositeAlpha(capabilities *khr_surface.SurfaceCapabilities) khr_surface.CompositeAlphaFlags {
	for _, mode := range []khr_surface.CompositeAlphaFlags{
		khr_surface.CompositeAlphaOpaque,
		khr_surface.CompositeAlphaPreMultiplied,
		khr_surface.CompositeAlphaPostMultiplied,
		khr_surface.CompositeAlphaInherit,
	} {
		if capabilities.SupportedCompositeAlpha&mode != 0 {
			return mode
		}
	}
	return khr_surface.CompositeAlphaOpaque
}

// FindQueueFamilies searches for a graphics family, preferring one that can
// also present. presentSupport is indexed like families; a nil slice means no
// surface is involved and only a graphics family is needed, in which case
// present is reported as the graphics family.
func FindQueueFamilies(families []*core1_0.QueueFamilyProperties, presentSupport []bool) (graphics, present int, err error) {
	graphics, present = -1, -1

	for index, family := range families {
		if family.QueueFlags&core1_0.QueueGraphics == 0 {
			continue
		}

		if graphics < 0 {
			graphics = index
		}

		if presentSupport == nil {
			present = graphics
			break
		}

		if index < len(presentSupport) && presentSupport[index] {
			graphics = index
			present = index
			break
		}
	}

	if present < 0 {
		for index, supported := range presentSupport {
			if supported {
				present = index
				break
			}
		}
	}

	if graphics < 0 || present < 0 {
		return -1, -1, ErrNoQueueFamily
	}

	return graphics, present, nil
}

// FindMemoryType returns the first memory type allowed by typeBits that has
// every requested property.
func FindMemoryType(memoryProperties *core1_0.PhysicalDeviceMemoryProperties, typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for index, memoryType := range memoryProperties.MemoryTypes {
		if typeBits&(1<<uint(index)) != 0 && memoryType.PropertyFlags&properties == properties {
			return index, nil
		}
	}

	return 0, errors.Newf("could not find a memory type matching type bits %#x with flags %s", typeBits, properties)
}

// FirstSupportedFormat returns the first candidate whose properties, as
// reported by formatProperties, offer every feature for the tiling.
func FirstSupportedFormat(candidates []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags, formatProperties func(core1_0.Format) *core1_0.FormatProperties) (core1_0.Format, error) {
	for _, format := range candidates {
		props := formatProperties(format)
		if props == nil {
			continue
		}

		if tiling == core1_0.ImageTilingLinear && props.LinearTilingFeatures&features == features {
			return format, nil
		}
		if tiling == core1_0.ImageTilingOptimal && props.OptimalTilingFeatures&features == features {
			return format, nil
		}
	}

	return core1_0.FormatUndefined, errors.Newf("failed to find supported format for tiling %s, featureset %s", tiling, features)
}

// BytesToBytecode converts SPIR-V bytes to little-endian words.
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("spir-v size %d is not a non-zero multiple of 4", len(b))
	}

	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteIndex := i * 4
		byteCode[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}

	return byteCode, nil
}
