package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600

	// PreferredSurfaceFormat is used only when the surface leaves the format
	// up to the application.
	PreferredSurfaceFormat = core1_0.FormatB8G8R8A8UnsignedNormalized

	TextureFormat = core1_0.FormatR8G8B8A8SRGB

	ValidationLayer = "VK_LAYER_KHRONOS_validation"
)

var (
	ErrNoDevices          = errors.New("no devices found")
	ErrNoQueueFamily      = errors.New("could not find a queue for both graphics and present")
	ErrNoSurfaceFormats   = errors.New("no surface formats")
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
)
