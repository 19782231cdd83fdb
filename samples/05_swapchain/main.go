package main

import (
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
	"github.com/vkngwrapper/core/v3/core1_0"
)

/*
Create a swapchain and a view of each of its images
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("05_swapchain", func(info *utils.SampleInfo) error {
		err := info.InitWindow()
		if err != nil {
			return err
		}

		err = info.InitLoader()
		if err != nil {
			return err
		}

		err = info.InitInstanceExtensionNames()
		if err != nil {
			return err
		}

		err = info.InitInstance("Swapchain Sample")
		if err != nil {
			return err
		}

		err = info.InitDebugMessenger()
		if err != nil {
			return err
		}

		err = info.InitEnumerateDevice()
		if err != nil {
			return err
		}

		err = info.InitSurface()
		if err != nil {
			return err
		}

		err = info.InitQueueFamilies()
		if err != nil {
			return err
		}

		err = info.InitSurfaceFormat()
		if err != nil {
			return err
		}

		err = info.InitDevice()
		if err != nil {
			return err
		}

		err = info.InitDeviceQueue()
		if err != nil {
			return err
		}

		/* VULKAN_KEY_START */

		err = info.InitSwapchain(core1_0.ImageUsageColorAttachment)
		if err != nil {
			return err
		}

		/* VULKAN_KEY_END */

		return nil
	})
}
