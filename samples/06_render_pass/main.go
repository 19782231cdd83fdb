package main

import (
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
	"github.com/vkngwrapper/core/v3/core1_0"
)

/*
Create a render pass and a framebuffer for each swapchain image
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("06_render_pass", func(info *utils.SampleInfo) error {
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

		err = info.InitInstance("Render Pass Sample")
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

		err = info.InitSwapchain(core1_0.ImageUsageColorAttachment)
		if err != nil {
			return err
		}

		/* VULKAN_KEY_START */

		err = info.InitRenderPass(false)
		if err != nil {
			return err
		}

		err = info.InitFramebuffers(false)
		if err != nil {
			return err
		}

		/* VULKAN_KEY_END */

		info.Log.WithField("framebuffers", len(info.Framebuffers)).Info("render pass ready")
		return nil
	})
}
