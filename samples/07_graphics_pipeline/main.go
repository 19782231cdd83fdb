package main

import (
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
	"github.com/vkngwrapper/core/v3/core1_0"
)

/*
Load shader modules and build a graphics pipeline from them
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("07_graphics_pipeline", func(info *utils.SampleInfo) error {
		assets, err := utils.LoadAssets(info.Config, utils.AssetRequest{Shader: "triangle"})
		if err != nil {
			return err
		}

		err = info.InitWindow()
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

		err = info.InitInstance("Graphics Pipeline Sample")
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

		err = info.InitRenderPass(false)
		if err != nil {
			return err
		}

		/* VULKAN_KEY_START */

		err = info.InitShaders(assets.VertexShader, assets.FragmentShader)
		if err != nil {
			return err
		}

		err = info.InitPipelineLayout()
		if err != nil {
			return err
		}

		err = info.InitPipeline(utils.PipelineOptions{
			VertexInput: true,
			FrontFace:   core1_0.FrontFaceClockwise,
		})
		if err != nil {
			return err
		}

		/* VULKAN_KEY_END */

		info.Log.Info("pipeline ready")
		return nil
	})
}
