package main

import (
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
	"github.com/vkngwrapper/core/v3/core1_0"
)

/*
Draw a colored triangle from a vertex buffer until the window is closed
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("08_hello_triangle", func(info *utils.SampleInfo) error {
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

		err = info.InitInstance("Hello Triangle")
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

		err = info.InitCommandPool()
		if err != nil {
			return err
		}

		err = info.InitCommandBuffers(len(info.Buffers))
		if err != nil {
			return err
		}

		err = info.InitRenderPass(false)
		if err != nil {
			return err
		}

		err = info.InitFramebuffers(false)
		if err != nil {
			return err
		}

		err = info.InitShaders(assets.VertexShader, assets.FragmentShader)
		if err != nil {
			return err
		}

		err = info.InitPipelineLayout()
		if err != nil {
			return err
		}

		// The triangle is given directly in clip space, where Y points down,
		// so its clockwise winding faces the camera.
		err = info.InitPipeline(utils.PipelineOptions{
			VertexInput: true,
			FrontFace:   core1_0.FrontFaceClockwise,
		})
		if err != nil {
			return err
		}

		err = info.InitVertexBuffer(utils.TriangleVertices)
		if err != nil {
			return err
		}

		err = info.InitIndexBuffer(utils.TriangleIndices)
		if err != nil {
			return err
		}

		/* VULKAN_KEY_START */

		err = info.RecordCommandBuffers()
		if err != nil {
			return err
		}

		err = info.InitSyncObjects()
		if err != nil {
			return err
		}

		err = info.RunFrameLoop(nil)
		if err != nil {
			return err
		}

		/* VULKAN_KEY_END */

		info.Log.WithField("frames", info.Frames).Info("window closed")
		return nil
	})
}
