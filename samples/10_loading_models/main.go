package main

import (
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
	"github.com/vkngwrapper/core/v3/core1_0"
)

/*
Draw a textured OBJ model with depth testing
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("10_loading_models", func(info *utils.SampleInfo) error {
		assets, err := utils.LoadAssets(info.Config, utils.AssetRequest{
			Shader:  "textured",
			Texture: true,
			Model:   true,
		})
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

		err = info.InitInstance("Loading Models")
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

		err = info.InitDepthBuffer()
		if err != nil {
			return err
		}

		err = info.InitRenderPass(true)
		if err != nil {
			return err
		}

		err = info.InitFramebuffers(true)
		if err != nil {
			return err
		}

		err = info.InitShaders(assets.VertexShader, assets.FragmentShader)
		if err != nil {
			return err
		}

		err = info.InitDescriptorSetLayout(true)
		if err != nil {
			return err
		}

		err = info.InitPipelineLayout()
		if err != nil {
			return err
		}

		// The projection flips Y back to pointing up, so front faces wind
		// counter-clockwise.
		err = info.InitPipeline(utils.PipelineOptions{
			VertexInput: true,
			Depth:       true,
			FrontFace:   core1_0.FrontFaceCounterClockwise,
		})
		if err != nil {
			return err
		}

		err = info.InitVertexBuffer(assets.Vertices)
		if err != nil {
			return err
		}

		err = info.InitIndexBuffer(assets.Indices)
		if err != nil {
			return err
		}

		/* VULKAN_KEY_START */

		err = info.InitTexture(assets.Texture)
		if err != nil {
			return err
		}

		err = info.InitUniformBuffer()
		if err != nil {
			return err
		}

		err = info.InitDescriptorPool(true)
		if err != nil {
			return err
		}

		err = info.InitDescriptorSet(true)
		if err != nil {
			return err
		}

		err = info.RecordCommandBuffers()
		if err != nil {
			return err
		}

		err = info.InitSyncObjects()
		if err != nil {
			return err
		}

		// A single uniform buffer is safe to rewrite here: the frame fence
		// has been waited on, so no submitted frame still reads it.
		err = info.RunFrameLoop(func(imageIndex int) error {
			return info.UpdateUniformBuffer(info.Timer.Seconds())
		})
		if err != nil {
			return err
		}

		/* VULKAN_KEY_END */

		info.Log.WithField("frames", info.Frames).Info("window closed")
		return nil
	})
}
