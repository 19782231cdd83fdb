package utils

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// InitRenderPass builds a single-subpass pass whose color attachment is
// cleared, stored and handed to the presentation engine. depth adds a
// cleared depth attachment.
func (i *SampleInfo) InitRenderPass(depth bool) error {
	attachments := []core1_0.AttachmentDescription{
		{
			Format:         i.Format,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpStore,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
		},
	}

	subpass := core1_0.SubpassDescription{
		PipelineBindPoint: core1_0.PipelineBindPointGraphics,
		ColorAttachments: []core1_0.AttachmentReference{
			{
				Attachment: 0,
				Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
			},
		},
	}

	dependency := core1_0.SubpassDependency{
		SrcSubpass:    core1_0.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		SrcAccessMask: 0,
		DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		DstAccessMask: core1_0.AccessColorAttachmentWrite,
	}

	if depth {
		attachments = append(attachments, core1_0.AttachmentDescription{
			Format:         i.Depth.Format,
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOpClear,
			StoreOp:        core1_0.AttachmentStoreOpDontCare,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayoutUndefined,
			FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		})

		subpass.DepthStencilAttachment = &core1_0.AttachmentReference{
			Attachment: 1,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}

		dependency.SrcStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dependency.DstStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dependency.DstAccessMask |= core1_0.AccessDepthStencilAttachmentWrite
	}

	var err error
	i.RenderPass, _, err = i.DeviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments:         attachments,
		Subpasses:           []core1_0.SubpassDescription{subpass},
		SubpassDependencies: []core1_0.SubpassDependency{dependency},
	})
	return errors.Wrap(err, "create render pass")
}

func (i *SampleInfo) DestroyRenderPass() {
	if i.RenderPass.Initialized() {
		i.DeviceDriver.DestroyRenderPass(i.RenderPass, nil)
		i.RenderPass = core1_0.RenderPass{}
	}
}

func (i *SampleInfo) createShaderStage(stage core1_0.ShaderStageFlags, spirv []byte) (core1_0.PipelineShaderStageCreateInfo, error) {
	code, err := BytesToBytecode(spirv)
	if err != nil {
		return core1_0.PipelineShaderStageCreateInfo{}, err
	}

	module, _, err := i.DeviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return core1_0.PipelineShaderStageCreateInfo{}, errors.Wrap(err, "create shader module")
	}

	return core1_0.PipelineShaderStageCreateInfo{
		Stage:  stage,
		Module: module,
		Name:   "main",
	}, nil
}

// InitShaders creates the vertex and fragment stages from SPIR-V bytes.
func (i *SampleInfo) InitShaders(vertShaderBytes, fragShaderBytes []byte) error {
	vertStage, err := i.createShaderStage(core1_0.StageVertex, vertShaderBytes)
	if err != nil {
		return errors.Wrap(err, "vertex shader")
	}
	i.ShaderStages = append(i.ShaderStages, vertStage)

	fragStage, err := i.createShaderStage(core1_0.StageFragment, fragShaderBytes)
	if err != nil {
		return errors.Wrap(err, "fragment shader")
	}
	i.ShaderStages = append(i.ShaderStages, fragStage)
	return nil
}

func (i *SampleInfo) DestroyShaders() {
	for _, stage := range i.ShaderStages {
		i.DeviceDriver.DestroyShaderModule(stage.Module, nil)
	}
	i.ShaderStages = nil
}

// InitDescriptorSetLayout declares the uniform buffer at binding 0 and, with
// texture, a combined image sampler at binding 1.
func (i *SampleInfo) InitDescriptorSetLayout(texture bool) error {
	bindings := []core1_0.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      core1_0.StageVertex,
		},
	}
	if texture {
		bindings = append(bindings, core1_0.DescriptorSetLayoutBinding{
			Binding:         1,
			DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      core1_0.StageFragment,
		})
	}

	var err error
	i.DescLayout, _, err = i.DeviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: bindings,
	})
	return errors.Wrap(err, "create descriptor set layout")
}

// InitPipelineLayout uses the descriptor set layout when one was created.
func (i *SampleInfo) InitPipelineLayout() error {
	var setLayouts []core1_0.DescriptorSetLayout
	if i.DescLayout.Initialized() {
		setLayouts = append(setLayouts, i.DescLayout)
	}

	var err error
	i.PipelineLayout, _, err = i.DeviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: setLayouts,
	})
	return errors.Wrap(err, "create pipeline layout")
}

func (i *SampleInfo) DestroyDescriptorAndPipelineLayouts() {
	if i.PipelineLayout.Initialized() {
		i.DeviceDriver.DestroyPipelineLayout(i.PipelineLayout, nil)
		i.PipelineLayout = core1_0.PipelineLayout{}
	}
	if i.DescLayout.Initialized() {
		i.DeviceDriver.DestroyDescriptorSetLayout(i.DescLayout, nil)
		i.DescLayout = core1_0.DescriptorSetLayout{}
	}
}

type PipelineOptions struct {
	// VertexInput feeds Vertex attributes from binding 0; without it the
	// vertex shader must generate its own positions.
	VertexInput bool
	Depth       bool
	FrontFace   core1_0.FrontFace
}

// InitPipeline builds a triangle-list pipeline with back-face culling, a
// static viewport covering the swapchain and blending disabled.
func (i *SampleInfo) InitPipeline(options PipelineOptions) error {
	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{}
	if options.VertexInput {
		vertexInput.VertexBindingDescriptions = VertexBindingDescriptions()
		vertexInput.VertexAttributeDescriptions = VertexAttributeDescriptions()
	}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(i.Extent.Width),
				Height:   float32(i.Extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: i.Extent,
			},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   options.FrontFace,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	var depthStencil *core1_0.PipelineDepthStencilStateCreateInfo
	if options.Depth {
		depthStencil = &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLess,
		}
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	pipelines, _, err := i.DeviceDriver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages:             i.ShaderStages,
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			DepthStencilState:  depthStencil,
			ColorBlendState:    colorBlend,
			Layout:             i.PipelineLayout,
			RenderPass:         i.RenderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	)
	if err != nil {
		return errors.Wrap(err, "create graphics pipeline")
	}

	i.Pipeline = pipelines[0]
	return nil
}

func (i *SampleInfo) DestroyPipeline() {
	if i.Pipeline.Initialized() {
		i.DeviceDriver.DestroyPipeline(i.Pipeline, nil)
		i.Pipeline = core1_0.Pipeline{}
	}
}

// InitFramebuffers creates one framebuffer per swapchain view, sharing the
// depth view when depth is set.
func (i *SampleInfo) InitFramebuffers(depth bool) error {
	for _, buffer := range i.Buffers {
		attachments := []core1_0.ImageView{buffer.View}
		if depth {
			attachments = append(attachments, i.Depth.View)
		}

		framebuffer, _, err := i.DeviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  i.RenderPass,
			Attachments: attachments,
			Width:       i.Extent.Width,
			Height:      i.Extent.Height,
			Layers:      1,
		})
		if err != nil {
			return errors.Wrap(err, "create framebuffer")
		}

		i.Framebuffers = append(i.Framebuffers, framebuffer)
	}

	return nil
}

func (i *SampleInfo) DestroyFramebuffers() {
	for _, framebuffer := range i.Framebuffers {
		i.DeviceDriver.DestroyFramebuffer(framebuffer, nil)
	}
	i.Framebuffers = nil
}

func (i *SampleInfo) InitDescriptorPool(texture bool) error {
	poolSizes := []core1_0.DescriptorPoolSize{
		{
			Type:            core1_0.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
		},
	}
	if texture {
		poolSizes = append(poolSizes, core1_0.DescriptorPoolSize{
			Type:            core1_0.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
		})
	}

	var err error
	i.DescPool, _, err = i.DeviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets:   1,
		PoolSizes: poolSizes,
	})
	return errors.Wrap(err, "create descriptor pool")
}

// InitDescriptorSet allocates the single set every command buffer binds and
// points it at the uniform buffer and, with texture, the texture.
func (i *SampleInfo) InitDescriptorSet(texture bool) error {
	var err error
	i.DescSet, _, err = i.DeviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: i.DescPool,
		SetLayouts:     []core1_0.DescriptorSetLayout{i.DescLayout},
	})
	if err != nil {
		return errors.Wrap(err, "allocate descriptor set")
	}

	writes := []core1_0.WriteDescriptorSet{
		{
			DstSet:          i.DescSet[0],
			DstBinding:      0,
			DstArrayElement: 0,
			DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
			BufferInfo:      []core1_0.DescriptorBufferInfo{i.UniformData.BufferInfo},
		},
	}

	if texture {
		writes = append(writes, core1_0.WriteDescriptorSet{
			DstSet:          i.DescSet[0],
			DstBinding:      1,
			DstArrayElement: 0,
			DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
			ImageInfo: []core1_0.DescriptorImageInfo{
				{
					ImageView:   i.Texture.View,
					Sampler:     i.Texture.Sampler,
					ImageLayout: i.Texture.ImageLayout,
				},
			},
		})
	}

	return errors.Wrap(i.DeviceDriver.UpdateDescriptorSets(writes, nil), "update descriptor set")
}

// DestroyDescriptorPool also releases the sets allocated from it.
func (i *SampleInfo) DestroyDescriptorPool() {
	if i.DescPool.Initialized() {
		i.DeviceDriver.DestroyDescriptorPool(i.DescPool, nil)
		i.DescPool = core1_0.DescriptorPool{}
	}
	i.DescSet = nil
}
