package utils

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/davidhart/vulkanapp/window"
)

type SwapchainBuffer struct {
	Image core1_0.Image
	View  core1_0.ImageView
}

// SampleInfo carries every handle a sample has created so far. Each Init*
// step fills in a few fields and each Destroy* step releases them again.
type SampleInfo struct {
	Name   string
	Config Config
	Log    *logrus.Entry

	Window *window.RenderWindow

	GlobalDriver   core1_0.GlobalDriver
	InstanceDriver core1_0.CoreInstanceDriver
	DeviceDriver   core1_0.CoreDeviceDriver

	InstanceLayerNames     []string
	InstanceExtensionNames []string
	DeviceExtensionNames   []string

	DebugDriver     ext_debug_utils.ExtensionDriver
	DebugMessenger  ext_debug_utils.DebugUtilsMessenger
	SurfaceDriver   khr_surface.ExtensionDriver
	Surface         khr_surface.Surface
	SwapchainDriver khr_swapchain.ExtensionDriver

	Gpus             []core1_0.PhysicalDevice
	Gpu              core1_0.PhysicalDevice
	GpuProps         *core1_0.PhysicalDeviceProperties
	GpuFeatures      *core1_0.PhysicalDeviceFeatures
	QueueProps       []*core1_0.QueueFamilyProperties
	MemoryProperties *core1_0.PhysicalDeviceMemoryProperties

	GraphicsQueueFamilyIndex int
	PresentQueueFamilyIndex  int
	GraphicsQueue            core1_0.Queue
	PresentQueue             core1_0.Queue

	Format     core1_0.Format
	ColorSpace khr_surface.ColorSpace
	Extent     core1_0.Extent2D
	Swapchain  khr_swapchain.Swapchain
	Buffers    []SwapchainBuffer

	Depth struct {
		Format core1_0.Format
		Image  core1_0.Image
		Mem    core1_0.DeviceMemory
		View   core1_0.ImageView
	}

	CmdPool core1_0.CommandPool
	Cmds    []core1_0.CommandBuffer

	RenderPass     core1_0.RenderPass
	ShaderStages   []core1_0.PipelineShaderStageCreateInfo
	DescLayout     core1_0.DescriptorSetLayout
	PipelineLayout core1_0.PipelineLayout
	Pipeline       core1_0.Pipeline
	Framebuffers   []core1_0.Framebuffer

	VertexBuffer BufferObject
	IndexBuffer  BufferObject
	IndexCount   int
	VertexCount  int

	UniformData struct {
		BufferObject
		BufferInfo core1_0.DescriptorBufferInfo
	}

	Texture *TextureObject

	DescPool core1_0.DescriptorPool
	DescSet  []core1_0.DescriptorSet

	ImageAcquiredSemaphore  core1_0.Semaphore
	RenderFinishedSemaphore core1_0.Semaphore
	DrawFence               core1_0.Fence

	// CurrentBuffer is the swapchain image most recently submitted.
	CurrentBuffer int
	Frames        int
	Timer         FrameTimer

	stop atomic.Bool
}

func NewSampleInfo(name string, config Config) *SampleInfo {
	return &SampleInfo{
		Name:                     name,
		Config:                   config,
		Log:                      NewLogger(name, config.LogLevel),
		GraphicsQueueFamilyIndex: -1,
		PresentQueueFamilyIndex:  -1,
	}
}

func (i *SampleInfo) InitWindow() error {
	i.Window = window.New(window.Config{
		Width:  i.Config.Width,
		Height: i.Config.Height,
	})

	return errors.Wrap(i.Window.Create(), "init window")
}

// InitLoader resolves the Vulkan entry points through SDL when a window
// exists and through the system loader otherwise.
func (i *SampleInfo) InitLoader() error {
	var err error
	if i.Window != nil {
		i.GlobalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	} else {
		i.GlobalDriver, err = core.CreateSystemDriver()
	}
	return errors.Wrap(err, "init loader")
}

func (i *SampleInfo) InitInstanceExtensionNames() error {
	available, _, err := i.GlobalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "list instance extensions")
	}

	if i.Window != nil {
		for _, ext := range i.Window.InstanceExtensions() {
			if _, ok := available[ext]; !ok {
				return errors.Newf("missing instance extension %s required by the window", ext)
			}
			i.InstanceExtensionNames = append(i.InstanceExtensionNames, ext)
		}
	}

	if _, ok := available[khr_portability_enumeration.ExtensionName]; ok {
		i.InstanceExtensionNames = append(i.InstanceExtensionNames, khr_portability_enumeration.ExtensionName)
	}

	if !i.Config.Validation {
		return nil
	}

	layers, _, err := i.GlobalDriver.AvailableLayers()
	if err != nil {
		return errors.Wrap(err, "list instance layers")
	}

	if _, ok := layers[ValidationLayer]; !ok {
		i.Log.Warnf("%s is not installed, continuing without validation", ValidationLayer)
		i.Config.Validation = false
		return nil
	}

	i.InstanceLayerNames = append(i.InstanceLayerNames, ValidationLayer)
	i.InstanceExtensionNames = append(i.InstanceExtensionNames, ext_debug_utils.ExtensionName)
	return nil
}

func (i *SampleInfo) debugMessengerCreateInfo() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning | ext_debug_utils.SeverityInfo,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    i.logDebug,
	}
}

func (i *SampleInfo) InitInstance(appName string) error {
	createInfo := core1_0.InstanceCreateInfo{
		ApplicationName:       appName,
		ApplicationVersion:    common.CreateVersion(1, 0, 0),
		EngineName:            appName,
		EngineVersion:         common.CreateVersion(1, 0, 0),
		APIVersion:            common.Vulkan1_0,
		EnabledLayerNames:     i.InstanceLayerNames,
		EnabledExtensionNames: i.InstanceExtensionNames,
	}

	for _, ext := range i.InstanceExtensionNames {
		if ext == khr_portability_enumeration.ExtensionName {
			createInfo.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
		}
	}

	// Messages raised by instance creation itself only reach a messenger
	// chained onto the create info.
	if i.Config.Validation {
		createInfo.Next = i.debugMessengerCreateInfo()
	}

	var err error
	i.InstanceDriver, _, err = i.GlobalDriver.CreateInstance(nil, createInfo)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}

	i.Log.WithField("extensions", i.InstanceExtensionNames).Debug("instance created")
	return nil
}

func (i *SampleInfo) InitDebugMessenger() error {
	if !i.Config.Validation {
		return nil
	}

	var err error
	i.DebugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(i.InstanceDriver)
	i.DebugMessenger, _, err = i.DebugDriver.CreateDebugUtilsMessenger(nil, i.debugMessengerCreateInfo())
	return errors.Wrap(err, "create debug messenger")
}

// InitEnumerateDevice selects the configured physical device (0 unless
// --gpu says otherwise) and caches the properties later steps consult.
func (i *SampleInfo) InitEnumerateDevice() error {
	var err error
	i.Gpus, _, err = i.InstanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	if len(i.Gpus) == 0 {
		return ErrNoDevices
	}

	if i.Config.GPU < 0 || i.Config.GPU >= len(i.Gpus) {
		return errors.Newf("gpu %d requested but only %d found", i.Config.GPU, len(i.Gpus))
	}

	i.Gpu = i.Gpus[i.Config.GPU]
	i.QueueProps = i.InstanceDriver.GetPhysicalDeviceQueueFamilyProperties(i.Gpu)
	i.MemoryProperties = i.InstanceDriver.GetPhysicalDeviceMemoryProperties(i.Gpu)
	i.GpuFeatures = i.InstanceDriver.GetPhysicalDeviceFeatures(i.Gpu)

	i.GpuProps, err = i.InstanceDriver.GetPhysicalDeviceProperties(i.Gpu)
	if err != nil {
		return errors.Wrap(err, "get physical device properties")
	}

	i.Log.WithFields(logrus.Fields{
		"gpu":           i.Config.GPU,
		"name":          i.GpuProps.DriverName,
		"queueFamilies": len(i.QueueProps),
	}).Info("physical device selected")
	return nil
}

func (i *SampleInfo) InitSurface() error {
	i.SurfaceDriver = khr_surface.CreateExtensionDriverFromCoreDriver(i.InstanceDriver)

	var err error
	i.Surface, err = vkng_sdl2.CreateSurface(i.InstanceDriver.Instance(), i.SurfaceDriver, i.Window.NativeHandle())
	return errors.Wrap(err, "create surface")
}

// InitQueueFamilies picks the graphics and present queue families for the
// surface, preferring a single family that does both.
func (i *SampleInfo) InitQueueFamilies() error {
	presentSupport := make([]bool, len(i.QueueProps))
	for queueIndex := range i.QueueProps {
		supported, _, err := i.SurfaceDriver.GetPhysicalDeviceSurfaceSupport(i.Surface, i.Gpu, queueIndex)
		if err != nil {
			return errors.Wrapf(err, "query present support of queue family %d", queueIndex)
		}
		presentSupport[queueIndex] = supported
	}

	var err error
	i.GraphicsQueueFamilyIndex, i.PresentQueueFamilyIndex, err = FindQueueFamilies(i.QueueProps, presentSupport)
	return err
}

// InitDeviceGraphicsOnly picks the first graphics queue family for samples
// that never create a surface.
func (i *SampleInfo) InitDeviceGraphicsOnly() error {
	var err error
	i.GraphicsQueueFamilyIndex, i.PresentQueueFamilyIndex, err = FindQueueFamilies(i.QueueProps, nil)
	return err
}

func (i *SampleInfo) InitSurfaceFormat() error {
	formats, _, err := i.SurfaceDriver.GetPhysicalDeviceSurfaceFormats(i.Surface, i.Gpu)
	if err != nil {
		return errors.Wrap(err, "get surface formats")
	}

	format, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return err
	}

	i.Format = format.Format
	i.ColorSpace = format.ColorSpace

	i.Log.WithFields(logrus.Fields{
		"format":     i.Format,
		"colorSpace": i.ColorSpace,
	}).Info("surface format chosen")
	return nil
}

// InitDevice creates the logical device with one queue per distinct queue
// family and every feature the physical device supports.
func (i *SampleInfo) InitDevice() error {
	families := []int{i.GraphicsQueueFamilyIndex}
	if i.PresentQueueFamilyIndex != i.GraphicsQueueFamilyIndex {
		families = append(families, i.PresentQueueFamilyIndex)
	}

	var queueCreateInfos []core1_0.DeviceQueueCreateInfo
	for _, family := range families {
		queueCreateInfos = append(queueCreateInfos, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	available, _, err := i.InstanceDriver.EnumerateDeviceExtensionProperties(i.Gpu)
	if err != nil {
		return errors.Wrap(err, "list device extensions")
	}

	if i.Surface.Initialized() {
		i.DeviceExtensionNames = append(i.DeviceExtensionNames, khr_swapchain.ExtensionName)
	}

	if _, ok := available[khr_portability_subset.ExtensionName]; ok {
		i.DeviceExtensionNames = append(i.DeviceExtensionNames, khr_portability_subset.ExtensionName)
	}

	for _, ext := range i.DeviceExtensionNames {
		if _, ok := available[ext]; !ok {
			return errors.Newf("device does not support extension %s", ext)
		}
	}

	i.DeviceDriver, _, err = i.InstanceDriver.CreateDevice(i.Gpu, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueCreateInfos,
		EnabledFeatures:       i.GpuFeatures,
		EnabledExtensionNames: i.DeviceExtensionNames,
	})
	return errors.Wrap(err, "create device")
}

func (i *SampleInfo) InitDeviceQueue() error {
	i.GraphicsQueue = i.DeviceDriver.GetQueue(i.GraphicsQueueFamilyIndex, 0)

	if i.PresentQueueFamilyIndex == i.GraphicsQueueFamilyIndex {
		i.PresentQueue = i.GraphicsQueue
		return nil
	}

	i.PresentQueue = i.DeviceDriver.GetQueue(i.PresentQueueFamilyIndex, 0)
	return nil
}

func (i *SampleInfo) InitCommandPool() error {
	var err error
	i.CmdPool, _, err = i.DeviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: i.GraphicsQueueFamilyIndex,
	})
	return errors.Wrap(err, "create command pool")
}

func (i *SampleInfo) InitCommandBuffers(count int) error {
	var err error
	i.Cmds, _, err = i.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        i.CmdPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	return errors.Wrap(err, "allocate command buffers")
}

func (i *SampleInfo) InitSwapchain(usage core1_0.ImageUsageFlags) error {
	i.SwapchainDriver = khr_swapchain.CreateExtensionDriverFromCoreDriver(i.DeviceDriver)

	caps, _, err := i.SurfaceDriver.GetPhysicalDeviceSurfaceCapabilities(i.Surface, i.Gpu)
	if err != nil {
		return errors.Wrap(err, "get surface capabilities")
	}

	presentModes, _, err := i.SurfaceDriver.GetPhysicalDeviceSurfacePresentModes(i.Surface, i.Gpu)
	if err != nil {
		return errors.Wrap(err, "get present modes")
	}

	width, height := i.Window.Size()
	i.Extent = ChooseSwapExtent(caps, width, height)

	if i.Config.SaveImages {
		usage |= core1_0.ImageUsageTransferSrc
	}

	createInfo := khr_swapchain.SwapchainCreateInfo{
		Surface:          i.Surface,
		MinImageCount:    ChooseImageCount(caps),
		ImageFormat:      i.Format,
		ImageColorSpace:  i.ColorSpace,
		ImageExtent:      i.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		ImageSharingMode: core1_0.SharingModeExclusive,
		PreTransform:     ChoosePreTransform(caps),
		CompositeAlpha:   ChooseCompositeAlpha(caps),
		PresentMode:      ChoosePresentMode(presentModes, i.Config.PreferMailbox),
		Clipped:          true,
	}

	// Images shared by two queue families are used concurrently rather than
	// transferring ownership each frame.
	if i.GraphicsQueueFamilyIndex != i.PresentQueueFamilyIndex {
		createInfo.ImageSharingMode = core1_0.SharingModeConcurrent
		createInfo.QueueFamilyIndices = []int{i.GraphicsQueueFamilyIndex, i.PresentQueueFamilyIndex}
	}

	i.Swapchain, _, err = i.SwapchainDriver.CreateSwapchain(nil, createInfo)
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}

	images, _, err := i.SwapchainDriver.GetSwapchainImages(i.Swapchain)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}

	for _, image := range images {
		view, err := i.createImageView(image, i.Format, core1_0.ImageAspectColor)
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}

		i.Buffers = append(i.Buffers, SwapchainBuffer{
			Image: image,
			View:  view,
		})
	}

	i.Log.WithFields(logrus.Fields{
		"images":      len(i.Buffers),
		"width":       i.Extent.Width,
		"height":      i.Extent.Height,
		"presentMode": createInfo.PresentMode,
	}).Info("swapchain created")

	i.CurrentBuffer = 0
	return nil
}

func (i *SampleInfo) InitDepthBuffer() error {
	var err error
	i.Depth.Format, err = FirstSupportedFormat(
		[]core1_0.Format{
			core1_0.FormatD32SignedFloat,
			core1_0.FormatD32SignedFloatS8UnsignedInt,
			core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
		},
		core1_0.ImageTilingOptimal,
		core1_0.FormatFeatureDepthStencilAttachment,
		func(format core1_0.Format) *core1_0.FormatProperties {
			return i.InstanceDriver.GetPhysicalDeviceFormatProperties(i.Gpu, format)
		})
	if err != nil {
		return errors.Wrap(err, "choose depth format")
	}

	i.Depth.Image, i.Depth.Mem, err = i.createImage(i.Extent.Width, i.Extent.Height, i.Depth.Format,
		core1_0.ImageUsageDepthStencilAttachment, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return errors.Wrap(err, "create depth image")
	}

	i.Depth.View, err = i.createImageView(i.Depth.Image, i.Depth.Format, core1_0.ImageAspectDepth)
	return errors.Wrap(err, "create depth image view")
}

func (i *SampleInfo) DestroyDepthBuffer() {
	if i.Depth.View.Initialized() {
		i.DeviceDriver.DestroyImageView(i.Depth.View, nil)
		i.Depth.View = core1_0.ImageView{}
	}
	if i.Depth.Image.Initialized() {
		i.DeviceDriver.DestroyImage(i.Depth.Image, nil)
		i.Depth.Image = core1_0.Image{}
	}
	if i.Depth.Mem.Initialized() {
		i.DeviceDriver.FreeMemory(i.Depth.Mem, nil)
		i.Depth.Mem = core1_0.DeviceMemory{}
	}
}

func (i *SampleInfo) DestroySwapchain() {
	for _, buffer := range i.Buffers {
		i.DeviceDriver.DestroyImageView(buffer.View, nil)
	}
	i.Buffers = nil

	if i.Swapchain.Initialized() {
		i.SwapchainDriver.DestroySwapchain(i.Swapchain, nil)
		i.Swapchain = khr_swapchain.Swapchain{}
	}
}

func (i *SampleInfo) DestroyCommandBuffers() {
	if len(i.Cmds) > 0 {
		i.DeviceDriver.FreeCommandBuffers(i.Cmds...)
		i.Cmds = nil
	}
}

func (i *SampleInfo) DestroyCommandPool() {
	if i.CmdPool.Initialized() {
		i.DeviceDriver.DestroyCommandPool(i.CmdPool, nil)
		i.CmdPool = core1_0.CommandPool{}
	}
}

func (i *SampleInfo) DestroyDevice() error {
	if i.DeviceDriver == nil {
		return nil
	}

	_, err := i.DeviceDriver.DeviceWaitIdle()
	i.DeviceDriver.DestroyDevice(nil)
	i.DeviceDriver = nil
	return errors.Wrap(err, "wait for device idle")
}

func (i *SampleInfo) DestroyInstance() {
	if i.DebugMessenger.Initialized() {
		i.DebugDriver.DestroyDebugUtilsMessenger(i.DebugMessenger, nil)
		i.DebugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if i.Surface.Initialized() {
		i.SurfaceDriver.DestroySurface(i.Surface, nil)
		i.Surface = khr_surface.Surface{}
	}

	if i.InstanceDriver != nil {
		i.InstanceDriver.DestroyInstance(nil)
		i.InstanceDriver = nil
	}
}

// RequestStop asks RunFrameLoop to return after the frame in progress. It is
// safe to call from any goroutine.
func (i *SampleInfo) RequestStop() {
	i.stop.Store(true)
}

func (i *SampleInfo) StopRequested() bool {
	return i.stop.Load()
}

// Cleanup waits for the device to go idle and releases everything in
// reverse creation order. Handles that were never created are skipped, so it
// is safe to call from any point of a failed start-up, and more than once.
func (i *SampleInfo) Cleanup() {
	if i.DeviceDriver != nil {
		if _, err := i.DeviceDriver.DeviceWaitIdle(); err != nil {
			i.Log.WithError(err).Warn("device did not go idle before cleanup")
		}

		i.DestroySyncObjects()
		i.DestroyDescriptorPool()
		i.DestroyTexture()
		i.DestroyUniformBuffer()
		i.DestroyIndexBuffer()
		i.DestroyVertexBuffer()
		i.DestroyFramebuffers()
		i.DestroyPipeline()
		i.DestroyShaders()
		i.DestroyDescriptorAndPipelineLayouts()
		i.DestroyRenderPass()
		i.DestroyDepthBuffer()
		i.DestroySwapchain()
		i.DestroyCommandBuffers()
		i.DestroyCommandPool()

		if err := i.DestroyDevice(); err != nil {
			i.Log.WithError(err).Warn("destroy device")
		}
	}

	i.DestroyInstance()

	if i.Window != nil {
		i.Window.Destroy()
	}
}
