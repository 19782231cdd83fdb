package utils

import (
	"bytes"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type BufferObject struct {
	Buf  core1_0.Buffer
	Mem  core1_0.DeviceMemory
	Size int
}

func (i *SampleInfo) destroyBufferObject(b *BufferObject) {
	if b.Buf.Initialized() {
		i.DeviceDriver.DestroyBuffer(b.Buf, nil)
	}
	if b.Mem.Initialized() {
		i.DeviceDriver.FreeMemory(b.Mem, nil)
	}
	*b = BufferObject{}
}

// UniformBufferObject is the vertex shader's uniform block. mgl32 matrices
// are column-major, matching GLSL's default layout.
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// ComputeTransform spins the model about Z at a quarter turn per second and
// looks at it from (2,2,2) with Z up. The projection's Y axis is flipped
// because Vulkan clip space points Y down.
func ComputeTransform(seconds float64, aspect float32) UniformBufferObject {
	angle := math.Mod(seconds, 4.0) * math.Pi / 2.0

	proj := mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 10)
	proj[5] *= -1

	return UniformBufferObject{
		Model: mgl32.HomogRotate3DZ(float32(angle)),
		View: mgl32.LookAtV(
			mgl32.Vec3{2, 2, 2},
			mgl32.Vec3{0, 0, 0},
			mgl32.Vec3{0, 0, 1},
		),
		Proj: proj,
	}
}

func (i *SampleInfo) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (BufferObject, error) {
	buffer, _, err := i.DeviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return BufferObject{}, errors.Wrap(err, "create buffer")
	}
	obj := BufferObject{Buf: buffer, Size: size}

	memReqs := i.DeviceDriver.GetBufferMemoryRequirements(buffer)
	memoryTypeIndex, err := FindMemoryType(i.MemoryProperties, memReqs.MemoryTypeBits, properties)
	if err != nil {
		return obj, err
	}

	obj.Mem, _, err = i.DeviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return obj, errors.Wrap(err, "allocate buffer memory")
	}

	_, err = i.DeviceDriver.BindBufferMemory(buffer, obj.Mem, 0)
	return obj, errors.Wrap(err, "bind buffer memory")
}

// writeData serializes data with binary.Write into host-visible memory.
func writeData(driver core1_0.DeviceDriver, memory core1_0.DeviceMemory, offset int, data any) error {
	bufferSize := binary.Size(data)
	if bufferSize < 0 {
		return errors.Newf("cannot serialize %T", data)
	}

	buf := &bytes.Buffer{}
	err := binary.Write(buf, common.ByteOrder, data)
	if err != nil {
		return errors.Wrap(err, "serialize")
	}

	memoryPtr, _, err := driver.MapMemory(memory, offset, bufferSize, 0)
	if err != nil {
		return errors.Wrap(err, "map memory")
	}
	defer driver.UnmapMemory(memory)

	dataBuffer := unsafe.Slice((*byte)(memoryPtr), bufferSize)
	copy(dataBuffer, buf.Bytes())
	return nil
}

func readData(driver core1_0.DeviceDriver, memory core1_0.DeviceMemory, size int) ([]byte, error) {
	memoryPtr, _, err := driver.MapMemory(memory, 0, size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "map memory")
	}
	defer driver.UnmapMemory(memory)

	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(memoryPtr), size))
	return out, nil
}

func (i *SampleInfo) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := i.DeviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        i.CmdPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, errors.Wrap(err, "allocate transfer command buffer")
	}

	buffer := buffers[0]
	_, err = i.DeviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		i.DeviceDriver.FreeCommandBuffers(buffer)
		return core1_0.CommandBuffer{}, errors.Wrap(err, "begin transfer command buffer")
	}
	return buffer, nil
}

// endSingleTimeCommands submits buffer and blocks until the graphics queue
// has drained it.
func (i *SampleInfo) endSingleTimeCommands(buffer core1_0.CommandBuffer) error {
	defer i.DeviceDriver.FreeCommandBuffers(buffer)

	_, err := i.DeviceDriver.EndCommandBuffer(buffer)
	if err != nil {
		return errors.Wrap(err, "end transfer command buffer")
	}

	_, err = i.DeviceDriver.QueueSubmit(i.GraphicsQueue, nil, core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{buffer},
	})
	if err != nil {
		return errors.Wrap(err, "submit transfer")
	}

	_, err = i.DeviceDriver.QueueWaitIdle(i.GraphicsQueue)
	return errors.Wrap(err, "wait for transfer")
}

func (i *SampleInfo) copyBuffer(src, dst core1_0.Buffer, size int) error {
	buffer, err := i.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = i.DeviceDriver.CmdCopyBuffer(buffer, src, dst, core1_0.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	})
	if err != nil {
		i.DeviceDriver.FreeCommandBuffers(buffer)
		return errors.Wrap(err, "record buffer copy")
	}

	return i.endSingleTimeCommands(buffer)
}

// uploadDeviceLocal copies data into a new device-local buffer through a
// host-visible staging buffer.
func (i *SampleInfo) uploadDeviceLocal(data any, usage core1_0.BufferUsageFlags) (BufferObject, error) {
	size := binary.Size(data)
	if size <= 0 {
		return BufferObject{}, errors.Newf("cannot upload %T", data)
	}

	staging, err := i.createBuffer(size, core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	defer i.destroyBufferObject(&staging)
	if err != nil {
		return BufferObject{}, err
	}

	err = writeData(i.DeviceDriver, staging.Mem, 0, data)
	if err != nil {
		return BufferObject{}, err
	}

	dst, err := i.createBuffer(size, core1_0.BufferUsageTransferDst|usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		i.destroyBufferObject(&dst)
		return BufferObject{}, err
	}

	err = i.copyBuffer(staging.Buf, dst.Buf, size)
	if err != nil {
		i.destroyBufferObject(&dst)
		return BufferObject{}, err
	}
	return dst, nil
}

func (i *SampleInfo) InitVertexBuffer(vertices []Vertex) error {
	var err error
	i.VertexBuffer, err = i.uploadDeviceLocal(vertices, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return errors.Wrap(err, "init vertex buffer")
	}

	i.VertexCount = len(vertices)
	return nil
}

func (i *SampleInfo) InitIndexBuffer(indices []uint32) error {
	var err error
	i.IndexBuffer, err = i.uploadDeviceLocal(indices, core1_0.BufferUsageIndexBuffer)
	if err != nil {
		return errors.Wrap(err, "init index buffer")
	}

	i.IndexCount = len(indices)
	return nil
}

func (i *SampleInfo) InitUniformBuffer() error {
	size := int(unsafe.Sizeof(UniformBufferObject{}))

	var err error
	i.UniformData.BufferObject, err = i.createBuffer(size, core1_0.BufferUsageUniformBuffer, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return errors.Wrap(err, "init uniform buffer")
	}

	i.UniformData.BufferInfo = core1_0.DescriptorBufferInfo{
		Buffer: i.UniformData.Buf,
		Offset: 0,
		Range:  size,
	}

	return i.UpdateUniformBuffer(0)
}

func (i *SampleInfo) UpdateUniformBuffer(seconds float64) error {
	aspect := float32(i.Extent.Width) / float32(i.Extent.Height)
	ubo := ComputeTransform(seconds, aspect)

	return errors.Wrap(writeData(i.DeviceDriver, i.UniformData.Mem, 0, &ubo), "update uniform buffer")
}

func (i *SampleInfo) DestroyVertexBuffer() {
	i.destroyBufferObject(&i.VertexBuffer)
	i.VertexCount = 0
}

func (i *SampleInfo) DestroyIndexBuffer() {
	i.destroyBufferObject(&i.IndexBuffer)
	i.IndexCount = 0
}

func (i *SampleInfo) DestroyUniformBuffer() {
	i.destroyBufferObject(&i.UniformData.BufferObject)
	i.UniformData.BufferInfo = core1_0.DescriptorBufferInfo{}
}

func (i *SampleInfo) createImage(width, height int, format core1_0.Format, usage core1_0.ImageUsageFlags, memoryProperties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := i.DeviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, errors.Wrap(err, "create image")
	}

	memReqs := i.DeviceDriver.GetImageMemoryRequirements(image)
	memoryIndex, err := FindMemoryType(i.MemoryProperties, memReqs.MemoryTypeBits, memoryProperties)
	if err != nil {
		i.DeviceDriver.DestroyImage(image, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	imageMemory, _, err := i.DeviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		i.DeviceDriver.DestroyImage(image, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, errors.Wrap(err, "allocate image memory")
	}

	_, err = i.DeviceDriver.BindImageMemory(image, imageMemory, 0)
	if err != nil {
		i.DeviceDriver.DestroyImage(image, nil)
		i.DeviceDriver.FreeMemory(imageMemory, nil)
		return core1_0.Image{}, core1_0.DeviceMemory{}, errors.Wrap(err, "bind image memory")
	}

	return image, imageMemory, nil
}

func (i *SampleInfo) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := i.DeviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		Components: core1_0.ComponentMapping{
			R: core1_0.ComponentSwizzleIdentity,
			G: core1_0.ComponentSwizzleIdentity,
			B: core1_0.ComponentSwizzleIdentity,
			A: core1_0.ComponentSwizzleIdentity,
		},
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

type layoutTransition struct {
	srcAccess, dstAccess core1_0.AccessFlags
	srcStage, dstStage   core1_0.PipelineStageFlags
}

var layoutTransitions = map[[2]core1_0.ImageLayout]layoutTransition{
	{core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal}: {
		srcAccess: 0,
		dstAccess: core1_0.AccessTransferWrite,
		srcStage:  core1_0.PipelineStageTopOfPipe,
		dstStage:  core1_0.PipelineStageTransfer,
	},
	{core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal}: {
		srcAccess: core1_0.AccessTransferWrite,
		dstAccess: core1_0.AccessShaderRead,
		srcStage:  core1_0.PipelineStageTransfer,
		dstStage:  core1_0.PipelineStageFragmentShader,
	},
	{khr_swapchain.ImageLayoutPresentSrc, core1_0.ImageLayoutTransferSrcOptimal}: {
		srcAccess: core1_0.AccessMemoryRead,
		dstAccess: core1_0.AccessTransferRead,
		srcStage:  core1_0.PipelineStageBottomOfPipe,
		dstStage:  core1_0.PipelineStageTransfer,
	},
	{core1_0.ImageLayoutTransferSrcOptimal, khr_swapchain.ImageLayoutPresentSrc}: {
		srcAccess: core1_0.AccessTransferRead,
		dstAccess: core1_0.AccessMemoryRead,
		srcStage:  core1_0.PipelineStageTransfer,
		dstStage:  core1_0.PipelineStageBottomOfPipe,
	},
}

// setImageLayout records a barrier moving a color image between layouts.
// Only the transitions the samples perform are known.
func (i *SampleInfo) setImageLayout(cmd core1_0.CommandBuffer, image core1_0.Image, oldLayout, newLayout core1_0.ImageLayout) error {
	transition, ok := layoutTransitions[[2]core1_0.ImageLayout{oldLayout, newLayout}]
	if !ok {
		return errors.Newf("unexpected layout transition: %s -> %s", oldLayout, newLayout)
	}

	return i.DeviceDriver.CmdPipelineBarrier(cmd, transition.srcStage, transition.dstStage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
		{
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               image,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			SrcAccessMask: transition.srcAccess,
			DstAccessMask: transition.dstAccess,
		},
	})
}
