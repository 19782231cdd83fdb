package utils

import (
	"reflect"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/loader"
	"github.com/vkngwrapper/core/v3/mocks"
	"github.com/vkngwrapper/core/v3/mocks/mocks1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	khr_swapchain_driver "github.com/vkngwrapper/extensions/v3/khr_swapchain/loader"
	mock_swapchain "github.com/vkngwrapper/extensions/v3/khr_swapchain/mocks"
	"go.uber.org/mock/gomock"
)

func TestFrameTimerAverages(t *testing.T) {
	var timer FrameTimer
	timer.reset(0)

	now := time.Duration(0)
	for frame := 1; frame < FrameReportInterval; frame++ {
		now += 2 * time.Millisecond
		_, ok := timer.tick(now)
		assert.False(t, ok, "frame %d", frame)
	}

	now += 2 * time.Millisecond
	average, ok := timer.tick(now)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Millisecond, average)

	// The next report only covers frames after the previous one.
	for frame := 1; frame < FrameReportInterval; frame++ {
		now += 4 * time.Millisecond
		_, ok = timer.tick(now)
		assert.False(t, ok)
	}
	now += 4 * time.Millisecond
	average, ok = timer.tick(now)
	assert.True(t, ok)
	assert.Equal(t, 4*time.Millisecond, average)
}

func TestFrameTimerStartOffset(t *testing.T) {
	var timer FrameTimer
	timer.reset(time.Second)

	for frame := 1; frame < FrameReportInterval; frame++ {
		timer.tick(time.Second + time.Duration(frame)*time.Millisecond)
	}
	average, ok := timer.tick(time.Second + FrameReportInterval*time.Millisecond)
	assert.True(t, ok)
	assert.Equal(t, time.Millisecond, average)
}

type frameFixture struct {
	info    *SampleInfo
	device  *mocks1_0.MockCoreDeviceDriver
	loader  *mock_swapchain.MockLoader
	handles core1_0.Device
}

// newFrameFixture builds a SampleInfo holding three swapchain images and the
// sync objects DrawFrame uses, backed by mock drivers.
func newFrameFixture(ctrl *gomock.Controller) *frameFixture {
	device := mocks.NewDummyDevice(common.Vulkan1_0, []string{})
	deviceDriver := mocks1_0.NewMockCoreDeviceDriver(ctrl)
	swapchainLoader := mock_swapchain.NewMockLoader(ctrl)

	info := NewSampleInfo("test", DefaultConfig())
	info.DeviceDriver = deviceDriver
	info.SwapchainDriver = khr_swapchain.CreateExtensionDriverFromLoader(swapchainLoader, device)
	info.Swapchain = khr_swapchain.NewDummySwapchain(device)
	info.GraphicsQueue = mocks.NewDummyQueue(device)
	info.PresentQueue = info.GraphicsQueue
	info.ImageAcquiredSemaphore = mocks.NewDummySemaphore(device)
	info.RenderFinishedSemaphore = mocks.NewDummySemaphore(device)
	info.DrawFence = mocks.NewDummyFence(device)

	pool := mocks.NewDummyCommandPool(device)
	for range 3 {
		info.Cmds = append(info.Cmds, mocks.NewDummyCommandBuffer(pool, device))
	}

	return &frameFixture{
		info:    info,
		device:  deviceDriver,
		loader:  swapchainLoader,
		handles: device,
	}
}

func (f *frameFixture) expectAcquire(imageIndex int, res common.VkResult) *gomock.Call {
	return f.loader.EXPECT().VkAcquireNextImageKHR(
		f.handles.Handle(),
		f.info.Swapchain.Handle(),
		gomock.Any(),
		f.info.ImageAcquiredSemaphore.Handle(),
		gomock.Any(),
		gomock.Not(gomock.Nil()),
	).DoAndReturn(func(device loader.VkDevice, swapchain khr_swapchain_driver.VkSwapchainKHR, timeout loader.Uint64, semaphore loader.VkSemaphore, fence loader.VkFence, pImageIndex *loader.Uint32) (common.VkResult, error) {
		*pImageIndex = loader.Uint32(imageIndex)
		return res, res.ToError()
	})
}

func presentedImageIndex(pPresentInfo *khr_swapchain_driver.VkPresentInfoKHR) int {
	val := reflect.ValueOf(*pPresentInfo)
	imageIndicesPtr := (*loader.Uint32)(unsafe.Pointer(val.FieldByName("pImageIndices").Elem().UnsafeAddr()))
	return int(unsafe.Slice(imageIndicesPtr, 1)[0])
}

func TestDrawFrameSubmitsAcquiredImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFrameFixture(ctrl)
	info := f.info

	var updated []int
	gomock.InOrder(
		f.device.EXPECT().WaitForFences(true, common.NoTimeout, info.DrawFence).Return(core1_0.VKSuccess, nil),
		f.expectAcquire(1, core1_0.VKSuccess),
		f.device.EXPECT().ResetFences(info.DrawFence).Return(core1_0.VKSuccess, nil),
		f.device.EXPECT().QueueSubmit(info.GraphicsQueue, gomock.Not(gomock.Nil()), gomock.Any()).DoAndReturn(
			func(queue core1_0.Queue, fence *core1_0.Fence, o ...core1_0.SubmitInfo) (common.VkResult, error) {
				require.Equal(t, info.DrawFence, *fence)
				require.Len(t, o, 1)
				require.Equal(t, []int{1}, updated)
				require.Equal(t, []core1_0.CommandBuffer{info.Cmds[1]}, o[0].CommandBuffers)
				require.Equal(t, []core1_0.Semaphore{info.ImageAcquiredSemaphore}, o[0].WaitSemaphores)
				require.Equal(t, []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput}, o[0].WaitDstStageMask)
				require.Equal(t, []core1_0.Semaphore{info.RenderFinishedSemaphore}, o[0].SignalSemaphores)
				return core1_0.VKSuccess, nil
			}),
		f.loader.EXPECT().VkQueuePresentKHR(info.PresentQueue.Handle(), gomock.Not(gomock.Nil())).DoAndReturn(
			func(queue loader.VkQueue, pPresentInfo *khr_swapchain_driver.VkPresentInfoKHR) (common.VkResult, error) {
				require.Equal(t, 1, presentedImageIndex(pPresentInfo))
				return core1_0.VKSuccess, nil
			}),
	)

	err := info.DrawFrame(func(imageIndex int) error {
		updated = append(updated, imageIndex)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, info.CurrentBuffer)
	assert.Equal(t, 1, info.Frames)
}

func TestDrawFrameAcquireOutOfDate(t *testing.T) {
	for _, res := range []common.VkResult{khr_swapchain.VKErrorOutOfDate, khr_swapchain.VKSuboptimal} {
		t.Run(res.String(), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			f := newFrameFixture(ctrl)
			f.device.EXPECT().WaitForFences(true, common.NoTimeout, f.info.DrawFence).Return(core1_0.VKSuccess, nil)
			f.expectAcquire(0, res)

			err := f.info.DrawFrame(func(int) error {
				t.Error("update ran for an image that will not be drawn")
				return nil
			})
			require.ErrorIs(t, err, ErrSwapchainOutOfDate)
			assert.Zero(t, f.info.Frames)
		})
	}
}

func TestDrawFramePresentSuboptimal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFrameFixture(ctrl)
	f.device.EXPECT().WaitForFences(true, common.NoTimeout, f.info.DrawFence).Return(core1_0.VKSuccess, nil)
	f.expectAcquire(2, core1_0.VKSuccess)
	f.device.EXPECT().ResetFences(f.info.DrawFence).Return(core1_0.VKSuccess, nil)
	f.device.EXPECT().QueueSubmit(f.info.GraphicsQueue, gomock.Not(gomock.Nil()), gomock.Any()).Return(core1_0.VKSuccess, nil)
	f.loader.EXPECT().VkQueuePresentKHR(f.info.PresentQueue.Handle(), gomock.Not(gomock.Nil())).Return(khr_swapchain.VKSuboptimal, nil)

	err := f.info.DrawFrame(nil)
	require.ErrorIs(t, err, ErrSwapchainOutOfDate)
	assert.Equal(t, 2, f.info.CurrentBuffer)
	assert.Zero(t, f.info.Frames)
}

func TestDrawFrameCapturesBeforePresent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFrameFixture(ctrl)
	f.info.Config.SaveImages = true

	// The readback starts by waiting for the submitted frame. Failing that wait
	// ends the frame before the image could reach the presentation engine, so
	// no VkQueuePresentKHR call is expected.
	gomock.InOrder(
		f.device.EXPECT().WaitForFences(true, common.NoTimeout, f.info.DrawFence).Return(core1_0.VKSuccess, nil),
		f.expectAcquire(2, core1_0.VKSuccess),
		f.device.EXPECT().ResetFences(f.info.DrawFence).Return(core1_0.VKSuccess, nil),
		f.device.EXPECT().QueueSubmit(f.info.GraphicsQueue, gomock.Not(gomock.Nil()), gomock.Any()).Return(core1_0.VKSuccess, nil),
		f.device.EXPECT().DeviceWaitIdle().Return(core1_0.VKErrorDeviceLost, core1_0.VKErrorDeviceLost.ToError()),
	)

	err := f.info.DrawFrame(nil)
	require.ErrorContains(t, err, "wait for device idle")
	assert.Equal(t, 2, f.info.CurrentBuffer)
	assert.Zero(t, f.info.Frames)
}

func TestRecordCommandBuffersCountMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFrameFixture(ctrl)
	f.info.Framebuffers = []core1_0.Framebuffer{mocks.NewDummyFramebuffer(f.handles)}

	err := f.info.RecordCommandBuffers()
	require.EqualError(t, err, "3 command buffers for 1 framebuffers")
}

func TestRecordCommandBuffersIndexedDraw(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newFrameFixture(ctrl)
	info := f.info
	info.Extent = core1_0.Extent2D{Width: 800, Height: 600}
	info.RenderPass = mocks.NewDummyRenderPass(f.handles)
	info.Pipeline = mocks.NewDummyPipeline(f.handles)
	info.VertexBuffer.Buf = mocks.NewDummyBuffer(f.handles)
	info.IndexBuffer.Buf = mocks.NewDummyBuffer(f.handles)
	info.IndexCount = 36
	for range info.Cmds {
		info.Framebuffers = append(info.Framebuffers, mocks.NewDummyFramebuffer(f.handles))
	}

	for index, cmd := range info.Cmds {
		gomock.InOrder(
			f.device.EXPECT().BeginCommandBuffer(cmd, core1_0.CommandBufferBeginInfo{}).Return(core1_0.VKSuccess, nil),
			f.device.EXPECT().CmdBeginRenderPass(cmd, core1_0.SubpassContentsInline, gomock.Any()).DoAndReturn(
				func(cmd core1_0.CommandBuffer, contents core1_0.SubpassContents, o core1_0.RenderPassBeginInfo) error {
					require.Equal(t, info.RenderPass, o.RenderPass)
					require.Equal(t, info.Framebuffers[index], o.Framebuffer)
					require.Equal(t, info.Extent, o.RenderArea.Extent)
					require.Len(t, o.ClearValues, 1)
					return nil
				}),
			f.device.EXPECT().CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, info.Pipeline),
			f.device.EXPECT().CmdBindVertexBuffers(cmd, 0, []core1_0.Buffer{info.VertexBuffer.Buf}, []int{0}),
			f.device.EXPECT().CmdBindIndexBuffer(cmd, info.IndexBuffer.Buf, 0, core1_0.IndexTypeUInt32),
			f.device.EXPECT().CmdDrawIndexed(cmd, 36, 1, uint32(0), 0, uint32(0)),
			f.device.EXPECT().CmdEndRenderPass(cmd),
			f.device.EXPECT().EndCommandBuffer(cmd).Return(core1_0.VKSuccess, nil),
		)
	}

	require.NoError(t, info.RecordCommandBuffers())
}
