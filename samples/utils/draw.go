package utils

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

const FrameReportInterval = 500

// FrameTimer is the animation clock and the frame time average.
type FrameTimer struct {
	start  time.Duration
	last   time.Duration
	frames int
	total  time.Duration
}

func (t *FrameTimer) Start() {
	t.reset(hrtime.Now())
}

func (t *FrameTimer) reset(now time.Duration) {
	t.start = now
	t.last = now
	t.frames = 0
	t.total = 0
}

// Seconds since Start.
func (t *FrameTimer) Seconds() float64 {
	return (hrtime.Now() - t.start).Seconds()
}

// Tick records a finished frame and, every FrameReportInterval frames,
// returns the average frame time since the previous report.
func (t *FrameTimer) Tick() (time.Duration, bool) {
	return t.tick(hrtime.Now())
}

func (t *FrameTimer) tick(now time.Duration) (time.Duration, bool) {
	t.total += now - t.last
	t.last = now
	t.frames++

	if t.frames < FrameReportInterval {
		return 0, false
	}

	average := t.total / time.Duration(t.frames)
	t.frames = 0
	t.total = 0
	return average, true
}

// RecordCommandBuffers records, once, the draw for every swapchain image:
// clear, bind whatever geometry and descriptors exist, draw.
func (i *SampleInfo) RecordCommandBuffers() error {
	if len(i.Cmds) != len(i.Framebuffers) {
		return errors.Newf("%d command buffers for %d framebuffers", len(i.Cmds), len(i.Framebuffers))
	}

	clearValues := []core1_0.ClearValue{
		core1_0.ClearValueFloat{0, 0, 0, 1},
	}
	if i.Depth.View.Initialized() {
		clearValues = append(clearValues, core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0})
	}

	for bufferIdx, cmd := range i.Cmds {
		_, err := i.DeviceDriver.BeginCommandBuffer(cmd, core1_0.CommandBufferBeginInfo{})
		if err != nil {
			return errors.Wrap(err, "begin command buffer")
		}

		err = i.DeviceDriver.CmdBeginRenderPass(cmd, core1_0.SubpassContentsInline,
			core1_0.RenderPassBeginInfo{
				RenderPass:  i.RenderPass,
				Framebuffer: i.Framebuffers[bufferIdx],
				RenderArea: core1_0.Rect2D{
					Offset: core1_0.Offset2D{X: 0, Y: 0},
					Extent: i.Extent,
				},
				ClearValues: clearValues,
			})
		if err != nil {
			return errors.Wrap(err, "begin render pass")
		}

		i.DeviceDriver.CmdBindPipeline(cmd, core1_0.PipelineBindPointGraphics, i.Pipeline)

		if i.VertexBuffer.Buf.Initialized() {
			i.DeviceDriver.CmdBindVertexBuffers(cmd, 0, []core1_0.Buffer{i.VertexBuffer.Buf}, []int{0})
		}

		if len(i.DescSet) > 0 {
			i.DeviceDriver.CmdBindDescriptorSets(cmd, core1_0.PipelineBindPointGraphics, i.PipelineLayout, 0, i.DescSet, nil)
		}

		if i.IndexCount > 0 {
			i.DeviceDriver.CmdBindIndexBuffer(cmd, i.IndexBuffer.Buf, 0, core1_0.IndexTypeUInt32)
			i.DeviceDriver.CmdDrawIndexed(cmd, i.IndexCount, 1, 0, 0, 0)
		} else {
			i.DeviceDriver.CmdDraw(cmd, 3, 1, 0, 0)
		}

		i.DeviceDriver.CmdEndRenderPass(cmd)

		_, err = i.DeviceDriver.EndCommandBuffer(cmd)
		if err != nil {
			return errors.Wrap(err, "end command buffer")
		}
	}

	return nil
}

// InitSyncObjects creates the semaphores and fence for a single frame in
// flight. The fence starts signaled so the first DrawFrame does not wait.
func (i *SampleInfo) InitSyncObjects() error {
	var err error
	i.ImageAcquiredSemaphore, _, err = i.DeviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create image acquired semaphore")
	}

	i.RenderFinishedSemaphore, _, err = i.DeviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return errors.Wrap(err, "create render finished semaphore")
	}

	i.DrawFence, _, err = i.DeviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
		Flags: core1_0.FenceCreateSignaled,
	})
	return errors.Wrap(err, "create draw fence")
}

func (i *SampleInfo) DestroySyncObjects() {
	if i.DrawFence.Initialized() {
		i.DeviceDriver.DestroyFence(i.DrawFence, nil)
		i.DrawFence = core1_0.Fence{}
	}
	if i.RenderFinishedSemaphore.Initialized() {
		i.DeviceDriver.DestroySemaphore(i.RenderFinishedSemaphore, nil)
		i.RenderFinishedSemaphore = core1_0.Semaphore{}
	}
	if i.ImageAcquiredSemaphore.Initialized() {
		i.DeviceDriver.DestroySemaphore(i.ImageAcquiredSemaphore, nil)
		i.ImageAcquiredSemaphore = core1_0.Semaphore{}
	}
}

// DrawFrame waits for the previous frame, acquires an image, runs update,
// submits that image's command buffer and presents it. With SaveImages the
// first frame is read back to <Name>.png between submit and present, while
// the application still owns the image. An out of date or suboptimal
// swapchain is reported as ErrSwapchainOutOfDate since the samples never
// recreate it.
func (i *SampleInfo) DrawFrame(update func(imageIndex int) error) error {
	_, err := i.DeviceDriver.WaitForFences(true, common.NoTimeout, i.DrawFence)
	if err != nil {
		return errors.Wrap(err, "wait for draw fence")
	}

	imageIndex, res, err := i.SwapchainDriver.AcquireNextImage(i.Swapchain, common.NoTimeout, &i.ImageAcquiredSemaphore, nil)
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return ErrSwapchainOutOfDate
	} else if err != nil {
		return errors.Wrap(err, "acquire next image")
	}

	_, err = i.DeviceDriver.ResetFences(i.DrawFence)
	if err != nil {
		return errors.Wrap(err, "reset draw fence")
	}

	if update != nil {
		err = update(imageIndex)
		if err != nil {
			return err
		}
	}

	_, err = i.DeviceDriver.QueueSubmit(i.GraphicsQueue, &i.DrawFence,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{i.ImageAcquiredSemaphore},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{i.Cmds[imageIndex]},
			SignalSemaphores: []core1_0.Semaphore{i.RenderFinishedSemaphore},
		},
	)
	if err != nil {
		return errors.Wrap(err, "submit frame")
	}
	i.CurrentBuffer = imageIndex

	if i.Config.SaveImages && i.Frames == 0 {
		err = i.WritePNG(i.Name, imageIndex)
		if err != nil {
			return err
		}
	}

	res, err = i.SwapchainDriver.QueuePresent(i.PresentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{i.RenderFinishedSemaphore},
		Swapchains:     []khr_swapchain.Swapchain{i.Swapchain},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return ErrSwapchainOutOfDate
	} else if err != nil {
		return errors.Wrap(err, "present")
	}

	i.Frames++
	if average, ok := i.Timer.Tick(); ok {
		i.Log.WithField("frames", i.Frames).Infof("average frame time %s", average)
	}
	return nil
}

// RunFrameLoop shows the window and draws until it is closed, RequestStop is
// called or Config.MaxFrames frames have been presented.
func (i *SampleInfo) RunFrameLoop(update func(imageIndex int) error) error {
	i.Window.Show()
	i.Timer.Start()

	for i.Window.IsOpen() && !i.StopRequested() {
		i.Window.DispatchEvents()
		if !i.Window.IsOpen() {
			break
		}

		err := i.DrawFrame(update)
		if err != nil {
			return err
		}

		if i.Config.MaxFrames > 0 && i.Frames >= i.Config.MaxFrames {
			break
		}
	}

	_, err := i.DeviceDriver.DeviceWaitIdle()
	i.Window.Hide()
	return errors.Wrap(err, "wait for device idle")
}
