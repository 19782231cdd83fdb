package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/mocks"
	"github.com/vkngwrapper/core/v3/mocks/mocks1_0"
	"go.uber.org/mock/gomock"
)

func TestCleanupSkipsHandlesNeverCreated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	device := mocks.NewDummyDevice(common.Vulkan1_0, []string{})
	driver := mocks1_0.NewMockCoreDeviceDriver(ctrl)

	info := NewSampleInfo("test", DefaultConfig())
	info.DeviceDriver = driver
	info.DrawFence = mocks.NewDummyFence(device)
	info.Pipeline = mocks.NewDummyPipeline(device)
	info.RenderPass = mocks.NewDummyRenderPass(device)

	fence, pipeline, renderPass := info.DrawFence, info.Pipeline, info.RenderPass

	driver.EXPECT().DeviceWaitIdle().Return(core1_0.VKSuccess, nil).Times(2)
	gomock.InOrder(
		driver.EXPECT().DestroyFence(fence, gomock.Nil()),
		driver.EXPECT().DestroyPipeline(pipeline, gomock.Nil()),
		driver.EXPECT().DestroyRenderPass(renderPass, gomock.Nil()),
		driver.EXPECT().DestroyDevice(gomock.Nil()),
	)

	info.Cleanup()

	assert.Nil(t, info.DeviceDriver)
	assert.False(t, info.DrawFence.Initialized())
	assert.False(t, info.Pipeline.Initialized())
	assert.False(t, info.RenderPass.Initialized())

	// A second call finds nothing left to release.
	info.Cleanup()
}

func TestCleanupWithoutDevice(t *testing.T) {
	info := NewSampleInfo("test", DefaultConfig())
	require.NotPanics(t, info.Cleanup)
}

func TestInitEnumerateDeviceRejectsNegativeGPU(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	instance := mocks.NewDummyInstance(common.Vulkan1_0, []string{})
	driver := mocks1_0.NewMockCoreInstanceDriver(ctrl)
	driver.EXPECT().EnumeratePhysicalDevices().Return([]core1_0.PhysicalDevice{
		mocks.NewDummyPhysicalDevice(instance, common.Vulkan1_0),
	}, core1_0.VKSuccess, nil)

	config := DefaultConfig()
	config.GPU = -1
	info := NewSampleInfo("test", config)
	info.InstanceDriver = driver

	err := info.InitEnumerateDevice()
	require.EqualError(t, err, "gpu -1 requested but only 1 found")
	assert.False(t, info.Gpu.Initialized())
}
