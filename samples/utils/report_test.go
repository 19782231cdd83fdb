package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vkngwrapper/core/v3/common"
)

func TestRenderDeviceReports(t *testing.T) {
	cacheUUID := uuid.MustParse("6f1c2b5e-8c1d-4e2a-9b3f-0d4e5f6a7b8c")

	out := RenderDeviceReports([]DeviceReport{
		{
			Index:             0,
			Name:              "Test GPU",
			Type:              "Discrete GPU",
			APIVersion:        common.APIVersion(1<<22 | 3<<12 | 275),
			DriverVersion:     common.CreateVersion(2, 1, 7),
			VendorID:          0x10de,
			DeviceID:          0x2684,
			PipelineCacheUUID: cacheUUID,
			QueueFamilies: []QueueFamilyReport{
				{Index: 0, GranularityWidth: 1, GranularityHeight: 1, GranularityDepth: 1, QueueCount: 16, QueueFlags: "Graphics|Compute|Transfer", TimestampValidBits: 64},
				{Index: 1, GranularityWidth: 4, GranularityHeight: 2, GranularityDepth: 1, QueueCount: 2, QueueFlags: "Transfer", TimestampValidBits: 64},
			},
		},
		{Index: 1, Name: "Software Rasterizer", Type: "CPU"},
	})

	assert.True(t, strings.HasPrefix(out, "Device Count: 2\n"))

	for _, expected := range []string{
		"DEVICE 0",
		"DEVICE 1",
		"Test GPU",
		"Discrete GPU",
		"1.3.275",
		"2.1.7",
		"0x10de",
		"0x2684",
		cacheUUID.String(),
		"QUEUE FAMILY 0",
		"QUEUE FAMILY 1",
		"depth 1, height 2, width 4",
		"Graphics|Compute|Transfer",
		"Software Rasterizer",
	} {
		assert.Contains(t, out, expected)
	}

	assert.Less(t, strings.Index(out, "DEVICE 0"), strings.Index(out, "DEVICE 1"))
}

func TestRenderDeviceReportsEmpty(t *testing.T) {
	assert.Equal(t, "Device Count: 0\n", RenderDeviceReports(nil))
}
