package utils

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/xlab/tablewriter"
)

type QueueFamilyReport struct {
	Index int

	// Minimum image transfer granularity.
	GranularityWidth  int
	GranularityHeight int
	GranularityDepth  int

	QueueCount         int
	QueueFlags         string
	TimestampValidBits uint32
}

// DeviceReport is everything sample 02 prints about a physical device.
type DeviceReport struct {
	Index             int
	Name              string
	Type              string
	APIVersion        common.APIVersion
	DriverVersion     common.Version
	VendorID          uint32
	DeviceID          uint32
	PipelineCacheUUID uuid.UUID

	QueueFamilies []QueueFamilyReport
}

// DescribeDevices reports on every enumerated physical device.
func (i *SampleInfo) DescribeDevices() ([]DeviceReport, error) {
	reports := make([]DeviceReport, 0, len(i.Gpus))

	for gpuIndex, gpu := range i.Gpus {
		props, err := i.InstanceDriver.GetPhysicalDeviceProperties(gpu)
		if err != nil {
			return nil, errors.Wrapf(err, "get properties of device %d", gpuIndex)
		}

		report := DeviceReport{
			Index:             gpuIndex,
			Name:              props.DriverName,
			Type:              props.DriverType.String(),
			APIVersion:        props.APIVersion,
			DriverVersion:     props.DriverVersion,
			VendorID:          props.VendorID,
			DeviceID:          props.DeviceID,
			PipelineCacheUUID: props.PipelineCacheUUID,
		}

		for familyIndex, family := range i.InstanceDriver.GetPhysicalDeviceQueueFamilyProperties(gpu) {
			report.QueueFamilies = append(report.QueueFamilies, QueueFamilyReport{
				Index:              familyIndex,
				GranularityWidth:   family.MinImageTransferGranularity.Width,
				GranularityHeight:  family.MinImageTransferGranularity.Height,
				GranularityDepth:   family.MinImageTransferGranularity.Depth,
				QueueCount:         family.QueueCount,
				QueueFlags:         family.QueueFlags.String(),
				TimestampValidBits: uint32(family.TimestampValidBits),
			})
		}

		reports = append(reports, report)
	}

	return reports, nil
}

// Version.String decorates the number, so driver versions are formatted here.
func formatDriverVersion(version common.Version) string {
	return fmt.Sprintf("%d.%d.%d", version.Major(), version.Minor(), version.Patch())
}

// RenderDeviceReports prints the device count followed by one box table per
// device.
func RenderDeviceReports(reports []DeviceReport) string {
	var out strings.Builder
	fmt.Fprintf(&out, "Device Count: %d\n", len(reports))

	for _, report := range reports {
		table := tablewriter.CreateTable()
		table.UTF8Box()
		table.AddTitle(fmt.Sprintf("DEVICE %d", report.Index))
		table.AddRow("API Version", report.APIVersion.String())
		table.AddRow("Device ID", fmt.Sprintf("%#x", report.DeviceID))
		table.AddRow("Device Name", report.Name)
		table.AddRow("Device Type", report.Type)
		table.AddRow("Driver Version", formatDriverVersion(report.DriverVersion))
		table.AddRow("Vendor ID", fmt.Sprintf("%#x", report.VendorID))
		table.AddRow("Pipeline Cache UUID", report.PipelineCacheUUID.String())

		for _, family := range report.QueueFamilies {
			table.AddSeparator()
			table.AddRow(fmt.Sprintf("QUEUE FAMILY %d", family.Index), "")
			table.AddRow("Min Image Transfer Granularity", fmt.Sprintf("depth %d, height %d, width %d",
				family.GranularityDepth, family.GranularityHeight, family.GranularityWidth))
			table.AddRow("Queue Count", family.QueueCount)
			table.AddRow("Queue Flags", family.QueueFlags)
			table.AddRow("Timestamp Valid Bits", family.TimestampValidBits)
		}

		out.WriteString(table.Render())
		out.WriteString("\n")
	}

	return out.String()
}
