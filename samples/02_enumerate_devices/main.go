package main

import (
	"fmt"
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
)

/*
Enumerate physical devices and print their properties and queue families
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("02_enumerate_devices", func(info *utils.SampleInfo) error {
		err := info.InitLoader()
		if err != nil {
			return err
		}

		err = info.InitInstanceExtensionNames()
		if err != nil {
			return err
		}

		err = info.InitInstance("Enumerate Devices Sample")
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

		/* VULKAN_KEY_START */

		reports, err := info.DescribeDevices()
		if err != nil {
			return err
		}

		fmt.Print(utils.RenderDeviceReports(reports))

		/* VULKAN_KEY_END */

		return nil
	})
}
