package main

import (
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
	"github.com/sirupsen/logrus"
)

/*
Create a logical device with a graphics queue and allocate a command buffer from it
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("03_logical_device", func(info *utils.SampleInfo) error {
		err := info.InitLoader()
		if err != nil {
			return err
		}

		err = info.InitInstanceExtensionNames()
		if err != nil {
			return err
		}

		err = info.InitInstance("Logical Device Sample")
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

		err = info.InitDeviceGraphicsOnly()
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

		err = info.InitCommandPool()
		if err != nil {
			return err
		}

		err = info.InitCommandBuffers(1)
		if err != nil {
			return err
		}

		/* VULKAN_KEY_END */

		info.Log.WithFields(logrus.Fields{
			"queueFamily": info.GraphicsQueueFamilyIndex,
			"extensions":  info.DeviceExtensionNames,
		}).Info("logical device ready")
		return nil
	})
}
