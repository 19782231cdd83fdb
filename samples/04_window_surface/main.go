package main

import (
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
	"github.com/sirupsen/logrus"
)

/*
Create a window surface and choose a color format for it
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("04_window_surface", func(info *utils.SampleInfo) error {
		err := info.InitWindow()
		if err != nil {
			return err
		}

		err = info.InitLoader()
		if err != nil {
			return err
		}

		err = info.InitInstanceExtensionNames()
		if err != nil {
			return err
		}

		err = info.InitInstance("Window Surface Sample")
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

		err = info.InitSurface()
		if err != nil {
			return err
		}

		err = info.InitQueueFamilies()
		if err != nil {
			return err
		}

		err = info.InitSurfaceFormat()
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

		info.Log.WithFields(logrus.Fields{
			"graphicsFamily": info.GraphicsQueueFamilyIndex,
			"presentFamily":  info.PresentQueueFamilyIndex,
		}).Info("surface ready")
		return nil
	})
}
