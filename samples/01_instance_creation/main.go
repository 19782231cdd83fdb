package main

import (
	"runtime"

	"github.com/davidhart/vulkanapp/samples/utils"
)

/*
Create and destroy a Vulkan instance
*/

func init() {
	runtime.LockOSThread()
}

func main() {
	utils.Main("01_instance_creation", func(info *utils.SampleInfo) error {
		err := info.InitLoader()
		if err != nil {
			return err
		}

		err = info.InitInstanceExtensionNames()
		if err != nil {
			return err
		}

		err = info.InitInstance("Instance Creation Sample")
		if err != nil {
			return err
		}

		err = info.InitDebugMessenger()
		if err != nil {
			return err
		}

		info.Log.WithField("layers", info.InstanceLayerNames).Info("instance ready")
		return nil
	})
}
