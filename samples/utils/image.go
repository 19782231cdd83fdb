package utils

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// PixelsToImage converts rows read back from a color image of the given
// format into an RGBA image. rowPitch is the byte distance between rows.
func PixelsToImage(data []byte, width, height, rowPitch int, format core1_0.Format) (*image.RGBA, error) {
	var red, blue int
	switch format {
	case core1_0.FormatB8G8R8A8UnsignedNormalized, core1_0.FormatB8G8R8A8SRGB:
		red, blue = 2, 0
	case core1_0.FormatR8G8B8A8UnsignedNormalized, core1_0.FormatR8G8B8A8SRGB:
		red, blue = 0, 2
	default:
		return nil, errors.Newf("unrecognized image format %s - will not write image files", format)
	}

	if rowPitch < width*4 || len(data) < rowPitch*(height-1)+width*4 {
		return nil, errors.Newf("%d bytes with row pitch %d cannot hold a %dx%d image", len(data), rowPitch, width, height)
	}

	outImg := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := data[y*rowPitch:]
		dst := outImg.Pix[y*outImg.Stride:]
		for x := 0; x < width; x++ {
			dst[x*4] = src[x*4+red]
			dst[x*4+1] = src[x*4+1]
			dst[x*4+2] = src[x*4+blue]
			dst[x*4+3] = src[x*4+3]
		}
	}
	return outImg, nil
}

// WritePNG saves swapchain image imageIndex as <baseName>.png. The image
// must be acquired and not yet presented, in the present source layout, and
// the swapchain must have been created with transfer source usage, which
// --save-images requests.
func (i *SampleInfo) WritePNG(baseName string, imageIndex int) error {
	_, err := i.DeviceDriver.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	width, height := i.Extent.Width, i.Extent.Height
	size := width * height * 4

	readback, err := i.createBuffer(size, core1_0.BufferUsageTransferDst, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	defer i.destroyBufferObject(&readback)
	if err != nil {
		return errors.Wrap(err, "create readback buffer")
	}

	cmd, err := i.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	source := i.Buffers[imageIndex].Image
	err = i.setImageLayout(cmd, source, khr_swapchain.ImageLayoutPresentSrc, core1_0.ImageLayoutTransferSrcOptimal)
	if err == nil {
		err = i.DeviceDriver.CmdCopyImageToBuffer(cmd, source, core1_0.ImageLayoutTransferSrcOptimal, readback.Buf,
			core1_0.BufferImageCopy{
				BufferOffset:      0,
				BufferRowLength:   0,
				BufferImageHeight: 0,
				ImageSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     core1_0.ImageAspectColor,
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
			})
	}
	if err == nil {
		err = i.setImageLayout(cmd, source, core1_0.ImageLayoutTransferSrcOptimal, khr_swapchain.ImageLayoutPresentSrc)
	}
	if err != nil {
		i.DeviceDriver.FreeCommandBuffers(cmd)
		return errors.Wrap(err, "record readback")
	}

	err = i.endSingleTimeCommands(cmd)
	if err != nil {
		return err
	}

	data, err := readData(i.DeviceDriver, readback.Mem, size)
	if err != nil {
		return err
	}

	outImg, err := PixelsToImage(data, width, height, width*4, i.Format)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%s.png", baseName)
	writeFile, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "create png")
	}
	defer writeFile.Close()

	err = png.Encode(writeFile, outImg)
	if err != nil {
		return errors.Wrapf(err, "encode %s", filename)
	}

	i.Log.WithField("file", filename).Info("frame saved")
	return nil
}
