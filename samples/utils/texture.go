package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

type TextureObject struct {
	Sampler core1_0.Sampler

	Image       core1_0.Image
	ImageLayout core1_0.ImageLayout
	ImageMemory core1_0.DeviceMemory
	View        core1_0.ImageView

	TexWidth, TexHeight int
}

// ImagePixels returns img as tightly packed 8-bit RGBA rows starting at the
// top left corner.
func ImagePixels(img image.Image) ([]byte, int, int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == width*4 && bounds.Min == (image.Point{}) {
		return rgba.Pix, width, height
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba.Pix, width, height
}

// Checkerboard is the texture used when none is configured: size x size
// pixels split into cells x cells alternating squares.
func Checkerboard(size, cells int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	light := color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	dark := color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff}

	cellSize := size / cells
	if cellSize == 0 {
		cellSize = 1
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cellSize+y/cellSize)%2 == 0 {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return img
}

// LoadTexture decodes a png, jpeg, bmp or tiff file. An empty path yields
// the checkerboard.
func LoadTexture(path string) (image.Image, error) {
	if path == "" {
		return Checkerboard(256, 8), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read texture")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode texture %s", path)
	}

	if img.Bounds().Empty() {
		return nil, errors.Newf("texture %s (%s) is empty", path, format)
	}
	return img, nil
}

// InitTexture uploads img into an sRGB sampled image through a staging
// buffer and creates its view and sampler.
func (i *SampleInfo) InitTexture(img image.Image) error {
	pixels, width, height := ImagePixels(img)
	texture := &TextureObject{
		TexWidth:  width,
		TexHeight: height,
	}
	i.Texture = texture

	staging, err := i.createBuffer(len(pixels), core1_0.BufferUsageTransferSrc, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	defer i.destroyBufferObject(&staging)
	if err != nil {
		return errors.Wrap(err, "create texture staging buffer")
	}

	err = writeData(i.DeviceDriver, staging.Mem, 0, pixels)
	if err != nil {
		return errors.Wrap(err, "fill texture staging buffer")
	}

	texture.Image, texture.ImageMemory, err = i.createImage(width, height, TextureFormat,
		core1_0.ImageUsageTransferDst|core1_0.ImageUsageSampled, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return errors.Wrap(err, "create texture image")
	}
	texture.ImageLayout = core1_0.ImageLayoutUndefined

	cmd, err := i.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = i.setImageLayout(cmd, texture.Image, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal)
	if err == nil {
		err = i.DeviceDriver.CmdCopyBufferToImage(cmd, staging.Buf, texture.Image, core1_0.ImageLayoutTransferDstOptimal,
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
		err = i.setImageLayout(cmd, texture.Image, core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal)
	}
	if err != nil {
		i.DeviceDriver.FreeCommandBuffers(cmd)
		return errors.Wrap(err, "record texture upload")
	}

	err = i.endSingleTimeCommands(cmd)
	if err != nil {
		return errors.Wrap(err, "upload texture")
	}
	texture.ImageLayout = core1_0.ImageLayoutShaderReadOnlyOptimal

	texture.View, err = i.createImageView(texture.Image, TextureFormat, core1_0.ImageAspectColor)
	if err != nil {
		return errors.Wrap(err, "create texture view")
	}

	return i.initSampler(texture)
}

func (i *SampleInfo) initSampler(texture *TextureObject) error {
	createInfo := core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		MipmapMode:   core1_0.SamplerMipmapModeLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,
		BorderColor:  core1_0.BorderColorIntOpaqueBlack,
		MinLod:       0,
		MaxLod:       0,
	}

	// The device was created with every supported feature, so anisotropy is
	// enabled exactly when the GPU offers it.
	if i.GpuFeatures != nil && i.GpuFeatures.SamplerAnisotropy {
		createInfo.AnisotropyEnable = true
		createInfo.MaxAnisotropy = i.GpuProps.Limits.MaxSamplerAnisotropy
	}

	var err error
	texture.Sampler, _, err = i.DeviceDriver.CreateSampler(nil, createInfo)
	return errors.Wrap(err, "create sampler")
}

func (i *SampleInfo) DestroyTexture() {
	texture := i.Texture
	if texture == nil {
		return
	}

	if texture.Sampler.Initialized() {
		i.DeviceDriver.DestroySampler(texture.Sampler, nil)
	}
	if texture.View.Initialized() {
		i.DeviceDriver.DestroyImageView(texture.View, nil)
	}
	if texture.Image.Initialized() {
		i.DeviceDriver.DestroyImage(texture.Image, nil)
	}
	if texture.ImageMemory.Initialized() {
		i.DeviceDriver.FreeMemory(texture.ImageMemory, nil)
	}
	i.Texture = nil
}
