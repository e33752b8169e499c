package core

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
	_ "golang.org/x/image/bmp"
)

// barrierMasks holds the access and stage pair a layout transition
// synchronises against.
type barrierMasks struct {
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
}

// layoutTransitionMasks resolves the masks for a supported layout
// transition. Only the two transitions the texture upload needs are
// known, anything else is a programming error.
func layoutTransitionMasks(oldLayout, newLayout vk.ImageLayout) (barrierMasks, error) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return barrierMasks{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return barrierMasks{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	default:
		return barrierMasks{}, fmt.Errorf("unsupported layout transition: %d to %d", oldLayout, newLayout)
	}
}

func (v *VulkanRenderer) transitionImageLayout(img vk.Image, oldLayout, newLayout vk.ImageLayout) error {
	masks, err := layoutTransitionMasks(oldLayout, newLayout)
	if err != nil {
		return err
	}

	commandBuffer, err := v.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcAccessMask: masks.srcAccess,
		DstAccessMask: masks.dstAccess,
	}

	vk.CmdPipelineBarrier(commandBuffer, masks.srcStage, masks.dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

	return v.endSingleTimeCommands(commandBuffer)
}

func (v *VulkanRenderer) copyBufferToImage(buffer vk.Buffer, img vk.Image, width, height uint32) error {
	commandBuffer, err := v.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
	}

	vk.CmdCopyBufferToImage(commandBuffer, buffer, img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})

	return v.endSingleTimeCommands(commandBuffer)
}

// loadTextureFile decodes the configured texture into tightly packed
// RGBA pixels. PNG and BMP register their decoders via import side
// effects.
func loadTextureFile(path string) ([]uint8, uint32, uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, 0, 0, errors.New("image.Decode(): " + err.Error())
	}

	bounds := img.Bounds()
	pixels, err := GetPixels(img, 0)
	if err != nil {
		return nil, 0, 0, err
	}
	return pixels, uint32(bounds.Dx()), uint32(bounds.Dy()), nil
}

func (v *VulkanRenderer) createTextureImage() error {
	pixels, width, height, err := loadTextureFile(v.configuration.TexturePath)
	if err != nil {
		return err
	}

	size := vk.DeviceSize(len(pixels))
	stagingBuffer, stagingMemory, err := v.createBuffer(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer func() {
		vk.DestroyBuffer(v.logicalDevice, stagingBuffer, nil)
		vk.FreeMemory(v.logicalDevice, stagingMemory, nil)
	}()

	var mappedMemory unsafe.Pointer
	vk.MapMemory(v.logicalDevice, stagingMemory, 0, size, 0, &mappedMemory)
	vk.Memcopy(mappedMemory, pixels)
	vk.UnmapMemory(v.logicalDevice, stagingMemory)

	families := v.transferSharingFamilies()
	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.FormatR8g8b8a8Srgb,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		InitialLayout: vk.ImageLayoutUndefined,
		SharingMode:   vk.SharingModeExclusive,
	}
	if len(families) > 1 {
		ici.SharingMode = vk.SharingModeConcurrent
		ici.QueueFamilyIndexCount = uint32(len(families))
		ici.PQueueFamilyIndices = families
	}

	var img vk.Image
	if err := vk.Error(vk.CreateImage(v.logicalDevice, &ici, nil, &img)); err != nil {
		return errors.New("vk.CreateImage(): " + err.Error())
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(v.logicalDevice, img, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := v.getMemoryType(memoryRequirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(v.logicalDevice, &mai, nil, &memory)); err != nil {
		return errors.New("vk.AllocateMemory(): " + err.Error())
	}

	if err := vk.Error(vk.BindImageMemory(v.logicalDevice, img, memory, 0)); err != nil {
		return errors.New("vk.BindImageMemory(): " + err.Error())
	}

	if err := v.transitionImageLayout(img, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}
	if err := v.copyBufferToImage(stagingBuffer, img, width, height); err != nil {
		return err
	}
	if err := v.transitionImageLayout(img, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return err
	}

	v.textureImage = img
	v.textureImageMemory = memory
	return nil
}

func (v *VulkanRenderer) createTextureImageView() error {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    v.textureImage,
		ViewType: vk.ImageViewType2d,
		Format:   vk.FormatR8g8b8a8Srgb,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var imageView vk.ImageView
	if err := vk.Error(vk.CreateImageView(v.logicalDevice, &ivci, nil, &imageView)); err != nil {
		return errors.New("vk.CreateImageView(): " + err.Error())
	}
	v.textureImageView = imageView
	return nil
}

func (v *VulkanRenderer) createTextureSampler() error {
	sci := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           16,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}

	var sampler vk.Sampler
	if err := vk.Error(vk.CreateSampler(v.logicalDevice, &sci, nil, &sampler)); err != nil {
		return errors.New("vk.CreateSampler(): " + err.Error())
	}
	v.textureSampler = sampler
	return nil
}
