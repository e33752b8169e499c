package core

import (
	"errors"
	"math"

	vk "github.com/vulkan-go/vulkan"
)

// swapchainSupport is everything the surface reports about what the
// presentation engine can do for a given device.
type swapchainSupport struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func (v *VulkanRenderer) querySwapchainSupport(device vk.PhysicalDevice) swapchainSupport {
	var support swapchainSupport
	vk.GetPhysicalDeviceSurfaceCapabilities(device, v.surface, &support.capabilities)
	support.capabilities.Deref()
	support.capabilities.CurrentExtent.Deref()
	support.capabilities.MinImageExtent.Deref()
	support.capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(device, v.surface, &formatCount, nil)
	if formatCount > 0 {
		support.formats = make([]vk.SurfaceFormat, formatCount)
		vk.GetPhysicalDeviceSurfaceFormats(device, v.surface, &formatCount, support.formats)
		for i := range support.formats {
			support.formats[i].Deref()
		}
	}

	var presentCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(device, v.surface, &presentCount, nil)
	if presentCount > 0 {
		support.presentModes = make([]vk.PresentMode, presentCount)
		vk.GetPhysicalDeviceSurfacePresentModes(device, v.surface, &presentCount, support.presentModes)
	}

	return support
}

// chooseSurfaceFormat prefers 8-bit BGRA with sRGB nonlinear color
// space, otherwise the first format the surface supports.
func chooseSurfaceFormat(available []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range available {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return available[0]
}

// choosePresentMode prefers mailbox. FIFO is the guaranteed fallback,
// so it is returned even for an empty list.
func choosePresentMode(available []vk.PresentMode) vk.PresentMode {
	for _, m := range available {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseSwapExtent resolves the swapchain extent. The sentinel width
// means the surface matches whatever the window framebuffer is, clamped
// into the supported range; any other value is taken verbatim.
func chooseSwapExtent(caps vk.SurfaceCapabilities, fbWidth, fbHeight int) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(uint32(fbWidth), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(uint32(fbHeight), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for one image over the minimum so the driver
// never blocks on internal bookkeeping, clamped to the maximum when
// the surface reports one (zero means unbounded).
func chooseImageCount(minCount, maxCount uint32) uint32 {
	count := minCount + 1
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}
	return count
}

// waitForNonZeroExtent blocks on window events until the framebuffer
// has area again. A minimised window reports zero and a zero-sized
// swapchain cannot exist.
func waitForNonZeroExtent(s Surfacer) (int, int) {
	w, h := s.FramebufferSize()
	for w == 0 || h == 0 {
		s.WaitEvents()
		w, h = s.FramebufferSize()
	}
	return w, h
}

func (v *VulkanRenderer) createSwapchain(oldSwapchain vk.Swapchain) error {
	support := v.querySwapchainSupport(v.physicalDevice)
	if len(support.formats) == 0 {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): surface reports no formats")
	}

	surfaceFormat := chooseSurfaceFormat(support.formats)
	presentMode := choosePresentMode(support.presentModes)

	fbWidth, fbHeight := v.surfacer.FramebufferSize()
	extent := chooseSwapExtent(support.capabilities, fbWidth, fbHeight)
	imageCount := chooseImageCount(support.capabilities.MinImageCount, support.capabilities.MaxImageCount)

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          v.surface,
		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}

	// The transfer family never touches swapchain images, so the
	// sharing set is only graphics and present.
	if v.queueIndices.graphics.index != v.queueIndices.present.index {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = 2
		scci.PQueueFamilyIndices = []uint32{v.queueIndices.graphics.index, v.queueIndices.present.index}
	} else {
		scci.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(v.logicalDevice, &scci, nil, &swapchain)); err != nil {
		return errors.New("vk.CreateSwapchain(): " + err.Error())
	}
	v.swapchain = swapchain

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(v.logicalDevice, v.swapchain, &numImages, nil)); err != nil {
		return errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}
	v.swapchainImages = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(v.logicalDevice, v.swapchain, &numImages, v.swapchainImages)); err != nil {
		return errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}

	v.imageFormat = surfaceFormat.Format
	v.imageColorspace = surfaceFormat.ColorSpace
	v.currentSurfaceWidth = extent.Width
	v.currentSurfaceHeight = extent.Height
	return nil
}

func (v *VulkanRenderer) createImageViews() error {
	v.swapchainImageViews = make([]vk.ImageView, 0, len(v.swapchainImages))
	for idx := 0; idx < len(v.swapchainImages); idx++ {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    v.swapchainImages[idx],
			ViewType: vk.ImageViewType2d,
			Format:   v.imageFormat,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
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
		v.swapchainImageViews = append(v.swapchainImageViews, imageView)
	}
	return nil
}
