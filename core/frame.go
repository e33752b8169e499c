package core

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// frameRing tracks frame-in-flight slot rotation and which slot last
// submitted work against each swapchain image. Plain bookkeeping, no
// API handles, so the scheduling decisions stay testable.
type frameRing struct {
	slots      int
	current    int
	imageOwner []int
}

func newFrameRing(slots, images int) *frameRing {
	owners := make([]int, images)
	for i := range owners {
		owners[i] = -1
	}
	return &frameRing{
		slots:      slots,
		imageOwner: owners,
	}
}

// Slots returns the ring size
func (r *frameRing) Slots() int {
	return r.slots
}

// Current returns the active slot index
func (r *frameRing) Current() int {
	return r.current
}

// Acquire marks the image as owned by the current slot and returns
// the slot that owned it before, -1 when it was never used. A prior
// owner other than the current slot means the image is still
// potentially referenced by that slot's submission.
func (r *frameRing) Acquire(image int) int {
	prev := r.imageOwner[image]
	r.imageOwner[image] = r.current
	return prev
}

// Advance rotates to the next slot
func (r *frameRing) Advance() {
	r.current = (r.current + 1) % r.slots
}

// DrawFrame implements interface
func (v *VulkanRenderer) DrawFrame() error {
	slot := v.ring.Current()
	vk.WaitForFences(v.logicalDevice, 1, []vk.Fence{v.inFlightFences[slot]}, vk.True, vk.MaxUint64)

	if v.recreateNeeded {
		return v.recreateSwapchain()
	}

	var imageIndex uint32
	result := vk.AcquireNextImage(v.logicalDevice, v.swapchain, vk.MaxUint64, v.imageAvailableSemaphores[slot], vk.NullFence, &imageIndex)
	switch result {
	case vk.ErrorOutOfDate:
		// The frame never started, recreate and try again next tick
		return v.recreateSwapchain()
	case vk.Success, vk.Suboptimal:
	default:
		return errors.New("vk.AcquireNextImage(): " + vk.Error(result).Error())
	}
	staleAfterPresent := result == vk.Suboptimal

	// The acquired image may still be referenced by a submission
	// from another slot, wait it out before reusing the image
	if prev := v.ring.Acquire(int(imageIndex)); prev >= 0 && prev != slot {
		vk.WaitForFences(v.logicalDevice, 1, []vk.Fence{v.inFlightFences[prev]}, vk.True, vk.MaxUint64)
	}

	vk.ResetFences(v.logicalDevice, 1, []vk.Fence{v.inFlightFences[slot]})

	v.updateUniformBuffer(imageIndex)

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.imageAvailableSemaphores[slot]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{v.commandBuffers[imageIndex]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{v.renderFinishedSemaphores[slot]},
	}}

	if err := vk.Error(vk.QueueSubmit(v.graphicsQueue, 1, submit, v.inFlightFences[slot])); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.renderFinishedSemaphores[slot]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}

	presentResult := vk.QueuePresent(v.presentQueue, &presentInfo)
	switch {
	case presentResult == vk.ErrorOutOfDate || presentResult == vk.Suboptimal ||
		staleAfterPresent || v.recreateNeeded:
		// The frame was submitted, so recreation happens after
		// presentation instead of dropping the image. The rebuilt
		// ring starts over at slot zero
		return v.recreateSwapchain()
	case presentResult != vk.Success:
		return errors.New("vk.QueuePresent(): " + vk.Error(presentResult).Error())
	}

	v.ring.Advance()
	return nil
}
