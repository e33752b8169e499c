package core

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

func (v *VulkanRenderer) createCommandPools() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: v.queueIndices.graphics.index,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(v.logicalDevice, &cpci, nil, &commandPool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	v.commandPool = commandPool

	// One-shot staging copies live on their own transient pool,
	// on the transfer family.
	tpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: v.queueIndices.transfer.index,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}

	var transferPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(v.logicalDevice, &tpci, nil, &transferPool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	v.transferCommandPool = transferPool

	return nil
}

func (v *VulkanRenderer) allocateCommandBuffers() error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        v.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(v.framebuffers)),
	}

	commandBuffers := make([]vk.CommandBuffer, len(v.framebuffers))
	if err := vk.Error(vk.AllocateCommandBuffers(v.logicalDevice, &cbai, commandBuffers)); err != nil {
		return errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	v.commandBuffers = commandBuffers

	return nil
}

// buildCommandBuffers records the full frame for every framebuffer.
// Buffers are recorded once and replayed, a rebuild re-records all of
// them wholesale.
func (v *VulkanRenderer) buildCommandBuffers() error {
	for imageIdx := range v.commandBuffers {
		cbbi := vk.CommandBufferBeginInfo{
			SType: vk.StructureTypeCommandBufferBeginInfo,
			Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
		}
		if err := vk.Error(vk.BeginCommandBuffer(v.commandBuffers[imageIdx], &cbbi)); err != nil {
			return fmt.Errorf("vk.BeginCommandBuffer()[%d]: %s", imageIdx, err.Error())
		}

		clearValues := make([]vk.ClearValue, 1)
		clearValues[0].SetColor([]float32{
			0.005, 0.005, 0.005, 1,
		})

		rpbi := vk.RenderPassBeginInfo{
			SType:       vk.StructureTypeRenderPassBeginInfo,
			RenderPass:  v.renderPass,
			Framebuffer: v.framebuffers[imageIdx],
			RenderArea: vk.Rect2D{
				Offset: vk.Offset2D{
					X: 0, Y: 0,
				},
				Extent: vk.Extent2D{
					Width:  v.currentSurfaceWidth,
					Height: v.currentSurfaceHeight,
				},
			},
			ClearValueCount: uint32(len(clearValues)),
			PClearValues:    clearValues,
		}
		vk.CmdBeginRenderPass(v.commandBuffers[imageIdx], &rpbi, vk.SubpassContentsInline)
		vk.CmdBindPipeline(v.commandBuffers[imageIdx], vk.PipelineBindPointGraphics, v.pipeline)
		vk.CmdSetViewport(v.commandBuffers[imageIdx], 0, 1, []vk.Viewport{v.viewport})
		vk.CmdSetScissor(v.commandBuffers[imageIdx], 0, 1, []vk.Rect2D{v.scissor})

		vk.CmdBindVertexBuffers(v.commandBuffers[imageIdx], 0, 1, []vk.Buffer{v.vertexBuffer}, []vk.DeviceSize{0})
		vk.CmdBindIndexBuffer(v.commandBuffers[imageIdx], v.indexBuffer, 0, vk.IndexTypeUint16)
		vk.CmdBindDescriptorSets(v.commandBuffers[imageIdx], vk.PipelineBindPointGraphics, v.pipelineLayout, 0, 1,
			[]vk.DescriptorSet{v.descriptorSets[imageIdx]}, 0, nil)
		vk.CmdDrawIndexed(v.commandBuffers[imageIdx], v.indexCount, 1, 0, 0, 0)

		vk.CmdEndRenderPass(v.commandBuffers[imageIdx])

		if err := vk.Error(vk.EndCommandBuffer(v.commandBuffers[imageIdx])); err != nil {
			return fmt.Errorf("vk.EndCommandBuffer()[%d]: %s", imageIdx, err.Error())
		}
	}
	return nil
}
