package core

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/vitra3d/vitra/model"
)

// chooseMemoryType picks the first memory type whose bit is set in
// the type filter and whose flags contain every requested property.
func chooseMemoryType(types []vk.MemoryType, typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	for idx := range types {
		if (typeBits & 1) == 1 {
			if (types[idx].PropertyFlags & properties) == properties {
				return uint32(idx), nil
			}
		}
		typeBits >>= 1
	}
	return 0, errors.New("requested memory type not found")
}

func (v *VulkanRenderer) getMemoryType(typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(v.physicalDevice, &memoryProperties)
	memoryProperties.Deref()

	types := make([]vk.MemoryType, memoryProperties.MemoryTypeCount)
	for idx := range types {
		memoryProperties.MemoryTypes[idx].Deref()
		types[idx] = memoryProperties.MemoryTypes[idx]
	}
	return chooseMemoryType(types, typeBits, properties)
}

// transferSharingFamilies lists the distinct families that touch
// staging transfers. Buffers and images shared across more than one
// family are created concurrent over exactly this set.
func (v *VulkanRenderer) transferSharingFamilies() []uint32 {
	families := []uint32{v.queueIndices.graphics.index}
	if v.queueIndices.transfer.index != v.queueIndices.graphics.index {
		families = append(families, v.queueIndices.transfer.index)
	}
	return families
}

func (v *VulkanRenderer) createBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	families := v.transferSharingFamilies()
	bci := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if len(families) > 1 {
		bci.SharingMode = vk.SharingModeConcurrent
		bci.QueueFamilyIndexCount = uint32(len(families))
		bci.PQueueFamilyIndices = families
	}

	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(v.logicalDevice, &bci, nil, &buffer)); err != nil {
		return nil, nil, errors.New("vk.CreateBuffer(): " + err.Error())
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(v.logicalDevice, buffer, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := v.getMemoryType(memoryRequirements.MemoryTypeBits, properties)
	if err != nil {
		return nil, nil, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(v.logicalDevice, &mai, nil, &memory)); err != nil {
		return nil, nil, errors.New("vk.AllocateMemory(): " + err.Error())
	}

	if err := vk.Error(vk.BindBufferMemory(v.logicalDevice, buffer, memory, 0)); err != nil {
		return nil, nil, errors.New("vk.BindBufferMemory(): " + err.Error())
	}
	return buffer, memory, nil
}

// beginSingleTimeCommands allocates and begins a one-shot command
// buffer on the transient transfer pool.
func (v *VulkanRenderer) beginSingleTimeCommands() (vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        v.transferCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(v.logicalDevice, &cbai, commandBuffers)); err != nil {
		return nil, errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(commandBuffers[0], &cbbi)); err != nil {
		return nil, errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}
	return commandBuffers[0], nil
}

// endSingleTimeCommands submits the one-shot buffer on the transfer
// queue and waits for it synchronously.
func (v *VulkanRenderer) endSingleTimeCommands(commandBuffer vk.CommandBuffer) error {
	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{commandBuffer},
	}}

	if err := vk.Error(vk.QueueSubmit(v.transferQueue, 1, submit, vk.NullFence)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}
	if err := vk.Error(vk.QueueWaitIdle(v.transferQueue)); err != nil {
		return errors.New("vk.QueueWaitIdle(): " + err.Error())
	}

	vk.FreeCommandBuffers(v.logicalDevice, v.transferCommandPool, 1, []vk.CommandBuffer{commandBuffer})
	return nil
}

func (v *VulkanRenderer) copyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	commandBuffer, err := v.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	vk.CmdCopyBuffer(commandBuffer, src, dst, 1, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}})

	return v.endSingleTimeCommands(commandBuffer)
}

// uploadToDeviceLocal stages contents through a host visible buffer
// into a fresh device local buffer with the given usage.
func (v *VulkanRenderer) uploadToDeviceLocal(contents unsafe.Pointer, size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, vk.DeviceMemory, error) {
	stagingBuffer, stagingMemory, err := v.createBuffer(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		vk.DestroyBuffer(v.logicalDevice, stagingBuffer, nil)
		vk.FreeMemory(v.logicalDevice, stagingMemory, nil)
	}()

	var mappedMemory unsafe.Pointer
	vk.MapMemory(v.logicalDevice, stagingMemory, 0, size, 0, &mappedMemory)
	vk.Memcopy(mappedMemory, *(*[]byte)(unsafe.Pointer(&sliceHeader{
		Data: uintptr(contents),
		Cap:  int(size),
		Len:  int(size),
	})))
	vk.UnmapMemory(v.logicalDevice, stagingMemory)

	buffer, memory, err := v.createBuffer(size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, nil, err
	}

	if err := v.copyBuffer(stagingBuffer, buffer, size); err != nil {
		return nil, nil, err
	}
	return buffer, memory, nil
}

func (v *VulkanRenderer) createVertexBuffer() error {
	vertices := model.QuadVertices
	size := vk.DeviceSize(int(unsafe.Sizeof(model.Vertex{})) * len(vertices))

	buffer, memory, err := v.uploadToDeviceLocal(unsafe.Pointer(&vertices[0]), size,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return err
	}
	v.vertexBuffer = buffer
	v.vertexMemory = memory
	return nil
}

func (v *VulkanRenderer) createIndexBuffer() error {
	indices := model.QuadIndices
	size := vk.DeviceSize(int(unsafe.Sizeof(indices[0])) * len(indices))

	buffer, memory, err := v.uploadToDeviceLocal(unsafe.Pointer(&indices[0]), size,
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		return err
	}
	v.indexBuffer = buffer
	v.indexMemory = memory
	v.indexCount = uint32(len(indices))
	return nil
}

func (v *VulkanRenderer) createUniformBuffers() error {
	size := vk.DeviceSize(unsafe.Sizeof(model.Uniform{}))

	v.uniformBuffers = make([]vk.Buffer, len(v.swapchainImages))
	v.uniformBuffersMemory = make([]vk.DeviceMemory, len(v.swapchainImages))
	for idx := range v.swapchainImages {
		buffer, memory, err := v.createBuffer(size,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			return err
		}
		v.uniformBuffers[idx] = buffer
		v.uniformBuffersMemory[idx] = memory
	}
	return nil
}

func (v *VulkanRenderer) prepareDescriptorPool() error {
	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: uint32(len(v.swapchainImages)),
		},
		{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: uint32(len(v.swapchainImages)),
		}}
	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(len(v.swapchainImages)),
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var descriptorPool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(v.logicalDevice, &dpci, nil, &descriptorPool)); err != nil {
		return errors.New("vk.CreateDescriptorPool(): " + err.Error())
	}
	v.descriptorPool = descriptorPool
	return nil
}

func (v *VulkanRenderer) createDescriptorSets() error {
	descriptorSets := make([]vk.DescriptorSet, len(v.swapchainImages))
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     v.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{v.descriptorSetLayout},
	}

	for idx := range v.swapchainImages {
		if err := vk.Error(vk.AllocateDescriptorSets(v.logicalDevice, &dsai, &descriptorSets[idx])); err != nil {
			return fmt.Errorf("vk.AllocateDescriptorSets(): %s", err.Error())
		}

		dbi := vk.DescriptorBufferInfo{
			Buffer: v.uniformBuffers[idx],
			Offset: 0,
			Range:  vk.DeviceSize(unsafe.Sizeof(model.Uniform{})),
		}
		dii := vk.DescriptorImageInfo{
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			ImageView:   v.textureImageView,
			Sampler:     v.textureSampler,
		}
		wds := []vk.WriteDescriptorSet{{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSets[idx],
			DstBinding:      0,
			DstArrayElement: 0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			PBufferInfo:     []vk.DescriptorBufferInfo{dbi},
		}, {
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          descriptorSets[idx],
			DstBinding:      1,
			DstArrayElement: 0,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			PImageInfo:      []vk.DescriptorImageInfo{dii},
		}}
		vk.UpdateDescriptorSets(v.logicalDevice, uint32(len(wds)), wds, 0, nil)
	}
	v.descriptorSets = descriptorSets
	return nil
}

func (v *VulkanRenderer) updateUniformBuffer(imageIdx uint32) {
	elapsed := float32(time.Since(v.startTime).Seconds())
	ubo := model.Uniform{
		Model:      glm.HomogRotate3DZ(elapsed * glm.DegToRad(90)),
		View:       glm.LookAt(2, 2, 2, 0, 0, 0, 0, 0, 1),
		Projection: glm.Perspective(glm.DegToRad(45), (float32)(v.currentSurfaceWidth)/(float32)(v.currentSurfaceHeight), 0.1, 10),
	}
	ubo.Projection[5] *= -1 // Flip from OpenGl to Vulkan projection

	var mappedMemory unsafe.Pointer
	vk.MapMemory(v.logicalDevice, v.uniformBuffersMemory[imageIdx], 0, vk.DeviceSize(unsafe.Sizeof(ubo)), 0, &mappedMemory)
	castMemory := *(*[]model.Uniform)(unsafe.Pointer(&sliceHeader{
		Data: uintptr(mappedMemory),
		Cap:  1,
		Len:  1,
	}))
	copy(castMemory, []model.Uniform{ubo})
	vk.UnmapMemory(v.logicalDevice, v.uniformBuffersMemory[imageIdx])
}
