package core

import (
	"errors"
	"time"

	vk "github.com/vulkan-go/vulkan"
)

// NewVulkanRenderer creates a not yet initialised Vulkan API renderer
func NewVulkanRenderer(instance Instance, surfacer Surfacer, cfg RendererConfiguration) (Renderer, error) {
	if len(cfg.DeviceExtensions) == 0 {
		cfg.DeviceExtensions = []string{"VK_KHR_swapchain"}
	}
	if cfg.FramesInFlight <= 0 {
		cfg.FramesInFlight = 2
	}
	if cfg.ShaderDirectory == "" {
		dir, err := defaultShaderDirectory()
		if err != nil {
			return nil, err
		}
		cfg.ShaderDirectory = dir
	}
	return &VulkanRenderer{
		configuration:        cfg,
		surfacer:             surfacer,
		currentSurfaceHeight: cfg.ScreenHeight,
		currentSurfaceWidth:  cfg.ScreenWidth,
		surface:              instance.Surface(),
		availableDevices:     instance.AvailableDevices(),
	}, nil
}

// VulkanRenderer is a Vulkan API renderer
type VulkanRenderer struct {
	configuration RendererConfiguration
	surfacer      Surfacer

	surface          vk.Surface
	availableDevices []vk.PhysicalDevice

	physicalDevice vk.PhysicalDevice
	logicalDevice  vk.Device
	queueIndices   familyIndices
	graphicsQueue  vk.Queue
	presentQueue   vk.Queue
	transferQueue  vk.Queue

	imageFormat          vk.Format
	imageColorspace      vk.ColorSpace
	currentSurfaceWidth  uint32
	currentSurfaceHeight uint32

	swapchain           vk.Swapchain
	swapchainImages     []vk.Image
	swapchainImageViews []vk.ImageView
	framebuffers        []vk.Framebuffer

	viewport vk.Viewport
	scissor  vk.Rect2D

	shaders             []Shader
	descriptorSetLayout vk.DescriptorSetLayout
	pipelineLayout      vk.PipelineLayout
	pipelineCache       vk.PipelineCache
	pipeline            vk.Pipeline
	renderPass          vk.RenderPass

	commandPool         vk.CommandPool
	transferCommandPool vk.CommandPool
	commandBuffers      []vk.CommandBuffer

	vertexBuffer vk.Buffer
	vertexMemory vk.DeviceMemory
	indexBuffer  vk.Buffer
	indexMemory  vk.DeviceMemory
	indexCount   uint32

	uniformBuffers       []vk.Buffer
	uniformBuffersMemory []vk.DeviceMemory
	descriptorPool       vk.DescriptorPool
	descriptorSets       []vk.DescriptorSet

	textureImage       vk.Image
	textureImageMemory vk.DeviceMemory
	textureImageView   vk.ImageView
	textureSampler     vk.Sampler

	ring                     *frameRing
	imageAvailableSemaphores []vk.Semaphore
	renderFinishedSemaphores []vk.Semaphore
	inFlightFences           []vk.Fence

	recreateNeeded bool
	startTime      time.Time
}

// Initialise implements interface
func (v *VulkanRenderer) Initialise() error {
	if err := v.pickPhysicalDevice(v.availableDevices); err != nil {
		return err
	}

	if err := v.createLogicalDevice(); err != nil {
		return err
	}

	/* Swapchain setup */
	if err := v.createSwapchain(vk.NullSwapchain); err != nil {
		return err
	}

	/* Viewport and scissors creation */
	v.createViewport()

	if err := v.createImageViews(); err != nil {
		return err
	}

	/* Render pass */
	if err := v.createRenderPass(); err != nil {
		return err
	}

	/* Descriptor set layout, lives as long as the device does */
	if err := v.createDescriptorSetLayout(); err != nil {
		return err
	}

	/* Pipeline layout */
	if err := v.createPipelineLayout(); err != nil {
		return err
	}

	/* Shaders */
	if err := v.loadShaders(); err != nil {
		return err
	}

	/* Pipeline cache */
	if err := v.createPipelineCache(); err != nil {
		return err
	}

	/* Pipeline */
	if err := v.createPipeline(); err != nil {
		return err
	}

	if err := v.createFramebuffers(); err != nil {
		return err
	}

	if err := v.createCommandPools(); err != nil {
		return err
	}

	/* Static resources, these survive swapchain recreation */
	if err := v.createTextureImage(); err != nil {
		return err
	}

	if err := v.createTextureImageView(); err != nil {
		return err
	}

	if err := v.createTextureSampler(); err != nil {
		return err
	}

	if err := v.createVertexBuffer(); err != nil {
		return err
	}

	if err := v.createIndexBuffer(); err != nil {
		return err
	}

	/* Per swapchain image resources */
	if err := v.createUniformBuffers(); err != nil {
		return err
	}

	if err := v.prepareDescriptorPool(); err != nil {
		return err
	}

	if err := v.createDescriptorSets(); err != nil {
		return err
	}

	if err := v.allocateCommandBuffers(); err != nil {
		return err
	}

	if err := v.createSynchronization(); err != nil {
		return err
	}

	/* Fill in command buffers */
	if err := v.buildCommandBuffers(); err != nil {
		return err
	}

	v.startTime = time.Now()
	return nil
}

func (v *VulkanRenderer) createViewport() {
	v.viewport = vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(v.currentSurfaceWidth),
		Height:   float32(v.currentSurfaceHeight),
		MinDepth: 0,
		MaxDepth: 1,
	}

	v.scissor = vk.Rect2D{
		Offset: vk.Offset2D{
			X: 0,
			Y: 0,
		},
		Extent: vk.Extent2D{
			Width:  v.currentSurfaceWidth,
			Height: v.currentSurfaceHeight,
		},
	}
}

// RequestRecreate implements interface
func (v *VulkanRenderer) RequestRecreate() {
	v.recreateNeeded = true
}

// destroySwapchainResources tears down everything that depends on the
// swapchain, as a unit. Partial teardown is not permitted.
func (v *VulkanRenderer) destroySwapchainResources() {
	if len(v.commandBuffers) > 0 {
		vk.FreeCommandBuffers(v.logicalDevice, v.commandPool, uint32(len(v.commandBuffers)), v.commandBuffers)
		v.commandBuffers = nil
	}

	for _, fb := range v.framebuffers {
		vk.DestroyFramebuffer(v.logicalDevice, fb, nil)
	}
	v.framebuffers = nil

	vk.DestroyPipeline(v.logicalDevice, v.pipeline, nil)
	vk.DestroyPipelineLayout(v.logicalDevice, v.pipelineLayout, nil)
	vk.DestroyRenderPass(v.logicalDevice, v.renderPass, nil)

	for _, iv := range v.swapchainImageViews {
		vk.DestroyImageView(v.logicalDevice, iv, nil)
	}
	v.swapchainImageViews = nil

	for idx := range v.uniformBuffers {
		vk.DestroyBuffer(v.logicalDevice, v.uniformBuffers[idx], nil)
		vk.FreeMemory(v.logicalDevice, v.uniformBuffersMemory[idx], nil)
	}
	v.uniformBuffers = nil
	v.uniformBuffersMemory = nil

	// Sets are freed along with their pool.
	vk.DestroyDescriptorPool(v.logicalDevice, v.descriptorPool, nil)
	v.descriptorSets = nil

	vk.DestroySwapchain(v.logicalDevice, v.swapchain, nil)
	v.swapchain = vk.NullSwapchain
}

// rebuildStep is one stage of a swapchain rebuild. Steps depend on
// everything that ran before them, so order matters.
type rebuildStep struct {
	name string
	run  func() error
}

// rebuildSteps lists the swapchain-dependent resources in creation
// order: each step consumes the output of the previous ones.
func (v *VulkanRenderer) rebuildSteps() []rebuildStep {
	return []rebuildStep{
		{"swapchain", func() error { return v.createSwapchain(vk.NullSwapchain) }},
		{"viewport", func() error { v.createViewport(); return nil }},
		{"image views", v.createImageViews},
		{"render pass", v.createRenderPass},
		{"pipeline layout", v.createPipelineLayout},
		{"pipeline", v.createPipeline},
		{"framebuffers", v.createFramebuffers},
		{"uniform buffers", v.createUniformBuffers},
		{"descriptor pool", v.prepareDescriptorPool},
		{"descriptor sets", v.createDescriptorSets},
		{"command buffers", v.allocateCommandBuffers},
		{"command recording", v.buildCommandBuffers},
	}
}

// runRebuildSteps runs each step once, in order, stopping at the
// first failure.
func runRebuildSteps(steps []rebuildStep) error {
	for _, step := range steps {
		if err := step.run(); err != nil {
			return errors.New("recreate " + step.name + ": " + err.Error())
		}
	}
	return nil
}

// recreateSwapchain rebuilds the swapchain and every dependent
// resource. It blocks while the window has zero area and idles the
// device before teardown so in-flight work never references a
// destroyed resource.
func (v *VulkanRenderer) recreateSwapchain() error {
	waitForNonZeroExtent(v.surfacer)

	vk.DeviceWaitIdle(v.logicalDevice)
	v.destroySwapchainResources()

	if err := runRebuildSteps(v.rebuildSteps()); err != nil {
		return err
	}

	v.ring = newFrameRing(v.ring.Slots(), len(v.swapchainImages))
	v.recreateNeeded = false
	return nil
}

func (v *VulkanRenderer) createSynchronization() error {
	framesInFlight := v.configuration.FramesInFlight
	if framesInFlight > len(v.swapchainImages) {
		framesInFlight = len(v.swapchainImages)
	}
	v.ring = newFrameRing(framesInFlight, len(v.swapchainImages))

	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	v.imageAvailableSemaphores = make([]vk.Semaphore, framesInFlight)
	v.renderFinishedSemaphores = make([]vk.Semaphore, framesInFlight)
	v.inFlightFences = make([]vk.Fence, framesInFlight)

	for i := 0; i < framesInFlight; i++ {
		if err := vk.Error(vk.CreateSemaphore(v.logicalDevice, &sci, nil, &v.imageAvailableSemaphores[i])); err != nil {
			return errors.New("vk.CreateSemaphore(): " + err.Error())
		}
		if err := vk.Error(vk.CreateSemaphore(v.logicalDevice, &sci, nil, &v.renderFinishedSemaphores[i])); err != nil {
			return errors.New("vk.CreateSemaphore(): " + err.Error())
		}
		if err := vk.Error(vk.CreateFence(v.logicalDevice, &fci, nil, &v.inFlightFences[i])); err != nil {
			return errors.New("vk.CreateFence(): " + err.Error())
		}
	}
	return nil
}

// Destroy implements interface
func (v *VulkanRenderer) Destroy() {
	vk.DeviceWaitIdle(v.logicalDevice)

	v.destroySwapchainResources()

	for i := range v.inFlightFences {
		vk.DestroySemaphore(v.logicalDevice, v.imageAvailableSemaphores[i], nil)
		vk.DestroySemaphore(v.logicalDevice, v.renderFinishedSemaphores[i], nil)
		vk.DestroyFence(v.logicalDevice, v.inFlightFences[i], nil)
	}

	vk.DestroySampler(v.logicalDevice, v.textureSampler, nil)
	vk.DestroyImageView(v.logicalDevice, v.textureImageView, nil)
	vk.DestroyImage(v.logicalDevice, v.textureImage, nil)
	vk.FreeMemory(v.logicalDevice, v.textureImageMemory, nil)

	vk.DestroyBuffer(v.logicalDevice, v.indexBuffer, nil)
	vk.FreeMemory(v.logicalDevice, v.indexMemory, nil)
	vk.DestroyBuffer(v.logicalDevice, v.vertexBuffer, nil)
	vk.FreeMemory(v.logicalDevice, v.vertexMemory, nil)

	for _, shader := range v.shaders {
		shader.Destroy()
	}

	vk.DestroyDescriptorSetLayout(v.logicalDevice, v.descriptorSetLayout, nil)
	vk.DestroyPipelineCache(v.logicalDevice, v.pipelineCache, nil)

	vk.DestroyCommandPool(v.logicalDevice, v.transferCommandPool, nil)
	vk.DestroyCommandPool(v.logicalDevice, v.commandPool, nil)

	vk.DestroyDevice(v.logicalDevice, nil)
}
