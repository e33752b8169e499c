package core

import (
	vk "github.com/vulkan-go/vulkan"
)

// Destroyable is anything that owns native resources
// that have to be released explicitly.
type Destroyable interface {

	// Destroy destroys internal members
	Destroy()
}

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	Destroyable

	// PhysicalDevicesInfo returns a struct for each Physical Device
	// along with info about those devices
	PhysicalDevicesInfo() []PhysicalDeviceInfo

	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// SetSurface sets the window surface for rendering, from the
	// raw handle the windowing layer produced
	SetSurface(uintptr)

	// Surface returns the window surface, if it's not set
	// it should return a valid but empty surface
	Surface() vk.Surface

	// Extensions returns enabled instance extensions
	Extensions() []string

	// Instance returns the inner handle of the underlying API
	Instance() interface{}
}

// Renderer describes the rendering machinery.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type Renderer interface {
	Destroyable

	// Initialise sets up the configured rendering pipeline
	Initialise() error

	// DrawFrame renders and presents a single frame. Transient
	// presentation staleness is resolved internally, every other
	// failure is returned
	DrawFrame() error

	// RequestRecreate flags the swapchain for recreation before
	// the next frame, used by the window resize callback
	RequestRecreate()
}

// Surfacer provides window-side services the swapchain depends on.
// Implemented by the windowing layer in cmd.
type Surfacer interface {

	// FramebufferSize returns the window framebuffer size in pixels
	FramebufferSize() (int, int)

	// WaitEvents blocks until at least one window event arrives,
	// used while the window has zero area
	WaitEvents()
}

// Shader describes a loaded shader module
type Shader interface {
	Destroyable

	// Type returns the pipeline stage this shader belongs to
	Type() ShaderType

	// ShaderModule is an accessor to the underlying API handle
	ShaderModule() interface{}

	// Name returns the shader's name, derived from its file name
	Name() string
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint
}
