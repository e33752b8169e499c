package core

// Configuration defines a global application configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out.
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between window event polls,
	// in milliseconds
	EventPollDelay int
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	// DebugMode loads validation layers and the debug report
	// extension on top of whatever is configured below
	DebugMode bool

	Layers     []string
	Extensions []string
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32

	// FramesInFlight is the number of frames the CPU may prepare
	// before the GPU retires them. Clamped to the swapchain image
	// count once the swapchain exists.
	FramesInFlight int

	DeviceExtensions []string

	// ShaderDirectory holds the precompiled shader binaries. When
	// empty, a "shaders" directory next to the executable is used.
	ShaderDirectory string

	// TexturePath points at the quad texture, PNG or BMP.
	TexturePath string
}
