package main

import (
	"runtime"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/vulkan-go/glfw/v3.3/glfw"

	"github.com/vitra3d/vitra/core"
)

func init() {
	runtime.LockOSThread()
}

// Essential globals
var (
	vkInstance core.Instance
	vkRenderer core.Renderer
	window     *glfw.Window
)

func envInt(key string, fallback int) int {
	val, err := strconv.Atoi(envy.Get(key, strconv.Itoa(fallback)))
	if err != nil {
		log.WithField("key", key).Warn("non-numeric value in environment, using default")
		return fallback
	}
	return val
}

func envBool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(envy.Get(key, strconv.FormatBool(fallback)))
	if err != nil {
		log.WithField("key", key).Warn("non-boolean value in environment, using default")
		return fallback
	}
	return val
}

// buildConfiguration assembles the whole application configuration
// from the environment, optionally seeded by a .env file.
func buildConfiguration() core.Configuration {
	// A missing .env file is fine, the environment still applies
	godotenv.Load()

	return core.Configuration{
		Time: core.TimeConfiguration{
			FramesPerSecond: envInt("VITRA_FPS", 60),
			EventPollDelay:  envInt("VITRA_EVENT_POLL_MS", 5),
		},
		Instance: core.InstanceConfiguration{
			DebugMode: envBool("VITRA_DEBUG", false),
		},
		Renderer: core.RendererConfiguration{
			ScreenWidth:     uint32(envInt("VITRA_WIDTH", 800)),
			ScreenHeight:    uint32(envInt("VITRA_HEIGHT", 600)),
			FramesInFlight:  envInt("VITRA_FRAMES_IN_FLIGHT", 2),
			ShaderDirectory: envy.Get("VITRA_SHADER_DIR", ""),
			TexturePath:     envy.Get("VITRA_TEXTURE", "texture.png"),
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
		},
	}
}

// glfwSurfacer exposes the window services the renderer needs
// without the renderer knowing about GLFW.
type glfwSurfacer struct {
	window *glfw.Window
}

func (g glfwSurfacer) FramebufferSize() (int, int) {
	return g.window.GetFramebufferSize()
}

func (g glfwSurfacer) WaitEvents() {
	glfw.WaitEvents()
}

func newWindow(cfg core.RendererConfiguration) *glfw.Window {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(int(cfg.ScreenWidth), int(cfg.ScreenHeight), "Vitra", nil, nil)
	if err != nil {
		log.Fatal("glfw.CreateWindow(): ", err)
	}
	return win
}

func main() {
	configuration := buildConfiguration()

	if err := glfw.Init(); err != nil {
		log.Fatal("glfw.Init(): ", err)
	}
	defer glfw.Terminate()

	if !glfw.VulkanSupported() {
		log.Fatal("GLFW reports no usable Vulkan loader")
	}

	window = newWindow(configuration.Renderer)
	defer window.Destroy()

	{
		cfg := configuration.Instance
		cfg.Extensions = append(cfg.Extensions, window.GetRequiredInstanceExtensions()...)

		vi, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, glfw.GetVulkanGetInstanceProcAddress(), cfg)
		if err != nil {
			log.Fatal(err)
		}
		vkInstance = vi
	}
	defer vkInstance.Destroy()

	for _, info := range vkInstance.PhysicalDevicesInfo() {
		log.WithFields(log.Fields{
			"name":   info.Name,
			"memory": info.Memory,
		}).Info("vulkan device found")
	}

	surface, err := window.CreateWindowSurface(vkInstance.Instance(), nil)
	if err != nil {
		log.Fatal("window.CreateWindowSurface(): ", err)
	}
	vkInstance.SetSurface(surface)

	vkRenderer, err = core.NewVulkanRenderer(vkInstance, glfwSurfacer{window}, configuration.Renderer)
	if err != nil {
		log.Fatal(err)
	}

	if err := vkRenderer.Initialise(); err != nil {
		log.Fatal(err)
	}
	defer vkRenderer.Destroy()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		vkRenderer.RequestRecreate()
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	log.WithFields(log.Fields{
		"width":  configuration.Renderer.ScreenWidth,
		"height": configuration.Renderer.ScreenHeight,
	}).Info("renderer initialised")

	timeService := core.NewTime(configuration.Time)
	for !window.ShouldClose() {
		select {
		case <-timeService.FpsTicker().C:
			if err := vkRenderer.DrawFrame(); err != nil {
				log.Fatal(err)
			}
		case <-timeService.EventTicker().C:
			glfw.PollEvents()
		}
	}

	log.Info("event loop exited")
}
