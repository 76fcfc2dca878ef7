// Package engine boots a window, a Vulkan device and the deferred
// renderer, and drives the application through per-frame callbacks. An
// Engine is constructed at startup and passed around explicitly; there
// is no package-level singleton.
package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/GDBobby/vulkan/renderer"
	"github.com/GDBobby/vulkan/scene"
	"github.com/GDBobby/vulkan/vkg"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Engine owns the window, the Vulkan stack and the active scene.
type Engine struct {
	Settings CoreSettings

	Window   *glfw.Window
	Instance *vkg.Instance
	Surface  vk.Surface
	Device   *vkg.Device
	Renderer *renderer.Renderer

	// Scene is the active scene. New installs an empty one; loaders
	// replace or populate it before Run.
	Scene *scene.Scene

	// Resources are the per-entity descriptor sets DrawFrame binds.
	Resources renderer.SceneResources

	// OnUpdate runs once per frame after scripts, before rendering.
	OnUpdate func(dt float32)

	// OnEvent receives translated window events.
	OnEvent func(ev Event)

	timers []*Timer
}

// New initializes GLFW and Vulkan, selects a device and builds the
// renderer.
func New(settings CoreSettings) (*Engine, error) {
	settings.Normalize()

	e := &Engine{Settings: settings}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(settings.Width, settings.Height, settings.WindowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	e.Window = window

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		e.Destroy()
		return nil, fmt.Errorf("vulkan init: %w", err)
	}

	app := &vkg.App{
		Name:              settings.WindowTitle,
		Version:           vkg.Version{Major: 1},
		APIVersion:        vkg.Version{Major: 1, Minor: 1},
		EnabledExtensions: window.GetRequiredInstanceExtensions(),
	}
	if settings.EnableValidation {
		app.EnableValidation()
	}

	if e.Instance, err = app.CreateInstance(); err != nil {
		e.Destroy()
		return nil, fmt.Errorf("create instance: %w", err)
	}
	if settings.EnableValidation {
		e.Instance.UseDefaultDebugCallback()
	}

	surfacePtr, err := window.CreateWindowSurface(e.Instance.VKInstance, nil)
	if err != nil {
		e.Destroy()
		return nil, fmt.Errorf("create surface: %w", err)
	}
	e.Surface = vk.SurfaceFromPointer(surfacePtr)

	if e.Device, err = e.createDevice(); err != nil {
		e.Destroy()
		return nil, err
	}

	rendererOptions := renderer.Options{
		ShaderDir:     settings.ShaderDir,
		ShadowMapSize: settings.ShadowMapSize,
		ExtentFn: func() vk.Extent2D {
			w, h := window.GetFramebufferSize()
			return vk.Extent2D{Width: uint32(w), Height: uint32(h)}
		},
	}
	if e.Renderer, err = renderer.NewRenderer(e.Device, e.Surface, rendererOptions); err != nil {
		e.Destroy()
		return nil, fmt.Errorf("renderer: %w", err)
	}

	e.Scene = scene.NewScene("main")
	e.installCallbacks()

	return e, nil
}

// createDevice enumerates GPUs, scores them against the blacklist and
// builds the logical device with its queues and transfer pool.
func (e *Engine) createDevice() (*vkg.Device, error) {
	physicalDevices, err := e.Instance.PhysicalDevices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	if len(physicalDevices) == 0 {
		return nil, vkg.ErrNoSuitableDevice
	}

	candidates := make([]vkg.DeviceCandidate, len(physicalDevices))
	for i, p := range physicalDevices {
		if candidates[i], err = p.GatherCandidate(e.Surface); err != nil {
			return nil, err
		}
	}

	chosen, err := vkg.SelectPhysicalDevice(candidates, e.Settings.BlacklistedDevice)
	if err != nil {
		return nil, err
	}
	physical := physicalDevices[chosen]
	log.Printf("engine: using %s", physical.DeviceName)

	qfs, err := physical.QueueFamilies()
	if err != nil {
		return nil, err
	}

	options := &vkg.CreateDeviceOptions{EnabledExtensions: vkg.RequiredDeviceExtensions}

	var device *vkg.Device
	if both := qfs.FilterGraphicsAndPresent(e.Surface); len(both) > 0 {
		device, err = physical.CreateLogicalDeviceWithOptions(vkg.QueueFamilySlice{both[0]}, options)
		if err != nil {
			return nil, fmt.Errorf("create device: %w", err)
		}
		queue := device.GetQueue(both[0])
		device.GraphicsQueue = queue
		device.PresentQueue = queue
	} else {
		graphics := qfs.FilterGraphics()
		present := qfs.FilterPresent(e.Surface)
		if len(graphics) == 0 || len(present) == 0 {
			return nil, vkg.ErrNoSuitableDevice
		}
		device, err = physical.CreateLogicalDeviceWithOptions(
			vkg.QueueFamilySlice{graphics[0], present[0]}, options)
		if err != nil {
			return nil, fmt.Errorf("create device: %w", err)
		}
		device.GraphicsQueue = device.GetQueue(graphics[0])
		device.PresentQueue = device.GetQueue(present[0])
	}

	if device.LoadPool, err = device.CreateCommandPool(device.GraphicsQueue.QueueFamily); err != nil {
		device.Destroy()
		return nil, fmt.Errorf("load pool: %w", err)
	}

	return device, nil
}

func (e *Engine) installCallbacks() {
	e.Window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		e.dispatch(Event{Kind: EventWindowResize, Width: width, Height: height})
	})
	e.Window.SetCloseCallback(func(_ *glfw.Window) {
		e.dispatch(Event{Kind: EventWindowClose})
	})
	e.Window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		e.dispatch(Event{Kind: EventKey, Key: key, Scancode: scancode, Action: action, Mods: mods})
	})
	e.Window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		e.dispatch(Event{Kind: EventMouseButton, Button: button, Action: action, Mods: mods})
	})
	e.Window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		e.dispatch(Event{Kind: EventMouseMove, X: x, Y: y})
	})
	e.Window.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		e.dispatch(Event{Kind: EventMouseScroll, X: xoff, Y: yoff})
	})
}

func (e *Engine) dispatch(ev Event) {
	if e.OnEvent != nil {
		e.OnEvent(ev)
	}
}

// AddTimer registers a timer ticked during the update step. Expired
// one-shot timers are dropped automatically.
func (e *Engine) AddTimer(t *Timer) {
	e.timers = append(e.timers, t)
}

func (e *Engine) tickTimers(dt float32) {
	alive := e.timers[:0]
	for _, t := range e.timers {
		t.Tick(dt)
		if t.Active() {
			alive = append(alive, t)
		}
	}
	e.timers = alive
}

/// Run drives the frame loop until the window closes: poll events, tick
// timers, run scripts and the update callback, then draw.
func (e *Engine) Run() error {
	last := time.Now()

	for !e.Window.ShouldClose() {
		glfw.PollEvents()

		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		e.tickTimers(dt)
		e.Scene.OnUpdate(dt)
		if e.OnUpdate != nil {
			e.OnUpdate(dt)
		}

		// a minimized window has no framebuffer to render into; block
		// until an event restores it instead of spinning
		if w, h := e.Window.GetFramebufferSize(); w == 0 || h == 0 {
			glfw.WaitEvents()
			last = time.Now()
			continue
		}

		if err := e.Renderer.DrawFrame(e.Scene, dt, &e.Resources); err != nil {
			return fmt.Errorf("draw frame: %w", err)
		}
	}

	e.Device.WaitIdle()
	return nil
}

// Destroy tears down in reverse construction order. Safe on a
// partially constructed engine.
func (e *Engine) Destroy() {
	if e.Renderer != nil {
		e.Renderer.Destroy()
	}
	if e.Device != nil {
		if e.Device.LoadPool != nil {
			e.Device.LoadPool.Destroy()
		}
		e.Device.Destroy()
	}
	if e.Instance != nil {
		if e.Surface != vk.NullSurface {
			vk.DestroySurface(e.Instance.VKInstance, e.Surface, nil)
		}
		e.Instance.Destroy()
	}
	if e.Window != nil {
		e.Window.Destroy()
		glfw.Terminate()
	}
}
