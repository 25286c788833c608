// Package glfw implements window.Window over github.com/vulkan-go/glfw.
//
// GLFW must run on the main thread; programs should call runtime.LockOSThread from init.
package glfw

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/window"
)

type Window struct {
	native    *glfw.Window
	events    window.Queue
	minimized bool
	closed    bool
}

// Open initializes GLFW and creates a window without a client API.
func Open(cfg window.Config) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw: init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan loader not found")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	resizable := glfw.False
	if cfg.Resizable {
		resizable = glfw.True
	}
	glfw.WindowHint(glfw.Resizable, resizable)

	native, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw: create window")
	}

	w := &Window{native: native}
	native.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if width == 0 || height == 0 {
			w.minimized = true
			w.events.Push(window.Event{Type: window.Minimized})
			return
		}
		if w.minimized {
			w.minimized = false
			w.events.Push(window.Event{Type: window.Restored})
		}
		w.events.Push(window.Event{Type: window.Resized, Extent: driver.Extent2D{Width: uint32(width), Height: uint32(height)}})
	})
	native.SetKeyCallback(func(gw *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			gw.SetShouldClose(true)
		}
	})
	return w, nil
}

// Loader initializes GLFW without a window and returns the vkGetInstanceProcAddr it
// loaded. release terminates GLFW.
func Loader() (procAddr unsafe.Pointer, release func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, errors.Wrap(err, "glfw: init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, nil, errors.New("glfw: vulkan loader not found")
	}
	return glfw.GetVulkanGetInstanceProcAddress(), glfw.Terminate, nil
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.native.GetRequiredInstanceExtensions()
}

func (w *Window) FramebufferExtent() driver.Extent2D {
	width, height := w.native.GetFramebufferSize()
	return driver.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// CreateSurface expects a vk.Instance.
func (w *Window) CreateSurface(instance interface{}) (uintptr, error) {
	inst, ok := instance.(vk.Instance)
	if !ok {
		return 0, errors.Errorf("glfw: unexpected instance type %T", instance)
	}
	return w.native.CreateWindowSurface(inst, nil)
}

func (w *Window) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (w *Window) PollEvents() []window.Event {
	glfw.PollEvents()
	if w.native.ShouldClose() && !w.closed {
		w.closed = true
		w.events.Push(window.Event{Type: window.Closed})
	}
	return w.events.Drain()
}

func (w *Window) ShouldClose() bool {
	return w.native.ShouldClose()
}

// Destroy destroys the window and terminates GLFW.
func (w *Window) Destroy() {
	w.native.Destroy()
	glfw.Terminate()
}

var _ window.Window = (*Window)(nil)
