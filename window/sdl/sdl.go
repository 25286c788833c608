// Package sdl implements window.Window over github.com/veandco/go-sdl2.
//
// SDL must run on the main thread; programs should call runtime.LockOSThread from init.
package sdl

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/window"
)

type Window struct {
	native *sdl.Window
	events window.Queue
	closed bool
}

// Open initializes the SDL video subsystem and creates a Vulkan capable window.
func Open(cfg window.Config) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "sdl: init")
	}
	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_VULKAN)
	if cfg.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}
	native, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl: create window")
	}
	return &Window{native: native}, nil
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.native.VulkanGetInstanceExtensions()
}

func (w *Window) FramebufferExtent() driver.Extent2D {
	if w.native.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return driver.Extent2D{}
	}
	width, height := w.native.VulkanGetDrawableSize()
	return driver.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// CreateSurface expects a vk.Instance.
func (w *Window) CreateSurface(instance interface{}) (uintptr, error) {
	surface, err := w.native.VulkanCreateSurface(instance)
	if err != nil {
		return 0, errors.Wrap(err, "sdl: create vulkan surface")
	}
	return uintptr(surface), nil
}

func (w *Window) InstanceProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (w *Window) PollEvents() []window.Event {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			if !w.closed {
				w.closed = true
				w.events.Push(window.Event{Type: window.Closed})
			}
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_MINIMIZED:
				w.events.Push(window.Event{Type: window.Minimized})
			case sdl.WINDOWEVENT_RESTORED:
				w.events.Push(window.Event{Type: window.Restored})
			case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESIZED:
				if extent := w.FramebufferExtent(); !extent.IsZero() {
					w.events.Push(window.Event{Type: window.Resized, Extent: extent})
				}
			}
		case *sdl.KeyboardEvent:
			if e.Keysym.Sym == sdl.K_ESCAPE && e.State == sdl.PRESSED && !w.closed {
				w.closed = true
				w.events.Push(window.Event{Type: window.Closed})
			}
		}
	}
	return w.events.Drain()
}

func (w *Window) ShouldClose() bool {
	return w.closed
}

// Destroy destroys the window and shuts SDL down.
func (w *Window) Destroy() {
	w.native.Destroy()
	sdl.Quit()
}

var _ window.Window = (*Window)(nil)
