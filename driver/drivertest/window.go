package drivertest

import (
	"sync"

	"github.com/celer/vkframe/driver"
)

// Window is a resizable fake window.
type Window struct {
	mu         sync.Mutex
	extent     driver.Extent2D
	Extensions []string
	Surfaces   int
}

func NewWindow(width, height uint32) *Window {
	return &Window{
		extent:     driver.Extent2D{Width: width, Height: height},
		Extensions: []string{ExtSurface},
	}
}

// Resize changes the framebuffer extent reported to the swapchain.
func (w *Window) Resize(width, height uint32) {
	w.mu.Lock()
	w.extent = driver.Extent2D{Width: width, Height: height}
	w.mu.Unlock()
}

func (w *Window) RequiredInstanceExtensions() []string { return w.Extensions }

func (w *Window) FramebufferExtent() driver.Extent2D {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.extent
}

func (w *Window) CreateSurface(instance interface{}) (uintptr, error) {
	w.mu.Lock()
	w.Surfaces++
	w.mu.Unlock()
	return 1, nil
}
