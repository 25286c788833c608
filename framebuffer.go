package vkframe

import (
	"sync"

	"github.com/celer/vkframe/driver"
)

// FramebufferInfo describes the attachments bound to a render pass.
type FramebufferInfo struct {
	Renderpass  *Renderpass
	Attachments []driver.ImageView
	// Extent is used when Swapchain is nil.
	Extent driver.Extent2D

	// Swapchain, when set, creates one framebuffer per swapchain image with the image view
	// as the last attachment, sized to the swapchain, rebuilt on every recreation.
	Swapchain *Swapchain
}

type Framebuffer struct {
	ctx  *Context
	info FramebufferInfo

	mu        sync.RWMutex
	natives   []driver.Framebuffer
	extent    driver.Extent2D
	destroyed bool
}

// CreateFramebuffer creates the framebuffers described by info.
func (c *Context) CreateFramebuffer(info FramebufferInfo) (*Framebuffer, error) {
	fb := &Framebuffer{ctx: c, info: info}
	if err := fb.initialize(); err != nil {
		return nil, err
	}
	if info.Swapchain != nil {
		info.Swapchain.OnRecreate(func(*Swapchain) {
			if err := fb.Recreate(); err != nil {
				Logger().Error("failed to recreate framebuffer", "err", err)
			}
		})
	}
	return fb, nil
}

func (f *Framebuffer) initialize() error {
	rp := f.info.Renderpass.Native()
	var natives []driver.Framebuffer
	extent := f.info.Extent

	if sc := f.info.Swapchain; sc != nil {
		extent = sc.Extent()
		for _, view := range sc.ImageViews() {
			attachments := append(append([]driver.ImageView(nil), f.info.Attachments...), view)
			native, err := f.ctx.device.NewFramebuffer(driver.FramebufferInfo{
				RenderPass:  rp,
				Attachments: attachments,
				Extent:      extent,
				Layers:      1,
			})
			if err != nil {
				for _, n := range natives {
					n.Destroy()
				}
				return creationFailed(err, "framebuffer")
			}
			natives = append(natives, native)
		}
	} else {
		native, err := f.ctx.device.NewFramebuffer(driver.FramebufferInfo{
			RenderPass:  rp,
			Attachments: f.info.Attachments,
			Extent:      extent,
			Layers:      1,
		})
		if err != nil {
			return creationFailed(err, "framebuffer")
		}
		natives = append(natives, native)
	}

	f.mu.Lock()
	f.natives = natives
	f.extent = extent
	f.mu.Unlock()
	return nil
}

func (f *Framebuffer) finalize() {
	f.mu.Lock()
	for _, n := range f.natives {
		n.Destroy()
	}
	f.natives = nil
	f.mu.Unlock()
}

// Recreate rebuilds the framebuffers, picking up the current swapchain views and extent.
func (f *Framebuffer) Recreate() error {
	f.mu.RLock()
	destroyed := f.destroyed
	f.mu.RUnlock()
	if destroyed {
		return nil
	}
	f.finalize()
	return f.initialize()
}

// Count returns the number of native framebuffers.
func (f *Framebuffer) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.natives)
}

func (f *Framebuffer) Extent() driver.Extent2D {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.extent
}

// target returns the framebuffer for a swapchain image, or the single framebuffer. An image
// the framebuffers were not built for yields nil.
func (f *Framebuffer) target(image uint32) (driver.Framebuffer, driver.Extent2D) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.natives) == 0 {
		return nil, f.extent
	}
	if f.info.Swapchain == nil {
		return f.natives[0], f.extent
	}
	if int(image) >= len(f.natives) {
		Logger().Error("no framebuffer for swapchain image", "image", image, "framebuffers", len(f.natives))
		return nil, f.extent
	}
	return f.natives[image], f.extent
}

func (f *Framebuffer) Destroy() {
	f.mu.Lock()
	f.destroyed = true
	f.mu.Unlock()
	f.finalize()
}
