package vkframe

import (
	"sync"

	"github.com/celer/vkframe/driver"
)

// RenderpassInfo describes a render pass. It is kept by the Renderpass so the pass can be
// rebuilt without the caller.
type RenderpassInfo struct {
	Attachments []driver.AttachmentDescription
	Subpasses   []driver.SubpassDescription

	// Swapchain, when set, appends a color attachment using the swapchain format as the
	// last attachment and rebuilds the pass whenever the swapchain is recreated.
	Swapchain *Swapchain
	// SwapchainAttachment describes the appended attachment. Its Format is ignored.
	SwapchainAttachment driver.AttachmentDescription
}

// DefaultSwapchainAttachment clears the image and leaves it ready for presentation.
var DefaultSwapchainAttachment = driver.AttachmentDescription{
	LoadOp:        driver.LoadOpClear,
	StoreOp:       driver.StoreOpStore,
	InitialLayout: driver.ImageLayoutUndefined,
	FinalLayout:   driver.ImageLayoutPresentSrc,
}

type Renderpass struct {
	ctx  *Context
	info RenderpassInfo

	mu        sync.RWMutex
	native    driver.RenderPass
	resolved  []driver.AttachmentDescription
	destroyed bool
}

// CreateRenderpass creates a render pass from info.
func (c *Context) CreateRenderpass(info RenderpassInfo) (*Renderpass, error) {
	rp := &Renderpass{ctx: c, info: info}
	if err := rp.initialize(); err != nil {
		return nil, err
	}
	if info.Swapchain != nil {
		info.Swapchain.OnRecreate(func(*Swapchain) {
			if err := rp.Recreate(); err != nil {
				Logger().Error("failed to recreate render pass", "err", err)
			}
		})
	}
	return rp, nil
}

func (r *Renderpass) describe() driver.RenderPassInfo {
	attachments := append([]driver.AttachmentDescription(nil), r.info.Attachments...)
	var deps []driver.SubpassDependency
	if r.info.Swapchain != nil {
		a := r.info.SwapchainAttachment
		a.Format = r.info.Swapchain.Format()
		attachments = append(attachments, a)
		deps = append(deps, driver.SubpassDependency{
			SrcSubpass: driver.SubpassExternal,
			DstSubpass: 0,
			SrcStage:   driver.PipelineStageColorAttachmentOutput,
			DstStage:   driver.PipelineStageColorAttachmentOutput,
			DstAccess:  driver.AccessColorAttachmentWrite,
		})
	}
	return driver.RenderPassInfo{
		Attachments:  attachments,
		Subpasses:    r.info.Subpasses,
		Dependencies: deps,
	}
}

func (r *Renderpass) initialize() error {
	desc := r.describe()
	native, err := r.ctx.device.NewRenderPass(desc)
	if err != nil {
		return creationFailed(err, "render pass")
	}
	r.mu.Lock()
	r.native = native
	r.resolved = desc.Attachments
	r.mu.Unlock()
	return nil
}

func (r *Renderpass) finalize() {
	r.mu.Lock()
	if r.native != nil {
		r.native.Destroy()
		r.native = nil
	}
	r.mu.Unlock()
}

// Recreate rebuilds the render pass from the description it was created with.
func (r *Renderpass) Recreate() error {
	r.mu.RLock()
	destroyed := r.destroyed
	r.mu.RUnlock()
	if destroyed {
		return nil
	}
	r.finalize()
	return r.initialize()
}

// Native returns the driver handle.
func (r *Renderpass) Native() driver.RenderPass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.native
}

// attachments returns the resolved attachment list, swapchain attachment included.
func (r *Renderpass) attachments() []driver.AttachmentDescription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

func (r *Renderpass) Destroy() {
	r.mu.Lock()
	r.destroyed = true
	r.mu.Unlock()
	r.finalize()
}
