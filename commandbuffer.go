package vkframe

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

// CommandBuffer wraps a native command buffer and its completion state.
// Only a few commands are wrapped; Native gives access to the driver handle.
type CommandBuffer struct {
	pool   *CommandPool
	native driver.CommandBuffer

	// guarded by pool.doneMu
	recorded  bool
	discarded bool
	err       error
}

// Native returns the driver handle.
func (c *CommandBuffer) Native() driver.CommandBuffer {
	return c.native
}

// Begin starts recording.
func (c *CommandBuffer) Begin() error {
	return errors.Wrap(c.native.Begin(), "begin command buffer")
}

// End finishes recording and marks the buffer complete, waking AwaitRecord callers.
func (c *CommandBuffer) End() error {
	err := c.native.End()
	if err != nil {
		err = errors.Wrap(err, "end command buffer")
	}
	c.pool.complete(c, err, false)
	return err
}

// Discard marks the buffer complete without recording anything. A discarded buffer is
// never submitted.
func (c *CommandBuffer) Discard() {
	c.pool.complete(c, nil, true)
}

// Discarded reports whether the last recording was discarded.
func (c *CommandBuffer) Discarded() bool {
	c.pool.doneMu.Lock()
	defer c.pool.doneMu.Unlock()
	return c.discarded
}

// BeginRenderPass begins rp on the framebuffer for image, clearing every attachment that
// uses a clear load op. Color attachments take color, depth attachments clear to 1.
func (c *CommandBuffer) BeginRenderPass(rp *Renderpass, fb *Framebuffer, image uint32, color mgl32.Vec4) {
	native, extent := fb.target(image)
	attachments := rp.attachments()
	clears := make([]driver.ClearValue, len(attachments))
	for i, a := range attachments {
		if a.Format.IsDepth() {
			clears[i] = driver.ClearValue{Depth: 1, DepthStencil: true}
		} else {
			clears[i] = driver.ClearValue{Color: color}
		}
	}
	c.native.BeginRenderPass(driver.RenderPassBegin{
		RenderPass:  rp.Native(),
		Framebuffer: native,
		Area:        driver.Rect2D{Extent: extent},
		ClearValues: clears,
	})
}

func (c *CommandBuffer) EndRenderPass() {
	c.native.EndRenderPass()
}

func (c *CommandBuffer) BindPipeline(p *Pipeline) {
	c.native.BindPipeline(p.native)
}

// SetViewport sets a viewport covering extent with the full depth range.
func (c *CommandBuffer) SetViewport(extent driver.Extent2D) {
	c.native.SetViewport(Viewport(extent))
}

// SetScissor sets a scissor covering extent.
func (c *CommandBuffer) SetScissor(extent driver.Extent2D) {
	c.native.SetScissor(driver.Rect2D{Extent: extent})
}

// PushConstants writes data at offset into the push constant block of p.
func (c *CommandBuffer) PushConstants(p *Pipeline, stages driver.ShaderStage, offset uint32, data []byte) {
	c.native.PushConstants(p.layout, stages, offset, data)
}

// PushMatrix writes a 4x4 matrix at offset, column major.
func (c *CommandBuffer) PushMatrix(p *Pipeline, stages driver.ShaderStage, offset uint32, m mgl32.Mat4) {
	c.PushConstants(p, stages, offset, matrixBytes(m))
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.native.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// Viewport returns a viewport covering extent with depth range [0, 1].
func Viewport(extent driver.Extent2D) driver.Viewport {
	return driver.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
}
