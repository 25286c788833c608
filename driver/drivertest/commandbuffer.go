package drivertest

import (
	"sync"

	"github.com/celer/vkframe/driver"
)

type CommandPool struct {
	drv       *Driver
	mu        sync.Mutex
	allocated int
}

// Allocated returns how many buffers were allocated from the pool so far.
func (p *CommandPool) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated
}

func (p *CommandPool) Allocate() (driver.CommandBuffer, error) {
	if err := p.drv.create("CommandBuffer"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.allocated++
	p.mu.Unlock()
	return &CommandBuffer{}, nil
}

func (p *CommandPool) Free(cb driver.CommandBuffer) { p.drv.destroy("CommandBuffer") }

func (p *CommandPool) Destroy() { p.drv.destroy("CommandPool") }

// Command is one recorded command.
type Command struct {
	Op            string
	Extent        driver.Extent2D
	FirstInstance uint32
	VertexCount   uint32
	Data          []byte
}

type CommandBuffer struct {
	mu        sync.Mutex
	commands  []Command
	recording bool
}

// Commands returns a copy of what was recorded since the last Begin or Reset.
func (c *CommandBuffer) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Command(nil), c.commands...)
}

func (c *CommandBuffer) add(cmd Command) {
	c.mu.Lock()
	c.commands = append(c.commands, cmd)
	c.mu.Unlock()
}

func (c *CommandBuffer) Reset() error {
	c.mu.Lock()
	c.commands = nil
	c.recording = false
	c.mu.Unlock()
	return nil
}

func (c *CommandBuffer) Begin() error {
	c.mu.Lock()
	c.commands = nil
	c.recording = true
	c.mu.Unlock()
	return nil
}

func (c *CommandBuffer) End() error {
	c.mu.Lock()
	c.recording = false
	c.mu.Unlock()
	return nil
}

func (c *CommandBuffer) BeginRenderPass(info driver.RenderPassBegin) {
	cmd := Command{Op: "beginRenderPass"}
	if fb, ok := info.Framebuffer.(*Framebuffer); ok {
		cmd.Extent = fb.Info.Extent
	}
	c.add(cmd)
}

func (c *CommandBuffer) EndRenderPass() { c.add(Command{Op: "endRenderPass"}) }

func (c *CommandBuffer) BindPipeline(p driver.Pipeline) { c.add(Command{Op: "bindPipeline"}) }

func (c *CommandBuffer) SetViewport(v driver.Viewport) { c.add(Command{Op: "setViewport"}) }

func (c *CommandBuffer) SetScissor(r driver.Rect2D) { c.add(Command{Op: "setScissor", Extent: r.Extent}) }

func (c *CommandBuffer) PushConstants(layout driver.PipelineLayout, stages driver.ShaderStage, offset uint32, data []byte) {
	c.add(Command{Op: "pushConstants", Data: append([]byte(nil), data...)})
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.add(Command{Op: "draw", VertexCount: vertexCount, FirstInstance: firstInstance})
}
