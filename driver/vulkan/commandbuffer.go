package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

type CommandPool struct {
	device *Device
	native vk.CommandPool
}

// NewCommandPool creates a pool whose buffers can be reset individually.
func (d *Device) NewCommandPool(family int) (driver.CommandPool, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: uint32(family),
	}
	var native vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.native, &info, nil, &native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateCommandPool")
	}
	return &CommandPool{device: d, native: native}, nil
}

func (c *CommandPool) Allocate() (driver.CommandBuffer, error) {
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.native,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(c.device.native, &info, buffers)); err != nil {
		return nil, errors.Wrap(err, "vkAllocateCommandBuffers")
	}
	return &CommandBuffer{native: buffers[0]}, nil
}

func (c *CommandPool) Free(cb driver.CommandBuffer) {
	vk.FreeCommandBuffers(c.device.native, c.native, 1, []vk.CommandBuffer{cb.(*CommandBuffer).native})
}

func (c *CommandPool) Destroy() {
	vk.DestroyCommandPool(c.device.native, c.native, nil)
}

// CommandBuffer records into a primary command buffer. Only the commands the frame
// layer needs are wrapped; VK exposes the native handle for everything else.
type CommandBuffer struct {
	native vk.CommandBuffer
}

// VK is a utility function for accessing the native vulkan command buffer
func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.native
}

func (c *CommandBuffer) Reset() error {
	return errors.Wrap(vk.Error(vk.ResetCommandBuffer(c.native, 0)), "vkResetCommandBuffer")
}

func (c *CommandBuffer) Begin() error {
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	return errors.Wrap(vk.Error(vk.BeginCommandBuffer(c.native, &info)), "vkBeginCommandBuffer")
}

func (c *CommandBuffer) End() error {
	return errors.Wrap(vk.Error(vk.EndCommandBuffer(c.native)), "vkEndCommandBuffer")
}

func (c *CommandBuffer) BeginRenderPass(info driver.RenderPassBegin) {
	clear := make([]vk.ClearValue, len(info.ClearValues))
	for i, v := range info.ClearValues {
		if v.DepthStencil {
			clear[i] = vk.NewClearDepthStencil(v.Depth, v.Stencil)
		} else {
			clear[i] = vk.NewClearValue(v.Color[:])
		}
	}
	beginInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      info.RenderPass.(*RenderPass).native,
		Framebuffer:     info.Framebuffer.(*Framebuffer).native,
		RenderArea:      rect(info.Area),
		ClearValueCount: uint32(len(clear)),
		PClearValues:    clear,
	}
	vk.CmdBeginRenderPass(c.native, &beginInfo, vk.SubpassContentsInline)
}

func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.native)
}

func (c *CommandBuffer) BindPipeline(p driver.Pipeline) {
	vk.CmdBindPipeline(c.native, vk.PipelineBindPointGraphics, p.(*Pipeline).native)
}

func (c *CommandBuffer) SetViewport(v driver.Viewport) {
	vk.CmdSetViewport(c.native, 0, 1, []vk.Viewport{{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}})
}

func (c *CommandBuffer) SetScissor(r driver.Rect2D) {
	vk.CmdSetScissor(c.native, 0, 1, []vk.Rect2D{rect(r)})
}

func (c *CommandBuffer) PushConstants(layout driver.PipelineLayout, stages driver.ShaderStage, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(c.native, layout.(*PipelineLayout).native, vk.ShaderStageFlags(stages),
		offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(c.native, vertexCount, instanceCount, firstVertex, firstInstance)
}
