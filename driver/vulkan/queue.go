package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

type Queue struct {
	native vk.Queue
	family int
}

func (q *Queue) Submit(info driver.SubmitInfo) error {
	stages := make([]vk.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		stages[i] = vk.PipelineStageFlags(s)
	}
	buffers := make([]vk.CommandBuffer, len(info.CommandBuffers))
	for i, cb := range info.CommandBuffers {
		buffers[i] = cb.(*CommandBuffer).native
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:      nativeSemaphores(info.WaitSemaphores),
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      buffers,
		SignalSemaphoreCount: uint32(len(info.SignalSemaphores)),
		PSignalSemaphores:    nativeSemaphores(info.SignalSemaphores),
	}
	err := vk.Error(vk.QueueSubmit(q.native, 1, []vk.SubmitInfo{submitInfo}, nativeFence(info.Fence)))
	return errors.Wrap(err, "vkQueueSubmit")
}

// Present returns driver.ErrOutOfDate or driver.ErrSuboptimal when the swapchain no longer
// matches its surface.
func (q *Queue) Present(info driver.PresentInfo) error {
	swapchains := make([]vk.Swapchain, len(info.Swapchains))
	for i, sc := range info.Swapchains {
		swapchains[i] = sc.(*Swapchain).native
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    nativeSemaphores(info.WaitSemaphores),
		SwapchainCount:     uint32(len(swapchains)),
		PSwapchains:        swapchains,
		PImageIndices:      info.ImageIndices,
	}
	return swapchainResult(vk.QueuePresent(q.native, &presentInfo), "vkQueuePresentKHR")
}

func (q *Queue) WaitIdle() error {
	return errors.Wrap(vk.Error(vk.QueueWaitIdle(q.native)), "vkQueueWaitIdle")
}
