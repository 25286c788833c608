// Package driver defines the boundary between the frame orchestration core and a GPU API.
//
// Every native object the core touches is created and destroyed through the interfaces in
// this package. The vulkan subpackage implements them over vulkan-go; drivertest provides an
// in-memory implementation that records calls for tests.
package driver

import (
	"github.com/pkg/errors"
)

var (
	// ErrOutOfDate is returned by acquire and present when the surface changed
	// and the swapchain must be recreated.
	ErrOutOfDate = errors.New("swapchain out of date")
	// ErrSuboptimal is returned alongside a valid result when the swapchain no
	// longer matches the surface exactly but can still be used.
	ErrSuboptimal = errors.New("swapchain suboptimal")
)

// Driver is the entry point of a GPU API implementation.
type Driver interface {
	Name() string
	// InstanceExtensions lists the instance extensions the loader supports.
	InstanceExtensions() ([]string, error)
	// InstanceLayers lists the instance layers the loader supports.
	InstanceLayers() ([]string, error)
	NewInstance(info InstanceInfo) (Instance, error)
}

// Window is the part of the windowing collaborator the GPU layer needs.
type Window interface {
	RequiredInstanceExtensions() []string
	// FramebufferExtent returns the drawable size in pixels.
	FramebufferExtent() Extent2D
	// CreateSurface creates a native surface for the given native instance handle.
	CreateSurface(instance interface{}) (uintptr, error)
}

type Instance interface {
	PhysicalDevices() ([]PhysicalDevice, error)
	NewSurface(w Window) (Surface, error)
	Destroy()
}

type PhysicalDevice interface {
	Name() string
	Type() DeviceType
	Extensions() ([]string, error)
	QueueFamilies() []QueueFamily
	// DeviceLocalHeapSize is the size in bytes of the largest device-local memory heap.
	DeviceLocalHeapSize() uint64
	SupportsPresent(family int, s Surface) (bool, error)
	SurfaceCapabilities(s Surface) (SurfaceCapabilities, error)
	SurfaceFormats(s Surface) ([]SurfaceFormat, error)
	PresentModes(s Surface) ([]PresentMode, error)
	NewDevice(info DeviceInfo) (Device, error)
}

type Device interface {
	Queue(family, index int) Queue
	NewCommandPool(family int) (CommandPool, error)
	NewFence(signaled bool) (Fence, error)
	NewSemaphore() (Semaphore, error)
	NewSwapchain(info SwapchainInfo) (Swapchain, error)
	NewImageView(image Image, format Format) (ImageView, error)
	NewRenderPass(info RenderPassInfo) (RenderPass, error)
	NewFramebuffer(info FramebufferInfo) (Framebuffer, error)
	NewShaderModule(code []byte) (ShaderModule, error)
	NewPipelineLayout(info PipelineLayoutInfo) (PipelineLayout, error)
	NewGraphicsPipeline(info GraphicsPipelineInfo) (Pipeline, error)
	WaitIdle() error
	Destroy()
}

// Queue is not safe for concurrent use.
type Queue interface {
	Submit(info SubmitInfo) error
	Present(info PresentInfo) error
	WaitIdle() error
}

type CommandPool interface {
	Allocate() (CommandBuffer, error)
	Free(cb CommandBuffer)
	Destroy()
}

type CommandBuffer interface {
	Reset() error
	Begin() error
	End() error
	BeginRenderPass(info RenderPassBegin)
	EndRenderPass()
	BindPipeline(p Pipeline)
	SetViewport(v Viewport)
	SetScissor(r Rect2D)
	PushConstants(layout PipelineLayout, stages ShaderStage, offset uint32, data []byte)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

type Fence interface {
	// Wait blocks until the fence is signaled.
	Wait() error
	Reset() error
	Signaled() (bool, error)
	Destroy()
}

type Semaphore interface {
	Destroy()
}

type Surface interface {
	Destroy()
}

type Swapchain interface {
	Images() ([]Image, error)
	// AcquireNextImage may return a valid index together with ErrSuboptimal.
	AcquireNextImage(s Semaphore, f Fence) (uint32, error)
	Destroy()
}

// Image is an opaque image handle owned by a swapchain.
type Image interface{}

type ImageView interface {
	Destroy()
}

type RenderPass interface {
	Destroy()
}

type Framebuffer interface {
	Destroy()
}

type ShaderModule interface {
	Destroy()
}

type PipelineLayout interface {
	Destroy()
}

type Pipeline interface {
	Destroy()
}
