package driver

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Enumerations below carry the native Vulkan numeric values so implementations can convert
// them with a plain type conversion.

type DeviceType int

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegratedGPU:
		return "integrated"
	case DeviceTypeDiscreteGPU:
		return "discrete"
	case DeviceTypeVirtualGPU:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	}
	return "other"
}

type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 0x1
	QueueCompute  QueueFlags = 0x2
	QueueTransfer QueueFlags = 0x4
)

type QueueFamily struct {
	Index int
	Flags QueueFlags
	Count int
}

func (q QueueFamily) IsGraphics() bool { return q.Flags&QueueGraphics != 0 }
func (q QueueFamily) IsCompute() bool  { return q.Flags&QueueCompute != 0 }
func (q QueueFamily) IsTransfer() bool { return q.Flags&QueueTransfer != 0 }

type Format uint32

const (
	FormatUndefined         Format = 0
	FormatR8G8B8A8Unorm     Format = 37
	FormatR8G8B8A8SRGB      Format = 43
	FormatB8G8R8A8Unorm     Format = 44
	FormatB8G8R8A8SRGB      Format = 50
	FormatR32Sfloat         Format = 100
	FormatR32G32Sfloat      Format = 103
	FormatR32G32B32Sfloat   Format = 106
	FormatR32G32B32A32Float Format = 109
	FormatD32Sfloat         Format = 126
)

// IsDepth reports whether the format holds depth data.
func (f Format) IsDepth() bool {
	return f == FormatD32Sfloat
}

type ColorSpace uint32

const ColorSpaceSRGBNonlinear ColorSpace = 0

type PresentMode uint32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFIFO:
		return "fifo"
	case PresentModeFIFORelaxed:
		return "fifo_relaxed"
	}
	return fmt.Sprintf("PresentMode(%d)", uint32(m))
}

type ImageLayout uint32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutGeneral                ImageLayout = 1
	ImageLayoutColorAttachment        ImageLayout = 2
	ImageLayoutDepthStencilAttachment ImageLayout = 3
	ImageLayoutShaderReadOnly         ImageLayout = 5
	ImageLayoutTransferDst            ImageLayout = 7
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

type ImageUsage uint32

const (
	ImageUsageTransferSrc     ImageUsage = 0x1
	ImageUsageTransferDst     ImageUsage = 0x2
	ImageUsageSampled         ImageUsage = 0x4
	ImageUsageColorAttachment ImageUsage = 0x10
)

type LoadOp uint32

const (
	LoadOpLoad     LoadOp = 0
	LoadOpClear    LoadOp = 1
	LoadOpDontCare LoadOp = 2
)

type StoreOp uint32

const (
	StoreOpStore    StoreOp = 0
	StoreOpDontCare StoreOp = 1
)

type PipelineStage uint32

const (
	PipelineStageTopOfPipe             PipelineStage = 0x1
	PipelineStageColorAttachmentOutput PipelineStage = 0x400
	PipelineStageBottomOfPipe          PipelineStage = 0x2000
)

type Access uint32

const (
	AccessColorAttachmentRead  Access = 0x80
	AccessColorAttachmentWrite Access = 0x100
)

// SubpassExternal refers to commands outside of the render pass in a dependency.
const SubpassExternal = ^uint32(0)

type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x1
	ShaderStageFragment ShaderStage = 0x10
	ShaderStageCompute  ShaderStage = 0x20
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	case ShaderStageCompute:
		return "compute"
	}
	return fmt.Sprintf("ShaderStage(%#x)", uint32(s))
}

type FrontFace uint32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type CullMode uint32

const (
	CullModeNone  CullMode = 0
	CullModeFront CullMode = 1
	CullModeBack  CullMode = 2
	CullModeBoth  CullMode = 3
)

type VertexInputRate uint32

const (
	VertexInputRateVertex   VertexInputRate = 0
	VertexInputRateInstance VertexInputRate = 1
)

type Extent2D struct {
	Width, Height uint32
}

func (e Extent2D) IsZero() bool { return e.Width == 0 || e.Height == 0 }

func (e Extent2D) String() string { return fmt.Sprintf("%dx%d", e.Width, e.Height) }

type Offset2D struct {
	X, Y int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

type DebugSeverity int

const (
	DebugInfo DebugSeverity = iota
	DebugWarning
	DebugError
)

type DebugMessage struct {
	Severity DebugSeverity
	Layer    string
	Code     int32
	Text     string
}

type InstanceInfo struct {
	ApplicationName string
	EngineName      string
	Extensions      []string
	Layers          []string
	// Debug receives validation messages when non-nil.
	Debug func(DebugMessage)
}

type DeviceInfo struct {
	// QueueFamilies lists the families to create one queue each for.
	QueueFamilies []int
	Extensions    []string
}

// SurfaceCapabilities mirrors the native capabilities. A CurrentExtent with a width of
// 0xFFFFFFFF means the surface size is decided by the swapchain.
type SurfaceCapabilities struct {
	MinImageCount    uint32
	MaxImageCount    uint32
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SwapchainInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        Format
	ColorSpace    ColorSpace
	Extent        Extent2D
	Usage         ImageUsage
	PresentMode   PresentMode
	PreTransform  uint32
	// QueueFamilies with more than one distinct entry selects concurrent sharing.
	QueueFamilies []int
	Old           Swapchain
}

type AttachmentDescription struct {
	Format        Format
	LoadOp        LoadOp
	StoreOp       StoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

type AttachmentReference struct {
	Attachment uint32
	Layout     ImageLayout
}

type SubpassDescription struct {
	ColorAttachments []AttachmentReference
	DepthAttachment  *AttachmentReference
}

type SubpassDependency struct {
	SrcSubpass, DstSubpass uint32
	SrcStage, DstStage     PipelineStage
	SrcAccess, DstAccess   Access
}

type RenderPassInfo struct {
	Attachments  []AttachmentDescription
	Subpasses    []SubpassDescription
	Dependencies []SubpassDependency
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
	Layers      uint32
}

type ClearValue struct {
	Color        mgl32.Vec4
	Depth        float32
	Stencil      uint32
	DepthStencil bool
}

type RenderPassBegin struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Area        Rect2D
	ClearValues []ClearValue
}

type PushConstantRange struct {
	Stages ShaderStage
	Offset uint32
	Size   uint32
}

type PipelineLayoutInfo struct {
	PushConstantRanges []PushConstantRange
}

type ShaderStageInfo struct {
	Stage  ShaderStage
	Module ShaderModule
	Entry  string
}

type VertexBinding struct {
	Binding   uint32
	Stride    uint32
	InputRate VertexInputRate
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

// GraphicsPipelineInfo describes a triangle-list pipeline with dynamic viewport and scissor.
type GraphicsPipelineInfo struct {
	Stages           []ShaderStageInfo
	VertexBindings   []VertexBinding
	VertexAttributes []VertexAttribute
	FrontFace        FrontFace
	CullMode         CullMode
	DepthTest        bool
	DepthWrite       bool
	// ColorAttachments is the number of color attachments in the target subpass.
	ColorAttachments int
	Layout           PipelineLayout
	RenderPass       RenderPass
	Subpass          uint32
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStage
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
	Fence            Fence
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchains     []Swapchain
	ImageIndices   []uint32
}
