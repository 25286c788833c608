package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

type RenderPass struct {
	device *Device
	native vk.RenderPass
}

// NewRenderPass creates a single-sample render pass. Stencil aspects are never loaded or stored.
func (d *Device) NewRenderPass(info driver.RenderPassInfo) (driver.RenderPass, error) {
	attachments := make([]vk.AttachmentDescription, len(info.Attachments))
	for i, a := range info.Attachments {
		attachments[i] = vk.AttachmentDescription{
			Format:         vk.Format(a.Format),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOp(a.LoadOp),
			StoreOp:        vk.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayout(a.InitialLayout),
			FinalLayout:    vk.ImageLayout(a.FinalLayout),
		}
	}

	subpasses := make([]vk.SubpassDescription, len(info.Subpasses))
	for i, s := range info.Subpasses {
		colors := make([]vk.AttachmentReference, len(s.ColorAttachments))
		for j, ref := range s.ColorAttachments {
			colors[j] = attachmentReference(ref)
		}
		subpasses[i] = vk.SubpassDescription{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(colors)),
			PColorAttachments:    colors,
		}
		if s.DepthAttachment != nil {
			depth := attachmentReference(*s.DepthAttachment)
			subpasses[i].PDepthStencilAttachment = &depth
		}
	}

	dependencies := make([]vk.SubpassDependency, len(info.Dependencies))
	for i, dep := range info.Dependencies {
		dependencies[i] = vk.SubpassDependency{
			SrcSubpass:    dep.SrcSubpass,
			DstSubpass:    dep.DstSubpass,
			SrcStageMask:  vk.PipelineStageFlags(dep.SrcStage),
			DstStageMask:  vk.PipelineStageFlags(dep.DstStage),
			SrcAccessMask: vk.AccessFlags(dep.SrcAccess),
			DstAccessMask: vk.AccessFlags(dep.DstAccess),
		}
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}
	var native vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(d.native, &createInfo, nil, &native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateRenderPass")
	}
	return &RenderPass{device: d, native: native}, nil
}

func attachmentReference(ref driver.AttachmentReference) vk.AttachmentReference {
	return vk.AttachmentReference{
		Attachment: ref.Attachment,
		Layout:     vk.ImageLayout(ref.Layout),
	}
}

func (r *RenderPass) Destroy() {
	vk.DestroyRenderPass(r.device.native, r.native, nil)
}

type Framebuffer struct {
	device *Device
	native vk.Framebuffer
}

func (d *Device) NewFramebuffer(info driver.FramebufferInfo) (driver.Framebuffer, error) {
	views := make([]vk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		views[i] = v.(*ImageView).native
	}
	layers := info.Layers
	if layers == 0 {
		layers = 1
	}
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      info.RenderPass.(*RenderPass).native,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           info.Extent.Width,
		Height:          info.Extent.Height,
		Layers:          layers,
	}
	var native vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(d.native, &createInfo, nil, &native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateFramebuffer")
	}
	return &Framebuffer{device: d, native: native}, nil
}

func (f *Framebuffer) Destroy() {
	vk.DestroyFramebuffer(f.device.native, f.native, nil)
}
