package vkframe

import (
	"context"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

// PipelineInfo describes a graphics pipeline. Viewport and scissor are always dynamic.
type PipelineInfo struct {
	Renderpass *Renderpass
	Subpass    uint32

	Shaders          []ShaderInfo
	PushConstants    []driver.PushConstantRange
	VertexBindings   []driver.VertexBinding
	VertexAttributes []driver.VertexAttribute

	FrontFace  driver.FrontFace
	CullMode   driver.CullMode
	DepthTest  bool
	DepthWrite bool
}

// Pipeline is an immutable compiled pipeline and its layout.
type Pipeline struct {
	ctx    *Context
	layout driver.PipelineLayout
	native driver.Pipeline
}

// CreatePipeline compiles a pipeline. Failures are returned as *FatalError since nothing
// can be drawn without it.
func (c *Context) CreatePipeline(info PipelineInfo) (*Pipeline, error) {
	return c.CreatePipelineContext(context.Background(), info)
}

// CreatePipelineContext is CreatePipeline with a context bounding shader compilation.
func (c *Context) CreatePipelineContext(ctx context.Context, info PipelineInfo) (*Pipeline, error) {
	if info.Renderpass == nil {
		return nil, fatal(errors.New("no render pass"), "create pipeline")
	}

	var stages []driver.ShaderStageInfo
	defer func() {
		for _, s := range stages {
			s.Module.Destroy()
		}
	}()
	for _, s := range info.Shaders {
		module, err := c.createShaderModule(ctx, s)
		if err != nil {
			return nil, fatal(err, "create pipeline")
		}
		entry := s.Entry
		if entry == "" {
			entry = "main"
		}
		stages = append(stages, driver.ShaderStageInfo{Stage: s.Stage, Module: module, Entry: entry})
	}

	layout, err := c.device.NewPipelineLayout(driver.PipelineLayoutInfo{
		PushConstantRanges: info.PushConstants,
	})
	if err != nil {
		return nil, fatal(err, "create pipeline layout")
	}

	colors := 0
	if int(info.Subpass) < len(info.Renderpass.info.Subpasses) {
		colors = len(info.Renderpass.info.Subpasses[info.Subpass].ColorAttachments)
	}
	native, err := c.device.NewGraphicsPipeline(driver.GraphicsPipelineInfo{
		Stages:           stages,
		VertexBindings:   info.VertexBindings,
		VertexAttributes: info.VertexAttributes,
		FrontFace:        info.FrontFace,
		CullMode:         info.CullMode,
		DepthTest:        info.DepthTest,
		DepthWrite:       info.DepthWrite,
		ColorAttachments: colors,
		Layout:           layout,
		RenderPass:       info.Renderpass.Native(),
		Subpass:          info.Subpass,
	})
	if err != nil {
		layout.Destroy()
		return nil, fatal(err, "create graphics pipeline")
	}
	return &Pipeline{ctx: c, layout: layout, native: native}, nil
}

// Layout returns the native pipeline layout.
func (p *Pipeline) Layout() driver.PipelineLayout {
	return p.layout
}

// Native returns the native pipeline.
func (p *Pipeline) Native() driver.Pipeline {
	return p.native
}

func (p *Pipeline) Destroy() {
	p.native.Destroy()
	p.layout.Destroy()
}
