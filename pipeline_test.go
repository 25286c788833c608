package vkframe

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/driver/drivertest"
	"github.com/celer/vkframe/shaderc"
)

func spirv() []byte {
	b := make([]byte, 20)
	binary.LittleEndian.PutUint32(b, shaderc.Magic)
	binary.LittleEndian.PutUint32(b[4:], 0x00010000)
	return b
}

func triangleShaders() []ShaderInfo {
	return []ShaderInfo{
		{Stage: driver.ShaderStageVertex, Format: ShaderSPIRV, Source: spirv()},
		{Stage: driver.ShaderStageFragment, Format: ShaderSPIRV, Source: spirv()},
	}
}

func TestCreatePipeline(t *testing.T) {
	f := newRenderFixture(t)
	p, err := f.ctx.CreatePipeline(PipelineInfo{
		Renderpass:    f.rp,
		Shaders:       triangleShaders(),
		PushConstants: []driver.PushConstantRange{{Stages: driver.ShaderStageVertex, Size: 64}},
		FrontFace:     driver.FrontFaceClockwise,
		CullMode:      driver.CullModeNone,
	})
	if err != nil {
		t.Fatalf("CreatePipeline() = %v", err)
	}

	info := p.Native().(*drivertest.Pipeline).Info
	if len(info.Stages) != 2 || info.Stages[0].Entry != "main" {
		t.Errorf("stages = %+v", info.Stages)
	}
	if info.ColorAttachments != 1 {
		t.Errorf("ColorAttachments = %d, want 1", info.ColorAttachments)
	}
	if info.FrontFace != driver.FrontFaceClockwise {
		t.Errorf("FrontFace = %v", info.FrontFace)
	}
	if n := f.drv.Live("ShaderModule"); n != 0 {
		t.Errorf("%d shader modules alive after pipeline creation", n)
	}

	p.Destroy()
	if n := f.drv.Live("PipelineLayout"); n != 0 {
		t.Errorf("%d pipeline layouts alive after Destroy", n)
	}
}

func TestCreatePipelineFailuresAreFatal(t *testing.T) {
	tests := []struct {
		name  string
		fail  string
		setup func(info *PipelineInfo)
	}{
		{name: "layout", fail: "NewPipelineLayout"},
		{name: "pipeline", fail: "NewPipeline"},
		{name: "shader module", fail: "NewShaderModule"},
		{name: "invalid spirv", setup: func(info *PipelineInfo) {
			info.Shaders[0].Source = []byte("not spirv")
		}},
		{name: "no render pass", setup: func(info *PipelineInfo) {
			info.Renderpass = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRenderFixture(t)
			if tt.fail != "" {
				f.drv.Fail(tt.fail, errors.New("out of memory"))
			}
			info := PipelineInfo{Renderpass: f.rp, Shaders: triangleShaders()}
			if tt.setup != nil {
				tt.setup(&info)
			}
			_, err := f.ctx.CreatePipeline(info)
			if !errors.Is(err, ErrFatal) {
				t.Fatalf("CreatePipeline() = %v, want a fatal error", err)
			}
			var fe *FatalError
			if !errors.As(err, &fe) || fe.Op == "" {
				t.Errorf("error %v is not a *FatalError with an operation", err)
			}
			for _, kind := range []string{"ShaderModule", "PipelineLayout", "Pipeline"} {
				if n := f.drv.Live(kind); n != 0 {
					t.Errorf("%d %s objects leaked", n, kind)
				}
			}
		})
	}
}

func TestPushMatrix(t *testing.T) {
	f := newRenderFixture(t)
	p, err := f.ctx.CreatePipeline(PipelineInfo{Renderpass: f.rp, Shaders: triangleShaders()})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	cb, _ := f.pool.BorrowCommandBuffer()
	defer f.pool.ReturnCommandBuffer(cb)
	m := mgl32.Translate3D(1, 2, 3)
	f.pool.RecordAsync(cb, func(cb *CommandBuffer) error {
		cb.Begin()
		cb.BindPipeline(p)
		cb.PushMatrix(p, driver.ShaderStageVertex, 0, m)
		return cb.End()
	})
	if err := f.pool.AwaitRecord(cb); err != nil {
		t.Fatal(err)
	}

	cmds := cb.Native().(*drivertest.CommandBuffer).Commands()
	if len(cmds) != 2 || cmds[1].Op != "pushConstants" {
		t.Fatalf("commands = %+v", cmds)
	}
	data := cmds[1].Data
	if len(data) != 64 {
		t.Fatalf("pushed %d bytes, want 64", len(data))
	}
	// Column major: the translation lives in elements 12 to 14.
	for i, want := range []float32{1, 2, 3} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[4*(12+i):]))
		if got != want {
			t.Errorf("element %d = %v, want %v", 12+i, got, want)
		}
	}
}
