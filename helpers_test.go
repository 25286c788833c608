package vkframe

import (
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/driver/drivertest"
)

func TestMain(m *testing.M) {
	SetLogger(nil)
	os.Exit(m.Run())
}

func testOptions() *Options {
	return &Options{
		FramesInFlight: 2,
		ShaderCompiler: "glslc",
		PresentMode:    driver.PresentModeMailbox,
	}
}

type fixture struct {
	drv *drivertest.Driver
	win *drivertest.Window
	ctx *Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	drv := drivertest.New()
	win := drivertest.NewWindow(800, 600)
	ctx, err := NewContext(drv, ContextInfo{Window: win, ApplicationName: t.Name(), Options: testOptions()})
	if err != nil {
		t.Fatalf("NewContext() = %v", err)
	}
	t.Cleanup(ctx.Destroy)
	return &fixture{drv: drv, win: win, ctx: ctx}
}

// renderFixture adds the objects a frame loop draws with.
type renderFixture struct {
	*fixture
	sc   *Swapchain
	rp   *Renderpass
	fb   *Framebuffer
	pool *CommandPool
	loop *FrameLoop
}

func newRenderFixture(t *testing.T) *renderFixture {
	t.Helper()
	f := &renderFixture{fixture: newFixture(t)}
	var err error
	if f.sc, err = f.ctx.CreateSwapchain(f.win); err != nil {
		t.Fatalf("CreateSwapchain() = %v", err)
	}
	t.Cleanup(f.sc.Destroy)
	f.rp, err = f.ctx.CreateRenderpass(RenderpassInfo{
		Subpasses: []driver.SubpassDescription{{
			ColorAttachments: []driver.AttachmentReference{{Attachment: 0, Layout: driver.ImageLayoutColorAttachment}},
		}},
		Swapchain:           f.sc,
		SwapchainAttachment: DefaultSwapchainAttachment,
	})
	if err != nil {
		t.Fatalf("CreateRenderpass() = %v", err)
	}
	t.Cleanup(f.rp.Destroy)
	if f.fb, err = f.ctx.CreateFramebuffer(FramebufferInfo{Renderpass: f.rp, Swapchain: f.sc}); err != nil {
		t.Fatalf("CreateFramebuffer() = %v", err)
	}
	t.Cleanup(f.fb.Destroy)
	if f.pool, err = f.ctx.CreateCommandPool(); err != nil {
		t.Fatalf("CreateCommandPool() = %v", err)
	}
	t.Cleanup(f.pool.Destroy)
	if f.loop, err = f.ctx.CreateFrameLoop(f.sc, f.pool); err != nil {
		t.Fatalf("CreateFrameLoop() = %v", err)
	}
	t.Cleanup(f.loop.Close)
	return f
}

// drawTagged draws one triangle whose first instance is the frame index plus one.
func (f *renderFixture) drawTagged(cb *CommandBuffer, info FrameInfo) error {
	cb.BeginRenderPass(f.rp, f.fb, info.Image, mgl32.Vec4{1, 0, 0, 0})
	cb.SetViewport(info.Extent)
	cb.SetScissor(info.Extent)
	cb.Draw(3, 1, 0, uint32(info.Index)+1)
	cb.EndRenderPass()
	return nil
}
