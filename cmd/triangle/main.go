// Command triangle opens a resizable window and draws a rotating triangle with two frames
// in flight.
package main

import (
	_ "embed"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/pkg/errors"
	"github.com/xlab/closer"

	"github.com/celer/vkframe"
	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/driver/vulkan"
	"github.com/celer/vkframe/window"
	"github.com/celer/vkframe/window/glfw"
	"github.com/celer/vkframe/window/sdl"
)

//go:embed shaders/triangle.vert
var vertexShader []byte

//go:embed shaders/triangle.frag
var fragmentShader []byte

var (
	useSDL     = flag.Bool("sdl", false, "use SDL2 instead of GLFW for the window")
	validation = flag.Bool("validation", false, "enable the Khronos validation layer")
	frames     = flag.Int("frames", 2, "frames in flight")
	compiler   = flag.String("glslc", "glslc", "glslc compatible shader compiler")
	statsEvery = flag.Duration("stats", 5*time.Second, "interval between frame statistics, 0 disables them")
)

func init() {
	// Window systems and the Vulkan loader expect the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	log := vkframe.Logger()

	app, err := newApp()
	if err != nil {
		log.Error("failed to start", "err", err)
		os.Exit(1)
	}

	exitC := make(chan struct{}, 2)
	doneC := make(chan struct{}, 2)
	closer.Bind(func() {
		exitC <- struct{}{}
		<-doneC
		log.Info("bye")
	})

	code := 0
	if err := app.run(exitC); err != nil {
		log.Error("frame loop failed", "err", err)
		code = 1
	}
	app.destroy()
	doneC <- struct{}{}
	closer.Exit(code)
}

type app struct {
	win      window.Window
	ctx      *vkframe.Context
	sc       *vkframe.Swapchain
	rp       *vkframe.Renderpass
	fb       *vkframe.Framebuffer
	pool     *vkframe.CommandPool
	pipeline *vkframe.Pipeline
	loop     *vkframe.FrameLoop

	// cleanup runs in reverse order.
	cleanup []func()
}

func openWindow(cfg window.Config) (window.Window, error) {
	if *useSDL {
		return sdl.Open(cfg)
	}
	return glfw.Open(cfg)
}

func newApp() (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.destroy()
		}
	}()

	a.win, err = openWindow(window.Config{Title: "vkframe triangle", Width: 1000, Height: 700, Resizable: true})
	if err != nil {
		return nil, err
	}
	a.cleanup = append(a.cleanup, a.win.Destroy)

	// The swapchain cannot be created before the window has an area.
	for a.win.FramebufferExtent().IsZero() && !a.win.ShouldClose() {
		a.win.PollEvents()
		time.Sleep(10 * time.Millisecond)
	}

	drv, err := vulkan.Open(a.win.InstanceProcAddr())
	if err != nil {
		return nil, err
	}

	opts := vkframe.DefaultOptions()
	opts.FramesInFlight = *frames
	opts.ShaderCompiler = *compiler
	a.ctx, err = vkframe.NewContext(drv, vkframe.ContextInfo{
		Window:                 a.win,
		EnableValidationLayers: *validation,
		ApplicationName:        "triangle",
		EngineName:             "vkframe",
		Options:                &opts,
	})
	if err != nil {
		return nil, err
	}
	a.cleanup = append(a.cleanup, a.ctx.Destroy)

	if a.sc, err = a.ctx.CreateSwapchain(a.win); err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	a.cleanup = append(a.cleanup, a.sc.Destroy)

	a.rp, err = a.ctx.CreateRenderpass(vkframe.RenderpassInfo{
		Subpasses: []driver.SubpassDescription{{
			ColorAttachments: []driver.AttachmentReference{{Attachment: 0, Layout: driver.ImageLayoutColorAttachment}},
		}},
		Swapchain:           a.sc,
		SwapchainAttachment: vkframe.DefaultSwapchainAttachment,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	a.cleanup = append(a.cleanup, a.rp.Destroy)

	if a.fb, err = a.ctx.CreateFramebuffer(vkframe.FramebufferInfo{Renderpass: a.rp, Swapchain: a.sc}); err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}
	a.cleanup = append(a.cleanup, a.fb.Destroy)

	if a.pool, err = a.ctx.CreateCommandPool(); err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	a.cleanup = append(a.cleanup, a.pool.Destroy)

	a.pipeline, err = a.ctx.CreatePipeline(vkframe.PipelineInfo{
		Renderpass: a.rp,
		Shaders: []vkframe.ShaderInfo{
			{Stage: driver.ShaderStageVertex, Format: vkframe.ShaderGLSL, Path: "triangle.vert", Source: vertexShader},
			{Stage: driver.ShaderStageFragment, Format: vkframe.ShaderGLSL, Path: "triangle.frag", Source: fragmentShader},
		},
		PushConstants: []driver.PushConstantRange{{Stages: driver.ShaderStageVertex, Size: 64}},
		FrontFace:     driver.FrontFaceClockwise,
		CullMode:      driver.CullModeNone,
	})
	if err != nil {
		return nil, err
	}
	a.cleanup = append(a.cleanup, a.pipeline.Destroy)

	if a.loop, err = a.ctx.CreateFrameLoop(a.sc, a.pool); err != nil {
		return nil, errors.Wrap(err, "create frame loop")
	}
	a.cleanup = append(a.cleanup, a.loop.Close)
	return a, nil
}

func (a *app) run(exitC <-chan struct{}) error {
	log := vkframe.Logger()
	clearColor := mgl32.Vec4{1, 0, 0, 0}
	start := hrtime.Now()
	lastStats := start

	for {
		select {
		case <-exitC:
			return nil
		default:
		}

		for _, e := range a.win.PollEvents() {
			switch e.Type {
			case window.Closed:
				return nil
			case window.Resized, window.Restored:
				a.loop.RequestRecreate()
			}
		}

		angle := float32(hrtime.Since(start).Seconds())
		transform := mgl32.HomogRotate3DZ(angle)
		err := a.loop.Frame(func(cb *vkframe.CommandBuffer, f vkframe.FrameInfo) error {
			cb.BeginRenderPass(a.rp, a.fb, f.Image, clearColor)
			cb.BindPipeline(a.pipeline)
			cb.SetViewport(f.Extent)
			cb.SetScissor(f.Extent)
			cb.PushMatrix(a.pipeline, driver.ShaderStageVertex, 0, transform)
			cb.Draw(3, 1, 0, 0)
			cb.EndRenderPass()
			return nil
		})
		if err != nil {
			return err
		}

		if *statsEvery > 0 && hrtime.Since(lastStats) >= *statsEvery {
			lastStats = hrtime.Now()
			s := a.loop.Stats()
			log.Info("frame stats",
				"frames", s.Frames,
				"discarded", s.Discarded,
				"skipped", s.Skipped,
				"frame_time", s.FrameTime,
				"acquire_time", s.AcquireTime,
				"extent", a.sc.Extent().String(),
			)
		}
		if a.win.FramebufferExtent().IsZero() {
			// Minimized: nothing is acquired, avoid spinning.
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (a *app) destroy() {
	if a.ctx != nil {
		if err := a.ctx.AwaitIdle(); err != nil {
			vkframe.Logger().Error("failed to wait for idle", "err", err)
		}
	}
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}
