package vkframe

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/driver/drivertest"
)

func TestSwapchainCreate(t *testing.T) {
	f := newRenderFixture(t)

	if got := f.sc.Extent(); got != (driver.Extent2D{Width: 800, Height: 600}) {
		t.Errorf("Extent() = %v", got)
	}
	if got := f.sc.Format(); got != driver.FormatB8G8R8A8SRGB {
		t.Errorf("Format() = %v, want the sRGB format", got)
	}
	if got := f.sc.PresentMode(); got != driver.PresentModeMailbox {
		t.Errorf("PresentMode() = %v", got)
	}
	if got := f.sc.Generation(); got != 1 {
		t.Errorf("Generation() = %d, want 1", got)
	}
	if got := len(f.sc.ImageViews()); got != 3 {
		t.Errorf("%d image views, want min image count + 1", got)
	}
	if f.fb.Count() != len(f.sc.ImageViews()) {
		t.Errorf("%d framebuffers for %d images", f.fb.Count(), len(f.sc.ImageViews()))
	}
}

func TestFramebufferTarget(t *testing.T) {
	f := newRenderFixture(t)

	n := f.fb.Count()
	for i := 0; i < n; i++ {
		if native, _ := f.fb.target(uint32(i)); native == nil {
			t.Errorf("no framebuffer for image %d", i)
		}
	}
	if native, _ := f.fb.target(uint32(n)); native != nil {
		t.Errorf("image %d of %d resolved to a framebuffer", n, n)
	}

	single, err := f.ctx.CreateFramebuffer(FramebufferInfo{
		Renderpass:  f.rp,
		Attachments: f.sc.ImageViews()[:1],
		Extent:      driver.Extent2D{Width: 64, Height: 64},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer single.Destroy()
	if native, extent := single.target(5); native == nil || extent.Width != 64 {
		t.Errorf("target(5) = %v, %v, want the single framebuffer", native, extent)
	}
}

func TestSwapchainRecreateIsIdempotent(t *testing.T) {
	f := newRenderFixture(t)
	views := f.drv.Live("ImageView")
	framebuffers := f.drv.Live("Framebuffer")

	for i := 0; i < 5; i++ {
		if err := f.sc.Recreate(); err != nil {
			t.Fatalf("Recreate() = %v", err)
		}
	}
	if got := f.drv.Live("ImageView"); got != views {
		t.Errorf("%d image views alive after recreation, want %d", got, views)
	}
	if got := f.drv.Live("Framebuffer"); got != framebuffers {
		t.Errorf("%d framebuffers alive after recreation, want %d", got, framebuffers)
	}
	if got := f.drv.Live("Swapchain"); got != 1 {
		t.Errorf("%d swapchains alive", got)
	}
	if got := f.drv.Live("RenderPass"); got != 1 {
		t.Errorf("%d render passes alive", got)
	}
	if got := f.sc.Generation(); got != 6 {
		t.Errorf("Generation() = %d, want 6", got)
	}
}

func TestSwapchainRecreateFollowsWindow(t *testing.T) {
	f := newRenderFixture(t)
	f.win.Resize(1024, 768)
	if err := f.sc.Recreate(); err != nil {
		t.Fatal(err)
	}
	want := driver.Extent2D{Width: 1024, Height: 768}
	if got := f.sc.Extent(); got != want {
		t.Errorf("swapchain extent = %v, want %v", got, want)
	}
	if got := f.fb.Extent(); got != want {
		t.Errorf("framebuffer extent = %v, want %v", got, want)
	}
}

func TestSwapchainObserverOrder(t *testing.T) {
	f := newRenderFixture(t)
	var order []string
	f.sc.OnRecreate(func(sc *Swapchain) { order = append(order, "first") })
	f.sc.OnRecreate(func(sc *Swapchain) {
		order = append(order, "second")
		if sc.Generation() != 2 {
			t.Errorf("observer saw generation %d", sc.Generation())
		}
	})
	if err := f.sc.Recreate(); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("observers ran as %v", order)
	}
}

func TestAcquireRecreatesOutOfDate(t *testing.T) {
	f := newRenderFixture(t)
	f.drv.OutOfDate(1)

	_, gen, err := f.sc.AcquireImage(nil, nil)
	if err != nil {
		t.Fatalf("AcquireImage() = %v", err)
	}
	if gen != 2 {
		t.Errorf("acquired under generation %d, want 2", gen)
	}

	f.drv.OutOfDate(maxAcquireAttempts)
	if _, _, err := f.sc.AcquireImage(nil, nil); !errors.Is(err, driver.ErrOutOfDate) {
		t.Errorf("AcquireImage() = %v, want ErrOutOfDate after %d attempts", err, maxAcquireAttempts)
	}
}

func TestAcquireSignalsFence(t *testing.T) {
	f := newRenderFixture(t)
	fence, _ := f.ctx.CreateFence(false)
	defer fence.Destroy()

	if _, _, err := f.sc.AcquireImage(nil, fence); err != nil {
		t.Fatal(err)
	}
	if err := fence.Await(); err != nil {
		t.Fatalf("Await() = %v", err)
	}
	if n := f.drv.Count(drivertest.EventAcquire); n != 1 {
		t.Errorf("%d acquisitions, want 1", n)
	}
}

func TestSwapchainZeroExtent(t *testing.T) {
	f := newRenderFixture(t)
	f.win.Resize(0, 0)

	if err := f.sc.Recreate(); !errors.Is(err, ErrZeroExtent) {
		t.Errorf("Recreate() = %v, want ErrZeroExtent", err)
	}
	if !f.sc.Stale() {
		t.Error("swapchain not stale while minimized")
	}
	if _, _, err := f.sc.AcquireImage(nil, nil); !errors.Is(err, ErrZeroExtent) {
		t.Errorf("AcquireImage() = %v, want ErrZeroExtent", err)
	}

	f.win.Resize(640, 480)
	if _, _, err := f.sc.AcquireImage(nil, nil); err != nil {
		t.Fatalf("AcquireImage() after restore = %v", err)
	}
	if got := f.fb.Extent(); got != (driver.Extent2D{Width: 640, Height: 480}) {
		t.Errorf("framebuffer extent = %v after restore", got)
	}
}

func TestChooseExtent(t *testing.T) {
	caps := driver.SurfaceCapabilities{
		CurrentExtent:  driver.Extent2D{Width: ^uint32(0), Height: ^uint32(0)},
		MinImageExtent: driver.Extent2D{Width: 10, Height: 10},
		MaxImageExtent: driver.Extent2D{Width: 100, Height: 100},
	}
	got := chooseExtent(caps, driver.Extent2D{Width: 5, Height: 500})
	if want := (driver.Extent2D{Width: 10, Height: 100}); got != want {
		t.Errorf("chooseExtent() = %v, want %v", got, want)
	}
	caps.CurrentExtent = driver.Extent2D{Width: 42, Height: 24}
	if got := chooseExtent(caps, driver.Extent2D{Width: 5, Height: 500}); got != caps.CurrentExtent {
		t.Errorf("chooseExtent() = %v, want the current extent", got)
	}
}

func TestChoosePresentMode(t *testing.T) {
	modes := []driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeImmediate}
	if got := choosePresentMode(modes, driver.PresentModeMailbox); got != driver.PresentModeFIFO {
		t.Errorf("choosePresentMode() = %v, want fifo fallback", got)
	}
	if got := choosePresentMode(modes, driver.PresentModeImmediate); got != driver.PresentModeImmediate {
		t.Errorf("choosePresentMode() = %v, want immediate", got)
	}
}
