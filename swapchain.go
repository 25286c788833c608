package vkframe

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

// maxAcquireAttempts bounds how often AcquireImage recreates before giving up.
const maxAcquireAttempts = 3

// Swapchain presents images to a window surface and rebuilds itself, and everything
// registered with OnRecreate, when the surface changes.
type Swapchain struct {
	ctx    *Context
	window driver.Window

	// usage serializes acquisition, presentation and recreation.
	usage sync.Mutex
	// targets is held for reading by recordings that use swapchain derived objects and
	// for writing by recreation.
	targets sync.RWMutex

	mu          sync.RWMutex
	surface     driver.Surface
	native      driver.Swapchain
	format      driver.SurfaceFormat
	presentMode driver.PresentMode
	extent      driver.Extent2D
	images      []driver.Image
	views       []driver.ImageView
	generation  uint64

	stale atomic.Bool

	obsMu     sync.Mutex
	observers []func(*Swapchain)
}

// CreateSwapchain creates a surface and swapchain for w.
func (c *Context) CreateSwapchain(w driver.Window) (*Swapchain, error) {
	s := &Swapchain{ctx: c, window: w}
	s.mu.Lock()
	err := s.initialize(w.FramebufferExtent())
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Swapchain) initialize(windowExtent driver.Extent2D) error {
	if windowExtent.IsZero() {
		return ErrZeroExtent
	}
	ctx := s.ctx
	surface, err := ctx.instance.NewSurface(s.window)
	if err != nil {
		return creationFailed(err, "surface")
	}
	s.surface = surface

	if ok, err := ctx.physical.SupportsPresent(ctx.presentFamily, surface); err != nil || !ok {
		Logger().Error("queue family cannot present to the surface", "family", ctx.presentFamily, "err", err)
	}

	caps, err := ctx.physical.SurfaceCapabilities(surface)
	if err != nil {
		s.finalize()
		return errors.Wrap(err, "query surface capabilities")
	}
	formats, err := ctx.physical.SurfaceFormats(surface)
	if err != nil {
		s.finalize()
		return errors.Wrap(err, "query surface formats")
	}
	modes, err := ctx.physical.PresentModes(surface)
	if err != nil {
		s.finalize()
		return errors.Wrap(err, "query present modes")
	}

	s.format = chooseSurfaceFormat(formats)
	s.presentMode = choosePresentMode(modes, ctx.options.PresentMode)
	s.extent = chooseExtent(caps, windowExtent)

	families := []int{ctx.universalFamily}
	if ctx.presentFamily != ctx.universalFamily {
		families = append(families, ctx.presentFamily)
	}
	native, err := ctx.device.NewSwapchain(driver.SwapchainInfo{
		Surface:       surface,
		MinImageCount: chooseImageCount(caps),
		Format:        s.format.Format,
		ColorSpace:    s.format.ColorSpace,
		Extent:        s.extent,
		Usage:         driver.ImageUsageColorAttachment | driver.ImageUsageTransferDst,
		PresentMode:   s.presentMode,
		PreTransform:  caps.CurrentTransform,
		QueueFamilies: families,
	})
	if err != nil {
		s.finalize()
		return creationFailed(err, "swapchain")
	}
	s.native = native

	images, err := native.Images()
	if err != nil {
		s.finalize()
		return errors.Wrap(err, "get swapchain images")
	}
	s.images = images
	for _, img := range images {
		view, err := ctx.device.NewImageView(img, s.format.Format)
		if err != nil {
			s.finalize()
			return creationFailed(err, "swapchain image view")
		}
		s.views = append(s.views, view)
	}
	s.generation++
	return nil
}

func (s *Swapchain) finalize() {
	for _, v := range s.views {
		v.Destroy()
	}
	s.views = nil
	s.images = nil
	if s.native != nil {
		s.native.Destroy()
		s.native = nil
	}
	if s.surface != nil {
		s.surface.Destroy()
		s.surface = nil
	}
}

// AcquireImage acquires the next image, signaling sem and fence when it is ready. It returns
// the image index and the generation it belongs to. An out of date surface is recreated
// synchronously before acquiring again.
func (s *Swapchain) AcquireImage(sem *Semaphore, fence *Fence) (uint32, uint64, error) {
	s.usage.Lock()
	defer s.usage.Unlock()

	if s.stale.Load() || s.native == nil {
		if err := s.recreate(); err != nil {
			return 0, 0, err
		}
	}

	var nativeSem driver.Semaphore
	if sem != nil {
		nativeSem = sem.Native()
	}
	var nativeFence driver.Fence
	if fence != nil {
		fence.ctx.fenceMu.Lock()
		nativeFence = fence.native
		fence.ctx.fenceMu.Unlock()
	}

	for attempt := 1; ; attempt++ {
		idx, err := s.native.AcquireNextImage(nativeSem, nativeFence)
		switch {
		case err == nil:
		case errors.Is(err, driver.ErrSuboptimal):
			s.stale.Store(true)
		case errors.Is(err, driver.ErrOutOfDate):
			if attempt >= maxAcquireAttempts {
				return 0, 0, errors.Wrap(err, "acquire swapchain image")
			}
			Logger().Info("swapchain out of date, recreating")
			if err := s.recreate(); err != nil {
				return 0, 0, err
			}
			continue
		default:
			Logger().Error("failed to acquire swapchain image", "err", err)
			return 0, 0, errors.Wrap(err, "acquire swapchain image")
		}
		if fence != nil {
			fence.markSubmitted()
		}
		return idx, s.Generation(), nil
	}
}

// Recreate waits for the device to go idle, rebuilds the swapchain against the current
// window size and runs every OnRecreate callback in registration order.
func (s *Swapchain) Recreate() error {
	s.usage.Lock()
	defer s.usage.Unlock()
	return s.recreate()
}

func (s *Swapchain) recreate() error {
	extent := s.window.FramebufferExtent()
	if extent.IsZero() {
		s.stale.Store(true)
		return ErrZeroExtent
	}

	s.targets.Lock()
	defer s.targets.Unlock()

	if err := s.ctx.device.WaitIdle(); err != nil {
		Logger().Error("device wait idle failed", "err", err)
	}

	s.mu.Lock()
	s.finalize()
	err := s.initialize(extent)
	gen := s.generation
	s.mu.Unlock()
	if err != nil {
		s.stale.Store(true)
		return err
	}
	s.stale.Store(false)
	Logger().Info("swapchain recreated", "extent", extent.String(), "generation", gen)

	s.obsMu.Lock()
	observers := slices.Clone(s.observers)
	s.obsMu.Unlock()
	for _, fn := range observers {
		fn(s)
	}
	return nil
}

// OnRecreate registers fn to run after every recreation. Callbacks are never removed and
// must not acquire or present on s.
func (s *Swapchain) OnRecreate(fn func(*Swapchain)) {
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

// MarkStale forces recreation at the next acquisition.
func (s *Swapchain) MarkStale() {
	s.stale.Store(true)
}

// Stale reports whether the next acquisition will recreate first.
func (s *Swapchain) Stale() bool {
	return s.stale.Load()
}

// pin keeps swapchain derived objects alive while a recording uses them. It fails when the
// swapchain was recreated after gen. A successful pin must be released with unpin.
func (s *Swapchain) pin(gen uint64) bool {
	s.targets.RLock()
	if s.Generation() != gen {
		s.targets.RUnlock()
		return false
	}
	return true
}

func (s *Swapchain) unpin() {
	s.targets.RUnlock()
}

// Generation counts successful (re)initializations, starting at 1.
func (s *Swapchain) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *Swapchain) Extent() driver.Extent2D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extent
}

func (s *Swapchain) Format() driver.Format {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format.Format
}

func (s *Swapchain) PresentMode() driver.PresentMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presentMode
}

// ImageViews returns the views of the current swapchain images.
func (s *Swapchain) ImageViews() []driver.ImageView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]driver.ImageView(nil), s.views...)
}

func (s *Swapchain) Destroy() {
	s.usage.Lock()
	defer s.usage.Unlock()
	s.mu.Lock()
	s.finalize()
	s.mu.Unlock()
}

func chooseSurfaceFormat(formats []driver.SurfaceFormat) driver.SurfaceFormat {
	for _, f := range formats {
		if f.Format == driver.FormatB8G8R8A8SRGB && f.ColorSpace == driver.ColorSpaceSRGBNonlinear {
			return f
		}
	}
	if len(formats) == 0 {
		return driver.SurfaceFormat{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear}
	}
	return formats[0]
}

func choosePresentMode(modes []driver.PresentMode, preferred driver.PresentMode) driver.PresentMode {
	for _, m := range modes {
		if m == preferred {
			return m
		}
	}
	return driver.PresentModeFIFO
}

func chooseExtent(caps driver.SurfaceCapabilities, window driver.Extent2D) driver.Extent2D {
	if caps.CurrentExtent.Width != ^uint32(0) {
		return caps.CurrentExtent
	}
	return driver.Extent2D{
		Width:  clamp(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseImageCount(caps driver.SurfaceCapabilities) uint32 {
	n := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
