package drivertest

import (
	"sync"

	"github.com/celer/vkframe/driver"
)

type Device struct {
	drv   *Driver
	queue *Queue
}

func (d *Device) Queue(family, index int) driver.Queue { return d.queue }

func (d *Device) NewCommandPool(family int) (driver.CommandPool, error) {
	if err := d.drv.create("CommandPool"); err != nil {
		return nil, err
	}
	return &CommandPool{drv: d.drv}, nil
}

func (d *Device) NewFence(signaled bool) (driver.Fence, error) {
	if err := d.drv.create("Fence"); err != nil {
		return nil, err
	}
	f := &Fence{drv: d.drv, signaled: signaled}
	f.cond = sync.NewCond(&f.mu)
	return f, nil
}

func (d *Device) NewSemaphore() (driver.Semaphore, error) {
	if err := d.drv.create("Semaphore"); err != nil {
		return nil, err
	}
	return &Semaphore{drv: d.drv}, nil
}

func (d *Device) NewSwapchain(info driver.SwapchainInfo) (driver.Swapchain, error) {
	if err := d.drv.create("Swapchain"); err != nil {
		return nil, err
	}
	s := &Swapchain{drv: d.drv, Info: info}
	for i := uint32(0); i < info.MinImageCount; i++ {
		s.images = append(s.images, &Image{Index: i, Extent: info.Extent})
	}
	return s, nil
}

func (d *Device) NewImageView(image driver.Image, format driver.Format) (driver.ImageView, error) {
	if err := d.drv.create("ImageView"); err != nil {
		return nil, err
	}
	return &ImageView{drv: d.drv, Image: image.(*Image), Format: format}, nil
}

func (d *Device) NewRenderPass(info driver.RenderPassInfo) (driver.RenderPass, error) {
	if err := d.drv.create("RenderPass"); err != nil {
		return nil, err
	}
	return &RenderPass{drv: d.drv, Info: info}, nil
}

func (d *Device) NewFramebuffer(info driver.FramebufferInfo) (driver.Framebuffer, error) {
	if err := d.drv.create("Framebuffer"); err != nil {
		return nil, err
	}
	return &Framebuffer{drv: d.drv, Info: info}, nil
}

func (d *Device) NewShaderModule(code []byte) (driver.ShaderModule, error) {
	if err := d.drv.create("ShaderModule"); err != nil {
		return nil, err
	}
	return &object{drv: d.drv, kind: "ShaderModule"}, nil
}

func (d *Device) NewPipelineLayout(info driver.PipelineLayoutInfo) (driver.PipelineLayout, error) {
	if err := d.drv.create("PipelineLayout"); err != nil {
		return nil, err
	}
	return &object{drv: d.drv, kind: "PipelineLayout"}, nil
}

func (d *Device) NewGraphicsPipeline(info driver.GraphicsPipelineInfo) (driver.Pipeline, error) {
	if err := d.drv.create("Pipeline"); err != nil {
		return nil, err
	}
	return &Pipeline{object: object{drv: d.drv, kind: "Pipeline"}, Info: info}, nil
}

func (d *Device) WaitIdle() error { return nil }

func (d *Device) Destroy() { d.drv.destroy("Device") }

type object struct {
	drv  *Driver
	kind string
}

func (o *object) Destroy() { o.drv.destroy(o.kind) }

type Pipeline struct {
	object
	Info driver.GraphicsPipelineInfo
}

// Semaphore tracks whether a signal is pending. Signaling it again before a wait is
// counted by Driver.Resignals.
type Semaphore struct {
	drv     *Driver
	pending bool
}

func (s *Semaphore) Destroy() { s.drv.destroy("Semaphore") }

type Image struct {
	Index  uint32
	Extent driver.Extent2D
}

type ImageView struct {
	drv    *Driver
	Image  *Image
	Format driver.Format
}

func (v *ImageView) Destroy() { v.drv.destroy("ImageView") }

type RenderPass struct {
	drv  *Driver
	Info driver.RenderPassInfo
}

func (r *RenderPass) Destroy() { r.drv.destroy("RenderPass") }

type Framebuffer struct {
	drv  *Driver
	Info driver.FramebufferInfo
}

func (f *Framebuffer) Destroy() { f.drv.destroy("Framebuffer") }

// Fence signals when a submit referencing it is recorded.
type Fence struct {
	drv      *Driver
	mu       sync.Mutex
	cond     *sync.Cond
	signaled bool
}

func (f *Fence) Wait() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for !f.signaled {
		f.cond.Wait()
	}
	return nil
}

func (f *Fence) Reset() error {
	f.mu.Lock()
	f.signaled = false
	f.mu.Unlock()
	return nil
}

func (f *Fence) Signaled() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signaled, nil
}

func (f *Fence) signal() {
	f.mu.Lock()
	f.signaled = true
	f.cond.Broadcast()
	f.mu.Unlock()
}

func (f *Fence) Destroy() { f.drv.destroy("Fence") }

type Swapchain struct {
	drv    *Driver
	Info   driver.SwapchainInfo
	images []*Image
	next   uint32
}

func (s *Swapchain) Images() ([]driver.Image, error) {
	ret := make([]driver.Image, len(s.images))
	for i, img := range s.images {
		ret[i] = img
	}
	return ret, nil
}

// AcquireNextImage hands out images round-robin. It reports driver.ErrOutOfDate when the
// window no longer matches the swapchain extent or when OutOfDate was requested.
func (s *Swapchain) AcquireNextImage(sem driver.Semaphore, f driver.Fence) (uint32, error) {
	s.drv.mu.Lock()
	if s.drv.outdated > 0 {
		s.drv.outdated--
		s.drv.mu.Unlock()
		return 0, driver.ErrOutOfDate
	}
	s.drv.mu.Unlock()
	if sf, ok := s.Info.Surface.(*Surface); ok && sf.window.FramebufferExtent() != s.Info.Extent {
		return 0, driver.ErrOutOfDate
	}
	idx := s.next
	s.next = (s.next + 1) % uint32(len(s.images))
	s.drv.signal(sem)
	if fence, ok := f.(*Fence); ok {
		fence.signal()
	}
	s.drv.record(Event{Kind: EventAcquire, Image: idx})
	return idx, nil
}

func (s *Swapchain) Destroy() { s.drv.destroy("Swapchain") }

// Queue executes work instantly.
type Queue struct {
	drv *Driver
}

func (q *Queue) Submit(info driver.SubmitInfo) error {
	q.drv.mu.Lock()
	hook := q.drv.onSubmit
	q.drv.mu.Unlock()
	if hook != nil {
		hook(info)
	}
	e := Event{Kind: EventSubmit}
	for _, cb := range info.CommandBuffers {
		c := cb.(*CommandBuffer)
		c.mu.Lock()
		for _, cmd := range c.commands {
			switch cmd.Op {
			case "draw":
				e.Tag = cmd.FirstInstance
			case "beginRenderPass":
				e.Extent = cmd.Extent
			}
		}
		c.mu.Unlock()
	}
	q.drv.wait(info.WaitSemaphores)
	for _, sem := range info.SignalSemaphores {
		q.drv.signal(sem)
	}
	q.drv.record(e)
	if f, ok := info.Fence.(*Fence); ok {
		f.signal()
	}
	return nil
}

func (q *Queue) Present(info driver.PresentInfo) error {
	q.drv.wait(info.WaitSemaphores)
	for _, idx := range info.ImageIndices {
		q.drv.record(Event{Kind: EventPresent, Image: idx})
	}
	q.drv.mu.Lock()
	defer q.drv.mu.Unlock()
	return q.drv.present
}

func (q *Queue) WaitIdle() error { return nil }
