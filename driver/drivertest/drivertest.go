// Package drivertest provides an in-memory driver.Driver for tests.
//
// The fake GPU completes work the moment it is submitted: a submit signals its fence
// immediately. Every acquire, submit and present is recorded in order so tests can assert on
// what reached the queue.
package drivertest

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

// Standard extension and layer names offered by a default Driver.
const (
	ExtSurface             = "VK_KHR_surface"
	ExtSwapchain           = "VK_KHR_swapchain"
	ExtPortabilityEnum     = "VK_KHR_portability_enumeration"
	ExtPortabilitySubset   = "VK_KHR_portability_subset"
	ExtPhysicalDeviceProps = "VK_KHR_get_physical_device_properties2"
	ExtDebugReport         = "VK_EXT_debug_report"
	LayerValidation        = "VK_LAYER_KHRONOS_validation"
)

type EventKind int

const (
	EventAcquire EventKind = iota
	EventSubmit
	EventPresent
)

func (k EventKind) String() string {
	switch k {
	case EventAcquire:
		return "acquire"
	case EventSubmit:
		return "submit"
	case EventPresent:
		return "present"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one queue or swapchain operation observed by the driver.
type Event struct {
	Kind  EventKind
	Image uint32
	// Tag is the firstInstance argument of the last draw in the submitted buffers.
	// Tests use it to identify frames.
	Tag uint32
	// Extent is the framebuffer extent of the last render pass in the submitted buffers.
	Extent driver.Extent2D
}

// Driver is a recording fake. Exported fields may be changed before the first instance is
// created.
type Driver struct {
	Extensions []string
	Layers     []string
	Devices    []*PhysicalDevice

	mu       sync.Mutex
	events   []Event
	live     map[string]int
	fail     map[string]error
	outdated int
	present  error
	onSubmit func(driver.SubmitInfo)

	resignals int
}

// New returns a driver offering the standard extensions, the validation layer and one
// discrete device with a universal queue family.
func New() *Driver {
	d := &Driver{
		Extensions: []string{ExtSurface, ExtPortabilityEnum, ExtPhysicalDeviceProps, ExtDebugReport},
		Layers:     []string{LayerValidation},
		live:       make(map[string]int),
		fail:       make(map[string]error),
	}
	d.Devices = []*PhysicalDevice{d.NewPhysicalDevice("fake discrete", driver.DeviceTypeDiscreteGPU, ExtSwapchain)}
	return d
}

// NewPhysicalDevice creates a device bound to d with one graphics|compute family.
func (d *Driver) NewPhysicalDevice(name string, typ driver.DeviceType, extensions ...string) *PhysicalDevice {
	return &PhysicalDevice{
		drv:        d,
		name:       name,
		typ:        typ,
		extensions: extensions,
		families: []driver.QueueFamily{
			{Index: 0, Flags: driver.QueueGraphics | driver.QueueCompute | driver.QueueTransfer, Count: 1},
		},
		heap: 256 << 20,
	}
}

// Fail makes the named create operation (for example "NewPipelineLayout") return err.
// A nil err clears the failure.
func (d *Driver) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, op)
		return
	}
	d.fail[op] = err
}

// OutOfDate makes the next n acquisitions report driver.ErrOutOfDate.
func (d *Driver) OutOfDate(n int) {
	d.mu.Lock()
	d.outdated = n
	d.mu.Unlock()
}

// PresentResult makes every later present return err after recording it.
func (d *Driver) PresentResult(err error) {
	d.mu.Lock()
	d.present = err
	d.mu.Unlock()
}

// OnSubmit installs a hook run on the submitting goroutine before a submit is recorded.
func (d *Driver) OnSubmit(fn func(driver.SubmitInfo)) {
	d.mu.Lock()
	d.onSubmit = fn
	d.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (d *Driver) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// Count returns the number of recorded events of a kind.
func (d *Driver) Count(kind EventKind) int {
	n := 0
	for _, e := range d.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Live returns how many objects of a kind ("Fence", "Semaphore", ...) are alive.
func (d *Driver) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[kind]
}

// Resignals returns how often a semaphore was signaled while a previous signal was still
// pending. A correct caller keeps it at zero.
func (d *Driver) Resignals() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resignals
}

func (d *Driver) signal(sem driver.Semaphore) {
	s, ok := sem.(*Semaphore)
	if !ok || s == nil {
		return
	}
	d.mu.Lock()
	if s.pending {
		d.resignals++
	}
	s.pending = true
	d.mu.Unlock()
}

func (d *Driver) wait(sems []driver.Semaphore) {
	d.mu.Lock()
	for _, sem := range sems {
		if s, ok := sem.(*Semaphore); ok && s != nil {
			s.pending = false
		}
	}
	d.mu.Unlock()
}

func (d *Driver) record(e Event) {
	d.mu.Lock()
	d.events = append(d.events, e)
	d.mu.Unlock()
}

func (d *Driver) create(kind string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail["New"+kind]; err != nil {
		return err
	}
	d.live[kind]++
	return nil
}

func (d *Driver) destroy(kind string) {
	d.mu.Lock()
	d.live[kind]--
	d.mu.Unlock()
}

func (d *Driver) Name() string { return "drivertest" }

func (d *Driver) InstanceExtensions() ([]string, error) {
	return append([]string(nil), d.Extensions...), nil
}

func (d *Driver) InstanceLayers() ([]string, error) {
	return append([]string(nil), d.Layers...), nil
}

func (d *Driver) NewInstance(info driver.InstanceInfo) (driver.Instance, error) {
	if err := d.create("Instance"); err != nil {
		return nil, err
	}
	return &Instance{drv: d, Info: info}, nil
}

type Instance struct {
	drv  *Driver
	Info driver.InstanceInfo
}

func (i *Instance) PhysicalDevices() ([]driver.PhysicalDevice, error) {
	ret := make([]driver.PhysicalDevice, len(i.drv.Devices))
	for n, p := range i.drv.Devices {
		ret[n] = p
	}
	return ret, nil
}

func (i *Instance) NewSurface(w driver.Window) (driver.Surface, error) {
	if _, err := w.CreateSurface(i); err != nil {
		return nil, errors.Wrap(err, "create surface")
	}
	if err := i.drv.create("Surface"); err != nil {
		return nil, err
	}
	return &Surface{drv: i.drv, window: w}, nil
}

func (i *Instance) Destroy() { i.drv.destroy("Instance") }

type Surface struct {
	drv    *Driver
	window driver.Window
}

func (s *Surface) Destroy() { s.drv.destroy("Surface") }

type PhysicalDevice struct {
	drv        *Driver
	name       string
	typ        driver.DeviceType
	extensions []string
	families   []driver.QueueFamily
	heap       uint64
	// Created records the DeviceInfo of every device created from this one.
	Created []driver.DeviceInfo
}

func (p *PhysicalDevice) Name() string                        { return p.name }
func (p *PhysicalDevice) Type() driver.DeviceType             { return p.typ }
func (p *PhysicalDevice) Extensions() ([]string, error)       { return p.extensions, nil }
func (p *PhysicalDevice) QueueFamilies() []driver.QueueFamily { return p.families }
func (p *PhysicalDevice) DeviceLocalHeapSize() uint64         { return p.heap }

func (p *PhysicalDevice) SupportsPresent(family int, s driver.Surface) (bool, error) {
	return family >= 0 && family < len(p.families), nil
}

func (p *PhysicalDevice) SurfaceCapabilities(s driver.Surface) (driver.SurfaceCapabilities, error) {
	ext := s.(*Surface).window.FramebufferExtent()
	return driver.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  3,
		CurrentExtent:  ext,
		MinImageExtent: driver.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: driver.Extent2D{Width: 16384, Height: 16384},
	}, nil
}

func (p *PhysicalDevice) SurfaceFormats(s driver.Surface) ([]driver.SurfaceFormat, error) {
	return []driver.SurfaceFormat{
		{Format: driver.FormatB8G8R8A8Unorm, ColorSpace: driver.ColorSpaceSRGBNonlinear},
		{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear},
	}, nil
}

func (p *PhysicalDevice) PresentModes(s driver.Surface) ([]driver.PresentMode, error) {
	return []driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeMailbox}, nil
}

func (p *PhysicalDevice) NewDevice(info driver.DeviceInfo) (driver.Device, error) {
	if err := p.drv.create("Device"); err != nil {
		return nil, err
	}
	p.Created = append(p.Created, info)
	return &Device{drv: p.drv, queue: &Queue{drv: p.drv}}, nil
}
