package vkframe

import (
	"sync"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

// ContextInfo configures a Context.
type ContextInfo struct {
	// Window, when set, adds its required instance extensions and the swapchain device
	// extension. A nil Window creates a headless context.
	Window                 driver.Window
	EnableValidationLayers bool
	ApplicationName        string
	EngineName             string
	// Options overrides DefaultOptions. Environment overrides apply on top of either.
	Options *Options
}

// Context owns the instance, the device and its queues, the memory allocator and the
// submitter. It must be created before, and destroyed after, every other object.
type Context struct {
	drv     driver.Driver
	options Options

	instance        driver.Instance
	physical        driver.PhysicalDevice
	device          driver.Device
	universalFamily int
	presentFamily   int
	universal       driver.Queue
	present         driver.Queue
	allocator       *LinearAllocator
	submitter       *Submitter

	// fenceMu guards the submission flag of every fence.
	fenceMu   sync.Mutex
	fenceCond *sync.Cond
}

// NewContext brings up an instance and device on drv.
//
// Unsupported extensions and layers are logged and left out. Instance and device creation
// failures are returned; a partially created context is torn down.
func NewContext(drv driver.Driver, info ContextInfo) (*Context, error) {
	options := DefaultOptions()
	if info.Options != nil {
		options = *info.Options
	}
	options.Validation = options.Validation || info.EnableValidationLayers
	options = LoadOptions(options)

	c := &Context{drv: drv, options: options}
	c.fenceCond = sync.NewCond(&c.fenceMu)

	if err := c.createInstance(info); err != nil {
		c.teardown()
		return nil, err
	}
	if err := c.createDevice(info.Window != nil); err != nil {
		c.teardown()
		return nil, err
	}
	c.allocator = NewLinearAllocator(c.physical.DeviceLocalHeapSize())
	c.submitter = newSubmitter(c)
	return c, nil
}

func (c *Context) createInstance(info ContextInfo) error {
	var requested []string
	if info.Window != nil {
		requested = append(requested, info.Window.RequiredInstanceExtensions()...)
	}
	requested = append(requested, extPortabilityEnumeration, extPhysicalDeviceProps2)
	if c.options.Validation {
		requested = append(requested, extDebugReport)
	}
	available, err := c.drv.InstanceExtensions()
	if err != nil {
		Logger().Error("failed to enumerate instance extensions", "err", err)
	}
	extensions := negotiate("instance extensions", requested, available)

	var layers []string
	if c.options.Validation {
		available, err := c.drv.InstanceLayers()
		if err != nil {
			Logger().Error("failed to enumerate instance layers", "err", err)
		}
		layers = negotiate("instance layers", []string{layerValidation}, available)
	}

	ii := driver.InstanceInfo{
		ApplicationName: info.ApplicationName,
		EngineName:      info.EngineName,
		Extensions:      extensions,
		Layers:          layers,
	}
	if len(layers) > 0 && contains(extensions, extDebugReport) {
		ii.Debug = logDebugMessage
	}
	instance, err := c.drv.NewInstance(ii)
	if err != nil {
		return creationFailed(err, "instance")
	}
	c.instance = instance
	return nil
}

func logDebugMessage(m driver.DebugMessage) {
	switch m.Severity {
	case driver.DebugError:
		Logger().Error("validation", "layer", m.Layer, "code", m.Code, "message", m.Text)
	case driver.DebugWarning:
		Logger().Warn("validation", "layer", m.Layer, "code", m.Code, "message", m.Text)
	default:
		Logger().Info("validation", "layer", m.Layer, "code", m.Code, "message", m.Text)
	}
}

func (c *Context) createDevice(present bool) error {
	devices, err := c.instance.PhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}
	var required []string
	if present {
		required = append(required, extSwapchain)
	}
	ranked := rankPhysicalDevices(devices, required, []string{extPortabilitySubset})
	if len(ranked) == 0 {
		Logger().Error("no suitable physical device", "candidates", len(devices))
		return ErrNoDevice
	}

	var lastErr error
	for _, rd := range ranked {
		family, _ := universalFamily(rd.device.QueueFamilies())
		device, err := rd.device.NewDevice(driver.DeviceInfo{
			QueueFamilies: []int{family},
			Extensions:    rd.extensions,
		})
		if err != nil {
			lastErr = creationFailed(err, "logical device")
			continue
		}
		c.physical = rd.device
		c.device = device
		c.universalFamily = family
		c.presentFamily = family
		c.universal = device.Queue(family, 0)
		c.present = c.universal
		Logger().Info("selected physical device",
			"name", rd.device.Name(), "type", rd.device.Type().String(),
			"heap", units.BytesSize(float64(rd.device.DeviceLocalHeapSize())), "extensions", rd.extensions)
		return nil
	}
	return lastErr
}

// Device returns the logical device.
func (c *Context) Device() driver.Device { return c.device }

// PhysicalDevice returns the physical device the context runs on.
func (c *Context) PhysicalDevice() driver.PhysicalDevice { return c.physical }

// Allocator returns the sub-allocator over the device local heap.
func (c *Context) Allocator() *LinearAllocator { return c.allocator }

// Options returns the effective options.
func (c *Context) Options() Options { return c.options }

// Submitter returns the goroutine that owns queue submission.
func (c *Context) Submitter() *Submitter { return c.submitter }

// SubmitUniversalAsync queues a submit to the universal queue.
func (c *Context) SubmitUniversalAsync(info SubmitInfo) *Submission {
	return c.submitter.SubmitUniversal(info)
}

// SubmitPresentAsync queues a present.
func (c *Context) SubmitPresentAsync(info PresentInfo) *Submission {
	return c.submitter.SubmitPresent(info)
}

// AwaitIdle waits until every queued submission has been issued and the device is idle.
func (c *Context) AwaitIdle() error {
	c.submitter.AwaitIdle()
	return errors.Wrap(c.device.WaitIdle(), "device wait idle")
}

// Destroy drains the submitter and releases the device and instance.
func (c *Context) Destroy() {
	c.teardown()
}

func (c *Context) teardown() {
	if c.submitter != nil {
		c.submitter.Close()
		c.submitter = nil
	}
	if c.device != nil {
		if err := c.device.WaitIdle(); err != nil {
			Logger().Error("device wait idle failed", "err", err)
		}
		c.device.Destroy()
		c.device = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
}
