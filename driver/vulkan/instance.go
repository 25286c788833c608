package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

// Instance is an instance of the Vulkan subsystem.
type Instance struct {
	native vk.Instance
	debug  vk.DebugReportCallback
}

// VK returns the native instance.
func (i *Instance) VK() vk.Instance {
	return i.native
}

func (i *Instance) setDebugCallback(fn func(driver.DebugMessage)) {
	callback := func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

		m := driver.DebugMessage{Layer: pLayerPrefix, Code: messageCode, Text: pMessage}
		switch {
		case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
			m.Severity = driver.DebugError
		case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
			m.Severity = driver.DebugWarning
		default:
			m.Severity = driver.DebugInfo
		}
		fn(m)
		return vk.Bool32(vk.False)
	}
	res := vk.CreateDebugReportCallback(i.native, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: callback,
	}, nil, &i.debug)
	if vk.Error(res) != nil {
		fn(driver.DebugMessage{Severity: driver.DebugWarning, Layer: "loader", Text: "debug report callback unavailable"})
		i.debug = vk.NullDebugReportCallback
	}
}

// PhysicalDevices returns the physical devices known to Vulkan.
func (i *Instance) PhysicalDevices() ([]driver.PhysicalDevice, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(i.native, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vkEnumeratePhysicalDevices")
	}
	if count == 0 {
		return nil, nil
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(i.native, &count, devices)); err != nil {
		return nil, errors.Wrap(err, "vkEnumeratePhysicalDevices")
	}

	ret := make([]driver.PhysicalDevice, count)
	for n, device := range devices {
		pd := &PhysicalDevice{instance: i, native: device}
		vk.GetPhysicalDeviceProperties(device, &pd.properties)
		pd.properties.Deref()
		pd.name = vk.ToString(pd.properties.DeviceName[:])
		ret[n] = pd
	}
	return ret, nil
}

// NewSurface asks the window to create a surface for this instance.
func (i *Instance) NewSurface(w driver.Window) (driver.Surface, error) {
	ptr, err := w.CreateSurface(i.native)
	if err != nil {
		return nil, errors.Wrap(err, "create window surface")
	}
	return &Surface{instance: i, native: vk.SurfaceFromPointer(ptr)}, nil
}

func (i *Instance) Destroy() {
	if i.debug != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.native, i.debug, nil)
		i.debug = vk.NullDebugReportCallback
	}
	vk.DestroyInstance(i.native, nil)
}

type Surface struct {
	instance *Instance
	native   vk.Surface
}

func (s *Surface) Destroy() {
	vk.DestroySurface(s.instance.native, s.native, nil)
}
