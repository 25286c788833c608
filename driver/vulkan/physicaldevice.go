package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

type PhysicalDevice struct {
	instance   *Instance
	native     vk.PhysicalDevice
	properties vk.PhysicalDeviceProperties
	name       string
}

func (p *PhysicalDevice) Name() string { return p.name }

func (p *PhysicalDevice) String() string { return p.name }

func (p *PhysicalDevice) Type() driver.DeviceType {
	return driver.DeviceType(p.properties.DeviceType)
}

// Extensions returns the device extensions supported by p.
func (p *PhysicalDevice) Extensions() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.native, "", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vkEnumerateDeviceExtensionProperties")
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.native, "", &count, props)); err != nil {
		return nil, errors.Wrap(err, "vkEnumerateDeviceExtensionProperties")
	}
	names := make([]string, 0, count)
	for _, ext := range props {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

func (p *PhysicalDevice) QueueFamilies() []driver.QueueFamily {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.native, &count, nil)
	if count == 0 {
		return nil
	}
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.native, &count, props)

	ret := make([]driver.QueueFamily, count)
	for i, q := range props {
		q.Deref()
		ret[i] = driver.QueueFamily{
			Index: i,
			Flags: driver.QueueFlags(q.QueueFlags),
			Count: int(q.QueueCount),
		}
	}
	return ret
}

func (p *PhysicalDevice) DeviceLocalHeapSize() uint64 {
	var mp vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.native, &mp)
	mp.Deref()

	var largest uint64
	for i := uint32(0); i < mp.MemoryHeapCount; i++ {
		heap := mp.MemoryHeaps[i]
		heap.Deref()
		if heap.Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) == 0 {
			continue
		}
		if uint64(heap.Size) > largest {
			largest = uint64(heap.Size)
		}
	}
	return largest
}

func (p *PhysicalDevice) SupportsPresent(family int, s driver.Surface) (bool, error) {
	var supported vk.Bool32
	err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(p.native, uint32(family), s.(*Surface).native, &supported))
	if err != nil {
		return false, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceSupport")
	}
	return supported.B(), nil
}

func (p *PhysicalDevice) SurfaceCapabilities(s driver.Surface) (driver.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.native, s.(*Surface).native, &caps))
	if err != nil {
		return driver.SurfaceCapabilities{}, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceCapabilities")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return driver.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    driver.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		MinImageExtent:   driver.Extent2D{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxImageExtent:   driver.Extent2D{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		CurrentTransform: uint32(caps.CurrentTransform),
	}, nil
}

func (p *PhysicalDevice) SurfaceFormats(s driver.Surface) ([]driver.SurfaceFormat, error) {
	surface := s.(*Surface).native
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.native, surface, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceFormats")
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.native, surface, &count, formats)); err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceFormats")
	}
	ret := make([]driver.SurfaceFormat, count)
	for i, f := range formats {
		f.Deref()
		ret[i] = driver.SurfaceFormat{Format: driver.Format(f.Format), ColorSpace: driver.ColorSpace(f.ColorSpace)}
	}
	return ret, nil
}

func (p *PhysicalDevice) PresentModes(s driver.Surface) ([]driver.PresentMode, error) {
	surface := s.(*Surface).native
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.native, surface, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfacePresentModes")
	}
	modes := make([]vk.PresentMode, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.native, surface, &count, modes)); err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfacePresentModes")
	}
	ret := make([]driver.PresentMode, count)
	for i, m := range modes {
		ret[i] = driver.PresentMode(m)
	}
	return ret, nil
}

// NewDevice creates a logical device with one queue of priority 1 per requested family and
// every feature the device supports enabled.
func (p *PhysicalDevice) NewDevice(info driver.DeviceInfo) (driver.Device, error) {
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(info.QueueFamilies))
	for j, family := range info.QueueFamilies {
		queueInfos[j] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(family),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.native, &features)

	extensions := safeStrings(info.Extensions)
	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var native vk.Device
	if err := vk.Error(vk.CreateDevice(p.native, &createInfo, nil, &native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateDevice")
	}
	return &Device{native: native, physical: p}, nil
}
