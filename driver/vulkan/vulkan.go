// Package vulkan implements the driver interfaces over github.com/vulkan-go/vulkan.
//
// Open must be called with the loader entry point of the windowing library before any other
// function, for example glfw.GetVulkanGetInstanceProcAddress() or
// sdl.VulkanGetVkGetInstanceProcAddr().
package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
const instanceCreateEnumeratePortability vk.InstanceCreateFlags = 0x1

const extPortabilityEnumeration = "VK_KHR_portability_enumeration"

// Driver is the vulkan-go implementation of driver.Driver.
type Driver struct{}

// Open initializes the loader from procAddr.
func Open(procAddr unsafe.Pointer) (*Driver, error) {
	if procAddr == nil {
		return nil, errors.New("vulkan: nil vkGetInstanceProcAddr")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vulkan: init loader")
	}
	return &Driver{}, nil
}

func (d *Driver) Name() string { return "vulkan" }

// InstanceExtensions returns the instance extensions supported by the loader.
func (d *Driver) InstanceExtensions() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceExtensionProperties")
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, props)); err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceExtensionProperties")
	}
	names := make([]string, 0, count)
	for _, ext := range props {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// InstanceLayers returns the layers supported by the loader.
func (d *Driver) InstanceLayers() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceLayerProperties")
	}
	props := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceLayerProperties")
	}
	names := make([]string, 0, count)
	for _, layer := range props {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// NewInstance creates the instance and, when info.Debug is set, a debug report callback
// forwarding errors and warnings.
func (d *Driver) NewInstance(info driver.InstanceInfo) (driver.Instance, error) {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PApplicationName:   safeString(info.ApplicationName),
		PEngineName:        safeString(info.EngineName),
	}
	extensions := safeStrings(info.Extensions)
	layers := safeStrings(info.Layers)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}
	for _, e := range info.Extensions {
		if e == extPortabilityEnumeration {
			createInfo.Flags |= instanceCreateEnumeratePortability
		}
	}

	inst := &Instance{}
	if err := vk.Error(vk.CreateInstance(&createInfo, nil, &inst.native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateInstance")
	}
	if err := vk.InitInstance(inst.native); err != nil {
		vk.DestroyInstance(inst.native, nil)
		return nil, errors.Wrap(err, "vulkan: init instance")
	}
	if info.Debug != nil {
		inst.setDebugCallback(info.Debug)
	}
	return inst, nil
}

var (
	_ driver.Driver         = (*Driver)(nil)
	_ driver.Instance       = (*Instance)(nil)
	_ driver.PhysicalDevice = (*PhysicalDevice)(nil)
	_ driver.Device         = (*Device)(nil)
	_ driver.Queue          = (*Queue)(nil)
	_ driver.CommandPool    = (*CommandPool)(nil)
	_ driver.CommandBuffer  = (*CommandBuffer)(nil)
	_ driver.Fence          = (*Fence)(nil)
	_ driver.Semaphore      = (*Semaphore)(nil)
	_ driver.Swapchain      = (*Swapchain)(nil)
	_ driver.RenderPass     = (*RenderPass)(nil)
	_ driver.Framebuffer    = (*Framebuffer)(nil)
	_ driver.Pipeline       = (*Pipeline)(nil)
)
