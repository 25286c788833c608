package vkframe

import (
	"sort"

	"github.com/celer/vkframe/driver"
)

// Extension and layer names requested by a Context.
const (
	extPortabilityEnumeration = "VK_KHR_portability_enumeration"
	extPortabilitySubset      = "VK_KHR_portability_subset"
	extPhysicalDeviceProps2   = "VK_KHR_get_physical_device_properties2"
	extDebugReport            = "VK_EXT_debug_report"
	extSwapchain              = "VK_KHR_swapchain"
	layerValidation           = "VK_LAYER_KHRONOS_validation"
)

// missingNames returns the requested names absent from available, in request order and
// without duplicates.
func missingNames(requested, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[a] = true
	}
	var missing []string
	seen := make(map[string]bool, len(requested))
	for _, r := range requested {
		if !have[r] && !seen[r] {
			missing = append(missing, r)
		}
		seen[r] = true
	}
	return missing
}

// negotiate drops the unsupported names from requested. Every missing name is reported in a
// single error entry and negotiation carries on without them.
func negotiate(kind string, requested, available []string) []string {
	missing := missingNames(requested, available)
	if len(missing) > 0 {
		Logger().Error("the following "+kind+" are unsupported", "names", missing)
	}
	drop := make(map[string]bool, len(missing))
	for _, m := range missing {
		drop[m] = true
	}
	enabled := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, r := range requested {
		if drop[r] || seen[r] {
			continue
		}
		seen[r] = true
		enabled = append(enabled, r)
	}
	return enabled
}

// ratedDevice is a physical device with the extensions it will be created with.
type ratedDevice struct {
	device     driver.PhysicalDevice
	rating     int
	extensions []string
}

// ratePhysicalDevice scores a device. Devices lacking a required extension rate 0.
func ratePhysicalDevice(pd driver.PhysicalDevice, required, optional []string) ratedDevice {
	rd := ratedDevice{device: pd}
	available, err := pd.Extensions()
	if err != nil {
		Logger().Error("failed to enumerate device extensions", "device", pd.Name(), "err", err)
		return rd
	}
	if missing := missingNames(required, available); len(missing) > 0 {
		Logger().Error("the following device extensions are unsupported", "device", pd.Name(), "names", missing)
		return rd
	}
	if _, ok := universalFamily(pd.QueueFamilies()); !ok {
		Logger().Error("device has no graphics and compute queue family", "device", pd.Name())
		return rd
	}
	rd.extensions = append(append([]string(nil), required...),
		negotiateQuiet(optional, available)...)

	switch pd.Type() {
	case driver.DeviceTypeDiscreteGPU:
		rd.rating = 4
	case driver.DeviceTypeIntegratedGPU:
		rd.rating = 3
	case driver.DeviceTypeVirtualGPU:
		rd.rating = 2
	default:
		rd.rating = 1
	}
	return rd
}

func negotiateQuiet(requested, available []string) []string {
	missing := missingNames(requested, available)
	if len(missing) == len(requested) {
		return nil
	}
	var ret []string
	for _, r := range requested {
		if !contains(missing, r) {
			ret = append(ret, r)
		}
	}
	return ret
}

// rankPhysicalDevices returns the usable devices, best first. Ties keep enumeration order.
func rankPhysicalDevices(devices []driver.PhysicalDevice, required, optional []string) []ratedDevice {
	var ranked []ratedDevice
	for _, pd := range devices {
		if rd := ratePhysicalDevice(pd, required, optional); rd.rating > 0 {
			ranked = append(ranked, rd)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].rating > ranked[j].rating })
	return ranked
}

// universalFamily returns the first queue family supporting graphics and compute.
func universalFamily(families []driver.QueueFamily) (int, bool) {
	for _, f := range families {
		if f.IsGraphics() && f.IsCompute() {
			return f.Index, true
		}
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
