package vulkan

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

type Device struct {
	native   vk.Device
	physical *PhysicalDevice
}

// VK returns the native device.
func (d *Device) VK() vk.Device {
	return d.native
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.physical)
}

func (d *Device) Queue(family, index int) driver.Queue {
	var native vk.Queue
	vk.GetDeviceQueue(d.native, uint32(family), uint32(index), &native)
	return &Queue{native: native, family: family}
}

func (d *Device) WaitIdle() error {
	return errors.Wrap(vk.Error(vk.DeviceWaitIdle(d.native)), "vkDeviceWaitIdle")
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.native, nil)
}

type Fence struct {
	device *Device
	native vk.Fence
}

func (d *Device) NewFence(signaled bool) (driver.Fence, error) {
	info := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var native vk.Fence
	if err := vk.Error(vk.CreateFence(d.native, &info, nil, &native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateFence")
	}
	return &Fence{device: d, native: native}, nil
}

func (f *Fence) Wait() error {
	res := vk.WaitForFences(f.device.native, 1, []vk.Fence{f.native}, vk.True, vk.MaxUint64)
	return errors.Wrap(vk.Error(res), "vkWaitForFences")
}

func (f *Fence) Reset() error {
	return errors.Wrap(vk.Error(vk.ResetFences(f.device.native, 1, []vk.Fence{f.native})), "vkResetFences")
}

func (f *Fence) Signaled() (bool, error) {
	switch res := vk.GetFenceStatus(f.device.native, f.native); res {
	case vk.Success:
		return true, nil
	case vk.NotReady:
		return false, nil
	default:
		return false, errors.Wrap(vk.Error(res), "vkGetFenceStatus")
	}
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.device.native, f.native, nil)
}

type Semaphore struct {
	device *Device
	native vk.Semaphore
}

func (d *Device) NewSemaphore() (driver.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var native vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(d.native, &info, nil, &native)); err != nil {
		return nil, errors.Wrap(err, "vkCreateSemaphore")
	}
	return &Semaphore{device: d, native: native}, nil
}

func (s *Semaphore) Destroy() {
	vk.DestroySemaphore(s.device.native, s.native, nil)
}
