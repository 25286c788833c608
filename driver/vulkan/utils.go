package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

var end = "\x00"
var endChar byte = '\x00'

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

// safeStrings returns a null terminated copy of list.
func safeStrings(list []string) []string {
	ret := make([]string, len(list))
	for i := range list {
		ret[i] = safeString(list[i])
	}
	return ret
}

// sliceUint32 reinterprets SPIR-V bytes as words without copying.
func sliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// swapchainResult maps the results acquire and present share.
func swapchainResult(res vk.Result, op string) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return driver.ErrSuboptimal
	case vk.ErrorOutOfDate:
		return driver.ErrOutOfDate
	}
	return errors.Wrap(vk.Error(res), op)
}

func boolean(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

func nativeSemaphores(list []driver.Semaphore) []vk.Semaphore {
	if len(list) == 0 {
		return nil
	}
	ret := make([]vk.Semaphore, len(list))
	for i, s := range list {
		ret[i] = s.(*Semaphore).native
	}
	return ret
}

func nativeFence(f driver.Fence) vk.Fence {
	if f == nil {
		return vk.NullFence
	}
	return f.(*Fence).native
}

func nativeSemaphore(s driver.Semaphore) vk.Semaphore {
	if s == nil {
		return vk.NullSemaphore
	}
	return s.(*Semaphore).native
}

func extent(e driver.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func rect(r driver.Rect2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: extent(r.Extent),
	}
}
