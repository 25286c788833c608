package vulkan

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkframe/driver"
)

func TestSafeStrings(t *testing.T) {
	in := []string{"VK_KHR_surface", "", "VK_KHR_swapchain\x00"}
	out := safeStrings(in)
	want := []string{"VK_KHR_surface\x00", "\x00", "VK_KHR_swapchain\x00"}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("safeStrings()[%d] = %q, want %q", i, out[i], want[i])
		}
	}
	if in[0] != "VK_KHR_surface" {
		t.Errorf("safeStrings modified its input: %q", in[0])
	}
}

func TestSliceUint32(t *testing.T) {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b, 0x07230203)
	binary.LittleEndian.PutUint32(b[8:], 42)
	words := sliceUint32(b)
	if len(words) != 3 {
		t.Fatalf("len = %d, want 3", len(words))
	}
	// SPIR-V is consumed in host order; the test hosts are little endian.
	if words[0] != 0x07230203 || words[2] != 42 {
		t.Errorf("words = %#x", words)
	}
	if sliceUint32([]byte{1, 2}) != nil {
		t.Errorf("short input should yield nil")
	}
}

func TestSwapchainResult(t *testing.T) {
	tests := []struct {
		res  vk.Result
		want error
	}{
		{vk.Success, nil},
		{vk.Suboptimal, driver.ErrSuboptimal},
		{vk.ErrorOutOfDate, driver.ErrOutOfDate},
	}
	for _, tt := range tests {
		if got := swapchainResult(tt.res, "present"); got != tt.want {
			t.Errorf("swapchainResult(%d) = %v, want %v", tt.res, got, tt.want)
		}
	}
	err := swapchainResult(vk.ErrorDeviceLost, "present")
	if err == nil || errors.Is(err, driver.ErrOutOfDate) {
		t.Errorf("device lost mapped to %v", err)
	}
}

func TestDistinct(t *testing.T) {
	got := distinct([]int{0, 2, 0, 2, 1})
	want := []uint32{0, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("distinct() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("distinct()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
