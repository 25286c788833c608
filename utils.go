package vkframe

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ToBytes will take an unsafe.Pointer and length in bytes and copy it
// into a new byte slice
func ToBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	out := make([]byte, lenInBytes)
	copy(out, unsafe.Slice((*byte)(ptr), lenInBytes))
	return out
}

// matrixBytes returns m in the column major layout GLSL expects for a mat4.
func matrixBytes(m mgl32.Mat4) []byte {
	return ToBytes(unsafe.Pointer(&m[0]), int(unsafe.Sizeof(m)))
}
