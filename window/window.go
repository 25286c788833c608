// Package window defines the windowing collaborator shared by the glfw and sdl backends.
package window

import (
	"unsafe"

	"github.com/celer/vkframe/driver"
)

type EventType int

const (
	// Resized reports a new framebuffer extent.
	Resized EventType = iota
	Minimized
	Restored
	// Closed is reported once, when the user asks to close the window.
	Closed
)

func (t EventType) String() string {
	switch t {
	case Resized:
		return "resized"
	case Minimized:
		return "minimized"
	case Restored:
		return "restored"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Event struct {
	Type   EventType
	Extent driver.Extent2D
}

// Config describes the window to open.
type Config struct {
	Title         string
	Width, Height int
	Resizable     bool
}

// Window is a native window that can host a Vulkan surface. Windows must be created and
// polled from the main thread.
type Window interface {
	driver.Window
	// InstanceProcAddr returns the vkGetInstanceProcAddr the windowing library loaded.
	InstanceProcAddr() unsafe.Pointer
	// PollEvents processes pending native events and returns the ones the frame layer
	// cares about, oldest first.
	PollEvents() []Event
	ShouldClose() bool
	Destroy()
}

// Queue buffers events raised from native callbacks until the next poll.
type Queue struct {
	events []Event
}

func (q *Queue) Push(e Event) {
	// Consecutive resizes collapse into the last one.
	if n := len(q.events); n > 0 && e.Type == Resized && q.events[n-1].Type == Resized {
		q.events[n-1] = e
		return
	}
	q.events = append(q.events, e)
}

// Drain returns the buffered events and empties the queue.
func (q *Queue) Drain() []Event {
	ret := q.events
	q.events = nil
	return ret
}
