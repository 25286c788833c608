package window

import (
	"testing"

	"github.com/celer/vkframe/driver"
)

func TestQueueCollapsesResizes(t *testing.T) {
	var q Queue
	q.Push(Event{Type: Resized, Extent: driver.Extent2D{Width: 10, Height: 10}})
	q.Push(Event{Type: Resized, Extent: driver.Extent2D{Width: 20, Height: 20}})
	q.Push(Event{Type: Minimized})
	q.Push(Event{Type: Resized, Extent: driver.Extent2D{Width: 30, Height: 30}})

	got := q.Drain()
	want := []Event{
		{Type: Resized, Extent: driver.Extent2D{Width: 20, Height: 20}},
		{Type: Minimized},
		{Type: Resized, Extent: driver.Extent2D{Width: 30, Height: 30}},
	}
	if len(got) != len(want) {
		t.Fatalf("Drain() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
	if n := len(q.Drain()); n != 0 {
		t.Errorf("second Drain() returned %d events", n)
	}
}

func TestEventTypeString(t *testing.T) {
	for typ, want := range map[EventType]string{
		Resized:       "resized",
		Minimized:     "minimized",
		Restored:      "restored",
		Closed:        "closed",
		EventType(42): "unknown",
	} {
		if got := typ.String(); got != want {
			t.Errorf("EventType(%d).String() = %q, want %q", int(typ), got, want)
		}
	}
}
