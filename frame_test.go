package vkframe

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
	"github.com/celer/vkframe/driver/drivertest"
)

func TestFrameLoop(t *testing.T) {
	f := newRenderFixture(t)
	const frames = 10

	for i := 0; i < frames; i++ {
		if err := f.loop.Frame(f.drawTagged); err != nil {
			t.Fatalf("Frame(%d) = %v", i, err)
		}
	}
	if err := f.ctx.AwaitIdle(); err != nil {
		t.Fatal(err)
	}

	for _, kind := range []drivertest.EventKind{drivertest.EventAcquire, drivertest.EventSubmit, drivertest.EventPresent} {
		if n := f.drv.Count(kind); n != frames {
			t.Errorf("%d %v events, want %d", n, kind, frames)
		}
	}
	tag := uint32(1)
	for _, e := range f.drv.Events() {
		if e.Kind != drivertest.EventSubmit {
			continue
		}
		if e.Tag != tag {
			t.Errorf("submit tagged %d, want %d", e.Tag, tag)
		}
		tag++
	}
	for i, fence := range f.loop.Fences() {
		if !fence.Submitted() {
			t.Errorf("fence %d not submitted", i)
		}
		if ok, _ := fence.Signaled(); !ok {
			t.Errorf("fence %d not signaled", i)
		}
	}
	if got := f.loop.Lane(); got != frames%DefaultFramesInFlight {
		t.Errorf("Lane() = %d, want %d", got, frames%DefaultFramesInFlight)
	}
	if s := f.loop.Stats(); s.Frames != frames || s.Discarded != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestFrameLoopResize(t *testing.T) {
	f := newRenderFixture(t)
	for i := 0; i < 2; i++ {
		if err := f.loop.Frame(f.drawTagged); err != nil {
			t.Fatal(err)
		}
	}
	f.ctx.AwaitIdle()

	// Hold the submitter so frame 2 is still queued when the window changes.
	gate := make(chan struct{})
	f.ctx.Submitter().Enqueue(func() { <-gate })
	if err := f.loop.Frame(f.drawTagged); err != nil {
		t.Fatal(err)
	}
	f.win.Resize(1024, 768)
	f.loop.RequestRecreate()
	if err := f.loop.Frame(f.drawTagged); err != nil {
		t.Fatal(err)
	}
	close(gate)
	for i := 0; i < 2; i++ {
		if err := f.loop.Frame(f.drawTagged); err != nil {
			t.Fatal(err)
		}
	}
	f.ctx.AwaitIdle()

	resized := driver.Extent2D{Width: 1024, Height: 768}
	for _, e := range f.drv.Events() {
		if e.Kind != drivertest.EventSubmit {
			continue
		}
		switch {
		case e.Tag == 3:
			t.Error("frame recorded for the old swapchain reached the queue")
		case e.Tag > 3 && e.Extent != resized:
			t.Errorf("frame %d rendered at %v, want %v", e.Tag-1, e.Extent, resized)
		case e.Tag < 3 && e.Extent == resized:
			t.Errorf("frame %d rendered at the new size", e.Tag-1)
		}
	}
	if n := f.drv.Count(drivertest.EventSubmit); n != 5 {
		t.Errorf("%d submits, want 5", n)
	}
	if n := f.drv.Count(drivertest.EventPresent); n != 5 {
		t.Errorf("%d presents, want 5", n)
	}
	if s := f.loop.Stats(); s.Discarded != 1 {
		t.Errorf("Stats().Discarded = %d, want 1", s.Discarded)
	}
	if n := f.drv.Resignals(); n != 0 {
		t.Errorf("%d semaphores were signaled twice without a wait", n)
	}
}

func TestFrameLoopMinimized(t *testing.T) {
	f := newRenderFixture(t)
	if err := f.loop.Frame(f.drawTagged); err != nil {
		t.Fatal(err)
	}

	f.win.Resize(0, 0)
	for i := 0; i < 3; i++ {
		if err := f.loop.Frame(f.drawTagged); err != nil {
			t.Fatalf("Frame() while minimized = %v", err)
		}
	}
	if s := f.loop.Stats(); s.Skipped != 3 || s.Frames != 1 {
		t.Errorf("Stats() = %+v, want 3 skipped and 1 frame", s)
	}

	f.win.Resize(320, 200)
	if err := f.loop.Frame(f.drawTagged); err != nil {
		t.Fatalf("Frame() after restore = %v", err)
	}
	f.ctx.AwaitIdle()
	if n := f.drv.Count(drivertest.EventPresent); n != 2 {
		t.Errorf("%d presents, want 2", n)
	}
}

func TestFrameLoopDeferredFunctions(t *testing.T) {
	f := newRenderFixture(t)
	if err := f.loop.Frame(f.drawTagged); err != nil {
		t.Fatal(err)
	}

	ran := 0
	f.loop.EnqueueFrameLoopFunction(func() { ran++ })
	if err := f.loop.Frame(f.drawTagged); err != nil {
		t.Fatal(err)
	}
	if ran != 0 {
		t.Fatal("deferred function ran before its lane came around")
	}
	if err := f.loop.Frame(f.drawTagged); err != nil {
		t.Fatal(err)
	}
	if ran != 1 {
		t.Fatalf("deferred function ran %d times, want 1", ran)
	}

	pending := false
	f.loop.EnqueueFrameLoopFunction(func() { pending = true })
	f.loop.Close()
	if !pending {
		t.Error("Close did not run pending deferred functions")
	}
}

func TestFrameLoopClose(t *testing.T) {
	f := newRenderFixture(t)
	for i := 0; i < 4; i++ {
		if err := f.loop.Frame(f.drawTagged); err != nil {
			t.Fatal(err)
		}
	}
	f.loop.Close()
	if n := f.drv.Live("Fence"); n != 0 {
		t.Errorf("%d fences alive after Close", n)
	}
	if n := f.drv.Live("Semaphore"); n != 0 {
		t.Errorf("%d semaphores alive after Close", n)
	}
}

func TestFrameLoopSubmitterClosed(t *testing.T) {
	f := newRenderFixture(t)
	if err := f.loop.Frame(f.drawTagged); err != nil {
		t.Fatal(err)
	}
	f.ctx.Submitter().Close()

	done := make(chan [2]error, 1)
	go func() {
		// Both calls land on the same lane; the second must not wait for a fence no
		// submit will signal.
		var errs [2]error
		errs[0] = f.loop.Frame(f.drawTagged)
		errs[1] = f.loop.Frame(f.drawTagged)
		done <- errs
	}()
	select {
	case errs := <-done:
		for i, err := range errs {
			if !errors.Is(err, ErrClosed) {
				t.Errorf("Frame %d after Close = %v, want ErrClosed", i, err)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Frame blocked on the fence of a frame that was never submitted")
	}
	if n := f.drv.Resignals(); n != 0 {
		t.Errorf("%d semaphores were signaled twice without a wait", n)
	}
	if n := f.loop.Stats().Frames; n != 1 {
		t.Errorf("Frames = %d, want 1", n)
	}
}
