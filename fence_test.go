package vkframe

import (
	"testing"
	"time"
)

func TestFenceAwaitWaitsForSubmission(t *testing.T) {
	f := newFixture(t)
	fence, err := f.ctx.CreateFence(false)
	if err != nil {
		t.Fatal(err)
	}
	defer fence.Destroy()

	done := make(chan error, 1)
	go func() { done <- fence.Await() }()

	select {
	case <-done:
		t.Fatal("Await returned before any submission")
	case <-time.After(20 * time.Millisecond):
	}

	f.ctx.SubmitUniversalAsync(SubmitInfo{Fence: fence})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Await() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Await did not return after submission")
	}
	if !fence.Submitted() {
		t.Error("fence not flagged as submitted")
	}
	if ok, _ := fence.Signaled(); !ok {
		t.Error("fence not signaled")
	}
}

func TestFenceSignaledAwaitsImmediately(t *testing.T) {
	f := newFixture(t)
	fence, err := f.ctx.CreateFence(true)
	if err != nil {
		t.Fatal(err)
	}
	defer fence.Destroy()

	if err := fence.Await(); err != nil {
		t.Fatalf("Await() = %v", err)
	}
	if err := fence.Reset(); err != nil {
		t.Fatalf("Reset() = %v", err)
	}
	if fence.Submitted() {
		t.Error("Reset left the submission flag set")
	}
	if ok, _ := fence.Signaled(); ok {
		t.Error("Reset left the native fence signaled")
	}
}

func TestFenceRetire(t *testing.T) {
	f := newFixture(t)
	fence, err := f.ctx.CreateFence(false)
	if err != nil {
		t.Fatal(err)
	}
	defer fence.Destroy()

	fence.retire()
	if err := fence.Await(); err != nil {
		t.Fatalf("Await() after retire = %v", err)
	}
	if n := f.drv.Live("Fence"); n != 1 {
		t.Errorf("%d fences alive, want 1", n)
	}
}
