package vkframe

import (
	"testing"
)

func TestAlign(t *testing.T) {
	if makeAlignUp(12, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 0) != 10 {
		t.Fail()
	}
}

func TestAllocator(t *testing.T) {
	a := NewLinearAllocator(1024)

	ra := a.Allocate(2048, 1)
	if ra != nil {
		t.Error("Failed first allocation")
	}

	ra = a.Allocate(512, 1)
	fa := ra
	if ra == nil {
		t.Fatal("Failed 2nd allocation")
	}

	ra = a.Allocate(768, 1)
	if ra != nil {
		t.Error("Failed 3rd allocation")
	}

	ra = a.Allocate(500, 1)
	k := ra
	if ra == nil {
		t.Fatal("Failed 4th allocation")
	}

	ra = a.Allocate(50, 1)
	if ra != nil {
		t.Error("Failed 5th allocation")
	}

	ra = a.Allocate(5, 1)
	if ra == nil {
		t.Error("Failed 6th allocation")
	}

	ra = a.Allocate(20, 1)
	if ra != nil {
		t.Error("Failed 7th allocation")
	}

	a.Free(k)
	ra = a.Allocate(500, 1)
	if ra == nil || ra.Offset != 512 {
		t.Errorf("Failed 8th allocation: %v", ra)
	}

	a.Free(fa)
	ra = a.Allocate(20, 1)
	if ra == nil || ra.Offset != 0 {
		t.Errorf("Failed 9th allocation: %v", ra)
	}

	ra = a.Allocate(40, 1)
	if ra == nil {
		t.Error("Failed 10th allocation")
	}

	ra = a.Allocate(12, 1)
	if ra == nil {
		t.Error("Failed 11th allocation")
	}
	ra = a.Allocate(500, 1)
	if ra != nil {
		t.Error("Failed 12th allocation")
	}
	ra = a.Allocate(5, 1)
	if ra == nil {
		t.Error("Failed 13th allocation")
	}
	if a.Used() != 20+40+12+5+500+5 {
		t.Errorf("Used() = %d, allocations %s", a.Used(), a)
	}
}

func TestAllocatorAlignment(t *testing.T) {
	a := NewLinearAllocator(256)

	first := a.Allocate(10, 1)
	aligned := a.Allocate(16, 16)
	gap := a.Allocate(4, 1)

	if first == nil || aligned == nil || gap == nil {
		t.Fatalf("allocation failed: %s", a)
	}
	if aligned.Offset != 16 {
		t.Errorf("aligned offset = %d, want 16", aligned.Offset)
	}
	if gap.Offset != 10 {
		t.Errorf("gap offset = %d, want 10", gap.Offset)
	}
}
