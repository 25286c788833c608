package vkframe

import (
	"testing"

	"github.com/pkg/errors"
)

func TestBorrowReusesReturnedBuffers(t *testing.T) {
	f := newFixture(t)
	pool, err := f.ctx.CreateCommandPool()
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	for round := 0; round < 10; round++ {
		var borrowed []*CommandBuffer
		for i := 0; i < 3; i++ {
			cb, err := pool.BorrowCommandBuffer()
			if err != nil {
				t.Fatal(err)
			}
			borrowed = append(borrowed, cb)
		}
		for _, cb := range borrowed {
			pool.ReturnCommandBuffer(cb)
		}
	}
	if n := pool.Allocated(); n != 3 {
		t.Errorf("Allocated() = %d, want the high water mark 3", n)
	}
}

func TestRecordAsync(t *testing.T) {
	f := newFixture(t)
	pool, err := f.ctx.CreateCommandPool()
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	cb, _ := pool.BorrowCommandBuffer()
	ran := false
	err = pool.RecordAsync(cb, func(cb *CommandBuffer) error {
		ran = true
		if err := cb.Begin(); err != nil {
			return err
		}
		cb.Draw(3, 1, 0, 0)
		return cb.End()
	})
	if err != nil {
		t.Fatalf("RecordAsync() = %v", err)
	}
	if err := pool.AwaitRecord(cb); err != nil {
		t.Fatalf("AwaitRecord() = %v", err)
	}
	if !ran {
		t.Error("recording did not run before AwaitRecord returned")
	}
	if cb.Discarded() {
		t.Error("ended buffer reported as discarded")
	}
}

func TestRecordOrder(t *testing.T) {
	f := newFixture(t)
	pool, err := f.ctx.CreateCommandPool()
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	var order []int
	var last *CommandBuffer
	for i := 0; i < 20; i++ {
		i := i
		cb, _ := pool.BorrowCommandBuffer()
		last = cb
		pool.RecordAsync(cb, func(cb *CommandBuffer) error {
			order = append(order, i)
			cb.Begin()
			return cb.End()
		})
	}
	pool.AwaitRecord(last)
	for i, v := range order {
		if v != i {
			t.Fatalf("recording %d ran at position %d", v, i)
		}
	}
}

func TestRecordIncomplete(t *testing.T) {
	f := newFixture(t)
	pool, err := f.ctx.CreateCommandPool()
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Destroy()

	cb, _ := pool.BorrowCommandBuffer()
	pool.RecordAsync(cb, func(cb *CommandBuffer) error {
		return cb.Begin()
	})
	if err := pool.AwaitRecord(cb); !errors.Is(err, ErrRecordIncomplete) {
		t.Errorf("AwaitRecord() = %v, want ErrRecordIncomplete", err)
	}

	failure := errors.New("no pipeline")
	cb2, _ := pool.BorrowCommandBuffer()
	pool.RecordAsync(cb2, func(cb *CommandBuffer) error {
		return failure
	})
	if err := pool.AwaitRecord(cb2); !errors.Is(err, failure) {
		t.Errorf("AwaitRecord() = %v, want %v", err, failure)
	}
}

func TestRecordAfterDestroy(t *testing.T) {
	f := newFixture(t)
	pool, err := f.ctx.CreateCommandPool()
	if err != nil {
		t.Fatal(err)
	}
	cb, _ := pool.BorrowCommandBuffer()
	pool.Destroy()

	err = pool.RecordAsync(cb, func(cb *CommandBuffer) error {
		t.Error("recording ran on a destroyed pool")
		return nil
	})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("RecordAsync() = %v, want ErrClosed", err)
	}
	if err := pool.AwaitRecord(cb); !errors.Is(err, ErrClosed) {
		t.Errorf("AwaitRecord() = %v, want ErrClosed", err)
	}
	if n := f.drv.Live("CommandBuffer"); n != 0 {
		t.Errorf("%d command buffers alive after Destroy", n)
	}
}
