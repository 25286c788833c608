package vkframe

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

// recordQueueSize bounds how many recordings may be queued before RecordAsync blocks.
const recordQueueSize = 64

// RecordFunc writes commands into cb. It must finish with cb.End, which marks the recording
// complete for AwaitRecord.
type RecordFunc func(cb *CommandBuffer) error

type recordTask struct {
	cb     *CommandBuffer
	record RecordFunc
}

// CommandPool hands out reusable command buffers and records into them on its own
// goroutine, one recording at a time in the order they were enqueued.
//
// Borrowing is manual: a borrowed buffer must not be returned while a recording or
// submission for it is still pending.
type CommandPool struct {
	ctx    *Context
	native driver.CommandPool

	mu        sync.Mutex
	free      []*CommandBuffer
	allocated []*CommandBuffer

	sendMu sync.RWMutex
	closed bool
	tasks  chan recordTask
	wg     sync.WaitGroup

	// doneMu guards the completion state of every buffer of the pool. It is separate from
	// mu so enqueuers never contend with AwaitRecord callers.
	doneMu   sync.Mutex
	doneCond *sync.Cond
}

// CreateCommandPool creates a pool on the universal queue family and starts its
// recording goroutine.
func (c *Context) CreateCommandPool() (*CommandPool, error) {
	native, err := c.device.NewCommandPool(c.universalFamily)
	if err != nil {
		return nil, creationFailed(err, "command pool")
	}
	p := &CommandPool{
		ctx:    c,
		native: native,
		tasks:  make(chan recordTask, recordQueueSize),
	}
	p.doneCond = sync.NewCond(&p.doneMu)
	p.wg.Add(1)
	go p.recordLoop()
	return p, nil
}

func (p *CommandPool) recordLoop() {
	defer p.wg.Done()
	for t := range p.tasks {
		err := t.record(t.cb)
		p.finish(t.cb, err)
	}
}

// finish completes a recording whose function has returned. A function that ended its
// buffer already completed it.
func (p *CommandPool) finish(cb *CommandBuffer, err error) {
	p.doneMu.Lock()
	defer p.doneMu.Unlock()
	if cb.recorded {
		if err != nil {
			Logger().Error("recording failed after the command buffer was ended", "err", err)
		}
		return
	}
	if err == nil {
		err = ErrRecordIncomplete
	}
	Logger().Error("recording failed", "err", err)
	cb.recorded = true
	cb.err = err
	p.doneCond.Broadcast()
}

// BorrowCommandBuffer takes a buffer from the free list, allocating a new one only when the
// list is empty.
func (p *CommandPool) BorrowCommandBuffer() (*CommandBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		cb := p.free[n-1]
		p.free = p.free[:n-1]
		return cb, nil
	}
	native, err := p.native.Allocate()
	if err != nil {
		return nil, creationFailed(err, "command buffer")
	}
	cb := &CommandBuffer{pool: p, native: native}
	p.allocated = append(p.allocated, cb)
	return cb, nil
}

// ReturnCommandBuffer puts cb back on the free list. cb must not be used afterwards.
func (p *CommandPool) ReturnCommandBuffer(cb *CommandBuffer) {
	p.mu.Lock()
	p.free = append([]*CommandBuffer{cb}, p.free...)
	p.mu.Unlock()
}

// Allocated returns how many native buffers the pool has allocated.
func (p *CommandPool) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.allocated)
}

// ResetCommandBuffer clears the completion state and resets the native buffer. It must
// happen before the next RecordAsync targeting cb.
func (p *CommandPool) ResetCommandBuffer(cb *CommandBuffer) error {
	p.doneMu.Lock()
	cb.recorded = false
	cb.discarded = false
	cb.err = nil
	p.doneMu.Unlock()
	return errors.Wrap(cb.native.Reset(), "reset command buffer")
}

// RecordAsync queues record to run on the pool goroutine against cb.
func (p *CommandPool) RecordAsync(cb *CommandBuffer, record RecordFunc) error {
	p.doneMu.Lock()
	cb.recorded = false
	cb.discarded = false
	cb.err = nil
	p.doneMu.Unlock()

	p.sendMu.RLock()
	defer p.sendMu.RUnlock()
	if p.closed {
		p.complete(cb, ErrClosed, false)
		return ErrClosed
	}
	p.tasks <- recordTask{cb: cb, record: record}
	return nil
}

// AwaitRecord blocks until the recording of cb has completed and returns its error.
func (p *CommandPool) AwaitRecord(cb *CommandBuffer) error {
	p.doneMu.Lock()
	defer p.doneMu.Unlock()
	for !cb.recorded {
		p.doneCond.Wait()
	}
	return cb.err
}

func (p *CommandPool) complete(cb *CommandBuffer, err error, discarded bool) {
	p.doneMu.Lock()
	cb.recorded = true
	cb.discarded = discarded
	cb.err = err
	p.doneCond.Broadcast()
	p.doneMu.Unlock()
}

// Destroy stops the recording goroutine after it drains the queue, then frees every buffer
// and the native pool.
func (p *CommandPool) Destroy() {
	p.sendMu.Lock()
	if p.closed {
		p.sendMu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.sendMu.Unlock()
	p.wg.Wait()

	p.mu.Lock()
	for _, cb := range p.allocated {
		p.native.Free(cb.native)
	}
	p.allocated = nil
	p.free = nil
	p.mu.Unlock()
	p.native.Destroy()
}
