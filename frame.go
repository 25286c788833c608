package vkframe

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/loov/hrtime"
	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

// FrameInfo describes the frame being recorded.
type FrameInfo struct {
	// Index counts frames handed to the loop, starting at 0.
	Index      uint64
	Lane       int
	Image      uint32
	Extent     driver.Extent2D
	Generation uint64
}

// FrameFunc records the commands of one frame. The buffer is already begun and is ended by
// the loop when FrameFunc returns nil.
type FrameFunc func(cb *CommandBuffer, f FrameInfo) error

// FrameStats are running counters of a FrameLoop.
type FrameStats struct {
	// Frames is the number of frames enqueued for submission.
	Frames uint64
	// Discarded counts enqueued frames dropped because the swapchain was recreated.
	Discarded uint64
	// Skipped counts calls to Frame that rendered nothing because the window had no area.
	Skipped uint64
	// FrameTime is the host time spent in the last Frame call.
	FrameTime time.Duration
	// AcquireTime is the host time spent acquiring the last image.
	AcquireTime time.Duration
}

// lane is one frame in flight.
type lane struct {
	fence      *Fence
	acquired   *Semaphore
	rendered   *Semaphore
	cb         *CommandBuffer
	submission *Submission

	deferred []func()
}

// FrameLoop paces rendering over a fixed number of lanes used round-robin. Each lane owns a
// fence, an acquisition semaphore, a render completion semaphore and a command buffer.
//
// Frame must be called from a single goroutine.
type FrameLoop struct {
	ctx       *Context
	swapchain *Swapchain
	pool      *CommandPool
	lanes     []*lane
	frame     uint64

	recreate atomic.Bool

	deferMu sync.Mutex

	statsMu sync.Mutex
	stats   FrameStats
}

// CreateFrameLoop creates a loop with Options.FramesInFlight lanes.
func (c *Context) CreateFrameLoop(sc *Swapchain, pool *CommandPool) (*FrameLoop, error) {
	n := c.options.FramesInFlight
	if n < 1 {
		n = DefaultFramesInFlight
	}
	l := &FrameLoop{ctx: c, swapchain: sc, pool: pool}
	for i := 0; i < n; i++ {
		ln, err := l.createLane()
		if err != nil {
			l.Close()
			return nil, err
		}
		l.lanes = append(l.lanes, ln)
	}
	return l, nil
}

func (l *FrameLoop) createLane() (*lane, error) {
	ln := &lane{}
	var err error
	if ln.fence, err = l.ctx.CreateFence(true); err != nil {
		return nil, err
	}
	if ln.acquired, err = l.ctx.CreateSemaphore(); err != nil {
		ln.destroy(l.pool)
		return nil, err
	}
	if ln.rendered, err = l.ctx.CreateSemaphore(); err != nil {
		ln.destroy(l.pool)
		return nil, err
	}
	if ln.cb, err = l.pool.BorrowCommandBuffer(); err != nil {
		ln.destroy(l.pool)
		return nil, err
	}
	return ln, nil
}

func (ln *lane) destroy(pool *CommandPool) {
	if ln.cb != nil {
		pool.ReturnCommandBuffer(ln.cb)
	}
	if ln.rendered != nil {
		ln.rendered.Destroy()
	}
	if ln.acquired != nil {
		ln.acquired.Destroy()
	}
	if ln.fence != nil {
		ln.fence.Destroy()
	}
}

// Frame renders one frame: it waits for the lane's previous frame, acquires an image and
// enqueues recording, submission and presentation. It returns without waiting for any of
// them.
func (l *FrameLoop) Frame(record FrameFunc) error {
	start := hrtime.Now()
	ln := l.lanes[l.frame%uint64(len(l.lanes))]

	if err := ln.fence.Await(); err != nil {
		return errors.Wrap(err, "await frame fence")
	}
	if ln.submission != nil {
		if ln.submission.Discarded() {
			l.statsMu.Lock()
			l.stats.Discarded++
			l.statsMu.Unlock()
		}
		ln.submission = nil
	}
	l.runDeferred(ln)

	if l.recreate.Swap(false) {
		if err := l.swapchain.Recreate(); err != nil {
			return l.skip(err)
		}
	}

	acquireStart := hrtime.Now()
	image, gen, err := l.swapchain.AcquireImage(ln.acquired, nil)
	if err != nil {
		return l.skip(err)
	}
	acquireTime := hrtime.Since(acquireStart)

	if err := ln.fence.Reset(); err != nil {
		l.release(ln)
		return errors.Wrap(err, "reset frame fence")
	}
	if err := l.pool.ResetCommandBuffer(ln.cb); err != nil {
		Logger().Error("failed to reset command buffer", "err", err)
	}

	info := FrameInfo{
		Index:      l.frame,
		Lane:       int(l.frame % uint64(len(l.lanes))),
		Image:      image,
		Extent:     l.swapchain.Extent(),
		Generation: gen,
	}
	sc := l.swapchain
	err = l.pool.RecordAsync(ln.cb, func(cb *CommandBuffer) error {
		if !sc.pin(gen) {
			cb.Discard()
			return nil
		}
		defer sc.unpin()
		if err := cb.Begin(); err != nil {
			return err
		}
		if err := record(cb, info); err != nil {
			return err
		}
		return cb.End()
	})
	if err != nil {
		l.release(ln)
		return err
	}

	ln.submission = l.ctx.SubmitUniversalAsync(SubmitInfo{
		WaitSemaphores:   []*Semaphore{ln.acquired},
		WaitStages:       []driver.PipelineStage{driver.PipelineStageColorAttachmentOutput},
		CommandBuffer:    ln.cb,
		SignalSemaphores: []*Semaphore{ln.rendered},
		Fence:            ln.fence,
		Swapchain:        sc,
		Generation:       gen,
	})
	select {
	case <-ln.submission.Done():
		if err := ln.submission.Wait(); errors.Is(err, ErrClosed) {
			ln.submission = nil
			l.release(ln)
			return err
		}
	default:
	}
	l.ctx.SubmitPresentAsync(PresentInfo{
		WaitSemaphores: []*Semaphore{ln.rendered},
		Swapchains:     []*Swapchain{sc},
		ImageIndices:   []uint32{image},
		Generations:    []uint64{gen},
		After:          ln.submission,
	})
	l.frame++

	l.statsMu.Lock()
	l.stats.Frames++
	l.stats.AcquireTime = acquireTime
	l.stats.FrameTime = hrtime.Since(start)
	l.statsMu.Unlock()
	return nil
}

// release undoes the acquisition of a frame that never reached the submitter, so the
// lane's next Frame neither blocks on its fence nor signals its semaphore twice.
func (l *FrameLoop) release(ln *lane) {
	ln.fence.retire()
	ln.acquired.renew()
}

// skip turns a minimized window into an empty frame.
func (l *FrameLoop) skip(err error) error {
	if !errors.Is(err, ErrZeroExtent) {
		return err
	}
	l.statsMu.Lock()
	l.stats.Skipped++
	l.statsMu.Unlock()
	return nil
}

// RequestRecreate asks the next Frame to recreate the swapchain before acquiring. It is
// safe to call from window callbacks.
func (l *FrameLoop) RequestRecreate() {
	l.recreate.Store(true)
}

// EnqueueFrameLoopFunction defers fn until the GPU has finished every frame enqueued so far.
// It runs on the goroutine calling Frame.
func (l *FrameLoop) EnqueueFrameLoopFunction(fn func()) {
	last := (l.frame + uint64(len(l.lanes)) - 1) % uint64(len(l.lanes))
	l.deferMu.Lock()
	ln := l.lanes[last]
	ln.deferred = append(ln.deferred, fn)
	l.deferMu.Unlock()
}

func (l *FrameLoop) runDeferred(ln *lane) {
	l.deferMu.Lock()
	fns := ln.deferred
	ln.deferred = nil
	l.deferMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Lane returns the lane the next frame will use.
func (l *FrameLoop) Lane() int {
	return int(l.frame % uint64(len(l.lanes)))
}

// Fences returns the fence of every lane.
func (l *FrameLoop) Fences() []*Fence {
	ret := make([]*Fence, len(l.lanes))
	for i, ln := range l.lanes {
		ret[i] = ln.fence
	}
	return ret
}

func (l *FrameLoop) Stats() FrameStats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

// Close waits for the GPU, runs pending deferred functions and releases the lanes.
func (l *FrameLoop) Close() {
	if err := l.ctx.AwaitIdle(); err != nil {
		Logger().Error("failed to wait for idle before closing the frame loop", "err", err)
	}
	for _, ln := range l.lanes {
		l.runDeferred(ln)
		ln.destroy(l.pool)
	}
	l.lanes = nil
}
