package vkframe

import (
	"sync"

	"github.com/celer/vkframe/driver"
)

// Fence is a native fence plus a submission flag.
//
// The flag records that a submit which will signal the native fence has been issued.
// Submits happen asynchronously on the submitter goroutine, so Await waits for the flag
// before it waits on the native fence.
type Fence struct {
	ctx *Context
	// op serializes the native wait in Await with Reset.
	op sync.Mutex

	// guarded by ctx.fenceMu
	native    driver.Fence
	submitted bool
}

// CreateFence creates a fence. A signaled fence starts with its submission flag set so the
// first Await returns immediately.
func (c *Context) CreateFence(signaled bool) (*Fence, error) {
	native, err := c.device.NewFence(signaled)
	if err != nil {
		return nil, creationFailed(err, "fence")
	}
	return &Fence{ctx: c, native: native, submitted: signaled}, nil
}

// Await blocks until a submit signaling the fence has been issued and the GPU has
// signaled it.
func (f *Fence) Await() error {
	f.op.Lock()
	defer f.op.Unlock()

	f.ctx.fenceMu.Lock()
	for !f.submitted {
		f.ctx.fenceCond.Wait()
	}
	native := f.native
	f.ctx.fenceMu.Unlock()

	return native.Wait()
}

// Reset clears the submission flag and resets the native fence.
func (f *Fence) Reset() error {
	f.op.Lock()
	defer f.op.Unlock()

	f.ctx.fenceMu.Lock()
	f.submitted = false
	native := f.native
	f.ctx.fenceMu.Unlock()

	return native.Reset()
}

// Submitted reports whether the submission flag is set.
func (f *Fence) Submitted() bool {
	f.ctx.fenceMu.Lock()
	defer f.ctx.fenceMu.Unlock()
	return f.submitted
}

// Signaled reports the native fence state.
func (f *Fence) Signaled() (bool, error) {
	f.ctx.fenceMu.Lock()
	native := f.native
	f.ctx.fenceMu.Unlock()
	return native.Signaled()
}

func (f *Fence) markSubmitted() {
	f.ctx.fenceMu.Lock()
	f.submitted = true
	f.ctx.fenceCond.Broadcast()
	f.ctx.fenceMu.Unlock()
}

// retire replaces the native fence with a signaled one and sets the flag. It releases an
// Await whose submit will never be issued.
func (f *Fence) retire() {
	native, err := f.ctx.device.NewFence(true)
	if err != nil {
		Logger().Error("failed to replace fence of a discarded submission", "err", err)
		return
	}
	f.ctx.fenceMu.Lock()
	old := f.native
	f.native = native
	f.submitted = true
	f.ctx.fenceCond.Broadcast()
	f.ctx.fenceMu.Unlock()
	old.Destroy()
}

func (f *Fence) Destroy() {
	f.ctx.fenceMu.Lock()
	native := f.native
	f.native = nil
	f.ctx.fenceMu.Unlock()
	if native != nil {
		native.Destroy()
	}
}
