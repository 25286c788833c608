package vkframe

import (
	"sync"

	"github.com/celer/vkframe/driver"
)

// Semaphore orders work between GPU operations. It has no host visible state.
type Semaphore struct {
	ctx    *Context
	mu     sync.Mutex
	native driver.Semaphore
}

func (c *Context) CreateSemaphore() (*Semaphore, error) {
	native, err := c.device.NewSemaphore()
	if err != nil {
		return nil, creationFailed(err, "semaphore")
	}
	return &Semaphore{ctx: c, native: native}, nil
}

// Native returns the driver handle.
func (s *Semaphore) Native() driver.Semaphore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.native
}

// renew swaps in a fresh semaphore. Used when a pending signal will never be waited on.
func (s *Semaphore) renew() {
	native, err := s.ctx.device.NewSemaphore()
	if err != nil {
		Logger().Error("failed to replace semaphore", "err", err)
		return
	}
	s.mu.Lock()
	old := s.native
	s.native = native
	s.mu.Unlock()
	if old != nil {
		old.Destroy()
	}
}

func (s *Semaphore) Destroy() {
	s.mu.Lock()
	native := s.native
	s.native = nil
	s.mu.Unlock()
	if native != nil {
		native.Destroy()
	}
}

func nativeSemaphores(list []*Semaphore) []driver.Semaphore {
	if len(list) == 0 {
		return nil
	}
	ret := make([]driver.Semaphore, len(list))
	for i, s := range list {
		ret[i] = s.Native()
	}
	return ret
}
