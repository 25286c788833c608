package vkframe

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/driver"
)

const submitQueueSize = 64

// SubmitInfo describes one submit to the universal queue.
type SubmitInfo struct {
	WaitSemaphores   []*Semaphore
	WaitStages       []driver.PipelineStage
	CommandBuffer    *CommandBuffer
	SignalSemaphores []*Semaphore
	Fence            *Fence

	// Swapchain, when set, ties the submit to the swapchain generation the frame acquired
	// its image under. The submit is discarded if the swapchain has been recreated since.
	Swapchain  *Swapchain
	Generation uint64
}

// PresentInfo describes one present on the present queue.
type PresentInfo struct {
	WaitSemaphores []*Semaphore
	Swapchains     []*Swapchain
	ImageIndices   []uint32
	// Generations, when set, holds the generation each image was acquired under. The
	// present is discarded if any swapchain was recreated since.
	Generations []uint64
	// After, when set, discards the present unless that submission reached the queue.
	After *Submission
}

// Submission is the pending result of a task handed to the Submitter.
type Submission struct {
	done      chan struct{}
	err       error
	discarded bool
}

func newSubmission() *Submission {
	return &Submission{done: make(chan struct{})}
}

func (s *Submission) finish(err error, discarded bool) {
	s.err = err
	s.discarded = discarded
	close(s.done)
}

// Done is closed once the task has executed.
func (s *Submission) Done() <-chan struct{} { return s.done }

// Wait blocks until the task has executed and returns its error.
func (s *Submission) Wait() error {
	<-s.done
	return s.err
}

// Discarded reports whether the task was skipped because its targets were invalidated.
// It blocks until the task has executed.
func (s *Submission) Discarded() bool {
	<-s.done
	return s.discarded
}

// queued reports whether the task issued its queue operation.
func (s *Submission) queued() bool {
	<-s.done
	return s.err == nil && !s.discarded
}

type taskKind int

const (
	taskFunc taskKind = iota
	taskSubmit
	taskPresent
)

type task struct {
	kind    taskKind
	fn      func()
	submit  *SubmitInfo
	present *PresentInfo
	result  *Submission
}

// Submitter owns every queue submit and present of a context. Tasks execute one at a time,
// in the order they were enqueued, on a single goroutine.
type Submitter struct {
	ctx *Context

	sendMu sync.RWMutex
	closed bool
	tasks  chan task
	wg     sync.WaitGroup

	mu      sync.Mutex
	idle    *sync.Cond
	pending int
}

func newSubmitter(ctx *Context) *Submitter {
	s := &Submitter{
		ctx:   ctx,
		tasks: make(chan task, submitQueueSize),
	}
	s.idle = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Submitter) run() {
	defer s.wg.Done()
	for t := range s.tasks {
		s.execute(t)

		s.mu.Lock()
		s.pending--
		if s.pending == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}
}

func (s *Submitter) execute(t task) {
	switch t.kind {
	case taskFunc:
		t.fn()
		t.result.finish(nil, false)
	case taskSubmit:
		discarded, err := s.submit(t.submit)
		t.result.finish(err, discarded)
	case taskPresent:
		discarded, err := s.present(t.present)
		t.result.finish(err, discarded)
	}
}

func (s *Submitter) enqueue(t task) *Submission {
	t.result = newSubmission()

	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closed {
		t.result.finish(ErrClosed, false)
		return t.result
	}
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	s.tasks <- t
	return t.result
}

// Enqueue runs fn on the submitter goroutine after every previously enqueued task.
func (s *Submitter) Enqueue(fn func()) *Submission {
	return s.enqueue(task{kind: taskFunc, fn: fn})
}

// SubmitUniversal enqueues a submit. The submitter waits for the command buffer recording to
// complete, issues the submit, then sets the fence submission flag.
func (s *Submitter) SubmitUniversal(info SubmitInfo) *Submission {
	return s.enqueue(task{kind: taskSubmit, submit: &info})
}

// SubmitPresent enqueues a present. It is serialized against acquisition through the
// swapchain usage lock.
func (s *Submitter) SubmitPresent(info PresentInfo) *Submission {
	return s.enqueue(task{kind: taskPresent, present: &info})
}

// AwaitIdle blocks until every enqueued task has executed.
func (s *Submitter) AwaitIdle() {
	s.mu.Lock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

// Close executes the remaining tasks and stops the goroutine. Later tasks fail with
// ErrClosed.
func (s *Submitter) Close() {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return
	}
	s.closed = true
	close(s.tasks)
	s.sendMu.Unlock()
	s.wg.Wait()
}

func (s *Submitter) submit(info *SubmitInfo) (bool, error) {
	cb := info.CommandBuffer
	var recordErr error
	if cb != nil {
		recordErr = cb.pool.AwaitRecord(cb)
	}

	if sc := info.Swapchain; sc != nil {
		sc.usage.Lock()
		defer sc.usage.Unlock()
		if gen := sc.Generation(); gen != info.Generation {
			Logger().Info("discarding submission for a recreated swapchain",
				"acquired", info.Generation, "current", gen)
			s.abandon(info)
			return true, nil
		}
	}
	if cb != nil && cb.Discarded() {
		Logger().Info("discarding submission of a discarded recording")
		s.abandon(info)
		return true, nil
	}
	if recordErr != nil {
		s.abandon(info)
		return false, errors.Wrap(recordErr, "submit")
	}

	native := driver.SubmitInfo{
		WaitSemaphores:   nativeSemaphores(info.WaitSemaphores),
		WaitStages:       info.WaitStages,
		SignalSemaphores: nativeSemaphores(info.SignalSemaphores),
	}
	if cb != nil {
		native.CommandBuffers = []driver.CommandBuffer{cb.native}
	}
	if info.Fence != nil {
		info.Fence.ctx.fenceMu.Lock()
		native.Fence = info.Fence.native
		info.Fence.ctx.fenceMu.Unlock()
	}
	if err := s.ctx.universal.Submit(native); err != nil {
		Logger().Error("queue submit failed", "err", err)
		s.abandon(info)
		return false, errors.Wrap(err, "queue submit")
	}
	if info.Fence != nil {
		info.Fence.markSubmitted()
	}
	return false, nil
}

// abandon releases the synchronization a submit that will never be issued would have
// provided: waited semaphores are replaced and the fence is retired.
func (s *Submitter) abandon(info *SubmitInfo) {
	for _, sem := range info.WaitSemaphores {
		sem.renew()
	}
	if info.Fence != nil {
		info.Fence.retire()
	}
}

func (s *Submitter) present(info *PresentInfo) (bool, error) {
	if info.After != nil && !info.After.queued() {
		return true, nil
	}
	for _, sc := range info.Swapchains {
		sc.usage.Lock()
		defer sc.usage.Unlock()
	}
	for i, sc := range info.Swapchains {
		if i < len(info.Generations) && sc.Generation() != info.Generations[i] {
			Logger().Info("discarding present for a recreated swapchain")
			// The submit before it signaled these and nothing else will wait on them.
			for _, sem := range info.WaitSemaphores {
				sem.renew()
			}
			return true, nil
		}
	}

	native := driver.PresentInfo{
		WaitSemaphores: nativeSemaphores(info.WaitSemaphores),
		Swapchains:     make([]driver.Swapchain, len(info.Swapchains)),
		ImageIndices:   info.ImageIndices,
	}
	for i, sc := range info.Swapchains {
		native.Swapchains[i] = sc.native
	}
	err := s.ctx.present.Present(native)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, driver.ErrOutOfDate), errors.Is(err, driver.ErrSuboptimal):
		for _, sc := range info.Swapchains {
			sc.stale.Store(true)
		}
		return false, nil
	default:
		Logger().Error("queue present failed", "err", err)
		return false, errors.Wrap(err, "queue present")
	}
}
