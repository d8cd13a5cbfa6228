package workers

import (
	"context"
	"runtime/debug"
	"sync"

	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/metrics"
)

// Task is a unit of work run by a Serial queue.
type Task func()

// Serial runs submitted tasks one at a time in FIFO order on a single
// worker goroutine.
type Serial struct {
	name string

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Task
	running  bool
	stopping bool
	done     chan struct{}
	starts   int
}

// NewSerial returns an idle queue. name is used in log messages.
func NewSerial(name string) *Serial {
	s := &Serial{name: name}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Submit enqueues task and returns immediately, starting a worker if none
// is running.
func (s *Serial) Submit(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, task)
	metrics.QueueDepth.Set(float64(len(s.queue)))

	if !s.running {
		s.start()
		return
	}
	s.cond.Signal()
}

// start launches the worker. Caller holds s.mu.
func (s *Serial) start() {
	s.running = true
	s.stopping = false
	s.done = make(chan struct{})
	if s.starts > 0 {
		metrics.WorkerRestarts.Inc()
		logging.Info("%s: restarting worker", s.name)
	}
	s.starts++
	go s.run(s.done)
}

func (s *Serial) run(done chan struct{}) {
	defer close(done)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopping {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			logging.Debug("%s: worker stopped", s.name)
			return
		}

		task := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		metrics.QueueDepth.Set(float64(len(s.queue)))
		s.mu.Unlock()

		s.execute(task)
	}
}

func (s *Serial) execute(task Task) {
	metrics.WorkerBusy.Set(1)
	defer metrics.WorkerBusy.Set(0)

	defer func() {
		if r := recover(); r != nil {
			metrics.WorkerPanics.Inc()
			logging.Error("%s: task panicked: %v\n%s", s.name, r, debug.Stack())
		}
	}()

	task()
}

// Shutdown stops the worker once every queued task has run. It returns
// ctx.Err() if ctx ends first; the worker keeps draining in that case.
func (s *Serial) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	done := s.done
	s.cond.Broadcast()
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of tasks waiting to run.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Running reports whether a worker goroutine is alive.
func (s *Serial) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
