/*
Package workers provides the serial task queue that runs gallery saves.

# Overview

A Serial queue owns at most one worker goroutine. Tasks run one at a time in
the order they were submitted, each to completion before the next starts.
The media collection assumes a single writer and callers expect results in
submission order.

# Basic Usage

	q := workers.NewSerial("saver")

	q.Submit(func() {
		// runs on the worker goroutine
	})

	// Stop after everything queued so far has run.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		log.Printf("queue did not drain: %v", err)
	}

# Lifecycle

The worker goroutine is started by the first Submit, not by NewSerial. After
Shutdown returns, the queue is idle but still usable: the next Submit starts
a fresh worker. Submissions that race with Shutdown are not lost; the
draining worker runs them before it exits.

Submit never blocks. The queue is unbounded, so a caller that submits faster
than tasks complete grows memory without limit. The current length is
exported as the queue depth gauge.

# Panics

A task that panics is recovered on the worker goroutine. The panic and its
stack are logged, the panic counter is incremented, and the worker moves on
to the next task. A task that must report its own failure has to recover
itself.

# Thread Safety

All methods are safe for concurrent use.
*/
package workers
