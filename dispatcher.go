package spanz

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrHandlerPanic is returned by Dispatcher.Report when a synchronous handler panics.
var ErrHandlerPanic = errors.New("report handler panicked")

// Handler is called with every report a Dispatcher receives.
type Handler func(ctx context.Context, report SpanReport) error

type handlerEntry struct {
	handler Handler
	id      uint64
	async   bool
}

// Dispatcher is a Reporter that fans reports out to registered handlers.
// Safe for concurrent use by multiple goroutines.
//
//nolint:govet // Field order optimized for functionality over memory
type Dispatcher struct {
	handlers       []handlerEntry
	panicHook      func(handlerID uint64, r any)
	errorHook      func(handlerID uint64, err error)
	workers        *workerPool
	handlersLock   sync.RWMutex
	hooksLock      sync.RWMutex
	nextID         atomic.Uint64
	droppedReports atomic.Uint64
}

// NewDispatcher creates a dispatcher with no handlers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make([]handlerEntry, 0),
	}
}

// OnReport registers a handler that runs before Report returns.
// Its error is returned from Report.
func (d *Dispatcher) OnReport(handler Handler) uint64 {
	return d.registerHandler(handler, false)
}

// OnReportAsync registers a handler that runs after Report returns.
// Its error goes to the error hook.
func (d *Dispatcher) OnReportAsync(handler Handler) uint64 {
	return d.registerHandler(handler, true)
}

func (d *Dispatcher) registerHandler(handler Handler, async bool) uint64 {
	if handler == nil {
		return 0
	}

	entry := handlerEntry{id: d.nextID.Add(1), handler: handler, async: async}

	d.handlersLock.Lock()
	d.handlers = append(d.handlers, entry)
	d.handlersLock.Unlock()

	return entry.id
}

// RemoveHandler unregisters the handler with the given ID. The remaining
// handlers keep their registration order.
func (d *Dispatcher) RemoveHandler(id uint64) {
	d.handlersLock.Lock()
	defer d.handlersLock.Unlock()

	d.handlers = slices.DeleteFunc(d.handlers, func(h handlerEntry) bool {
		return h.id == id
	})
}

// HasHandlers reports whether any handler is registered.
func (d *Dispatcher) HasHandlers() bool {
	d.handlersLock.RLock()
	defer d.handlersLock.RUnlock()
	return len(d.handlers) > 0
}

// SetPanicHook sets a function to be called when a handler panics.
func (d *Dispatcher) SetPanicHook(hook func(handlerID uint64, r any)) {
	d.hooksLock.Lock()
	defer d.hooksLock.Unlock()
	d.panicHook = hook
}

// SetErrorHook sets a function to be called when an async handler fails.
func (d *Dispatcher) SetErrorHook(hook func(handlerID uint64, err error)) {
	d.hooksLock.Lock()
	defer d.hooksLock.Unlock()
	d.errorHook = hook
}

// Report runs synchronous handlers in registration order and schedules
// asynchronous ones. Errors from synchronous handlers are joined.
func (d *Dispatcher) Report(ctx context.Context, report SpanReport) error {
	d.handlersLock.RLock()
	if len(d.handlers) == 0 {
		d.handlersLock.RUnlock()
		return nil
	}

	handlers := make([]handlerEntry, len(d.handlers))
	copy(handlers, d.handlers)
	workers := d.workers
	d.handlersLock.RUnlock()

	var errs []error
	for _, h := range handlers {
		if !h.async {
			if err := d.safeCall(ctx, h, report); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		entry := h
		detached := context.WithoutCancel(ctx)
		snapshot := report.clone()
		task := func() {
			if err := d.safeCall(detached, entry, snapshot); err != nil {
				d.reportError(entry.id, err)
			}
		}
		if workers != nil {
			workers.submit(task)
		} else {
			go task()
		}
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) safeCall(ctx context.Context, entry handlerEntry, report SpanReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.hooksLock.RLock()
			hook := d.panicHook
			d.hooksLock.RUnlock()
			if hook != nil {
				hook(entry.id, r)
			}
			err = fmt.Errorf("%w: handler %d: %v", ErrHandlerPanic, entry.id, r)
		}
	}()
	return entry.handler(ctx, report)
}

func (d *Dispatcher) reportError(id uint64, err error) {
	d.hooksLock.RLock()
	hook := d.errorHook
	d.hooksLock.RUnlock()
	if hook != nil {
		hook(id, err)
	}
}

// EnableWorkerPool creates a bounded worker pool for async handlers.
func (d *Dispatcher) EnableWorkerPool(workers, queueSize int) error {
	if workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if queueSize <= 0 {
		return errors.New("queueSize must be > 0")
	}

	d.handlersLock.Lock()
	defer d.handlersLock.Unlock()

	if d.workers != nil {
		return errors.New("worker pool already enabled")
	}

	pool := &workerPool{
		tasks:   make(chan func(), queueSize),
		stop:    make(chan struct{}),
		dropped: &d.droppedReports,
	}
	pool.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.run()
	}
	d.workers = pool

	return nil
}

// DroppedReports returns the number of async deliveries dropped because the
// worker queue was full or the pool had already shut down.
func (d *Dispatcher) DroppedReports() uint64 {
	return d.droppedReports.Load()
}

// Close removes all handlers and waits for the worker pool to drain.
func (d *Dispatcher) Close() {
	d.handlersLock.Lock()
	d.handlers = nil
	workers := d.workers
	d.workers = nil
	d.handlersLock.Unlock()

	if workers != nil {
		workers.shutdown()
	}
}

// workerPool runs async handlers on a fixed number of goroutines. Every
// submitted task is either run or counted in dropped: once shutdown starts,
// submit refuses new tasks, and workers drain whatever was accepted before.
//
//nolint:govet // Field order optimized for functionality over memory
type workerPool struct {
	tasks   chan func()
	stop    chan struct{}
	dropped *atomic.Uint64
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

func (w *workerPool) run() {
	defer w.wg.Done()
	for {
		select {
		case task := <-w.tasks:
			task()
		case <-w.stop:
			for {
				select {
				case task := <-w.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// submit queues task without blocking.
func (w *workerPool) submit(task func()) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.dropped.Add(1)
		return
	}
	select {
	case w.tasks <- task:
	default:
		w.dropped.Add(1)
	}
}

// shutdown stops accepting tasks, then waits for queued ones to finish.
func (w *workerPool) shutdown() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.stop)
	w.mu.Unlock()

	w.wg.Wait()
}
