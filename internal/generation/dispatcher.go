package generation

import (
	"context"
	"errors"
	"sync"
	"time"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
)

// Launcher is the part of Service the dispatcher drives.
type Launcher interface {
	Launch(ctx context.Context, task *domain.Task, userID string) error
}

// LaunchError reports a launch that did not finish cleanly.
type LaunchError struct {
	TaskID string
	Err    error
}

func (e LaunchError) Error() string { return "launch " + e.TaskID + ": " + e.Err.Error() }
func (e LaunchError) Unwrap() error { return e.Err }

// ErrDispatcherClosed is returned by Dispatch after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher hands launches to background goroutines so request handlers
// never wait on a provider. Failures are delivered on Errors.
type Dispatcher struct {
	launcher Launcher
	timeout  time.Duration
	base     context.Context
	cancel   context.CancelFunc
	errs     chan LaunchError
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher whose launches each run under timeout.
func NewDispatcher(launcher Launcher, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		launcher: launcher,
		timeout:  timeout,
		base:     base,
		cancel:   cancel,
		errs:     make(chan LaunchError, 64),
	}
}

// Dispatch starts task's launch and returns immediately.
func (d *Dispatcher) Dispatch(task domain.Task, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(d.base, d.timeout)
		defer cancel()
		if err := d.launcher.Launch(ctx, &task, userID); err != nil {
			d.errs <- LaunchError{TaskID: task.ID, Err: err}
		}
	}()
	return nil
}

// Errors yields launch failures. It is closed by Close once every launch has
// returned, so it must be drained.
func (d *Dispatcher) Errors() <-chan LaunchError {
	return d.errs
}

// Wait blocks until every dispatched launch has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting launches, waits up to ctx for in-flight ones and then
// cancels the rest. Launch treats that cancellation as an interruption, so
// tasks whose launch was cut short stay pending and are reaped by the sweep.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		d.cancel()
		<-done
		err = ctx.Err()
	}
	d.cancel()
	close(d.errs)
	return err
}

// LogErrors drains Errors into logger until the dispatcher closes.
func (d *Dispatcher) LogErrors(logger infra.Logger) {
	for e := range d.errs {
		logger.Warn().Str("task_id", e.TaskID).Err(e.Err).Msg("task launch reported an error")
	}
}
