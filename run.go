package calce2e

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/calce2e/lib/defaults"
)

// RunOptions of a scenario run
type RunOptions struct {
	// URL of the calculator
	URL string

	// Headless hides the browser window
	Headless bool

	// Timeout bounds the page load and each step
	Timeout time.Duration

	// LaunchTimeout bounds the acquisition of the session
	LaunchTimeout time.Duration
}

// DefaultRunOptions from lib/defaults
func DefaultRunOptions() RunOptions {
	return RunOptions{
		URL:      defaults.URL,
		Headless: !defaults.Show,
		Timeout:       defaults.Timeout,
		LaunchTimeout: defaults.LaunchTimeout,
	}
}

// Result of a scenario
type Result struct {
	Name      string
	Group     string
	SessionID string
	Passed    bool
	Skipped   bool
	Err       error
	Duration  time.Duration
}

// Run the scenario in a fresh session, the session is released on every exit path
func Run(ctx context.Context, m *Manager, sc Scenario, opts RunOptions) (res Result) {
	start := time.Now()
	res = Result{Name: sc.Name, Group: sc.Group}
	defer func() { res.Duration = time.Since(start) }()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaults.Timeout
	}

	launchTimeout := opts.LaunchTimeout
	if launchTimeout <= 0 {
		launchTimeout = defaults.LaunchTimeout
	}

	acquireCtx, cancel := context.WithTimeout(ctx, launchTimeout)
	s, err := m.Acquire(acquireCtx, opts.Headless)
	if err != nil && ctx.Err() == nil && errors.Is(acquireCtx.Err(), context.DeadlineExceeded) &&
		!IsError(err, ErrTimeout) {
		err = &Error{Code: ErrTimeout, Details: "acquire session", Err: err}
	}
	cancel()
	if err != nil {
		res.Err = err
		return
	}
	res.SessionID = s.ID
	defer s.Release()

	defer func() {
		if r := recover(); r != nil {
			res.Passed = false
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	err = s.Navigate(loadCtx, opts.URL)
	cancel()
	if err != nil {
		res.Err = fmt.Errorf("open %s: %w", opts.URL, err)
		return
	}

	d := NewDriver(s)
	d.Timeout = timeout

	for i, step := range sc.Steps {
		err = step.Run(ctx, d)
		if err != nil {
			res.Err = fmt.Errorf("step %d (%s): %w", i+1, step, err)
			return
		}
	}

	res.Passed = true
	return
}
