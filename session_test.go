package calce2e_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/calce2e"
	"github.com/go-rod/calce2e/lib/input"
	"github.com/go-rod/calce2e/lib/utils"
	"github.com/google/uuid"
)

func (s *S) TestAcquireRelease() {
	sess, err := s.manager.Acquire(context.Background(), true)
	s.Require().NoError(err)

	_, err = uuid.Parse(sess.ID)
	s.NoError(err)
	s.True(sess.Headless)
	s.Equal(calce2e.StateReady, sess.State())
	s.Equal([]string{sess.ID}, s.manager.Live())
	s.True(s.backend.surfaces()[0].headless)

	sess.Release()
	s.manager.Release(sess)
	sess.Release()

	s.Equal(calce2e.StateClosed, sess.State())
	s.Equal("closed", sess.State().String())
	s.Empty(s.manager.Live())
	s.Equal(1, s.backend.surfaces()[0].closeCount())

	err = sess.Navigate(context.Background(), "http://localhost:8000")
	s.True(calce2e.IsError(err, calce2e.ErrSessionClosed))

	s.manager.Release(nil)
}

func (s *S) TestSessionsAreNotShared() {
	a := s.manager.MustAcquire(false)
	c := s.manager.MustAcquire(false)
	defer a.Release()
	defer c.Release()

	s.NotEqual(a.ID, c.ID)
	s.Len(s.manager.Live(), 2)
	s.Len(s.backend.surfaces(), 2)
	s.False(s.backend.surfaces()[0].headless)
}

func (s *S) TestAcquireEnvironmentUnavailable() {
	s.backend.openErr = &calce2e.Error{Code: calce2e.ErrEnvironmentUnavailable, Details: "no compatible browser"}

	_, err := s.manager.Acquire(context.Background(), true)
	s.True(calce2e.IsError(err, calce2e.ErrEnvironmentUnavailable))
	s.Empty(s.manager.Live())

	s.Panics(func() { s.manager.MustAcquire(true) })
}

func (s *S) TestReleaseLogsCloseError() {
	s.backend.closeErr = errors.New("browser is gone")

	logs := []string{}
	s.manager.Logger = utils.Log(func(msg ...interface{}) { logs = append(logs, fmt.Sprint(msg...)) })

	sess := s.manager.MustAcquire(true)
	s.NotPanics(sess.Release)
	s.Contains(fmt.Sprint(logs), "browser is gone")
	s.Empty(s.manager.Live())
}

func (s *S) TestStateString() {
	s.Equal("uninitialized", calce2e.StateUninitialized.String())
	s.Equal("ready", calce2e.StateReady.String())
	s.Equal("unknown", calce2e.State(10).String())
}

func (s *S) TestManagerClose() {
	s.NoError(s.manager.Close())
}

func (s *S) TestDriverClick() {
	d := s.driver()
	ctx := context.Background()

	for _, sel := range []calce2e.Selector{
		calce2e.Digit("5"), calce2e.Operator("+"), calce2e.Digit("3"), calce2e.Function("equals"),
	} {
		s.Require().NoError(d.Click(ctx, sel))
	}

	s.NoError(d.ExpectDisplay(ctx, "8"))

	text, err := d.ReadDisplay(ctx)
	s.Require().NoError(err)
	s.Equal("8", text)

	// reading has no side effects
	s.NoError(d.ExpectDisplay(ctx, "8"))
}

func (s *S) TestDriverExpectMismatch() {
	d := s.driver()
	ctx := context.Background()

	s.Require().NoError(d.Click(ctx, calce2e.Digit("7")))

	err := d.ExpectDisplay(ctx, "9")
	s.True(calce2e.IsError(err, calce2e.ErrAssertionMismatch))

	var e *calce2e.Error
	s.Require().True(errors.As(err, &e))
	s.Equal(&calce2e.Mismatch{Want: "9", Got: "7"}, e.Details)
	s.EqualError(err, `[calce2e] display mismatch: want "9", got "7"`)
}

func (s *S) TestDriverElementNotFound() {
	equals := calce2e.Function("equals")
	s.backend.missing = map[string]bool{equals.CSS(): true}

	d := s.driver()
	d.Timeout = 50 * time.Millisecond

	start := time.Now()
	err := d.Click(context.Background(), equals)

	s.True(calce2e.IsError(err, calce2e.ErrElementNotFound))
	s.True(errors.Is(err, context.DeadlineExceeded))
	s.True(errors.Is(err, &calce2e.Error{Code: calce2e.ErrElementNotFound}))
	s.Contains(err.Error(), `[data-fn="equals"]`)
	s.Less(time.Since(start), 5*time.Second)
}

func (s *S) TestDriverKeyboard() {
	d := s.driver()
	ctx := context.Background()

	s.Require().NoError(d.Type(ctx, "456"))
	s.Require().NoError(d.SendKey(ctx, input.Backspace))
	s.NoError(d.ExpectDisplay(ctx, "45"))

	s.Require().NoError(d.Type(ctx, "+5"))
	s.Require().NoError(d.SendKey(ctx, input.Enter))
	s.NoError(d.ExpectDisplay(ctx, "50"))

	s.Require().NoError(d.SendKey(ctx, input.Escape))
	s.NoError(d.ExpectDisplay(ctx, "0"))

	err := d.Type(ctx, "1é")
	s.True(errors.Is(err, input.ErrUnknownKey))
	s.NoError(d.ExpectDisplay(ctx, "0"))
}

func (s *S) TestDriverClearWithC() {
	d := s.driver()
	ctx := context.Background()

	s.Require().NoError(d.Type(ctx, "12"))
	s.Require().NoError(d.Type(ctx, "c"))
	s.NoError(d.ExpectDisplay(ctx, "0"))

	s.Require().NoError(d.Type(ctx, "7C"))
	s.NoError(d.ExpectDisplay(ctx, "0"))
}

func (s *S) TestDriverAfterRelease() {
	sess := s.manager.MustAcquire(true)
	d := calce2e.NewDriver(sess)
	sess.Release()

	err := d.Click(context.Background(), calce2e.Digit("1"))
	s.True(calce2e.IsError(err, calce2e.ErrSessionClosed))
}

func (s *S) TestDriverTrace() {
	lines := []string{}
	s.manager.Logger = utils.Log(logCollector(&lines))

	d := s.driver()
	ctx := context.Background()

	s.Require().NoError(d.Click(ctx, calce2e.Digit("5")))
	s.Require().NoError(d.SendKey(ctx, input.Enter))
	s.Require().NoError(d.ExpectDisplay(ctx, "5"))

	log := fmt.Sprint(lines)
	s.Contains(log, "click digit 5")
	s.Contains(log, "key Enter")
	s.Contains(log, "read display")
}

func (s *S) TestMust() {
	sess := s.manager.MustAcquire(true)
	defer sess.Release()

	d := calce2e.NewDriver(sess)
	d.Timeout = time.Second

	d.MustNavigate("http://localhost:8000").
		MustClick(calce2e.Digit("3")).
		MustClick(calce2e.Digit(".")).
		MustClick(calce2e.Digit("1")).
		MustClick(calce2e.Digit(".")).
		MustClick(calce2e.Digit("4")).
		MustExpectDisplay("3.14").
		MustType("*2").
		MustSendKey(input.Enter)

	s.Equal("6.28", d.MustReadDisplay())
	s.Panics(func() { d.MustExpectDisplay("0") })
}

func (s *S) TestErrorFormat() {
	err := &calce2e.Error{
		Code:    calce2e.ErrTimeout,
		Details: &calce2e.PageState{URL: "http://localhost:8000/", ReadyState: "loading"},
		Err:     context.DeadlineExceeded,
	}
	s.EqualError(err, "[calce2e] timeout: url http://localhost:8000/, readyState loading: context deadline exceeded")

	s.Equal("page state unknown", (&calce2e.PageState{}).String())
	s.EqualError(&calce2e.Error{Code: calce2e.ErrSessionClosed}, "[calce2e] session closed")

	wrapped := fmt.Errorf("step 2: %w", err)
	s.True(calce2e.IsError(wrapped, calce2e.ErrTimeout))
	s.False(calce2e.IsError(wrapped, calce2e.ErrElementNotFound))
	s.False(calce2e.IsError(nil, calce2e.ErrTimeout))
	s.False(calce2e.IsError(errors.New("x"), calce2e.ErrTimeout))
}
