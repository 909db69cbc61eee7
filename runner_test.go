package calce2e_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/calce2e"
	"github.com/go-rod/calce2e/lib/utils"
	"github.com/tidwall/gjson"
)

func runOptions() calce2e.RunOptions {
	return calce2e.RunOptions{
		URL:      "http://localhost:8000",
		Headless: true,
		Timeout:  time.Second,
	}
}

func (s *S) TestRunBuiltinScenarios() {
	for _, sc := range calce2e.Builtin().Scenarios {
		sc := sc
		s.Run(sc.Name, func() {
			b := &fakeBackend{}
			m := newManager(b)

			res := calce2e.Run(context.Background(), m, sc, runOptions())

			s.True(res.Passed, "%v", res.Err)
			s.NoError(res.Err)
			s.Equal(sc.Group, res.Group)
			s.NotEmpty(res.SessionID)
			s.Positive(res.Duration)

			s.Require().Len(b.surfaces(), 1)
			s.Equal(1, b.surfaces()[0].closeCount())
			s.Equal("http://localhost:8000", b.surfaces()[0].url)
			s.Empty(m.Live())
		})
	}
}

func (s *S) TestRunMismatchReleases() {
	b, m := s.backend, s.manager

	sc := calce2e.Scenario{Name: "wrong", Group: "basic", Steps: []calce2e.Step{
		calce2e.ClickOn(calce2e.Digit("2")),
		calce2e.Expect("3"),
	}}

	res := calce2e.Run(context.Background(), m, sc, runOptions())

	s.False(res.Passed)
	s.True(calce2e.IsError(res.Err, calce2e.ErrAssertionMismatch))
	s.Contains(res.Err.Error(), "step 2 (expect 3)")
	s.Equal(1, b.surfaces()[0].closeCount())
	s.Empty(m.Live())
}

func (s *S) TestRunPageLoadTimeout() {
	b, m := s.backend, s.manager

	opts := runOptions()
	opts.URL = "hang"
	opts.Timeout = 50 * time.Millisecond

	res := calce2e.Run(context.Background(), m, calce2e.Builtin().Scenarios[0], opts)

	s.False(res.Passed)
	s.True(calce2e.IsError(res.Err, calce2e.ErrTimeout))
	s.Contains(res.Err.Error(), "readyState loading")
	s.Equal(1, b.surfaces()[0].closeCount())
}

func (s *S) TestRunPanicReleases() {
	b := &fakeBackend{panicOn: calce2e.Operator("+").CSS()}
	m := newManager(b)

	sc, _ := calce2e.Builtin().Get("addition")
	res := calce2e.Run(context.Background(), m, sc, runOptions())

	s.False(res.Passed)
	s.EqualError(res.Err, "panic: boom")
	s.Equal(1, b.surfaces()[0].closeCount())
	s.Empty(m.Live())
}

func (s *S) TestRunAcquireTimeout() {
	b := &fakeBackend{hang: true}
	m := newManager(b)

	opts := runOptions()
	opts.LaunchTimeout = 50 * time.Millisecond

	start := time.Now()
	res := calce2e.Run(context.Background(), m, calce2e.Builtin().Scenarios[0], opts)

	s.Less(time.Since(start), 5*time.Second)
	s.False(res.Passed)
	s.True(calce2e.IsError(res.Err, calce2e.ErrTimeout))
	s.ErrorIs(res.Err, context.DeadlineExceeded)
	s.Contains(res.Err.Error(), "acquire session")
	s.Empty(m.Live())
}

func (s *S) TestRunAcquireFails() {
	b := &fakeBackend{openErr: errors.New("no display")}
	m := newManager(b)

	res := calce2e.Run(context.Background(), m, calce2e.Builtin().Scenarios[0], runOptions())

	s.False(res.Passed)
	s.EqualError(res.Err, "no display")
	s.Empty(res.SessionID)
}

func (s *S) TestRunnerSequential() {
	b := s.backend
	r := calce2e.NewRunner(s.manager)
	r.Options = runOptions()
	r.Workers = 1

	lines := []string{}
	r.Logger = utils.Log(logCollector(&lines))

	report, err := r.Run(context.Background(), calce2e.Builtin().Scenarios)
	s.Require().NoError(err)

	s.True(report.Passed())
	s.Equal("18 passed, 0 failed", report.Summary())
	s.Equal(1, b.peak())
	s.Len(b.surfaces(), 18)
	s.Len(lines, 18)
	s.True(strings.HasPrefix(lines[0], "PASS basic/addition"))

	for _, surface := range b.surfaces() {
		s.Equal(1, surface.closeCount())
	}
}

func (s *S) TestRunnerParallel() {
	b := s.backend
	r := calce2e.NewRunner(s.manager)
	r.Options = runOptions()
	r.Workers = 4

	scenarios := calce2e.Builtin().Scenarios
	report, err := r.Run(context.Background(), scenarios)
	s.Require().NoError(err)

	s.True(report.Passed())
	s.LessOrEqual(b.peak(), 4)

	ids := map[string]bool{}
	for i, res := range report.Results {
		s.Equal(scenarios[i].Name, res.Name)
		s.False(ids[res.SessionID])
		ids[res.SessionID] = true
	}
}

func (s *S) TestRunnerFailureIsScoped() {
	r := calce2e.NewRunner(s.manager)
	r.Options = runOptions()

	scenarios := append([]calce2e.Scenario{{
		Name: "wrong", Group: "basic", Steps: []calce2e.Step{calce2e.Expect("1")},
	}}, calce2e.Builtin().Group("edge").Scenarios...)

	report, err := r.Run(context.Background(), scenarios)
	s.Require().NoError(err)

	s.False(report.Passed())
	s.Equal("3 passed, 1 failed", report.Summary())
	s.Require().Len(report.Failed(), 1)
	s.Equal("wrong", report.Failed()[0].Name)
}

func (s *S) TestRunnerAbortsWithoutBrowser() {
	b := &fakeBackend{openErr: &calce2e.Error{Code: calce2e.ErrEnvironmentUnavailable}}
	r := calce2e.NewRunner(newManager(b))
	r.Options = runOptions()
	r.Workers = 1

	report, err := r.Run(context.Background(), calce2e.Builtin().Scenarios)

	s.True(calce2e.IsError(err, calce2e.ErrEnvironmentUnavailable))
	s.False(report.Passed())
	s.Equal("0 passed, 1 failed, 17 skipped", report.Summary())
	s.True(report.Results[1].Skipped)
}

func (s *S) TestReport() {
	report := &calce2e.Report{Results: []calce2e.Result{
		{Name: "addition", Group: "basic", SessionID: "a", Passed: true, Duration: 1500 * time.Millisecond},
		{Name: "clear", Group: "functions", SessionID: "b", Err: errors.New("boom"), Duration: time.Second},
		{Name: "delete", Group: "functions", Skipped: true},
	}}

	buf := bytes.NewBuffer(nil)
	n, err := report.WriteTo(buf)
	s.Require().NoError(err)
	s.EqualValues(buf.Len(), n)
	s.Equal("PASS basic/addition (1.5s)\n"+
		"FAIL functions/clear (1s): boom\n"+
		"SKIP functions/delete\n"+
		"1 passed, 1 failed, 1 skipped\n", buf.String())

	doc, err := report.JSON()
	s.Require().NoError(err)

	obj := gjson.Parse(doc)
	s.False(obj.Get("passed").Bool())
	s.EqualValues(1, obj.Get("summary.failed").Int())
	s.EqualValues(1, obj.Get("summary.skipped").Int())
	s.Equal("addition", obj.Get("results.0.name").String())
	s.EqualValues(1500, obj.Get("results.0.durationMs").Int())
	s.False(obj.Get("results.0.error").Exists())
	s.Equal("boom", obj.Get("results.1.error").String())
	s.True(obj.Get("results.2.skipped").Bool())

	empty, err := (&calce2e.Report{}).JSON()
	s.Require().NoError(err)
	s.Equal(0, len(gjson.Get(empty, "results").Array()))
	s.True(gjson.Get(empty, "passed").Bool())
}

func logCollector(lines *[]string) func(...interface{}) {
	return func(msg ...interface{}) {
		*lines = append(*lines, fmt.Sprint(msg...))
	}
}
