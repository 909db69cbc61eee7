// The calc-e2e command runs the calculator scenarios against a real browser.
// It exits with 0 when every scenario passes, 1 when any fails,
// 2 when the run can't start, such as a bad flag, a bad catalog, or no usable browser.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"

	"github.com/go-rod/calce2e"
	"github.com/go-rod/calce2e/lib/defaults"
	"github.com/go-rod/calce2e/lib/fixture"
	"github.com/go-rod/calce2e/lib/pwdriver"
	"github.com/go-rod/calce2e/lib/utils"
)

const (
	exitPassed = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("calc-e2e", flag.ContinueOnError)
	fs.SetOutput(stderr)

	show := fs.Bool("show-browser", defaults.Show, "show the browser window")
	url := fs.String("url", defaults.URL, "url of the calculator")
	backend := fs.String("backend", defaults.Backend, "automation backend, cdp or playwright")
	timeout := fs.Duration("timeout", defaults.Timeout, "bound of each page load and step")
	launchTimeout := fs.Duration("launch-timeout", defaults.LaunchTimeout, "bound of each browser launch")
	workers := fs.Int("workers", defaults.Workers, "max scenarios that run at the same time")
	pattern := fs.String("run", "", "only run the scenarios whose names match the regexp")
	catalogPath := fs.String("catalog", "", "yaml file of the scenarios, default is the built-in catalog")
	asJSON := fs.Bool("json", false, "print the report as json")
	serve := fs.Bool("serve", false, "serve the reference calculator in-process and test it")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitPassed
		}
		return exitConfig
	}

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	if *pattern != "" {
		reg, err := regexp.Compile(*pattern)
		if err != nil {
			fmt.Fprintln(stderr, "bad -run:", err)
			return exitConfig
		}
		catalog = catalog.Filter(reg)
	}
	if len(catalog.Scenarios) == 0 {
		fmt.Fprintln(stderr, "no scenario to run")
		return exitConfig
	}

	b, err := newBackend(*backend)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	if *serve {
		srv, err := fixture.Serve("")
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitConfig
		}
		defer func() { _ = srv.Close() }()
		*url = srv.URL
	}

	m := calce2e.NewManager(b)
	defer func() {
		if err := m.Close(); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}()

	r := calce2e.NewRunner(m)
	r.Workers = *workers
	r.Options = calce2e.RunOptions{
		URL:           *url,
		Headless:      !*show,
		Timeout:       *timeout,
		LaunchTimeout: *launchTimeout,
	}
	if !*asJSON {
		r.Logger = utils.Log(func(msg ...interface{}) {
			fmt.Fprintln(stdout, msg...)
		})
	}

	report, err := r.Run(ctx, catalog.Scenarios)

	if *asJSON {
		doc, jsonErr := report.JSON()
		if jsonErr != nil {
			fmt.Fprintln(stderr, jsonErr)
			return exitFailed
		}
		fmt.Fprintln(stdout, doc)
	} else {
		fmt.Fprintln(stdout, report.Summary())
	}

	if calce2e.IsError(err, calce2e.ErrEnvironmentUnavailable) {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	if err != nil || !report.Passed() {
		return exitFailed
	}
	return exitPassed
}

func loadCatalog(path string) (*calce2e.Catalog, error) {
	if path == "" {
		return calce2e.Builtin(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return calce2e.LoadCatalog(f)
}

func newBackend(name string) (calce2e.Backend, error) {
	switch name {
	case "", "cdp":
		return calce2e.NewChrome(), nil
	case "playwright":
		return pwdriver.New(), nil
	}
	return nil, fmt.Errorf("unknown backend %q, use cdp or playwright", name)
}
