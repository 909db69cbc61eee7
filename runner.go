package calce2e

import (
	"context"

	"github.com/go-rod/calce2e/lib/defaults"
	"github.com/go-rod/calce2e/lib/utils"
	"golang.org/x/sync/errgroup"
)

// Runner runs scenarios, each in its own session
type Runner struct {
	Manager *Manager
	Options RunOptions

	// Workers is the max number of scenarios that run at the same time,
	// when it's not greater than 1 the scenarios run one by one
	Workers int

	// Logger prints a line for each finished scenario
	Logger utils.Logger
}

// NewRunner with the defaults from lib/defaults
func NewRunner(m *Manager) *Runner {
	return &Runner{
		Manager: m,
		Options: DefaultRunOptions(),
		Workers: defaults.Workers,
		Logger:  utils.LoggerQuiet,
	}
}

// Run the scenarios. A failed scenario doesn't affect the others,
// but ErrEnvironmentUnavailable aborts the whole run and is returned,
// the scenarios that didn't get the chance to run are marked as skipped.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	results := make([]Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)

	limit := r.Workers
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, sc := range scenarios {
		i, sc := i, sc
		results[i] = Result{Name: sc.Name, Group: sc.Group, Skipped: true}

		g.Go(func() error {
			if ctx.Err() != nil {
				results[i].Err = ctx.Err()
				return nil
			}

			res := Run(ctx, r.Manager, sc, r.Options)
			results[i] = res
			r.logger().Println(resultLine(res))

			if IsError(res.Err, ErrEnvironmentUnavailable) {
				return res.Err
			}
			return nil
		})
	}

	err := g.Wait()

	return &Report{Results: results}, err
}

func (r *Runner) logger() utils.Logger {
	if r.Logger == nil {
		return utils.LoggerQuiet
	}
	return r.Logger
}
