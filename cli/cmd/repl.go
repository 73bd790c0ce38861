package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/imagemath/cli/cmd/repl"
	"github.com/ardnew/imagemath/lang"
	"github.com/ardnew/imagemath/log"
	"github.com/ardnew/imagemath/plan"
)

// Repl starts an interactive session.
type Repl struct {
	Source string   `help:"Script to run before the session starts" short:"f"`
	Lib    []string `help:"Library script providing user functions (repeatable)" short:"l"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	functions, err := loadLibraries(ctx, r.Lib)
	if err != nil {
		return err
	}

	var script *lang.Script

	if r.Source != "" {
		e := Eval{Source: r.Source}

		script, err = e.parse(ctx)
		if err != nil {
			return err
		}
	}

	cacheDir := ""
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	log.DebugContext(ctx, "repl start",
		slog.String("cache", cacheDir),
		slog.Int("functions", functions.Len()),
	)

	return repl.Run(ctx, repl.Config{
		Dispatcher: plan.New(plan.WithLogger(log.Default())),
		Functions:  functions,
		Script:     script,
		HistoryDir: cacheDir,
		Logger:     log.Default(),
	})
}
