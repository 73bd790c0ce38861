package cli

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/ardnew/imagemath/cli/cmd"
	"github.com/ardnew/imagemath/log"
	"github.com/ardnew/imagemath/pkg"
)

// CLI is the top-level command-line interface for imagemath.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Path []string `help:"Directory searched for scripts and libraries (repeatable)" short:"P" type:"path"`

	Eval    cmd.Eval    `cmd:"" default:"withargs" help:"Evaluate a script"`
	Fmt     cmd.Fmt     `cmd:""                    help:"Format a script"`
	Catalog cmd.Catalog `cmd:""                    help:"List builtin operations"`
	Repl    cmd.Repl    `cmd:""                    help:"Start an interactive session"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`

	Version kong.VersionFlag `help:"Print version and exit"`
}

// Run executes the imagemath CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"version":            pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// logger flags apply before parsing regardless of their position
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSearchPath(ctx, searchPath(cli.Path))

	log.TraceContext(ctx, "command",
		slog.String("name", ktx.Command()),
		slog.String("config", configFilePath),
	)

	// no-op unless built with the pprof tag and a mode was selected
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
