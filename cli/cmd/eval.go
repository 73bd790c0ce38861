package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/imagemath/lang"
	"github.com/ardnew/imagemath/log"
	"github.com/ardnew/imagemath/plan"
)

// Eval runs a script against the planner and prints its outputs.
type Eval struct {
	Source  string            `arg:"" default:"-"                      help:"Script file, name on the search path, or '-' for stdin" name:"source"`
	Lib     []string          `help:"Library script providing user functions (repeatable)"                                          short:"l"`
	Set     map[string]string `help:"Bind a variable to the value of an expression before the script runs"                          short:"s" mapsep:";"`
	Context map[string]string `help:"Default for omitted optional parameters, as param=value or builtin.param=value"               short:"c" mapsep:";"`
	Output  string            `default:"native" enum:"native,json,yaml"                                                             help:"Output format"  short:"o"`
	Indent  int               `default:"2"                                                                                          help:"Indent width for json and yaml output" short:"i"`
}

// evalReport is the structured form of an evaluation printed by the json
// and yaml output formats.
type evalReport struct {
	Outputs map[string]any `json:"outputs"           yaml:"outputs"`
	Shifts  []float64      `json:"shifts"            yaml:"shifts"`
	Workdir string         `json:"workdir,omitempty" yaml:"workdir,omitempty"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	script, err := e.parse(ctx)
	if err != nil {
		return err
	}

	functions, err := loadLibraries(ctx, e.Lib)
	if err != nil {
		return err
	}

	var shifts lang.ShiftLog

	planner := plan.New(plan.WithLogger(log.Default()))

	ev := lang.NewEvaluator(planner,
		lang.WithLogger(log.Default()),
		lang.WithFunctions(functions),
		lang.WithExecContext(lang.ExecContext{
			Table:  parseTable(e.Context),
			Shifts: shifts.Record,
		}),
	)

	if err := bindAll(ctx, ev, e.Set); err != nil {
		return err
	}

	res, err := ev.Run(ctx, script)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "eval"))
	}

	log.DebugContext(ctx, "evaluated",
		slog.String("source", e.Source),
		slog.Int("outputs", len(res.Outputs)),
		slog.Any("calls", planner.Calls()),
	)

	report := evalReport{
		Outputs: res.Values(),
		Shifts:  shifts.Distinct(),
		Workdir: planner.Workdir(),
	}

	return e.write(ctx, stdout(ctx), res, report)
}

func (e *Eval) parse(ctx context.Context) (*lang.Script, error) {
	src, err := openSource(ctx, e.Source)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	script, err := lang.ParseReader(ctx, src)
	if err != nil {
		return nil, lang.WrapError(err).
			With(slog.String("command", "eval"), slog.String("source", e.Source))
	}

	return script, nil
}

func (e *Eval) write(ctx context.Context, w io.Writer, res *lang.Result, report evalReport) error {
	var err error

	switch e.Output {
	case "json":
		report.Outputs = nativeValues(report.Outputs)
		err = lang.WriteJSON(w, report, e.Indent)

	case "yaml":
		report.Outputs = nativeValues(report.Outputs)
		err = lang.WriteYAML(ctx, w, report, e.Indent)

	default:
		err = writeNative(w, res, report)
	}

	if err != nil {
		return ErrWriteOutput.With(slog.String("format", e.Output)).Wrap(err)
	}

	return nil
}

func writeNative(w io.Writer, res *lang.Result, report evalReport) error {
	names := res.Outputs
	if len(names) == 0 {
		names = slices.Sorted(maps.Keys(report.Outputs))
	}

	var sb strings.Builder

	for _, name := range names {
		fmt.Fprintf(&sb, "%s = %s\n", name, plan.Format(report.Outputs[name]))
	}

	if len(report.Shifts) > 0 {
		shifts := make([]string, len(report.Shifts))
		for i, s := range report.Shifts {
			shifts[i] = plan.Format(s)
		}

		fmt.Fprintf(&sb, "# shifts: %s\n", strings.Join(shifts, ", "))
	}

	if report.Workdir != "" {
		fmt.Fprintf(&sb, "# workdir: %s\n", report.Workdir)
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

func nativeValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = plan.Native(v)
	}

	return out
}

// loadLibraries parses each library and merges the user functions they
// define. Later libraries win on name clashes.
func loadLibraries(ctx context.Context, names []string) (*lang.FunctionSet, error) {
	libs, err := openLibraries(ctx, names)
	if err != nil {
		return nil, err
	}

	defer func() {
		for _, l := range libs {
			l.Close()
		}
	}()

	var set *lang.FunctionSet

	for _, l := range libs {
		s, err := lang.ParseReader(ctx, l)
		if err != nil {
			return nil, ErrLibrary.With(slog.String("file", l.path)).Wrap(err)
		}

		log.TraceContext(ctx, "library loaded",
			slog.String("file", l.path),
			slog.Int("functions", s.Functions().Len()),
		)

		set = set.Merge(s.Functions())
	}

	return set, nil
}

// bindAll evaluates each binding expression in name order and binds the
// result.
func bindAll(ctx context.Context, ev *lang.Evaluator, bindings map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(bindings)) {
		if _, err := ev.EvaluateString(ctx, name+" = "+bindings[name]); err != nil {
			return ErrBinding.With(slog.String("name", name)).Wrap(err)
		}
	}

	return nil
}

// parseTable converts context flag values to numbers where they parse as
// one.
func parseTable(values map[string]string) map[string]any {
	if len(values) == 0 {
		return nil
	}

	table := make(map[string]any, len(values))

	for k, v := range values {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			table[k] = f
		} else {
			table[k] = v
		}
	}

	return table
}
