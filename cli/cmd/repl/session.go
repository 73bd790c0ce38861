package repl

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/imagemath/lang"
	"github.com/ardnew/imagemath/log"
	"github.com/ardnew/imagemath/plan"
)

// sessionSection is the section header given to lines entered at the
// prompt when the session is written out for editing.
const sessionSection = "session"

// session is the evaluation state behind the prompt: one evaluator whose
// variables and user functions persist across lines.
type session struct {
	dispatcher lang.Dispatcher
	logger     log.Logger

	ev     *lang.Evaluator
	shifts *lang.ShiftLog
	base   *lang.FunctionSet
	script *lang.Script
	lines  []string
}

func newSession(ctx context.Context, cfg Config) (*session, error) {
	s := &session{
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
		base:       cfg.Functions,
	}

	if err := s.load(ctx, cfg.Script, nil); err != nil {
		return nil, err
	}

	return s, nil
}

// load replaces the evaluator with a fresh one, runs script, and then
// replays lines.
func (s *session) load(ctx context.Context, script *lang.Script, lines []string) error {
	shifts := &lang.ShiftLog{}

	ev := lang.NewEvaluator(s.dispatcher,
		lang.WithLogger(s.logger),
		lang.WithFunctions(s.base),
		lang.WithExecContext(lang.ExecContext{Shifts: shifts.Record}),
	)

	if script != nil {
		if _, err := ev.Run(ctx, script); err != nil {
			return err
		}
	}

	for _, line := range lines {
		if _, err := ev.EvaluateString(ctx, line); err != nil {
			return lang.WrapError(err).With(slog.String("line", line))
		}
	}

	s.ev, s.shifts, s.script, s.lines = ev, shifts, script, lines

	return nil
}

// eval evaluates one line and returns its formatted value. Successful
// lines are kept for [session.source].
func (s *session) eval(ctx context.Context, line string) (string, error) {
	v, err := s.ev.EvaluateString(ctx, line)
	if err != nil {
		return "", err
	}

	s.lines = append(s.lines, line)

	return plan.Format(v), nil
}

func (s *session) variables() []string {
	return slices.Sorted(maps.Keys(s.ev.Variables()))
}

func (s *session) functions() []*lang.UserFunction {
	return slices.Collect(s.ev.Functions().All())
}

func (s *session) listVariables() string {
	vars := s.ev.Variables()

	var b strings.Builder

	for _, name := range s.variables() {
		fmt.Fprintf(&b, "  %s = %s\n", name, plan.Format(vars[name]))
	}

	return b.String()
}

func (s *session) listFunctions() string {
	var b strings.Builder

	for _, fn := range s.functions() {
		fmt.Fprintf(&b, "  %s\n", fn.Signature())
	}

	return b.String()
}

// listShifts returns the distinct pixel shifts requested so far.
func (s *session) listShifts() string {
	var parts []string
	for _, f := range s.shifts.Distinct() {
		parts = append(parts, plan.Format(f))
	}

	return "  " + strings.Join(parts, ", ") + "\n"
}

// source renders the session as a script: the startup script, then the
// lines entered so far in a [session] section.
func (s *session) source() string {
	var b strings.Builder

	if s.script != nil {
		b.WriteString(s.script.String())
	}

	if len(s.lines) > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}

		b.WriteString("[" + sessionSection + "]\n")

		for _, line := range s.lines {
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

// reload replaces the session with the script in src. The session is
// unchanged when src fails to parse or run.
func (s *session) reload(ctx context.Context, src string) error {
	script, err := lang.ParseScript(src)
	if err != nil {
		return err
	}

	return s.load(ctx, script, nil)
}
