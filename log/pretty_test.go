package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// Output to a bytes.Buffer is not a terminal, so the renderer emits no
// escape sequences and the layout can be compared directly.

func TestPrettyText_Layout(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithTimeLayout("none"), WithFormat(FormatText))
	logger.Info("evaluated",
		slog.Float64("value", 14),
		slog.Bool("ok", true),
		slog.Any("err", errors.New("boom")),
	)

	expected := "level=INFO msg=evaluated value=14 ok=true err=boom\n"
	if got := buf.String(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestPrettyText_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithTimeLayout("none"), WithFormat(FormatText))
	logger := slog.New(base.Handler().WithGroup("eval").WithAttrs(
		[]slog.Attr{slog.String("section", "outputs")},
	))

	logger.Info("call", slog.Group("args", slog.Int("n", 2)))

	output := buf.String()
	for _, want := range []string{"eval.section=outputs", "eval.args.n=2"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got %q", want, output)
		}
	}
}

func TestPrettyJSON_Multiline(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithTimeLayout("none"), WithFormat(FormatJSON))
	logger.Warn("shift", slog.Float64("pixels", -1.5))

	expected := "{\n  level: WARN,\n  msg: shift,\n  pixels: -1.5\n}\n"
	if got := buf.String(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
