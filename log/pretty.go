package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	key, str, num, yes, no, dur, when, none lipgloss.Style

	level map[Level]lipgloss.Style
}

// makePalette binds styles to a renderer for w so that color is dropped when
// w is not a terminal.
func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		yes:  fg("2"),
		no:   fg("1"),
		dur:  fg("5"),
		when: fg("4"),
		none: fg("8"),
		level: map[Level]lipgloss.Style{
			LevelTrace: fg("8"),
			LevelDebug: fg("4"),
			LevelInfo:  fg("2"),
			LevelWarn:  fg("3").Bold(true),
			LevelError: fg("1").Bold(true),
		},
	}
}

func (p palette) forLevel(l Level) lipgloss.Style {
	best := LevelTrace

	for named := range p.level {
		if l >= named && named > best {
			best = named
		}
	}

	return p.level[best]
}

// prettyHandler writes colorized records either as key=value pairs on one
// line or as an indented JSON-like object.
type prettyHandler struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	palette    palette
	mu         *sync.Mutex
	w          io.Writer
	multiline  bool

	prefix string // dotted group path
	attrs  []slog.Attr
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyHandler {
	return &prettyHandler{
		opts:       *opts,
		formatTime: formatTime,
		palette:    makePalette(w),
		mu:         &sync.Mutex{},
		w:          w,
	}
}

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyHandler {
	h := newPrettyTextHandler(w, opts, formatTime)
	h.multiline = true

	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)

	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		buf   bytes.Buffer
		count int
	)

	field := func(key, val string) {
		switch {
		case h.multiline && count == 0:
			buf.WriteString("{\n  ")
		case h.multiline:
			buf.WriteString(",\n  ")
		case count > 0:
			buf.WriteByte(' ')
		}

		count++

		buf.WriteString(h.palette.key.Render(key))

		if h.multiline {
			buf.WriteString(": ")
		} else {
			buf.WriteByte('=')
		}

		buf.WriteString(val)
	}

	if !r.Time.IsZero() && h.formatTime != nil {
		if ts := h.formatTime(r.Time); ts != "" {
			field(slog.TimeKey, h.palette.when.Render(ts))
		}
	}

	level := Level(r.Level)
	field(slog.LevelKey,
		h.palette.forLevel(level).Render(strings.ToUpper(level.String())))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			field(slog.SourceKey,
				h.palette.str.Render(fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	field(slog.MessageKey, h.palette.str.Render(r.Message))

	for _, a := range h.attrs {
		h.flatten(field, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.flatten(field, h.prefix, a)

		return true
	})

	if h.multiline {
		buf.WriteString("\n}")
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) flatten(field func(k, v string), prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := prefix
		if a.Key != "" {
			sub += a.Key + "."
		}

		for _, g := range a.Value.Group() {
			h.flatten(field, sub, g)
		}

		return
	}

	field(prefix+a.Key, h.render(a.Value))
}

func (h *prettyHandler) render(v slog.Value) string {
	p := h.palette

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(v.String())
	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")
	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())
	case slog.KindTime:
		return p.when.Render(v.Time().String())
	case slog.KindAny:
		switch a := v.Any().(type) {
		case nil:
			return p.none.Render("null")
		case slog.Level:
			return p.forLevel(Level(a)).Render(strings.ToUpper(Level(a).String()))
		case error:
			return p.no.Render(a.Error())
		}
	}

	return p.str.Render(v.String())
}
