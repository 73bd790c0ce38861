package cmd

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ardnew/imagemath/lang"
)

// Catalog lists builtin functions and their parameter contracts.
type Catalog struct {
	Name   []string `arg:""           help:"Builtins to show; all when omitted" name:"name" optional:""`
	Output string   `default:"table" enum:"table,json,yaml"                     help:"Output format" short:"o"`
	Indent int      `default:"2"                                                help:"Indent width for json and yaml output" short:"i"`
}

type catalogReport struct {
	Version  int             `json:"version"  yaml:"version"`
	Builtins []*lang.Builtin `json:"builtins" yaml:"builtins"`
}

// Run executes the catalog command.
func (c *Catalog) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	builtins, err := c.selected()
	if err != nil {
		return err
	}

	w := stdout(ctx)
	report := catalogReport{Version: lang.CatalogVersion, Builtins: builtins}

	switch c.Output {
	case "json":
		err = lang.WriteJSON(w, report, c.Indent)
	case "yaml":
		err = lang.WriteYAML(ctx, w, report, c.Indent)
	default:
		_, err = io.WriteString(w, renderCatalog(w, builtins)+"\n")
	}

	if err != nil {
		return ErrWriteOutput.With(slog.String("format", c.Output)).Wrap(err)
	}

	return nil
}

func (c *Catalog) selected() ([]*lang.Builtin, error) {
	if len(c.Name) == 0 {
		var all []*lang.Builtin
		for b := range lang.Builtins() {
			all = append(all, b)
		}

		return all, nil
	}

	out := make([]*lang.Builtin, 0, len(c.Name))

	for _, name := range c.Name {
		b, err := lang.Lookup(name)
		if err != nil {
			return nil, ErrUnknownBuiltin.With(slog.String("name", name)).Wrap(err)
		}

		out = append(out, b)
	}

	return out, nil
}

func renderCatalog(w io.Writer, builtins []*lang.Builtin) string {
	r := lipgloss.NewRenderer(w)

	var (
		header = r.NewStyle().Bold(true).Padding(0, 1)
		cell   = r.NewStyle().Padding(0, 1)
		effect = cell.Foreground(lipgloss.Color("3"))
		check  = cell.Foreground(lipgloss.Color("8"))
	)

	rows := make([][]string, len(builtins))

	for i, b := range builtins {
		flags := ""
		if b.SideEffect {
			flags = "side effect"
		}

		rows[i] = []string{b.Signature(), b.Description, flags, b.Check}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("SIGNATURE", "DESCRIPTION", "EFFECT", "CHECK").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 2:
				return effect
			case col == 3:
				return check
			default:
				return cell
			}
		})

	return strings.TrimRight(t.String(), "\n")
}
