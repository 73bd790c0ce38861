package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/imagemath/lang"
)

// Fmt parses a script and prints it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as script syntax (default)."`
	Tokens Tokens `cmd:""                    help:"List the tokens of each line."`
	AST    AST    `cmd:""                    help:"Format as an indented syntax tree."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
}

// Input is the script argument shared by the fmt subcommands.
type Input struct {
	Source string `arg:"" default:"-" help:"Script file, name on the search path, or '-' for stdin." name:"source"`
}

func (s *Input) read(ctx context.Context) ([]byte, error) {
	r, err := openSource(ctx, s.Source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, lang.ErrReadInput.Wrap(err)
	}

	return data, nil
}

func (s *Input) parse(ctx context.Context, format string) (*lang.Script, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	script, err := lang.ParseScript(string(data))
	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("format", format))
	}

	return script, nil
}

// Native formats input as script syntax.
type Native struct {
	Input `embed:""`
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	script, err := f.parse(ctx, "native")
	if err != nil {
		return err
	}

	return lang.Format(stdout(ctx), script)
}

// Tokens lists the tokens of the input.
type Tokens struct {
	Input `embed:""`
}

// Run executes the tokens command.
func (f *Tokens) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	data, err := f.read(ctx)
	if err != nil {
		return err
	}

	tokens, err := lang.TokenizeScript(string(data))
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", "tokens"))
	}

	return lang.FormatTokens(stdout(ctx), tokens)
}

// AST formats input as an indented syntax tree.
type AST struct {
	Indent int `default:"2" help:"Indent width" short:"i"`

	Input `embed:""`
}

// Run executes the ast command.
func (f *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	script, err := f.parse(ctx, "ast")
	if err != nil {
		return err
	}

	return lang.FormatTree(stdout(ctx), script, f.Indent)
}

// JSON formats input as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Input `embed:""`
}

// Run executes the json command.
func (f *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	script, err := f.parse(ctx, "json")
	if err != nil {
		return err
	}

	return lang.FormatJSON(stdout(ctx), script, f.Indent)
}

// YAML formats input as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output; 0 selects flow style" short:"i"`

	Input `embed:""`
}

// Run executes the yaml command.
func (f *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	script, err := f.parse(ctx, "yaml")
	if err != nil {
		return err
	}

	return lang.FormatYAML(ctx, stdout(ctx), script, f.Indent)
}
