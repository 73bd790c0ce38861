package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
)

// testCLI mounts the commands the way the root CLI does.
type testCLI struct {
	Path []string `short:"P"`

	Eval    Eval    `cmd:"" default:"withargs"`
	Fmt     Fmt     `cmd:""`
	Catalog Catalog `cmd:""`
	Init    Init    `cmd:""`
}

// execute parses args and runs the selected command, returning what the
// command wrote to stdout.
func execute(t *testing.T, vars kong.Vars, args ...string) (string, error) {
	t.Helper()

	var (
		cli testCLI
		out bytes.Buffer
		ctx = t.Context()
	)

	if vars == nil {
		vars = kong.Vars{}
	}

	parser, err := kong.New(&cli,
		kong.Writers(&out, &out),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d: %s", code, out.String()) }),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		vars,
	)
	if err != nil {
		t.Fatalf("kong: %v", err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}

	ctx = WithContext(ctx, ktx)
	ctx = WithSearchPath(ctx, cli.Path)

	err = ktx.Run()

	return out.String(), err
}

// writeFile creates dir/name with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}
