package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/imagemath/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]: it writes the session as a
// script to a temporary file, opens $EDITOR on it, and reloads the session
// from the result. When the edited script fails to parse or run the user
// may edit again; declining ends the session.
type editCommand struct {
	session *session
	ctxFunc func() context.Context
	logger  log.Logger

	// reloaded is set when the session was replaced
	reloaded bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-reload-retry loop. An emptied file cancels the
// edit. It returns [ErrEditDeclined] if the user declines to retry.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "imagemath-repl-*.math")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	_, err = f.WriteString(c.session.source())
	f.Close()

	if err != nil {
		return err
	}

	in := bufio.NewScanner(c.stdin)

	for {
		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		err = c.session.reload(ctx, string(data))

		c.logger.TraceContext(ctx, "editor reload attempt",
			slog.Int("length", len(data)),
			slog.Bool("success", err == nil),
		)

		if err == nil {
			c.reloaded = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\nerror: %s\n", err)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !in.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(in.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs $EDITOR (or vi) on path and waits for it to exit.
func runEditor(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	// EDITOR may carry arguments, e.g. "code --wait"
	args := append(strings.Fields(editor), path)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
