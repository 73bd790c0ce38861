package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
)

// ScriptExt is the file extension tried when resolving a script name
// against the search path.
const ScriptExt = ".math"

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdout returns the writer commands print results to.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

type searchPathKey struct{}

// WithSearchPath returns a new context.Context carrying the directories
// searched, in order, for scripts named on the command line.
func WithSearchPath(ctx context.Context, dirs []string) context.Context {
	return context.WithValue(ctx, searchPathKey{}, dirs)
}

func searchPathFrom(ctx context.Context) []string {
	dirs, _ := ctx.Value(searchPathKey{}).([]string)

	return dirs
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// resolveScript returns the path of the script called name. A name that
// exists as given is used directly; otherwise each search path directory
// is tried with name and name+[ScriptExt].
func resolveScript(ctx context.Context, name string) (string, error) {
	if isFile(name) {
		return name, nil
	}

	if !filepath.IsAbs(name) {
		for _, dir := range searchPathFrom(ctx) {
			for _, cand := range []string{name, name + ScriptExt} {
				if p := filepath.Join(dir, cand); isFile(p) {
					return p, nil
				}
			}
		}
	}

	return "", ErrScriptNotFound.With(
		slog.String("name", name),
		slog.Any("path", searchPathFrom(ctx)),
	)
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// openSource opens the script called name, or stdin for "-".
func openSource(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == stdinSource || name == "" {
		return io.NopCloser(os.Stdin), nil
	}

	path, err := resolveScript(ctx, name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, ErrOpenSource.With(slog.String("file", path)).Wrap(err)
	}

	return file, nil
}

// library is an opened library script.
type library struct {
	path string
	io.ReadCloser
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// openLibraries resolves and opens each named library in order. The same
// file reached through different names (relative and absolute paths,
// symlinks, search path hits) is opened once.
func openLibraries(ctx context.Context, names []string) ([]library, error) {
	var (
		libs []library
		seen = make(map[fileKey]struct{})
	)

	closeAll := func() {
		for _, l := range libs {
			l.Close()
		}
	}

	for _, name := range names {
		path, err := resolveScript(ctx, name)
		if err != nil {
			closeAll()

			return nil, ErrLibrary.Wrap(err)
		}

		lib, ok, err := openUniqueFile(path, seen)
		if err != nil {
			closeAll()

			return nil, ErrLibrary.With(slog.String("file", path)).Wrap(err)
		}

		if ok {
			libs = append(libs, lib)
		}
	}

	return libs, nil
}

// openUniqueFile opens the file at path if it hasn't been seen before.
// It resolves symlinks and uses device/inode to detect duplicates.
// A duplicate is reported with ok false and no error.
func openUniqueFile(path string, seen map[fileKey]struct{}) (library, bool, error) {
	// Resolve to absolute path to handle relative path duplicates.
	absPath, err := filepath.Abs(path)
	if err != nil {
		return library{}, false, err
	}

	// Resolve symlinks to their target.
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return library{}, false, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return library{}, false, err
	}

	if key, ok := makeFileKey(info); ok {
		if _, exists := seen[key]; exists {
			return library{}, false, nil
		}

		seen[key] = struct{}{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return library{}, false, err
	}

	return library{path: resolved, ReadCloser: file}, true, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
