package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/imagemath/log"
)

// scriptCache maps the xxh3 hash of a script's source to its parse.
var scriptCache sync.Map

type cacheEntry struct {
	once   sync.Once
	script *Script
	err    error
}

// ParseScript parses a script file.
//
// Blank lines and comments ("#" or "//" to end of line) are skipped.
// "[name]" opens a section and "[fun:name a b]" opens the body of a user
// function with parameters a and b. Other lines are either "name = expr"
// or a bare expression. Lines before the first header form an unnamed
// section.
//
// Parsed scripts are immutable, so the result is cached by source content
// and repeated calls with the same source return the same *Script.
func ParseScript(src string) (*Script, error) {
	s, _, err := parseScriptCached(src)

	return s, err
}

func parseScriptCached(src string) (*Script, bool, error) {
	key := xxh3.HashString(src)

	v, hit := scriptCache.LoadOrStore(key, &cacheEntry{})

	entry, _ := v.(*cacheEntry)
	entry.once.Do(func() {
		entry.script, entry.err = parseScript(src)
	})

	return entry.script, hit, entry.err
}

// ParseReader reads a whole script from r and parses it with
// [ParseScript].
func ParseReader(ctx context.Context, r io.Reader) (*Script, error) {
	// Read ahead asynchronously so large inputs stream while hashing.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	s, hit, err := parseScriptCached(string(data))

	log.TraceContext(ctx, "parse script",
		slog.Int("bytes", len(data)),
		slog.Bool("cache_hit", hit),
		slog.String("key", strconv.FormatUint(xxh3.Hash(data), 36)),
	)

	return s, err
}

// ClearCache discards all cached script parses.
func ClearCache() { scriptCache.Clear() }
