package lang

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

func TestParseScript_Cache(t *testing.T) {
	ClearCache()

	src := "[outputs]\nx = 1 + 2\n"

	a, hit, err := parseScriptCached(src)
	if err != nil || hit {
		t.Fatalf("expected a miss, got hit=%v err=%v", hit, err)
	}

	b, hit, err := parseScriptCached(src)
	if err != nil || !hit {
		t.Fatalf("expected a hit, got hit=%v err=%v", hit, err)
	}

	if a != b {
		t.Error("expected the cached script")
	}

	ClearCache()

	if c, _ := ParseScript(src); c == a {
		t.Error("expected a fresh parse after ClearCache")
	}
}

func TestParseScript_CachesErrors(t *testing.T) {
	ClearCache()

	_, err1 := ParseScript("x = (")
	_, err2 := ParseScript("x = (")

	if err1 == nil || !errors.Is(err2, ErrSyntax) {
		t.Errorf("expected the same syntax error twice, got %v and %v", err1, err2)
	}
}

func TestParseScript_Concurrent(t *testing.T) {
	ClearCache()

	const src = "[fun:f x]\nresult = x\n[outputs]\ny = f(1)\n"

	results := make([]*Script, 16)

	for i := range results {
		t.Run("", func(t *testing.T) {
			t.Parallel()

			results[i] = mustParseScript(t, src)
		})
	}

	t.Cleanup(func() {
		for _, s := range results[1:] {
			if s != results[0] {
				t.Error("expected one shared parse")
			}
		}
	})
}

func TestParseReader(t *testing.T) {
	s, err := ParseReader(t.Context(), strings.NewReader("[outputs]\nx = 2 * 3\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := NewEvaluator(&fakeDispatcher{}).Run(t.Context(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Values()["x"] != 6.0 {
		t.Errorf("expected 6, got %v", res.Values())
	}

	boom := errors.New("boom")

	_, err = ParseReader(t.Context(), iotest.ErrReader(boom))
	if !errors.Is(err, ErrReadInput) || !errors.Is(err, boom) {
		t.Errorf("expected ErrReadInput wrapping cause, got %v", err)
	}
}
