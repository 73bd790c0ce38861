package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/imagemath/log"
)

// resolve returns a [kong.ConfigurationLoader] for YAML config files.
//
// Keys name flags without their leading dashes. Nested mappings are joined
// with "-", so both of these set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Underscores may stand in for hyphens. A mapping given for a map flag
// such as --context becomes its "key=value;..." form. A file that cannot
// be decoded is logged and ignored. Command-line flags override config
// file values.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		err := yaml.NewDecoder(r).DecodeContext(ctx, &doc)
		if err != nil && err != io.EOF {
			log.WarnContext(ctx, "ignoring configuration file",
				slog.Any("error", err),
			)

			return config{}, nil
		}

		cfg := config{}
		cfg.flatten("", doc)

		return cfg, nil
	}
}

// config implements [kong.Resolver] over a flattened YAML document.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	for _, key := range []string{flag.Name, strings.ReplaceAll(flag.Name, "-", "_")} {
		if v, ok := c[key]; ok {
			return v, nil
		}
	}

	return nil, nil
}

func (c config) flatten(prefix string, doc map[string]any) {
	for k, v := range doc {
		key := k
		if prefix != "" {
			key = prefix + "-" + k
		}

		c[key] = scalar(v)

		if m, ok := v.(map[string]any); ok {
			c.flatten(key, m)
		}
	}
}

// scalar converts a decoded YAML value to the form kong parses: numbers
// become strings, sequences keep their elements, and mappings become
// "key=value" pairs joined by ";".
func scalar(v any) any {
	switch v := v.(type) {
	case int, int64, uint64:
		return fmt.Sprint(v)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = scalar(e)
		}

		return out

	case map[string]any:
		pairs := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			pairs = append(pairs, k+"="+fmt.Sprint(scalar(v[k])))
		}

		return strings.Join(pairs, ";")

	default:
		return v
	}
}
