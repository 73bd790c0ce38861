// Package cli contains the command line interface for imagemath.
//
// # Usage
//
//	imagemath [flags] [eval] <script> [--lib=FILE ...] [--set name=expr ...]
//	imagemath fmt [native|tokens|ast|json|yaml] <script>
//	imagemath catalog [name ...]
//	imagemath repl [--file=SCRIPT] [--lib=FILE ...]
//	imagemath init [--force]
//
// Scripts and libraries named without a path are looked up in the --path
// directories and then the IMAGEMATH_PATH list, trying the name as given
// and with the ".math" extension.
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory (for example ~/.config/imagemath/config.yaml). Keys are flag
// names, optionally nested on their "-" separated prefix:
//
//	log:
//	  level: debug
//	  format: json
//	path:
//	  - ~/scripts/sun
//
// "imagemath init" writes the current flag values to that file.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: output format (text, json)
//   - --log-time-layout: timestamp format (RFC3339, Kitchen, ...)
//   - --[no-]log-caller: include caller information
//   - --[no-]log-pretty: colorize output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: one of the modes listed by package profile
//   - --pprof-dir: output directory (default ~/.cache/imagemath/pprof)
package cli
