//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the imagemath module embedded at build
// time from the VERSION file.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command and module identifier. It appears in help
	// text, default config paths and the script search path variable.
	Name = "imagemath"
	// Description is a short summary of the project used in help output.
	Description = "Script engine for solar spectroheliograph image pipelines"
	// PathEnv names the environment variable holding the script search path.
	PathEnv = "IMAGEMATH_PATH"
)
