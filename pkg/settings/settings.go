// Package settings holds build metadata and per-run options shared by the
// colkit CLI and its packages.
package settings

// CliBinaryName is the canonical binary name.
const CliBinaryName = "colkit"

// DefaultNamespace prefixes storage keys when no namespace is configured.
const DefaultNamespace = "colkit"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds the commit hash, version and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the options of a single CLI invocation.
type Run struct {
	MinLogLevel int8
	Namespace   string
	Table       string
	IsQuiet     bool
	NoColor     bool
	ExitOnError bool
}

// NewCliParams returns the defaults for a CLI run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Namespace:   DefaultNamespace,
		ExitOnError: true,
	}
}

// Persistent reports whether the run has a table identity to persist under.
func (r *Run) Persistent() bool {
	return r != nil && r.Table != ""
}
