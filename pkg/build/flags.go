// SPDX-License-Identifier: MIT
//
// Package build carries build metadata (name, version, commit, timestamp)
// injected at compile time via -ldflags, e.g.:
//
//	go build -ldflags "-X vizor/pkg/build.buildVersion=0.3.0 ..."
//
// Unset flags fall back to development defaults so uninstrumented
// `go build` binaries still run.
package build

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	buildFlags = &ldFlags{
		Name:        "vizor",
		Description: "Real-time audio visualization and tempo analysis engine",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies any ldflags-provided values over the development
// defaults. Call once, early in startup, before GetBuildFlags.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information. Initialize should
// run first so ldflags overrides are applied.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
