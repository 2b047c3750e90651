// Package version reports build information for the medviz binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string    `json:"version" yaml:"version"`
	BuildDate string    `json:"build_date" yaml:"build_date"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	BuildTime time.Time `json:"build_time" yaml:"build_time"`
	Dirty     bool      `json:"dirty" yaml:"dirty"`
	Main      Module    `json:"main" yaml:"main"`
	Deps      []Module  `json:"deps" yaml:"deps"`
}

// Module represents a Go module with version information
type Module struct {
	Path    string `json:"path" yaml:"path"`
	Version string `json:"version" yaml:"version"`
}

// Info returns detailed build information
func Info() BuildInfo {
	buildTime, _ := time.Parse(time.RFC3339, BuildDate)

	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		BuildTime: buildTime,
		Dirty:     strings.HasSuffix(GitCommit, "-dirty"),
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		info.Main = Module{Path: buildInfo.Main.Path, Version: buildInfo.Main.Version}
		for _, dep := range buildInfo.Deps {
			info.Deps = append(info.Deps, Module{Path: dep.Path, Version: dep.Version})
		}
	}

	return info
}

// String returns a formatted version string
func (b BuildInfo) String() string {
	var sb strings.Builder
	sb.WriteString("medviz medical examination visualizer\n")
	fmt.Fprintf(&sb, "Version: %s", b.Version)
	if IsPreRelease(b.Version) {
		sb.WriteString(" (pre-release)")
	}
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.BuildDate != unknownValue {
		fmt.Fprintf(&sb, "Build Date: %s\n", b.BuildDate)
	}

	if b.GitCommit != unknownValue {
		commit := b.GitCommit
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		fmt.Fprintf(&sb, "Git Commit: %s\n", commit)
	}

	fmt.Fprintf(&sb, "Go Version: %s\n", b.GoVersion)

	if b.Main.Path != "" {
		fmt.Fprintf(&sb, "Module: %s\n", b.Main.Path)
	}

	return sb.String()
}

// IsRelease reports whether v is a release version (not dev, no suffix)
func IsRelease(v string) bool {
	return v != "dev" && !strings.Contains(v, "-")
}

// IsPreRelease reports whether v carries an alpha, beta or rc suffix
func IsPreRelease(v string) bool {
	return strings.Contains(v, "-alpha") ||
		strings.Contains(v, "-beta") ||
		strings.Contains(v, "-rc")
}
