// Package version reports how the charsetcop binary was built.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// These variables are set at build time using -ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown" // RFC3339
)

const devVersion = "dev"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	BuildTime time.Time `json:"build_time,omitempty" yaml:"build_time,omitempty"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
	Dirty     bool      `json:"dirty" yaml:"dirty"`
	Release   bool      `json:"release" yaml:"release"`
}

// Get combines the -ldflags values with what the Go toolchain embedded.
func Get() *BuildInfo {
	info, _ := debug.ReadBuildInfo()
	return resolve(Version, GitCommit, BuildTime, info)
}

// resolve prefers explicit ldflags values and falls back to VCS settings.
func resolve(ver, commit, built string, bi *debug.BuildInfo) *BuildInfo {
	settings := map[string]string{}
	mainVersion := ""
	if bi != nil {
		for _, s := range bi.Settings {
			settings[s.Key] = s.Value
		}
		mainVersion = bi.Main.Version
	}

	if commit == "" || commit == "unknown" {
		commit = settings["vcs.revision"]
		if commit == "" {
			commit = "unknown"
		}
	}

	if ver == "" || ver == devVersion {
		switch {
		case mainVersion != "" && mainVersion != "(devel)":
			ver = mainVersion
		case len(commit) >= 7 && commit != "unknown":
			ver = devVersion + "-" + commit[:7]
		default:
			ver = devVersion
		}
	}

	buildTime := parseTime(built)
	if buildTime.IsZero() {
		buildTime = parseTime(settings["vcs.time"])
	}

	return &BuildInfo{
		Version:   ver,
		GitCommit: commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dirty:     settings["vcs.modified"] == "true",
		Release:   ver != devVersion && !strings.HasPrefix(ver, devVersion+"-"),
	}
}

// Short returns "v1.2.3 (abc1234)" or just the version when no commit is
// known.
func (b *BuildInfo) Short() string {
	if b.GitCommit == "unknown" || len(b.GitCommit) < 7 || strings.HasPrefix(b.Version, devVersion+"-") {
		return b.Version
	}

	return fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
}

// Detailed renders one "Key: value" line per known field.
func (b *BuildInfo) Detailed() string {
	lines := []string{"Version: " + b.Version}

	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		lines = append(lines, "Commit: "+commit)
	}
	if !b.BuildTime.IsZero() {
		lines = append(lines, "Built: "+b.BuildTime.UTC().Format(time.RFC3339))
	}

	lines = append(lines, "Go: "+b.GoVersion, "Platform: "+b.Platform)

	return strings.Join(lines, "\n")
}

// parseTime returns the zero time for anything that is not a timestamp.
func parseTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
