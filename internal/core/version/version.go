// Package version reports build metadata for the trendflow binaries
package version

import (
	"runtime/debug"
	"sync"
)

// BuildInfo holds version information about the build
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

// set via -ldflags "-X trendflow/internal/core/version.version=v0.3.0 -X ...commit=abcd -X ...date=2025-09-02"
var (
	version = "dev"
	commit  = ""
	date    = ""
)

var info = sync.OnceValue(func() BuildInfo {
	bi := BuildInfo{Version: version, Commit: commit, Date: date}
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return fill(bi)
	}
	bi.GoVersion = b.GoVersion
	for _, s := range b.Settings {
		switch s.Key {
		case "vcs.revision":
			if bi.Commit == "" {
				bi.Commit = s.Value
			}
		case "vcs.time":
			if bi.Date == "" {
				bi.Date = s.Value
			}
		case "vcs.modified":
			bi.Modified = s.Value == "true"
		}
	}
	return fill(bi)
})

func fill(bi BuildInfo) BuildInfo {
	if bi.Commit == "" {
		bi.Commit = "none"
	}
	if bi.Date == "" {
		bi.Date = "unknown"
	}
	return bi
}

// Info returns the build information, ldflags win over vcs stamps
func Info() BuildInfo { return info() }

// String renders the info on one line for --version output
func (b BuildInfo) String() string {
	s := b.Version + " (" + short(b.Commit)
	if b.Modified {
		s += "+dirty"
	}
	return s + ", " + b.Date + ")"
}

func short(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
