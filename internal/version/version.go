package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Build-time variables injected via -ldflags:
//
//	-X github.com/tbckr/dnsbench/internal/version.Version=1.0.0
//	-X github.com/tbckr/dnsbench/internal/version.Commit=abc1234
//	-X github.com/tbckr/dnsbench/internal/version.Date=2024-01-01
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const shortRevisionLen = 7

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyBuildInfo(bi)
	}
}

// Info is the JSON shape printed by `dnsbench version --output=json`.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the effective build metadata.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String renders the one-line human form used by the version command.
func (i Info) String() string {
	return fmt.Sprintf("dnsbench version %s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}

// applyBuildInfo fills package vars from bi only where ldflags left the
// placeholder value. ldflags always win.
func applyBuildInfo(bi *debug.BuildInfo) {
	if Version == "dev" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			Version = strings.TrimPrefix(v, "v")
		}
	}

	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}

	if rev := settings["vcs.revision"]; Commit == "none" && rev != "" {
		if len(rev) > shortRevisionLen {
			rev = rev[:shortRevisionLen]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	if t := settings["vcs.time"]; Date == "unknown" && t != "" {
		Date = t
	}
}
