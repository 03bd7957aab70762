// Package buildinfo exposes version metadata of the running binary. Version,
// CommitHash and BuildTime can be set with -ldflags "-X"; anything left empty
// is filled from the VCS stamp the Go toolchain embeds.
package buildinfo

import (
	"runtime"
	"runtime/debug"

	"busboard/internal/models"
)

var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

// Read returns the build metadata of the running binary.
func Read() models.BuildInfo {
	info := models.BuildInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
		Commit:    CommitHash,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// ShortCommit returns the first seven characters of the commit hash, or
// "unknown".
func ShortCommit(commit string) string {
	if len(commit) < 7 {
		return "unknown"
	}
	return commit[:7]
}
