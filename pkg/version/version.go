// Package version carries build metadata stamped in via -ldflags.
package version

import "runtime/debug"

// Build metadata, set with -ldflags "-X github.com/Sumatoshi-tech/todoscope/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const shortCommitLen = 7

// InitBinaryVersion fills unset metadata from the module build info,
// so `go install` builds still report a version and VCS revision.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" && setting.Value != "" {
				Commit = setting.Value[:min(shortCommitLen, len(setting.Value))]
			}
		case "vcs.time":
			if Date == "unknown" && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}

// String formats the metadata for `todoscope version`.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
