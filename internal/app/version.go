package app

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/tejashwikalptaru/songscope/internal/app.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildTime = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	GitCommit string
	GitTag    string
	BuildTime string
}

// GetVersionInfo reports the ldflags values. For plain `go install` builds
// the module version and VCS stamps embedded by the toolchain fill the gaps.
func GetVersionInfo() VersionInfo {
	v := VersionInfo{Version: Version, GitCommit: GitCommit, GitTag: GitTag, BuildTime: BuildTime}
	if bi, ok := debug.ReadBuildInfo(); ok {
		v.fillFromBuildInfo(bi)
	}
	return v
}

func (v *VersionInfo) fillFromBuildInfo(bi *debug.BuildInfo) {
	if v.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && v.GitCommit == "unknown":
			v.GitCommit = s.Value
		case s.Key == "vcs.time" && v.BuildTime == "unknown":
			v.BuildTime = s.Value
		}
	}
}

// Display is the short form shown in the window title and About dialog.
func (v VersionInfo) Display() string {
	if v.GitTag != "" {
		return v.GitTag
	}
	return v.Version
}

// FullString is logged at startup and printed by --version.
func (v VersionInfo) FullString() string {
	return fmt.Sprintf("SongScope %s (commit: %s, built: %s)", v.Display(), v.GitCommit, v.BuildTime)
}
