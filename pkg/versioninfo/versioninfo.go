// Package versioninfo reports how the running binary was built.
package versioninfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Tag and Commit are set with -ldflags "-X ...".
var (
	Tag    string
	Commit string
)

var reportedSettings = []string{
	"-compiler",
	"GOARCH",
	"GOOS",
	"GOAMD64",
	"vcs",
	"vcs.revision",
	"vcs.time",
	"vcs.modified",
}

type Info struct {
	Tag       string
	Commit    string
	GoVersion string
	Settings  []debug.BuildSetting
}

// Get collects the linker-provided tag/commit and the interesting build
// settings. ok is false when the binary carries no build info.
func Get() (info Info, ok bool) {
	info.Tag = Tag
	info.Commit = Commit
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info, false
	}
	info.GoVersion = bi.GoVersion
	info.Settings = filterSettings(bi.Settings)
	if info.Commit == "" {
		info.Commit = setting(info.Settings, "vcs.revision")
	}
	return info, true
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "solcandy built from tag/branch %q (commit: %s)", i.Tag, i.Commit)
	if i.GoVersion != "" {
		fmt.Fprintf(&b, "\n  goversion=%s", i.GoVersion)
	}
	for _, s := range i.Settings {
		fmt.Fprintf(&b, "\n  %s=%s", s.Key, s.Value)
	}
	return b.String()
}

func filterSettings(all []debug.BuildSetting) []debug.BuildSetting {
	filtered := []debug.BuildSetting{}
	for _, s := range all {
		if isAnyOf(s.Key, reportedSettings...) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func setting(settings []debug.BuildSetting, key string) string {
	for _, s := range settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func isAnyOf(s string, anyOf ...string) bool {
	for _, v := range anyOf {
		if s == v {
			return true
		}
	}
	return false
}
