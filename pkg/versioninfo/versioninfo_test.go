package versioninfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSettings(t *testing.T) {
	got := filterSettings([]debug.BuildSetting{
		{Key: "GOOS", Value: "linux"},
		{Key: "CGO_ENABLED", Value: "1"},
		{Key: "vcs.revision", Value: "abc123"},
		{Key: "-ldflags", Value: "-s -w"},
	})
	assert.Equal(t, []debug.BuildSetting{
		{Key: "GOOS", Value: "linux"},
		{Key: "vcs.revision", Value: "abc123"},
	}, got)
	assert.Equal(t, "abc123", setting(got, "vcs.revision"))
	assert.Equal(t, "", setting(got, "vcs.time"))
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Tag:       "v0.3.0",
		Commit:    "abc123",
		GoVersion: "go1.19.9",
		Settings:  []debug.BuildSetting{{Key: "GOARCH", Value: "amd64"}},
	}
	assert.Equal(t,
		"solcandy built from tag/branch \"v0.3.0\" (commit: abc123)\n  goversion=go1.19.9\n  GOARCH=amd64",
		info.String())
}

func TestGet(t *testing.T) {
	info, ok := Get()
	// Test binaries always embed build info.
	require.True(t, ok)
	assert.NotEmpty(t, info.GoVersion)
}
