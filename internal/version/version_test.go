package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		settings map[string]string
		want     string
	}{
		{"ldflags wins", "v1.2.0", map[string]string{"main.version": "v0.9.0"}, "v1.2.0"},
		{"module version", "dev", map[string]string{"main.version": "v0.9.0"}, "v0.9.0"},
		{"revision", "dev", map[string]string{"vcs.revision": "0123456789abcdef"}, "dev-0123456"},
		{"short revision ignored", "", map[string]string{"vcs.revision": "0123"}, "dev"},
		{"nothing", "dev", map[string]string{}, "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveVersion(tt.version, tt.settings))
		})
	}
}

func TestResolveCommit(t *testing.T) {
	assert.Equal(t, "abc", resolveCommit("abc", map[string]string{"vcs.revision": "def"}))
	assert.Equal(t, "def", resolveCommit("unknown", map[string]string{"vcs.revision": "def"}))
	assert.Equal(t, "unknown", resolveCommit("", map[string]string{}))
}

func TestShort(t *testing.T) {
	assert.Equal(t, "v1.0.0 (0123456)", BuildInfo{Version: "v1.0.0", GitCommit: "0123456789"}.Short())
	assert.Equal(t, "dev-0123456", BuildInfo{Version: "dev", GitCommit: "0123456789"}.Short())
	assert.Equal(t, "v1.0.0", BuildInfo{Version: "v1.0.0", GitCommit: "unknown"}.Short())
}

func TestDetailed(t *testing.T) {
	b := BuildInfo{
		Version:   "v1.0.0",
		GitCommit: "unknown",
		BuildTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		GoVersion: "go1.24",
		Platform:  "linux/amd64",
		Release:   true,
	}
	want := "Version: v1.0.0\nBuilt: 2024-05-01T12:00:00Z\nGo: go1.24\nPlatform: linux/amd64\nBuild type: release"
	assert.Equal(t, want, b.Detailed())
}

func TestParseBuildTime(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, want, parseBuildTime("2024-05-01T12:30:00Z"))
	assert.Equal(t, want, parseBuildTime("2024-05-01 12:30:00"))
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("yesterday").IsZero())
}

func TestIsRelease(t *testing.T) {
	assert.True(t, isRelease("v1.0.0"))
	assert.False(t, isRelease("dev"))
	assert.False(t, isRelease("dev-0123456"))
}
