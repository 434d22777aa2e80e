package buildinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }
	t.Cleanup(func() { readBuildInfo = orig })
}

func TestVersionPrefersExplicitValue(t *testing.T) {
	orig := version
	t.Cleanup(func() { version = orig })

	SetVersion("")
	assert.Equal(t, orig, version)

	SetVersion("v1.2.3")
	assert.Equal(t, "v1.2.3", Version())
}

func TestVersionFromModule(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v0.4.0"}}, true)
	assert.Equal(t, "v0.4.0", Version())

	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)
	assert.Equal(t, "dev", Version())
}

func TestRevision(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.modified", Value: "true"},
	}}, true)
	assert.Equal(t, "0123456789ab+dirty", Revision())

	withBuildInfo(t, &debug.BuildInfo{Settings: []debug.BuildSetting{
		{Key: "vcs.revision", Value: "abc123"},
	}}, true)
	assert.Equal(t, "abc123", Revision())

	withBuildInfo(t, nil, false)
	assert.Equal(t, "", Revision())
}
