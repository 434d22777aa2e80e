package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/offlinefirst/dragsense/pkg/permissions"
)

func TestDetectEnvironmentSetsFields(t *testing.T) {
	env := DetectEnvironment()
	assert.NotEmpty(t, env.Provider, "expected provider")
	assert.NotEmpty(t, env.Permission, "expected permission status")
	assert.NotEmpty(t, env.Message, "expected message")
}

func TestDetectEnvironmentNonDarwin(t *testing.T) {
	env := detectEnvironment("linux", permissions.ProbeResult{Status: permissions.StatusUnavailable})
	assert.Equal(t, providerUnsupported, env.Provider)
	assert.False(t, env.Available)
	assert.Equal(t, "not_applicable", env.Permission)
}

func TestDetectEnvironmentDarwinDenied(t *testing.T) {
	env := detectEnvironment("darwin", permissions.ProbeResult{Status: permissions.StatusDenied})
	assert.Equal(t, providerQuartz, env.Provider)
	assert.False(t, env.Available)
	assert.Equal(t, "denied", env.Permission)
	assert.NotEmpty(t, env.Message)
	assert.NotEmpty(t, env.Guidance)
}

func TestDetectEnvironmentDarwinPrompt(t *testing.T) {
	env := detectEnvironment("darwin", permissions.ProbeResult{Status: permissions.StatusPromptRequired, Message: "accessibility trust required"})
	assert.Equal(t, providerQuartz, env.Provider)
	assert.True(t, env.Available)
	assert.Equal(t, "prompt", env.Permission)
}
