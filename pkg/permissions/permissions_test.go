package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLookup map[string]string

func (f fakeLookup) get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

func TestInterpretPermissionFlag(t *testing.T) {
	cases := map[string]struct {
		value    string
		expected Status
	}{
		"granted":     {"granted", StatusGranted},
		"yes":         {" YES ", StatusGranted},
		"denied":      {"denied", StatusDenied},
		"prompt":      {"prompt", StatusPromptRequired},
		"unsupported": {"unsupported", StatusUnavailable},
		"unknown":     {"", StatusUnknown},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res := interpretPermissionFlag("test", tc.value)
			assert.Equal(t, tc.expected, res.Status)
		})
	}
}

func TestProbeAccessibilityHonoursEnv(t *testing.T) {
	res := ProbeAccessibility(fakeLookup{EnvAccessibility: "denied"}.get)
	assert.Equal(t, StatusDenied, res.Status)
	assert.NotEmpty(t, res.Guidance, "expected guidance when denied")
}

func TestProbeInputMonitoringHonoursEnv(t *testing.T) {
	res := ProbeInputMonitoring(fakeLookup{EnvInputMonitoring: "granted"}.get)
	assert.Equal(t, StatusGranted, res.Status)
}

func TestProbeDefaultsArePlatformSpecific(t *testing.T) {
	for _, res := range []ProbeResult{ProbeAccessibility(fakeLookup{}.get), ProbeInputMonitoring(fakeLookup{}.get)} {
		assert.NotEqual(t, StatusUnknown, res.Status)
		assert.NotEmpty(t, res.Message)
	}
}

func TestStatusStringDefaultsToUnknown(t *testing.T) {
	assert.Equal(t, "unknown", ProbeResult{}.StatusString())
	assert.Equal(t, "granted", ProbeResult{Status: StatusGranted}.StatusString())
}
