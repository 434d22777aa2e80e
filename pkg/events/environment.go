package events

import (
	"runtime"

	"github.com/offlinefirst/dragsense/pkg/permissions"
)

// Environment summarises event tap backend support.
type Environment struct {
	Provider   string
	Available  bool
	Permission string
	Message    string
	Guidance   string
}

const (
	providerQuartz      = "quartz_event_tap"
	providerUnsupported = "unsupported"
)

// DetectEnvironment reports whether a live drag event tap can be installed.
func DetectEnvironment() Environment {
	return detectEnvironment(runtime.GOOS, permissions.ProbeAccessibility(nil))
}

func detectEnvironment(goos string, accessibility permissions.ProbeResult) Environment {
	env := Environment{
		Provider:   providerUnsupported,
		Permission: accessibility.StatusString(),
		Message:    accessibility.Message,
		Guidance:   accessibility.Guidance,
	}

	if goos != "darwin" {
		env.Permission = "not_applicable"
		env.Message = "live drag capture requires macOS; use replay scripts instead"
		return env
	}

	env.Provider = providerQuartz
	env.Available = accessibility.Status != permissions.StatusDenied
	if !env.Available {
		if env.Message == "" {
			env.Message = "accessibility permission missing"
		}
		if env.Guidance == "" {
			env.Guidance = "grant Accessibility access in System Settings > Privacy & Security"
		}
	}
	return env
}
