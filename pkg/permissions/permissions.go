package permissions

import (
	"os"
	"runtime"
	"strings"
)

// Status enumerates coarse permission results for macOS-style prompts.
type Status string

const (
	// StatusUnknown indicates no explicit signal about permission state.
	StatusUnknown Status = "unknown"
	// StatusGranted signals that permission was previously granted.
	StatusGranted Status = "granted"
	// StatusDenied indicates the user has explicitly denied access.
	StatusDenied Status = "denied"
	// StatusPromptRequired means the platform will prompt at runtime.
	StatusPromptRequired Status = "prompt"
	// StatusUnavailable reports that the capability is not supported.
	StatusUnavailable Status = "unavailable"
)

// Environment variables that pin a permission state, mainly for CI and demos.
const (
	EnvAccessibility   = "DRAGSENSE_ACCESSIBILITY"
	EnvInputMonitoring = "DRAGSENSE_INPUT_MONITORING"
)

// ProbeResult represents the coarse state for a permission surface.
type ProbeResult struct {
	Status   Status
	Message  string
	Guidance string
}

// LookupEnvFunc exposes environment probing for testability.
type LookupEnvFunc func(string) (string, bool)

var lookupEnv LookupEnvFunc = os.LookupEnv

// ProbeAccessibility inspects environment flags for accessibility trust,
// which the event tap needs before it can observe other applications.
func ProbeAccessibility(lookup LookupEnvFunc) ProbeResult {
	return probe("accessibility", EnvAccessibility, lookup,
		ProbeResult{Status: StatusPromptRequired, Message: "accessibility trust required"},
		ProbeResult{Status: StatusUnavailable, Message: "accessibility prompts unavailable"})
}

// ProbeInputMonitoring reports whether listen-only taps may read mouse input.
func ProbeInputMonitoring(lookup LookupEnvFunc) ProbeResult {
	return probe("input monitoring", EnvInputMonitoring, lookup,
		ProbeResult{Status: StatusPromptRequired, Message: "input monitoring will prompt at runtime"},
		ProbeResult{Status: StatusUnavailable, Message: "input monitoring unsupported on this platform"})
}

func probe(name, env string, lookup LookupEnvFunc, darwin, other ProbeResult) ProbeResult {
	if lookup == nil {
		lookup = lookupEnv
	}
	if value, ok := lookup(env); ok {
		return interpretPermissionFlag(name, value)
	}
	if runtime.GOOS == "darwin" {
		return darwin
	}
	return other
}

func interpretPermissionFlag(name, value string) ProbeResult {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "granted", "allow", "allowed", "yes", "true":
		return ProbeResult{Status: StatusGranted, Message: name + " permission pre-authorised via env override"}
	case "denied", "no", "false", "blocked":
		return ProbeResult{Status: StatusDenied, Message: name + " permission denied via env override", Guidance: "use 'tccutil reset' or update DRAGSENSE_* env to re-test"}
	case "prompt", "ask":
		return ProbeResult{Status: StatusPromptRequired, Message: name + " permission will prompt at runtime"}
	case "unavailable", "unsupported":
		return ProbeResult{Status: StatusUnavailable, Message: name + " permission unavailable on this platform"}
	default:
		return ProbeResult{Status: StatusUnknown, Message: name + " permission state unknown"}
	}
}

// StatusString returns the string representation for reports.
func (p ProbeResult) StatusString() string {
	if p.Status == "" {
		return string(StatusUnknown)
	}
	return string(p.Status)
}
