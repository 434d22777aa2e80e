// Package events delivers left-button drag input as an ordered stream of
// button-down, move and button-up events, using the macOS Quartz event tap
// (with Accessibility approval) or a caller-supplied source for other
// platforms and automated tests.
package events
