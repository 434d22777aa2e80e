// Package drag tracks a single drag-and-drop interaction and turns pointer
// motion plus pasteboard changes into content, shake and drag-end
// notifications.
package drag

import (
	"io"
	"log/slog"

	"github.com/offlinefirst/dragsense/pkg/gesture"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

// Session holds the state of the drag in progress. Shake detection stays
// disarmed until the pasteboard has changed at least once.
//
// Session is not safe for concurrent use; Coordinator serialises access.
type Session struct {
	source     pasteboard.Source
	classifier *gesture.Classifier
	logger     *slog.Logger

	baseline       int64
	contentChanged bool
	dragging       bool
}

// NewSession builds an idle session around a classifier.
func NewSession(source pasteboard.Source, classifier *gesture.Classifier, logger *slog.Logger) *Session {
	if classifier == nil {
		classifier = gesture.New(gesture.Options{})
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{source: source, classifier: classifier, logger: logger}
}

// Reset starts a fresh drag using the current revision as baseline.
func (s *Session) Reset() {
	s.baseline = s.revision()
	s.contentChanged = false
	s.dragging = false
	s.classifier.Reset()
}

// AddPosition feeds a pointer sample to the classifier.
func (s *Session) AddPosition(x, y float64) {
	s.classifier.AddPosition(x, y)
}

// CheckContentChanged reports whether the pasteboard revision moved since the
// last observation. Each distinct revision is reported once; reporting it
// restarts gesture counting and re-arms the shake notification.
func (s *Session) CheckContentChanged() bool {
	current := s.revision()
	if current == s.baseline {
		return false
	}
	s.logger.Debug("drag content changed", "from_revision", s.baseline, "to_revision", current)
	s.baseline = current
	s.contentChanged = true
	s.dragging = true
	s.classifier.Reset()
	return true
}

// IsShaking is false until content has changed, then follows the classifier.
func (s *Session) IsShaking() bool {
	if !s.contentChanged {
		return false
	}
	return s.classifier.IsShaking()
}

// HasDragged reports whether any content change was seen in this session.
func (s *Session) HasDragged() bool {
	return s.dragging
}

// NotifiedThisEpoch reports whether a shake was already announced for the
// current content.
func (s *Session) NotifiedThisEpoch() bool {
	return s.classifier.Notified()
}

// SetNotifiedThisEpoch marks the shake announcement for the current content.
func (s *Session) SetNotifiedThisEpoch(v bool) {
	s.classifier.SetNotified(v)
}

// Baseline returns the last revision observed.
func (s *Session) Baseline() int64 {
	return s.baseline
}

// Gesture returns a snapshot of the classifier state.
func (s *Session) Gesture() gesture.Stats {
	return s.classifier.Stats()
}

func (s *Session) revision() int64 {
	if s.source == nil {
		return 0
	}
	rev, err := s.source.Revision()
	if err != nil {
		s.logger.Warn("read drag pasteboard revision", "error", err)
		return 0
	}
	return rev
}
