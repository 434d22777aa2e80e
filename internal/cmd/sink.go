package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/offlinefirst/dragsense/pkg/broadcast"
	"github.com/offlinefirst/dragsense/pkg/drag"
	"github.com/offlinefirst/dragsense/pkg/journal"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

// sink fans a notification out to the terminal, the journal and any
// WebSocket clients. Journal and hub are optional.
type sink struct {
	out     io.Writer
	clock   func() time.Time
	journal *journal.Store
	hub     *broadcast.Hub

	mu sync.Mutex
}

func (s *sink) attach(coord *drag.Coordinator) {
	coord.OnContentChanged(s.observer(drag.ContentChanged))
	coord.OnShake(s.observer(drag.Shake))
	coord.OnDragEnd(s.observer(drag.DragEnd))
}

func (s *sink) observer(kind drag.Notification) drag.Observer {
	return func(content pasteboard.Content) error {
		return s.deliver(kind, content)
	}
}

func (s *sink) deliver(kind drag.Notification, content pasteboard.Content) error {
	now := s.clock().UTC()
	name := kind.String()

	if s.journal != nil {
		s.journal.Record(name, content)
	}
	if s.hub != nil {
		s.hub.Publish(broadcast.Message{Notification: name, Content: content, Timestamp: now})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.out, "%s  %-15s %s\n", now.Format("15:04:05.000"), name, content.Summary()); err != nil {
		return fmt.Errorf("print %s: %w", name, err)
	}
	return nil
}
