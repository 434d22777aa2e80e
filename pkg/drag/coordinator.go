package drag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/offlinefirst/dragsense/pkg/events"
	"github.com/offlinefirst/dragsense/pkg/gesture"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

// Notification identifies which observer a transition wakes.
type Notification int

const (
	ContentChanged Notification = iota
	Shake
	DragEnd
	notificationCount
)

func (n Notification) String() string {
	switch n {
	case ContentChanged:
		return "content_changed"
	case Shake:
		return "shake"
	case DragEnd:
		return "drag_end"
	default:
		return "unknown"
	}
}

// Observer receives the pasteboard content at the moment a notification fires.
// Observers run on the input delivery goroutine and must return quickly.
type Observer func(pasteboard.Content) error

// CoordinatorOptions wires a Coordinator to its collaborators.
type CoordinatorOptions struct {
	Events     events.Source
	Pasteboard pasteboard.Source
	Locator    events.Locator
	Gesture    gesture.Options
	Logger     *slog.Logger
}

// Coordinator drives a Session from the input event stream and dispatches
// notifications to registered observers.
type Coordinator struct {
	events     events.Source
	pasteboard pasteboard.Source
	locator    events.Locator
	logger     *slog.Logger

	mu      sync.Mutex
	session *Session
	lastX   float64
	lastY   float64

	observersMu sync.RWMutex
	observers   [notificationCount]Observer
}

type pending struct {
	kind    Notification
	content pasteboard.Content
}

// NewCoordinator validates options and constructs an idle coordinator.
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Events == nil {
		return nil, errors.New("event source is required")
	}
	if opts.Pasteboard == nil {
		return nil, errors.New("pasteboard source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	locator := opts.Locator
	if locator == nil {
		if l, ok := opts.Events.(events.Locator); ok {
			locator = l
		}
	}
	return &Coordinator{
		events:     opts.Events,
		pasteboard: opts.Pasteboard,
		locator:    locator,
		logger:     logger,
		session:    NewSession(opts.Pasteboard, gesture.New(opts.Gesture), logger),
	}, nil
}

// OnContentChanged registers the observer for new drag content, replacing any previous one.
func (c *Coordinator) OnContentChanged(fn Observer) { c.register(ContentChanged, fn) }

// OnShake registers the observer for shake gestures, replacing any previous one.
func (c *Coordinator) OnShake(fn Observer) { c.register(Shake, fn) }

// OnDragEnd registers the observer for completed drags, replacing any previous one.
func (c *Coordinator) OnDragEnd(fn Observer) { c.register(DragEnd, fn) }

func (c *Coordinator) register(kind Notification, fn Observer) {
	c.observersMu.Lock()
	c.observers[kind] = fn
	c.observersMu.Unlock()
}

func (c *Coordinator) observer(kind Notification) Observer {
	c.observersMu.RLock()
	defer c.observersMu.RUnlock()
	return c.observers[kind]
}

// Listen pumps the event source until ctx is done or the source fails.
func (c *Coordinator) Listen(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.logger.Info("listening for drag events")
	err := c.events.Stream(ctx, func(ev events.Event) error {
		c.Handle(ev)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("stream input events: %w", err)
	}
	return nil
}

// Handle applies one input event. The session transition and content reads
// happen under the session lock; observers run after it is released, in the
// order the notifications were raised.
func (c *Coordinator) Handle(ev events.Event) {
	for _, p := range c.transition(ev) {
		c.dispatch(p)
	}
}

func (c *Coordinator) transition(ev events.Event) []pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []pending
	switch ev.Kind {
	case events.ButtonDown:
		c.lastX, c.lastY = ev.X, ev.Y
		c.session.Reset()
	case events.Move:
		c.lastX, c.lastY = ev.X, ev.Y
		c.session.AddPosition(ev.X, ev.Y)
		if c.session.CheckContentChanged() {
			out = append(out, pending{kind: ContentChanged, content: c.content()})
		}
		if c.session.IsShaking() && !c.session.NotifiedThisEpoch() {
			out = append(out, pending{kind: Shake, content: c.content()})
			c.session.SetNotifiedThisEpoch(true)
		}
	case events.ButtonUp:
		c.lastX, c.lastY = ev.X, ev.Y
		if c.session.HasDragged() {
			out = append(out, pending{kind: DragEnd, content: c.content()})
		}
		c.session.Reset()
	}
	return out
}

func (c *Coordinator) content() pasteboard.Content {
	content, err := c.pasteboard.Content()
	if err != nil {
		c.logger.Warn("read drag pasteboard content", "error", err)
		return pasteboard.None()
	}
	return content
}

func (c *Coordinator) dispatch(p pending) {
	fn := c.observer(p.kind)
	if fn == nil {
		return
	}
	c.logger.Debug("dispatching notification", "notification", p.kind.String(), "content_kind", p.content.Kind.String())
	if err := invoke(fn, p.content); err != nil {
		c.logger.Error("drag observer failed", "notification", p.kind.String(), "error", err)
	}
}

func invoke(fn Observer, content pasteboard.Content) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return fn(content)
}

// CurrentMouseLocation returns the pointer position from the locator, or the
// last position delivered on the event stream.
func (c *Coordinator) CurrentMouseLocation() (float64, float64) {
	if c.locator != nil {
		return c.locator.Location()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastX, c.lastY
}
