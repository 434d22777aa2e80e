package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Kind enumerates the input events the drag pipeline reacts to.
type Kind int

const (
	KindUnknown Kind = iota
	ButtonDown
	Move
	ButtonUp
)

func (k Kind) String() string {
	switch k {
	case ButtonDown:
		return "button-down"
	case Move:
		return "move"
	case ButtonUp:
		return "button-up"
	default:
		return "unknown"
	}
}

// Event describes a single pointer sample.
type Event struct {
	Kind      Kind
	X         float64
	Y         float64
	Timestamp time.Time
}

// Source emits input events in delivery order. Stream blocks until ctx is
// cancelled, the source is exhausted, or emit returns an error.
type Source interface {
	Stream(ctx context.Context, emit func(Event) error) error
}

// SourceFunc adapts a function literal to the Source interface.
type SourceFunc func(ctx context.Context, emit func(Event) error) error

// Stream calls the underlying function.
func (f SourceFunc) Stream(ctx context.Context, emit func(Event) error) error {
	return f(ctx, emit)
}

// Locator reports the pointer position on demand.
type Locator interface {
	Location() (x, y float64)
}

// Options controls tap behaviour.
type Options struct {
	Clock  func() time.Time
	Source Source
}

// Tap wraps an event source, stamping events and remembering the last
// pointer position it delivered.
type Tap struct {
	clock  func() time.Time
	source Source

	mu    sync.Mutex
	lastX float64
	lastY float64
}

// NewTap constructs a tap. Without an explicit Source the platform event tap is used.
func NewTap(opts Options) (*Tap, error) {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	source := opts.Source
	if source == nil {
		source = defaultEventSource(clock)
	}
	if source == nil {
		return nil, errors.New("no event source available")
	}
	return &Tap{clock: clock, source: source}, nil
}

// Stream forwards events from the underlying source.
func (t *Tap) Stream(ctx context.Context, emit func(Event) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return t.source.Stream(ctx, func(event Event) error {
		if event.Kind == KindUnknown {
			return nil
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = t.clock()
		}
		t.mu.Lock()
		t.lastX, t.lastY = event.X, event.Y
		t.mu.Unlock()
		return emit(event)
	})
}

// Location returns the platform pointer position when available, otherwise
// the last position seen on the stream.
func (t *Tap) Location() (float64, float64) {
	if x, y, ok := platformLocation(); ok {
		return x, y
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastX, t.lastY
}
