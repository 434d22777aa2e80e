package drag

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/dragsense/pkg/events"
	"github.com/offlinefirst/dragsense/pkg/gesture"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

type call struct {
	kind    Notification
	content pasteboard.Content
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) observer(kind Notification) Observer {
	return func(content pasteboard.Content) error {
		r.mu.Lock()
		r.calls = append(r.calls, call{kind: kind, content: content})
		r.mu.Unlock()
		return nil
	}
}

func (r *recorder) all() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func (r *recorder) count(kind Notification) int {
	n := 0
	for _, c := range r.all() {
		if c.kind == kind {
			n++
		}
	}
	return n
}

type harness struct {
	t     *testing.T
	clock *fakeClock
	board *pasteboard.Memory
	coord *Coordinator
	rec   *recorder
	x     float64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := newFakeClock()
	board := pasteboard.NewMemory()
	coord, err := NewCoordinator(CoordinatorOptions{
		Events:     events.SourceFunc(func(context.Context, func(events.Event) error) error { return nil }),
		Pasteboard: board,
		Gesture:    gesture.Options{Clock: clock.Now},
	})
	require.NoError(t, err)

	rec := &recorder{}
	coord.OnContentChanged(rec.observer(ContentChanged))
	coord.OnShake(rec.observer(Shake))
	coord.OnDragEnd(rec.observer(DragEnd))
	return &harness{t: t, clock: clock, board: board, coord: coord, rec: rec}
}

func (h *harness) down() {
	h.coord.Handle(events.Event{Kind: events.ButtonDown, X: h.x, Y: 50})
}

func (h *harness) up() {
	h.coord.Handle(events.Event{Kind: events.ButtonUp, X: h.x, Y: 50})
}

func (h *harness) moveTo(x, y float64) {
	h.clock.Advance(30 * time.Millisecond)
	h.x = x
	h.coord.Handle(events.Event{Kind: events.Move, X: x, Y: y})
}

// shake alternates horizontally starting with a step to the right of x=0.
func (h *harness) shake(steps int) {
	for i := 0; i < steps; i++ {
		x := 0.0
		if i%2 == 1 {
			x = 40
		}
		h.moveTo(x, 50)
	}
}

func TestNewCoordinatorValidation(t *testing.T) {
	_, err := NewCoordinator(CoordinatorOptions{Pasteboard: pasteboard.NewMemory()})
	assert.Error(t, err, "events required")

	_, err = NewCoordinator(CoordinatorOptions{Events: events.SourceFunc(nil)})
	assert.Error(t, err, "pasteboard required")
}

func TestDragWithoutContentChangeIsSilent(t *testing.T) {
	h := newHarness(t)

	h.down()
	h.shake(8)
	h.up()

	assert.Empty(t, h.rec.all())
}

func TestDragContentShakeAndEnd(t *testing.T) {
	h := newHarness(t)
	c1 := pasteboard.Files("/Users/me/report.pdf")

	h.down()
	h.board.Set(c1)
	h.moveTo(10, 50)
	require.Equal(t, []call{{ContentChanged, c1}}, h.rec.all())

	h.shake(5)
	assert.Equal(t, 0, h.rec.count(Shake), "three reversals do not shake")
	h.moveTo(40, 50)
	assert.Equal(t, 1, h.rec.count(Shake))

	h.shake(10)
	assert.Equal(t, 1, h.rec.count(Shake), "one shake per content epoch")

	h.up()
	assert.Equal(t, []call{
		{ContentChanged, c1},
		{Shake, c1},
		{DragEnd, c1},
	}, h.rec.all())
}

func TestNewContentRearmsShake(t *testing.T) {
	h := newHarness(t)
	c1 := pasteboard.PlainText("first")
	c2 := pasteboard.RichText("<b>second</b>", "second")

	h.down()
	h.board.Set(c1)
	h.moveTo(10, 50)
	h.shake(6)
	require.Equal(t, 1, h.rec.count(Shake))

	h.board.Set(c2)
	h.moveTo(10, 50)
	assert.Equal(t, 2, h.rec.count(ContentChanged))

	h.shake(6)
	assert.Equal(t, 2, h.rec.count(Shake))

	h.up()
	calls := h.rec.all()
	require.Len(t, calls, 5)
	assert.Equal(t, call{Shake, c2}, calls[3])
	assert.Equal(t, call{DragEnd, c2}, calls[4], "drag end carries the latest content")
}

func TestStationaryMovesWithStableRevision(t *testing.T) {
	h := newHarness(t)
	h.board.Set(pasteboard.PlainText("already there"))

	h.down()
	for i := 0; i < 10; i++ {
		h.moveTo(100, 100)
	}
	h.up()

	assert.Empty(t, h.rec.all())
}

func TestShakeBeforeContentChangeIsIgnored(t *testing.T) {
	h := newHarness(t)

	h.down()
	h.shake(8)
	assert.Equal(t, 0, h.rec.count(Shake))

	h.board.Set(pasteboard.PlainText("late"))
	h.moveTo(20, 50)
	assert.Equal(t, 1, h.rec.count(ContentChanged))
	assert.Equal(t, 0, h.rec.count(Shake), "history is discarded on content change")
}

func TestDragEndRequiresContentChangeInThisDrag(t *testing.T) {
	h := newHarness(t)

	h.down()
	h.board.Set(pasteboard.PlainText("x"))
	h.moveTo(10, 50)
	h.up()
	require.Equal(t, 1, h.rec.count(DragEnd))

	h.down()
	h.moveTo(20, 50)
	h.up()
	assert.Equal(t, 1, h.rec.count(DragEnd), "second drag saw no new content")
}

func TestObserverFailuresAreContained(t *testing.T) {
	h := newHarness(t)
	h.coord.OnContentChanged(func(pasteboard.Content) error {
		panic("observer exploded")
	})
	h.coord.OnShake(func(pasteboard.Content) error {
		return errors.New("observer failed")
	})

	h.down()
	h.board.Set(pasteboard.PlainText("x"))
	require.NotPanics(t, func() { h.moveTo(10, 50) })
	h.shake(6)
	h.up()

	assert.Equal(t, 1, h.rec.count(DragEnd), "later notifications still flow")
}

func TestObserverMayReenterCoordinator(t *testing.T) {
	h := newHarness(t)
	done := make(chan struct{})

	h.coord.OnContentChanged(func(pasteboard.Content) error {
		h.coord.OnShake(h.rec.observer(Shake))
		h.coord.CurrentMouseLocation()
		close(done)
		return nil
	})

	go func() {
		h.down()
		h.board.Set(pasteboard.PlainText("x"))
		h.moveTo(10, 50)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("observer deadlocked re-entering the coordinator")
	}
}

func TestUnreadablePasteboardYieldsEmptyContent(t *testing.T) {
	h := newHarness(t)
	h.board.Set(pasteboard.PlainText("before"))

	h.down()
	h.board.Fail(pasteboard.ErrUnavailable)
	h.moveTo(10, 50)

	calls := h.rec.all()
	require.Len(t, calls, 1)
	assert.Equal(t, ContentChanged, calls[0].kind)
	assert.True(t, calls[0].content.IsEmpty())
}

func TestRegisteringReplacesObserver(t *testing.T) {
	h := newHarness(t)
	var replaced int
	h.coord.OnDragEnd(func(pasteboard.Content) error {
		replaced++
		return nil
	})

	h.down()
	h.board.Set(pasteboard.PlainText("x"))
	h.moveTo(10, 50)
	h.up()

	assert.Equal(t, 1, replaced)
	assert.Equal(t, 0, h.rec.count(DragEnd))
}

func TestNilObserverUnregisters(t *testing.T) {
	h := newHarness(t)
	h.coord.OnContentChanged(nil)

	h.down()
	h.board.Set(pasteboard.PlainText("x"))
	h.moveTo(10, 50)

	assert.Equal(t, 0, h.rec.count(ContentChanged))
}

func TestListenPumpsSource(t *testing.T) {
	clock := newFakeClock()
	board := pasteboard.NewMemory()
	source := events.SourceFunc(func(ctx context.Context, emit func(events.Event) error) error {
		script := []events.Event{
			{Kind: events.ButtonDown, X: 0, Y: 0},
			{Kind: events.Move, X: 5, Y: 5},
			{Kind: events.Move, X: 9, Y: 7},
			{Kind: events.ButtonUp, X: 9, Y: 7},
		}
		for i, ev := range script {
			if i == 2 {
				board.Set(pasteboard.PlainText("dragged"))
			}
			clock.Advance(20 * time.Millisecond)
			if err := emit(ev); err != nil {
				return err
			}
		}
		return nil
	})

	coord, err := NewCoordinator(CoordinatorOptions{
		Events:     source,
		Pasteboard: board,
		Gesture:    gesture.Options{Clock: clock.Now},
	})
	require.NoError(t, err)

	rec := &recorder{}
	coord.OnContentChanged(rec.observer(ContentChanged))
	coord.OnDragEnd(rec.observer(DragEnd))

	require.NoError(t, coord.Listen(context.Background()))
	assert.Equal(t, []call{
		{ContentChanged, pasteboard.PlainText("dragged")},
		{DragEnd, pasteboard.PlainText("dragged")},
	}, rec.all())

	x, y := coord.CurrentMouseLocation()
	assert.Equal(t, 9.0, x)
	assert.Equal(t, 7.0, y)
}

func TestListenWrapsSourceFailure(t *testing.T) {
	coord, err := NewCoordinator(CoordinatorOptions{
		Events: events.SourceFunc(func(context.Context, func(events.Event) error) error {
			return events.ErrTapUnavailable
		}),
		Pasteboard: pasteboard.NewMemory(),
	})
	require.NoError(t, err)

	err = coord.Listen(context.Background())
	assert.ErrorIs(t, err, events.ErrTapUnavailable)
	assert.Contains(t, err.Error(), "stream input events")
}

func TestListenReturnsContextError(t *testing.T) {
	coord, err := NewCoordinator(CoordinatorOptions{
		Events: events.SourceFunc(func(ctx context.Context, _ func(events.Event) error) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		Pasteboard: pasteboard.NewMemory(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, coord.Listen(ctx), context.Canceled)
}

type fixedLocator struct{ x, y float64 }

func (f fixedLocator) Location() (float64, float64) { return f.x, f.y }

func TestCurrentMouseLocationUsesLocator(t *testing.T) {
	coord, err := NewCoordinator(CoordinatorOptions{
		Events:     events.SourceFunc(nil),
		Pasteboard: pasteboard.NewMemory(),
		Locator:    fixedLocator{x: 12, y: 34},
	})
	require.NoError(t, err)

	x, y := coord.CurrentMouseLocation()
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 34.0, y)
}

func TestConcurrentRegistrationDuringDelivery(t *testing.T) {
	h := newHarness(t)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.coord.OnShake(h.rec.observer(Shake))
			h.coord.OnDragEnd(h.rec.observer(DragEnd))
		}
	}()

	for i := 0; i < 20; i++ {
		h.down()
		h.board.Set(pasteboard.PlainText("x"))
		h.shake(8)
		h.up()
	}
	wg.Wait()

	assert.Equal(t, 20, h.rec.count(DragEnd))
	assert.Equal(t, 20, h.rec.count(Shake))
}

func TestNotificationString(t *testing.T) {
	assert.Equal(t, "content_changed", ContentChanged.String())
	assert.Equal(t, "shake", Shake.String())
	assert.Equal(t, "drag_end", DragEnd.String())
	assert.Equal(t, "unknown", Notification(9).String())
}
