package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/dragsense/pkg/drag"
	"github.com/offlinefirst/dragsense/pkg/events"
	"github.com/offlinefirst/dragsense/pkg/gesture"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

const twoEpochScript = `
name: shake twice
steps:
  - {at: 0, action: down, x: 10, y: 10}
  - {at: 20, action: content, content: {kind: files, files: [/tmp/a.txt]}}
  - {at: 30, action: move, x: 12, y: 10}
  - {at: 60, action: shake, x: 100, y: 10, count: 6}
  - {at: 400, action: content, content: {kind: text, text: hello}}
  - {at: 420, action: move, x: 50, y: 10}
  - {at: 450, action: shake, x: 50, y: 10, count: 6, amplitude: -30}
  - {at: 800, action: up, x: 50, y: 10}
`

func TestParseExpandsShake(t *testing.T) {
	plan, err := Parse([]byte(twoEpochScript))
	require.NoError(t, err)

	assert.Equal(t, "shake twice", plan.Name)
	assert.Equal(t, 18, plan.Len())
	assert.Equal(t, 800*time.Millisecond, plan.Duration())
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":           "name: nothing\n",
		"unknown action":  "steps:\n  - {action: hover}\n",
		"missing action":  "steps:\n  - {x: 1}\n",
		"content missing": "steps:\n  - {action: content}\n",
		"bad kind":        "steps:\n  - {action: content, content: {kind: video}}\n",
		"backwards":       "steps:\n  - {at: 50, action: down}\n  - {at: 10, action: up}\n",
		"not yaml":        "steps: [\n",
	}
	for name, script := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(script))
			assert.Error(t, err)
		})
	}
}

func TestStepsInheritOffset(t *testing.T) {
	plan, err := Parse([]byte("steps:\n  - {at: 100, action: down}\n  - {action: move, x: 3}\n"))
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, plan.Duration())
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoEpochScript), 0o644))

	plan, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 18, plan.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSourceAdvancesClockAndPasteboard(t *testing.T) {
	plan, err := Parse([]byte("steps:\n  - {at: 0, action: down}\n  - {at: 5, action: touch}\n  - {at: 25, action: move, x: 4, y: 2}\n"))
	require.NoError(t, err)

	start := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	clock := NewClock(start)
	board := pasteboard.NewMemory()

	var got []events.Event
	err = plan.Source(board, clock).Stream(context.Background(), func(ev events.Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, events.ButtonDown, got[0].Kind)
	assert.Equal(t, start, got[0].Timestamp)
	assert.Equal(t, events.Move, got[1].Kind)
	assert.Equal(t, start.Add(25*time.Millisecond), got[1].Timestamp)

	rev, err := board.Revision()
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
}

func TestSourceStopsOnCancel(t *testing.T) {
	plan, err := Parse([]byte(twoEpochScript))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = plan.Source(pasteboard.NewMemory(), NewClock(time.Now())).Stream(ctx, func(events.Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplayDrivesCoordinator(t *testing.T) {
	plan, err := Parse([]byte(twoEpochScript))
	require.NoError(t, err)

	clock := NewClock(time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC))
	board := pasteboard.NewMemory()
	coord, err := drag.NewCoordinator(drag.CoordinatorOptions{
		Events:     plan.Source(board, clock),
		Pasteboard: board,
		Gesture:    gesture.Options{Clock: clock.Now},
	})
	require.NoError(t, err)

	type note struct {
		kind    drag.Notification
		content pasteboard.Content
	}
	var notes []note
	record := func(kind drag.Notification) drag.Observer {
		return func(c pasteboard.Content) error {
			notes = append(notes, note{kind, c})
			return nil
		}
	}
	coord.OnContentChanged(record(drag.ContentChanged))
	coord.OnShake(record(drag.Shake))
	coord.OnDragEnd(record(drag.DragEnd))

	require.NoError(t, coord.Listen(context.Background()))

	files := pasteboard.Files("/tmp/a.txt")
	text := pasteboard.PlainText("hello")
	assert.Equal(t, []note{
		{drag.ContentChanged, files},
		{drag.Shake, files},
		{drag.ContentChanged, text},
		{drag.Shake, text},
		{drag.DragEnd, text},
	}, notes)
}
