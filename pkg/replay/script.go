// Package replay drives the drag pipeline from a recorded or hand-written
// YAML script instead of the live event tap.
//
// A script is a list of timed steps. Pointer steps (down, move, up, shake)
// become input events; pasteboard steps (content, touch) rewrite an in-memory
// pasteboard so revision changes land between moves exactly as scripted.
package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/offlinefirst/dragsense/pkg/events"
	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

// Script is a parsed replay file.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one scripted action. At is the offset from the start of the
// script in milliseconds; steps without At inherit the previous offset.
type Step struct {
	At      *int64       `yaml:"at"`
	Action  string       `yaml:"action"`
	X       float64      `yaml:"x"`
	Y       float64      `yaml:"y"`
	Content *ScriptContent `yaml:"content"`

	// shake only
	Count     int     `yaml:"count"`
	Amplitude float64 `yaml:"amplitude"`
	Interval  int64   `yaml:"interval"`
}

// ScriptContent describes pasteboard content in a script step.
type ScriptContent struct {
	Kind  string   `yaml:"kind"`
	Files []string `yaml:"files"`
	Text  string   `yaml:"text"`
	HTML  string   `yaml:"html"`
	URLs  []string `yaml:"urls"`
}

// Content converts the scripted description into a pasteboard payload.
func (c ScriptContent) Content() (pasteboard.Content, error) {
	kind, err := pasteboard.ParseKind(c.Kind)
	if err != nil {
		return pasteboard.None(), err
	}
	switch kind {
	case pasteboard.KindFiles:
		return pasteboard.Files(c.Files...), nil
	case pasteboard.KindPlainText:
		return pasteboard.PlainText(c.Text), nil
	case pasteboard.KindRichText:
		return pasteboard.RichText(c.HTML, c.Text), nil
	case pasteboard.KindRemoteImage:
		return pasteboard.RemoteImage(c.URLs...), nil
	default:
		return pasteboard.None(), nil
	}
}

// action is a normalised, fully timed step.
type action struct {
	offset  time.Duration
	kind    string
	x, y    float64
	content pasteboard.Content
}

// Plan is a script expanded into timed actions, ready to play.
type Plan struct {
	Name    string
	actions []action
}

// Len returns the number of expanded actions.
func (p *Plan) Len() int {
	return len(p.actions)
}

// Duration returns the offset of the last action.
func (p *Plan) Duration() time.Duration {
	if len(p.actions) == 0 {
		return 0
	}
	return p.actions[len(p.actions)-1].offset
}

// Load reads and parses a script file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %q: %w", path, err)
	}
	plan, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse script %q: %w", path, err)
	}
	return plan, nil
}

// Parse decodes a script and expands it into timed actions.
func Parse(data []byte) (*Plan, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("script has no steps")
	}

	plan := &Plan{Name: script.Name}
	var offset int64
	for i, step := range script.Steps {
		if step.At != nil {
			if *step.At < offset {
				return nil, fmt.Errorf("step %d: at=%d goes back in time (previous %d)", i+1, *step.At, offset)
			}
			offset = *step.At
		}
		expanded, next, err := expand(step, offset)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		plan.actions = append(plan.actions, expanded...)
		offset = next
	}
	return plan, nil
}

func expand(step Step, offset int64) ([]action, int64, error) {
	at := time.Duration(offset) * time.Millisecond
	name := strings.ToLower(strings.TrimSpace(step.Action))
	switch name {
	case "down", "move", "up":
		return []action{{offset: at, kind: name, x: step.X, y: step.Y}}, offset, nil
	case "content":
		if step.Content == nil {
			return nil, offset, errors.New("content step requires a content block")
		}
		content, err := step.Content.Content()
		if err != nil {
			return nil, offset, err
		}
		return []action{{offset: at, kind: name, content: content}}, offset, nil
	case "touch":
		return []action{{offset: at, kind: name}}, offset, nil
	case "shake":
		count := step.Count
		if count <= 0 {
			count = 6
		}
		amplitude := step.Amplitude
		if amplitude == 0 {
			amplitude = 30
		}
		interval := step.Interval
		if interval <= 0 {
			interval = 40
		}
		out := make([]action, 0, count)
		for i := 0; i < count; i++ {
			x := step.X
			if i%2 == 1 {
				x += amplitude
			}
			out = append(out, action{offset: at, kind: "move", x: x, y: step.Y})
			offset += interval
			at = time.Duration(offset) * time.Millisecond
		}
		return out, offset, nil
	case "":
		return nil, offset, errors.New("missing action")
	default:
		return nil, offset, fmt.Errorf("unknown action %q", step.Action)
	}
}

// Clock is a settable time source shared by the replay and the classifier.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current scripted instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Source plays the plan as an event stream, applying pasteboard steps to
// board and advancing clock to each step's offset before it runs.
func (p *Plan) Source(board *pasteboard.Memory, clock *Clock) events.Source {
	start := clock.Now()
	return events.SourceFunc(func(ctx context.Context, emit func(events.Event) error) error {
		for _, a := range p.actions {
			if err := ctx.Err(); err != nil {
				return err
			}
			clock.Set(start.Add(a.offset))

			var kind events.Kind
			switch a.kind {
			case "content":
				board.Set(a.content)
				continue
			case "touch":
				board.Touch()
				continue
			case "down":
				kind = events.ButtonDown
			case "move":
				kind = events.Move
			case "up":
				kind = events.ButtonUp
			}
			if err := emit(events.Event{Kind: kind, X: a.x, Y: a.y, Timestamp: clock.Now()}); err != nil {
				return err
			}
		}
		return nil
	})
}
