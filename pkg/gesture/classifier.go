// Package gesture classifies short bursts of pointer motion as a shake.
//
// A Classifier keeps a sliding window of position samples and counts direction
// reversals between consecutive sample pairs. Reversals that arrive close
// together form a run; a run that reaches the configured length is reported as
// a shake until the next reset.
package gesture

import "time"

const (
	// DefaultWindow bounds how long a sample stays eligible for reversal checks.
	DefaultWindow = 500 * time.Millisecond
	// DefaultReversalGap is the largest spacing between reversals of one run.
	DefaultReversalGap = 200 * time.Millisecond
	// DefaultMinReversals is the run length that counts as shaking.
	DefaultMinReversals = 4
)

// Sample is a single pointer position observed at a point in time.
type Sample struct {
	X  float64
	Y  float64
	At time.Time
}

// Options tune the classifier thresholds. Zero values select the defaults.
type Options struct {
	Window       time.Duration
	ReversalGap  time.Duration
	MinReversals int
	Clock        func() time.Time
}

// Stats is a read-only snapshot of classifier state for diagnostics.
type Stats struct {
	Samples      int
	Reversals    int
	Shaking      bool
	Notified     bool
	DirKnown     bool
	XIncreasing  bool
	YIncreasing  bool
	LastReversal time.Time
}

// Classifier turns position samples into a shaking verdict.
//
// It is not safe for concurrent use; callers serialise access.
type Classifier struct {
	window       time.Duration
	gap          time.Duration
	minReversals int
	clock        func() time.Time

	samples []Sample

	dirKnown bool
	lastX    bool
	lastY    bool

	reversals    int
	lastReversal time.Time
	hasReversal  bool

	shaking  bool
	notified bool
}

// New constructs a classifier, applying defaults for unset options.
func New(opts Options) *Classifier {
	c := &Classifier{
		window:       opts.Window,
		gap:          opts.ReversalGap,
		minReversals: opts.MinReversals,
		clock:        opts.Clock,
	}
	if c.window <= 0 {
		c.window = DefaultWindow
	}
	if c.gap <= 0 {
		c.gap = DefaultReversalGap
	}
	if c.minReversals <= 0 {
		c.minReversals = DefaultMinReversals
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	c.samples = make([]Sample, 0, 16)
	return c
}

// AddPosition records a sample at the current instant and re-evaluates the verdict.
func (c *Classifier) AddPosition(x, y float64) {
	now := c.clock()
	c.samples = append(c.samples, Sample{X: x, Y: y, At: now})
	c.prune(now)
	c.detectReversal(now)
	c.shaking = c.reversals >= c.minReversals
}

func (c *Classifier) prune(now time.Time) {
	drop := 0
	for drop < len(c.samples) && now.Sub(c.samples[drop].At) > c.window {
		drop++
	}
	if drop == 0 {
		return
	}
	// shift in place so the backing array is reused across a drag
	n := copy(c.samples, c.samples[drop:])
	c.samples = c.samples[:n]
}

func (c *Classifier) detectReversal(now time.Time) {
	n := len(c.samples)
	if n < 3 {
		return
	}
	current, previous, before := c.samples[n-1], c.samples[n-2], c.samples[n-3]

	// Strict comparison: a pair without movement on an axis reads as "not
	// increasing", so a pause after forward motion counts as a reversal.
	curX := current.X > previous.X
	curY := current.Y > previous.Y
	prevX := previous.X > before.X
	prevY := previous.Y > before.Y

	if curX == prevX && curY == prevY {
		return
	}

	if c.hasReversal && now.Sub(c.lastReversal) < c.gap {
		c.reversals++
	} else {
		c.reversals = 1
	}
	c.lastReversal = now
	c.hasReversal = true
	c.dirKnown = true
	c.lastX = curX
	c.lastY = curY
}

// Reset forgets all samples, reversal history, the verdict and the notified flag.
func (c *Classifier) Reset() {
	c.samples = c.samples[:0]
	c.dirKnown = false
	c.lastX = false
	c.lastY = false
	c.reversals = 0
	c.lastReversal = time.Time{}
	c.hasReversal = false
	c.shaking = false
	c.notified = false
}

// IsShaking reports the current verdict.
func (c *Classifier) IsShaking() bool {
	return c.shaking
}

// Notified reports whether a shake has already been announced since the last reset.
func (c *Classifier) Notified() bool {
	return c.notified
}

// SetNotified marks or clears the one-shot announcement flag.
func (c *Classifier) SetNotified(v bool) {
	c.notified = v
}

// Stats returns a snapshot of the classifier state.
func (c *Classifier) Stats() Stats {
	return Stats{
		Samples:      len(c.samples),
		Reversals:    c.reversals,
		Shaking:      c.shaking,
		Notified:     c.notified,
		DirKnown:     c.dirKnown,
		XIncreasing:  c.lastX,
		YIncreasing:  c.lastY,
		LastReversal: c.lastReversal,
	}
}
