//go:build !darwin

package events

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

type unsupportedSource struct{}

func defaultEventSource(_ func() time.Time) Source {
	return unsupportedSource{}
}

func platformLocation() (float64, float64, bool) {
	return 0, 0, false
}

func (unsupportedSource) Stream(ctx context.Context, emit func(Event) error) error {
	return fmt.Errorf("%w: no drag event tap on %s", ErrTapUnavailable, runtime.GOOS)
}
