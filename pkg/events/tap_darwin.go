//go:build darwin

package events

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

static Boolean axCheckTrusted(void) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { kCFBooleanTrue };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        Boolean trusted = AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
        return trusted;
}

extern CGEventRef goHandleDragEvent(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CFRunLoopSourceRef startDragTap(uintptr_t handle, CGEventMask mask, CFMachPortRef *tapOut) {
        CFMachPortRef tap = CGEventTapCreate(kCGHIDEventTap,
                                             kCGHeadInsertEventTap,
                                             kCGEventTapOptionListenOnly,
                                             mask,
                                             goHandleDragEvent,
                                             (void *)handle);
        if (tap == NULL) {
                return NULL;
        }
        CGEventTapEnable(tap, true);
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        *tapOut = tap;
        return source;
}

static void reenableTap(CFMachPortRef tap) {
        if (tap != NULL) {
                CGEventTapEnable(tap, true);
        }
}

static CFRunLoopRef currentRunLoop(void) {
        return CFRunLoopGetCurrent();
}

static CGEventMask cgEventMaskBit(CGEventType type) {
        return ((CGEventMask)1) << type;
}

static void addSourceToRunLoop(CFRunLoopRef loop, CFRunLoopSourceRef source) {
        CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
}

static void runCurrentRunLoop(void) {
        CFRunLoopRun();
}

static void stopRunLoop(CFRunLoopRef loop) {
        CFRunLoopStop(loop);
}

static double cgEventGetX(CGEventRef event) {
        return CGEventGetLocation(event).x;
}

static double cgEventGetY(CGEventRef event) {
        return CGEventGetLocation(event).y;
}

static int currentPointer(double *x, double *y) {
        CGEventRef event = CGEventCreate(NULL);
        if (event == NULL) {
                return 0;
        }
        CGPoint point = CGEventGetLocation(event);
        CFRelease(event);
        *x = point.x;
        *y = point.y;
        return 1;
}
*/
import "C"

import (
	"context"
	"fmt"
	"runtime"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"
)

type macEventSource struct {
	now func() time.Time
}

func defaultEventSource(clock func() time.Time) Source {
	return &macEventSource{now: clock}
}

func platformLocation() (float64, float64, bool) {
	var x, y C.double
	if C.currentPointer(&x, &y) == 0 {
		return 0, 0, false
	}
	return float64(x), float64(y), true
}

type macEventStream struct {
	emit      func(Event) error
	now       func() time.Time
	tap       C.CFMachPortRef
	stopped   chan struct{}
	stopLoop  func()
	err       error
	closeOnce sync.Once
}

func newMacEventStream(now func() time.Time, emit func(Event) error) *macEventStream {
	return &macEventStream{
		emit:    emit,
		now:     now,
		stopped: make(chan struct{}),
	}
}

func (s *macEventStream) close() {
	s.closeOnce.Do(func() {
		close(s.stopped)
	})
}

func (s *macEventStream) emitEvent(event Event) {
	if s.err != nil {
		return
	}
	if err := s.emit(event); err != nil {
		s.err = err
		if s.stopLoop != nil {
			s.stopLoop()
		}
	}
}

func (s *macEventSource) Stream(ctx context.Context, emit func(Event) error) error {
	if C.axCheckTrusted() == C.Boolean(0) {
		return ErrAccessibilityPermission
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// The tap delivers on the run loop of the thread that created it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	stream := newMacEventStream(s.now, emit)
	handle := cgo.NewHandle(stream)
	defer handle.Delete()

	mask := C.cgEventMaskBit(C.kCGEventLeftMouseDown) |
		C.cgEventMaskBit(C.kCGEventLeftMouseDragged) |
		C.cgEventMaskBit(C.kCGEventLeftMouseUp)

	var tap C.CFMachPortRef
	source := C.startDragTap(C.uintptr_t(handle), mask, &tap)
	if source == 0 {
		return fmt.Errorf("create CGEvent tap: %w", ErrTapUnavailable)
	}
	defer C.CFRelease(C.CFTypeRef(source))
	defer C.CFRelease(C.CFTypeRef(tap))
	stream.tap = tap

	loop := C.currentRunLoop()
	stopOnce := sync.Once{}
	stream.stopLoop = func() {
		stopOnce.Do(func() {
			C.stopRunLoop(loop)
		})
	}
	C.addSourceToRunLoop(loop, source)

	cancelWatcher := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stream.stopLoop()
		case <-stream.stopped:
		}
		close(cancelWatcher)
	}()

	C.runCurrentRunLoop()
	stream.stopLoop()
	stream.close()
	<-cancelWatcher
	if stream.err != nil {
		return stream.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

//export goHandleDragEvent
func goHandleDragEvent(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	handle := cgo.Handle(uintptr(userInfo))
	stream, ok := handle.Value().(*macEventStream)
	if !ok {
		return event
	}

	var kind Kind
	switch eventType {
	case C.kCGEventLeftMouseDown:
		kind = ButtonDown
	case C.kCGEventLeftMouseDragged:
		kind = Move
	case C.kCGEventLeftMouseUp:
		kind = ButtonUp
	case C.kCGEventTapDisabledByTimeout, C.kCGEventTapDisabledByUserInput:
		// the system disables slow taps; turn it back on and carry on
		C.reenableTap(stream.tap)
		return event
	default:
		return event
	}

	stream.emitEvent(Event{
		Kind:      kind,
		X:         float64(C.cgEventGetX(event)),
		Y:         float64(C.cgEventGetY(event)),
		Timestamp: stream.now(),
	})
	return event
}
