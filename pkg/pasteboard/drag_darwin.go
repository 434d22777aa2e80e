//go:build darwin

package pasteboard

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework AppKit -framework Foundation
#include <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

static int dragPasteboardAvailable(void) {
        @autoreleasepool {
                return [NSPasteboard pasteboardWithName:NSPasteboardNameDrag] != nil;
        }
}

static int dragChangeCount(long long *out) {
        @autoreleasepool {
                NSPasteboard *pb = [NSPasteboard pasteboardWithName:NSPasteboardNameDrag];
                if (pb == nil) {
                        return 0;
                }
                *out = (long long)[pb changeCount];
                return 1;
        }
}

static char *dragCopyString(const char *type) {
        @autoreleasepool {
                NSPasteboard *pb = [NSPasteboard pasteboardWithName:NSPasteboardNameDrag];
                if (pb == nil) {
                        return NULL;
                }
                NSString *value = [pb stringForType:[NSString stringWithUTF8String:type]];
                if (value == nil) {
                        return NULL;
                }
                const char *utf8 = [value UTF8String];
                if (utf8 == NULL) {
                        return NULL;
                }
                return strdup(utf8);
        }
}

static void *dragCopyData(const char *type, int *length) {
        @autoreleasepool {
                NSPasteboard *pb = [NSPasteboard pasteboardWithName:NSPasteboardNameDrag];
                if (pb == nil) {
                        return NULL;
                }
                NSData *data = [pb dataForType:[NSString stringWithUTF8String:type]];
                if (data == nil) {
                        return NULL;
                }
                NSUInteger size = [data length];
                void *buf = malloc(size > 0 ? size : 1);
                if (buf == NULL) {
                        return NULL;
                }
                memcpy(buf, [data bytes], size);
                *length = (int)size;
                return buf;
        }
}
*/
import "C"

import (
	"unsafe"
)

type dragPasteboard struct{}

// Drag returns the system drag pasteboard.
func Drag() Source {
	return dragPasteboard{}
}

func (dragPasteboard) Revision() (int64, error) {
	var count C.longlong
	if C.dragChangeCount(&count) == 0 {
		return 0, ErrUnavailable
	}
	return int64(count), nil
}

func (dragPasteboard) Content() (Content, error) {
	if C.dragPasteboardAvailable() == 0 {
		return None(), ErrUnavailable
	}

	var flavors Flavors
	if data, ok := copyData(TypeFileNames); ok {
		names, err := DecodeFileNames(data)
		if err != nil {
			return None(), err
		}
		flavors.FileNames = names
		flavors.HasFileNames = true
	}
	flavors.HTML, flavors.HasHTML = copyString(TypeHTML)
	flavors.PlainText, flavors.HasPlainText = copyString(TypePlainText)
	return Classify(flavors), nil
}

func copyString(pbType string) (string, bool) {
	ctype := C.CString(pbType)
	defer C.free(unsafe.Pointer(ctype))

	value := C.dragCopyString(ctype)
	if value == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(value))
	return C.GoString(value), true
}

func copyData(pbType string) ([]byte, bool) {
	ctype := C.CString(pbType)
	defer C.free(unsafe.Pointer(ctype))

	var length C.int
	buf := C.dragCopyData(ctype, &length)
	if buf == nil {
		return nil, false
	}
	defer C.free(buf)
	return C.GoBytes(buf, length), true
}
