package pasteboard

import (
	"errors"
	"fmt"
	"strings"

	"howett.net/plist"
)

// ErrUnavailable indicates the drag pasteboard could not be reached.
var ErrUnavailable = errors.New("drag pasteboard unavailable")

// Source exposes the drag pasteboard's change counter and current payload.
// Both calls must return promptly; they run on the input delivery thread.
type Source interface {
	Revision() (int64, error)
	Content() (Content, error)
}

// Pasteboard type identifiers read from the drag pasteboard.
const (
	TypeFileNames = "NSFilenamesPboardType"
	TypeHTML      = "public.html"
	TypePlainText = "public.utf8-plain-text"
)

// Flavors holds the raw representations present on the pasteboard.
// The Has fields distinguish an absent flavor from an empty one.
type Flavors struct {
	FileNames    []string
	HasFileNames bool
	HTML         string
	HasHTML      bool
	PlainText    string
	HasPlainText bool
}

// Classify picks the payload variant for a set of flavors.
//
// File lists win over everything else. HTML whose markup contains an <img>
// tag and whose plain-text flavor is an http(s) URL is treated as a single
// remote image; other HTML is rich text with the plain text as fallback.
// Otherwise plain text, otherwise nothing.
func Classify(f Flavors) Content {
	if f.HasFileNames {
		return Files(f.FileNames...)
	}
	if f.HasHTML {
		plain := ""
		if f.HasPlainText {
			plain = f.PlainText
		}
		if isSingleRemoteImage(f.HTML, plain) {
			return RemoteImage(plain)
		}
		return RichText(f.HTML, plain)
	}
	if f.HasPlainText {
		return PlainText(f.PlainText)
	}
	return None()
}

func isSingleRemoteImage(html, plain string) bool {
	// TODO: drags carrying several <img> tags still collapse to the one
	// plain-text URL; revisit once multi-image drags have a defined payload.
	return strings.Contains(html, "<img") &&
		(strings.HasPrefix(plain, "http://") || strings.HasPrefix(plain, "https://"))
}

// DecodeFileNames parses the property list stored under TypeFileNames.
func DecodeFileNames(data []byte) ([]string, error) {
	var names []string
	if _, err := plist.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode file name list: %w", err)
	}
	return names, nil
}
