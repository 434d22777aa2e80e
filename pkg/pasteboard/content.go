// Package pasteboard reads what is being dragged.
//
// The drag pasteboard exposes a change counter and a handful of typed
// flavors. Source abstracts both; the darwin build reads NSPasteboardNameDrag,
// other platforms and tests use Memory.
package pasteboard

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies which variant of Content is populated.
type Kind int

const (
	KindNone Kind = iota
	KindFiles
	KindPlainText
	KindRichText
	KindRemoteImage
)

var kindNames = map[Kind]string{
	KindNone:        "none",
	KindFiles:       "files",
	KindPlainText:   "text",
	KindRichText:    "rich_text",
	KindRemoteImage: "remote_image",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a kind name back to its value.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for kind, candidate := range kindNames {
		if candidate == normalized {
			return kind, nil
		}
	}
	switch normalized {
	case "", "empty":
		return KindNone, nil
	case "plain_text", "plain":
		return KindPlainText, nil
	case "html", "rich":
		return KindRichText, nil
	case "image", "images":
		return KindRemoteImage, nil
	case "file":
		return KindFiles, nil
	}
	return KindNone, fmt.Errorf("unknown content kind %q", name)
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Content is the payload carried by a drag. Only the fields matching Kind
// are meaningful; the zero value is an empty pasteboard.
type Content struct {
	Kind      Kind     `json:"kind"`
	Files     []string `json:"files,omitempty"`
	Text      string   `json:"text,omitempty"`
	HTML      string   `json:"html,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

// None returns the empty payload.
func None() Content {
	return Content{Kind: KindNone}
}

// Files wraps a list of local paths.
func Files(paths ...string) Content {
	return Content{Kind: KindFiles, Files: append([]string(nil), paths...)}
}

// PlainText wraps a plain string.
func PlainText(text string) Content {
	return Content{Kind: KindPlainText, Text: text}
}

// RichText wraps HTML together with its plain-text fallback.
func RichText(html, fallback string) Content {
	return Content{Kind: KindRichText, HTML: html, Text: fallback}
}

// RemoteImage wraps one or more image URLs.
func RemoteImage(urls ...string) Content {
	return Content{Kind: KindRemoteImage, ImageURLs: append([]string(nil), urls...)}
}

// IsEmpty reports whether the payload carries nothing.
func (c Content) IsEmpty() bool {
	return c.Kind == KindNone
}

// Summary renders a single-line description for logs and terminals.
func (c Content) Summary() string {
	switch c.Kind {
	case KindFiles:
		return fmt.Sprintf("%d file(s): %s", len(c.Files), strings.Join(c.Files, ", "))
	case KindPlainText:
		return fmt.Sprintf("text: %s", truncate(c.Text, 120))
	case KindRichText:
		return fmt.Sprintf("rich text: %s", truncate(c.Text, 120))
	case KindRemoteImage:
		return fmt.Sprintf("%d remote image(s): %s", len(c.ImageURLs), strings.Join(c.ImageURLs, ", "))
	default:
		return "empty"
	}
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
