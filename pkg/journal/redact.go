package journal

import (
	"regexp"
	"strings"

	"github.com/offlinefirst/dragsense/pkg/pasteboard"
)

const emailPattern = `(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`

// namedPatterns lets configuration refer to common expressions by name.
var namedPatterns = map[string]string{
	"email": emailPattern,
	"cc16":  `\b(?:\d[ -]?){16}\b`,
	"jwt":   `eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9._-]+\.[A-Za-z0-9._-]+`,
	"home":  `/(?:Users|home)/[^/\s]+`,
}

// Redactor masks sensitive substrings before summaries reach the journal.
//
// The zero value is a no-op redactor.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor builds a redaction pipeline. When redactEmails is true a
// built-in expression masks common email formats. Custom entries are either
// regular expressions or one of the names email, cc16, jwt, home.
func NewRedactor(redactEmails bool, custom []string) (Redactor, error) {
	patterns := make([]*regexp.Regexp, 0, len(custom)+1)

	if redactEmails {
		patterns = append(patterns, regexp.MustCompile(emailPattern))
	}

	for _, expr := range custom {
		trimmed := strings.TrimSpace(expr)
		if trimmed == "" {
			continue
		}

		candidate := trimmed
		if mapped, ok := namedPatterns[strings.ToLower(trimmed)]; ok {
			candidate = mapped
		}

		rx, err := regexp.Compile(candidate)
		if err != nil {
			return Redactor{}, err
		}
		patterns = append(patterns, rx)
	}

	return Redactor{patterns: patterns}, nil
}

// ApplyString redacts sensitive content from a string.
func (r Redactor) ApplyString(input string) string {
	redacted := input
	for _, rx := range r.patterns {
		redacted = rx.ReplaceAllString(redacted, "[REDACTED]")
	}
	return redacted
}

// Summarize renders the content summary with sensitive content masked.
func (r Redactor) Summarize(content pasteboard.Content) string {
	return r.ApplyString(content.Summary())
}
