// Package contact pulls email addresses and phone numbers out of free-form
// profile biographies. The patterns are loose; false positives are
// expected.
package contact

import (
	"regexp"
	"strings"
)

var (
	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRE = regexp.MustCompile(`\+?\d[\d\-() ]{7,}\d`)
)

// Info holds the unique matches found in a biography, in order of first
// appearance.
type Info struct {
	Emails []string
	Phones []string
}

// Extract scans text for emails and phone numbers.
func Extract(text string) Info {
	if text == "" {
		return Info{}
	}
	return Info{
		Emails: unique(emailRE.FindAllString(text, -1)),
		Phones: unique(phoneRE.FindAllString(text, -1)),
	}
}

// Joined returns the emails and phones as comma-separated strings, empty
// when nothing matched.
func (i Info) Joined() (emails, phones string) {
	return strings.Join(i.Emails, ", "), strings.Join(i.Phones, ", ")
}

func unique(matches []string) []string {
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
