// Package input turns free-text form fields and uploaded tables into an
// ordered, de-duplicated batch of identifiers.
package input

import (
	"strings"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/table"
)

// Batch is an ordered set of identifiers. The first occurrence of a value
// fixes its position.
type Batch []string

// SplitText splits a free-text field on commas and newlines. Tokens are
// trimmed and empty ones dropped. With stripHash a leading '#' run is
// removed, as for hashtags.
func SplitText(value string, stripHash bool) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := Normalize(f, stripHash); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Normalize trims a single identifier and, with stripHash, drops leading
// '#' characters.
func Normalize(value string, stripHash bool) string {
	value = strings.TrimSpace(value)
	if stripHash {
		value = strings.TrimSpace(strings.TrimLeft(value, "#"))
	}
	return value
}

// Source describes where a batch comes from: a text field, an optional
// uploaded table, and the column to read from it.
type Source struct {
	Text      string
	Table     *table.Table
	Column    string
	StripHash bool
	// FoldCase treats identifiers differing only in case as one, keeping
	// the first spelling. Usernames and brand pages are case-insensitive.
	FoldCase bool
	// Entity names what the identifiers are, for error messages.
	Entity string
}

// Build merges the text field and the table column into one batch. A table
// without the column fails with *model.SchemaError before anything else
// happens; an empty result is a *model.ValidationError.
func Build(src Source) (Batch, error) {
	values := SplitText(src.Text, src.StripHash)

	if src.Table != nil {
		col, err := src.Table.Column(src.Column)
		if err != nil {
			return nil, err
		}
		for _, v := range col {
			if tok := Normalize(v, src.StripHash); tok != "" {
				values = append(values, tok)
			}
		}
	}

	dedupe := Dedupe
	if src.FoldCase {
		dedupe = DedupeFold
	}
	b := dedupe(values)
	if len(b) == 0 {
		entity := src.Entity
		if entity == "" {
			entity = src.Column
		}
		return nil, model.Invalid("Provide at least one %s", entity)
	}
	return b, nil
}

// Dedupe drops repeated values keeping first occurrences.
func Dedupe(values []string) Batch {
	seen := make(map[string]struct{}, len(values))
	out := make(Batch, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DedupeFold is Dedupe with case-insensitive comparison.
func DedupeFold(values []string) Batch {
	seen := make(map[string]struct{}, len(values))
	out := make(Batch, 0, len(values))
	for _, v := range values {
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Cap truncates the batch to at most n identifiers and reports whether
// anything was dropped. n <= 0 means no cap.
func (b Batch) Cap(n int) (Batch, bool) {
	if n <= 0 || len(b) <= n {
		return b, false
	}
	return b[:n:n], true
}
