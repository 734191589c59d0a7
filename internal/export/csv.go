// Package export projects shaped rows onto the fixed CSV schema of each
// export domain.
package export

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
)

// Schema is the ordered column list of one export.
type Schema struct {
	Domain  model.Domain
	Columns []string
}

var (
	// HashtagSchema lists one post per row under the queried tag.
	HashtagSchema = Schema{
		Domain:  model.DomainHashtag,
		Columns: []string{"hashtag", "username", "user_link", "caption_text"},
	}

	// ReelsSchema lists brand page collaborations. Profile enrichment detects
	// this export by its headers.
	ReelsSchema = Schema{
		Domain:  model.DomainBrandpageReels,
		Columns: []string{"brandpage", "insta profile url", "collaborated account url", "reel url", "likes", "comments"},
	}

	// TaggedSchema lists posts that tagged a brand page.
	TaggedSchema = Schema{
		Domain:  model.DomainBrandpageTagged,
		Columns: []string{"brandpage", "owner_username", "reel_url", "likes", "comments", "shares", "views"},
	}

	// ProfileSchema lists enriched profiles with contact details.
	ProfileSchema = Schema{
		Domain:  model.DomainProfile,
		Columns: []string{"query_type", "query", "username", "url", "followers", "categories", "postcount", "bio", "email", "phone"},
	}

	// KeywordSchema lists YouTube videos found per keyword.
	KeywordSchema = Schema{
		Domain:  model.DomainKeyword,
		Columns: []string{"keyword", "url", "channelName", "viewCount"},
	}
)

// SchemaFor returns the schema of a domain.
func SchemaFor(d model.Domain) (Schema, error) {
	switch d {
	case model.DomainHashtag:
		return HashtagSchema, nil
	case model.DomainBrandpageReels:
		return ReelsSchema, nil
	case model.DomainBrandpageTagged:
		return TaggedSchema, nil
	case model.DomainProfile:
		return ProfileSchema, nil
	case model.DomainKeyword:
		return KeywordSchema, nil
	default:
		return Schema{}, eris.Errorf("export: unknown domain %q", d)
	}
}

// Write emits the header and one line per row. Every row must have exactly
// as many values as the schema has columns.
func Write(w io.Writer, schema Schema, rows []model.Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(schema.Columns); err != nil {
		return eris.Wrap(err, "export: write CSV header")
	}

	for i, r := range rows {
		vals := r.Values()
		if len(vals) != len(schema.Columns) {
			return eris.Errorf("export: row %d has %d values, %s schema has %d columns",
				i, len(vals), schema.Domain, len(schema.Columns))
		}
		if err := cw.Write(vals); err != nil {
			return eris.Wrap(err, "export: write CSV row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush CSV")
}

// Bytes renders the export in memory.
func Bytes(schema Schema, rows []model.Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, schema, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
