package discovery

import (
	"context"
	"strings"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/input"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

// Keywords searches videos for every keyword in one actor call.
func (s *Service) Keywords(ctx context.Context, req Request) (*model.ExportResult, error) {
	batch, err := input.Build(input.Source{
		Text:   req.Text,
		Table:  req.Table,
		Column: "keyword",
		Entity: "keyword",
	})
	if err != nil {
		return nil, err
	}

	e := s.begin(model.DomainKeyword)
	e.result.Queries = batch
	limit := ClampLimit(req.Limit, s.cfg.Limits.KeywordDefault, s.maxResults())

	items := s.runOnce(ctx, e, s.cfg.Actors.Keyword, batch, map[string]any{
		"query":        []string(batch),
		"resultsCount": limit,
	})

	rows := make([]model.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, keywordRow(batch, it))
	}
	return e.finish(rows), nil
}

// resolveKeyword maps the search term an item echoes back onto the batch.
// An unmatched term resolves to "" unless the batch has a single keyword.
func resolveKeyword(batch []string, it apify.Item) string {
	if len(batch) == 1 {
		return batch[0]
	}
	echoed := strings.TrimSpace(it.StringOr("", "query", "keyword", "input", "searchQuery"))
	for _, k := range batch {
		if strings.EqualFold(k, echoed) {
			return k
		}
	}
	return ""
}

func keywordRow(batch []string, it apify.Item) model.KeywordRow {
	url := it.StringOr("", "url")
	if url == "" {
		if id, ok := it.String("id"); ok {
			url = "https://www.youtube.com/watch?v=" + id
		}
	}
	return model.KeywordRow{
		Keyword:     resolveKeyword(batch, it),
		URL:         url,
		ChannelName: it.StringOr("", "channelName", "channel_title"),
		ViewCount:   it.StringOr("", "viewCount", "views"),
	}
}
