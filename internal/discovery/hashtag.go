package discovery

import (
	"context"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/input"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

// HashtagCap bounds how many hashtags one request may fan out to. Large
// per-tag limits get fewer tags.
func HashtagCap(limit int) int {
	switch {
	case limit <= 100:
		return 10
	case limit <= 500:
		return 5
	default:
		return 2
	}
}

// Hashtags runs one hashtag actor call per tag and returns the posts found.
func (s *Service) Hashtags(ctx context.Context, req Request) (*model.ExportResult, error) {
	batch, err := input.Build(input.Source{
		Text:      req.Text,
		Table:     req.Table,
		Column:    "hashtag",
		StripHash: true,
		Entity:    "hashtag",
	})
	if err != nil {
		return nil, err
	}

	e := s.begin(model.DomainHashtag)
	limit := ClampLimit(req.Limit, s.cfg.Limits.HashtagDefault, s.maxResults())
	if limit > 500 {
		e.log.Warn("large per-hashtag limit may cause actor timeouts")
	}
	batch = capBatch(e, batch, HashtagCap(limit))

	actor := s.cfg.Actors.Hashtag
	results := s.fanOut(ctx, e, actor, batch, func(tag string) any {
		return map[string]any{
			"hashtags":     []string{tag},
			"resultsLimit": limit,
		}
	})

	var rows []model.Row
	for _, r := range results {
		for _, it := range r.Items {
			rows = append(rows, hashtagRow(r.ID, it))
		}
	}
	return e.finish(rows), nil
}

func hashtagRow(tag string, it apify.Item) model.HashtagRow {
	return model.HashtagRow{
		Hashtag:     tag,
		Username:    it.StringOr("", "user.username", "ownerUsername"),
		UserLink:    it.StringOr("", "link_user"),
		CaptionText: it.StringOr("", "caption.text", "caption"),
	}
}
