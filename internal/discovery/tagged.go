package discovery

import (
	"context"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/collect"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/input"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

// BrandpageTagged fetches, per brand page, the posts in which other
// accounts tagged it. Repeated posts within one page's results collapse to
// the last copy.
func (s *Service) BrandpageTagged(ctx context.Context, req Request) (*model.ExportResult, error) {
	batch, err := input.Build(input.Source{
		Text:   req.Text,
		Table:  req.Table,
		Column:   "brandpage",
		FoldCase: true,
		Entity:   "brandpage",
	})
	if err != nil {
		return nil, err
	}

	e := s.begin(model.DomainBrandpageTagged)
	batch = capBatch(e, batch, s.cfg.Limits.MaxBrandpages)
	limit := ClampLimit(req.Limit, s.cfg.Limits.BrandpageDefault, s.maxResults())

	results := s.fanOut(ctx, e, s.cfg.Actors.Tagged, batch, func(page string) any {
		return map[string]any{
			"username":     []string{page},
			"resultsLimit": limit,
			"proxy":        map[string]any{"useApifyProxy": true},
		}
	})

	var rows []model.Row
	for _, r := range results {
		for _, it := range collect.Dedupe(r.Items, collect.PostKey) {
			rows = append(rows, taggedRow(r.ID, it))
		}
	}
	return e.finish(rows), nil
}

func taggedRow(page string, it apify.Item) model.TaggedRow {
	return model.TaggedRow{
		Brandpage:     page,
		OwnerUsername: it.StringOr("", "ownerUsername"),
		ReelURL:       it.StringOr("", "url"),
		Likes:         it.StringOr("", "likesCount"),
		Comments:      it.StringOr("", "commentsCount"),
		Shares:        it.StringOr("", "reshareCount"),
		Views:         it.StringOr("", "videoPlayCount", "igPlayCount"),
	}
}
