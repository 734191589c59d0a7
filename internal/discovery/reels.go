package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/collect"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/input"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

// BrandpageReels fetches the reels of every brand page in one actor call
// and reports the accounts each page collaborated with.
func (s *Service) BrandpageReels(ctx context.Context, req Request) (*model.ExportResult, error) {
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

	e := s.begin(model.DomainBrandpageReels)
	batch = capBatch(e, batch, s.cfg.Limits.MaxBrandpages)
	limit := ClampLimit(req.Limit, s.cfg.Limits.BrandpageDefault, s.maxResults())

	items := s.runOnce(ctx, e, s.cfg.Actors.Reels, batch, map[string]any{
		"username":           []string(batch),
		"resultsLimit":       limit,
		"includeSharesCount": false,
		"proxy":              map[string]any{"useApifyProxy": true},
	})

	unique := collect.Dedupe(items, collect.PostKey)
	e.log.Debug("reels deduplicated", zap.Int("raw", len(items)), zap.Int("unique", len(unique)))

	rows := ClassifyCollaborations(unique, batch)
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return e.finish(out), nil
}

// ClassifyCollaborations relates each reel to each brand page:
//
//  1. the page owns the reel and it has co-authors: one row per co-author
//     other than the page itself;
//  2. otherwise, the page is among the co-authors: one row naming the owner;
//  3. otherwise nothing.
//
// Usernames compare case-insensitively.
func ClassifyCollaborations(items []apify.Item, pages []string) []model.ReelCollabRow {
	var rows []model.ReelCollabRow
	for _, it := range items {
		owner := it.StringOr("", "ownerUsername", "owner.username")
		collabs := collaborators(it)
		reelURL := it.StringOr("", "url")
		likes := it.StringOr("", "likesCount")
		comments := it.StringOr("", "commentsCount")

		for _, page := range pages {
			row := model.ReelCollabRow{
				Brandpage:  page,
				ProfileURL: model.InstagramProfileURL(page),
				ReelURL:    reelURL,
				Likes:      likes,
				Comments:   comments,
			}

			switch {
			case strings.EqualFold(page, owner) && len(collabs) > 0:
				for _, c := range collabs {
					if c == "" || strings.EqualFold(c, page) {
						continue
					}
					r := row
					r.CollaboratorURL = model.InstagramProfileURL(c)
					rows = append(rows, r)
				}
			case containsFold(collabs, page):
				if owner == "" {
					continue
				}
				row.CollaboratorURL = model.InstagramProfileURL(owner)
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func collaborators(it apify.Item) []string {
	objs := it.Objects("coauthorProducers")
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.StringOr("", "username"))
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if v != "" && strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
