package discovery

import (
	"context"
	"strings"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/collect"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/contact"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/input"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/sink"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/table"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

var (
	hashtagExportColumns = []string{"hashtag", "username", "user_link", "caption_text"}
	reelsExportColumns   = []string{"brandpage", "insta profile url", "collaborated account url", "reel url", "likes", "comments"}
	taggedExportColumns  = []string{"brandpage", "owner_username", "reel_url", "likes", "comments", "shares", "views"}
)

// DetectSource identifies which export an uploaded table came from.
func DetectSource(t *table.Table) (model.Domain, error) {
	switch {
	case t.HasAll(hashtagExportColumns...):
		return model.DomainHashtag, nil
	case t.HasAll(reelsExportColumns...):
		return model.DomainBrandpageReels, nil
	case t.HasAll(taggedExportColumns...):
		return model.DomainBrandpageTagged, nil
	default:
		return "", model.Invalid("Unrecognized CSV format. Could not find required columns.")
	}
}

// SourceUsernames pulls the discovered usernames out of an export table,
// in first-seen order, together with a map from lowercased username to the
// query that surfaced it. Later rows overwrite earlier ones in the map.
func SourceUsernames(t *table.Table, source model.Domain) ([]string, map[string]string) {
	var usernames []string
	queries := make(map[string]string)

	for _, row := range t.Rows {
		var u, q string
		switch source {
		case model.DomainHashtag:
			u = t.Value(row, "username")
			q = t.Value(row, "hashtag")
		case model.DomainBrandpageReels:
			u = usernameFromURL(t.Value(row, "collaborated account url"))
			q = t.Value(row, "brandpage")
		case model.DomainBrandpageTagged:
			u = t.Value(row, "owner_username")
			q = t.Value(row, "brandpage")
		}
		if u == "" {
			continue
		}
		usernames = append(usernames, u)
		queries[strings.ToLower(u)] = q
	}

	return input.DedupeFold(usernames), queries
}

// usernameFromURL returns the last path segment of a profile URL.
func usernameFromURL(u string) string {
	u = strings.Trim(strings.TrimSpace(u), "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	return u
}

// Profiles enriches the accounts listed in a previous export with their
// profile data and appends the result to the spreadsheet sink.
func (s *Service) Profiles(ctx context.Context, req ProfileRequest) (*model.ExportResult, error) {
	if req.Table == nil {
		return nil, model.Invalid("Upload a CSV")
	}
	source, err := DetectSource(req.Table)
	if err != nil {
		return nil, err
	}
	usernames, queries := SourceUsernames(req.Table, source)
	if len(usernames) == 0 {
		return nil, model.Invalid("No valid usernames found in CSV file.")
	}

	e := s.begin(model.DomainProfile)
	e.result.Queries = usernames

	items := s.runOnce(ctx, e, s.cfg.Actors.Profile, usernames, map[string]any{
		"usernames": usernames,
	})
	profiles := collect.Dedupe(items, func(it apify.Item) collect.Key {
		return collect.Key{ID: it.StringOr("", "username")}
	})

	var rows []model.Row
	var sinkRows [][]string
	for _, p := range profiles {
		row, ok := profileRow(source, p, queries, req.Query)
		if !ok {
			continue
		}
		rows = append(rows, row)
		sinkRows = append(sinkRows, row.Values())
	}

	sink.BestEffort(ctx, s.sink, sinkRows)
	return e.finish(rows), nil
}

func profileRow(source model.Domain, p apify.Item, queries map[string]string, fallback string) (model.ProfileRow, bool) {
	username := p.StringOr("", "username")
	if username == "" {
		return model.ProfileRow{}, false
	}

	query, ok := queries[strings.ToLower(username)]
	if !ok {
		query = fallback
	}

	bio := p.StringOr("", "biography")
	emails, phones := contact.Extract(bio).Joined()
	followers := p.IntOr(0, "followersCount")

	return model.ProfileRow{
		QueryType: string(source),
		Query:     query,
		Username:  username,
		URL:       model.InstagramProfileURL(username),
		Followers: followers,
		Category:  model.Categorize(followers),
		PostCount: p.StringOr("", "postsCount"),
		Bio:       flatten(bio),
		Email:     emails,
		Phone:     phones,
	}, true
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// flatten puts a multi-line biography on one line.
func flatten(s string) string {
	return newlines.Replace(s)
}
