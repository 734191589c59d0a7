package model

import "strconv"

// HashtagRow is one post discovered under a hashtag.
type HashtagRow struct {
	Hashtag     string
	Username    string
	UserLink    string
	CaptionText string
}

// Values implements Row.
func (r HashtagRow) Values() []string {
	return []string{r.Hashtag, r.Username, r.UserLink, r.CaptionText}
}

// ReelCollabRow links a brand page to an account it co-authored a reel with.
type ReelCollabRow struct {
	Brandpage       string
	ProfileURL      string
	CollaboratorURL string
	ReelURL         string
	Likes           string
	Comments        string
}

// Values implements Row.
func (r ReelCollabRow) Values() []string {
	return []string{r.Brandpage, r.ProfileURL, r.CollaboratorURL, r.ReelURL, r.Likes, r.Comments}
}

// TaggedRow is a post by another account that tagged the brand page.
type TaggedRow struct {
	Brandpage     string
	OwnerUsername string
	ReelURL       string
	Likes         string
	Comments      string
	Shares        string
	Views         string
}

// Values implements Row.
func (r TaggedRow) Values() []string {
	return []string{r.Brandpage, r.OwnerUsername, r.ReelURL, r.Likes, r.Comments, r.Shares, r.Views}
}

// ProfileRow is a scraped profile enriched with its follower tier and the
// contact details found in its biography.
type ProfileRow struct {
	QueryType string
	Query     string
	Username  string
	URL       string
	Followers int64
	Category  FollowerCategory
	PostCount string
	Bio       string
	Email     string
	Phone     string
}

// Values implements Row.
func (r ProfileRow) Values() []string {
	return []string{
		r.QueryType,
		r.Query,
		r.Username,
		r.URL,
		strconv.FormatInt(r.Followers, 10),
		string(r.Category),
		r.PostCount,
		r.Bio,
		r.Email,
		r.Phone,
	}
}

// KeywordRow is one video returned by a keyword search.
type KeywordRow struct {
	Keyword     string
	URL         string
	ChannelName string
	ViewCount   string
}

// Values implements Row.
func (r KeywordRow) Values() []string {
	return []string{r.Keyword, r.URL, r.ChannelName, r.ViewCount}
}

// InstagramProfileURL returns the canonical profile URL for a username.
func InstagramProfileURL(username string) string {
	return "https://www.instagram.com/" + username + "/"
}
