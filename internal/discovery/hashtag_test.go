package discovery

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/table"
)

func TestHashtagCap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit int
		want  int
	}{
		{1, 10},
		{100, 10},
		{101, 5},
		{500, 5},
		{501, 2},
		{1000, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HashtagCap(tt.limit), "limit=%d", tt.limit)
	}
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 20, ClampLimit(0, 20, 1000))
	assert.Equal(t, 1000, ClampLimit(5000, 20, 1000))
	assert.Equal(t, 1, ClampLimit(-3, 20, 1000))
	assert.Equal(t, 50, ClampLimit(50, 20, 1000))
}

func TestHashtags_OneCallPerTag(t *testing.T) {
	t.Parallel()

	srv, fake := newFakeApify(t, map[string]actorHandler{
		hashtagActor: func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
			tag := body["hashtags"].([]any)[0].(string)
			switch tag {
			case "travel":
				writeJSON(t, w, []map[string]any{
					{"user": map[string]any{"username": "wanderer"}, "link_user": "https://www.instagram.com/wanderer/", "caption": map[string]any{"text": "sunsets"}},
					{"user.username": "flatuser", "caption.text": "flat caption"},
				})
			default:
				writeJSON(t, w, []map[string]any{{"user": map[string]any{"username": "chef"}}})
			}
		},
	})
	svc := newTestService(t, srv, testConfig(), nil)

	res, err := svc.Hashtags(context.Background(), Request{Text: "#travel, food\n#travel"})
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Equal(t, hashtagActor, c.Actor)
		assert.Equal(t, "300", c.WaitForFinish)
		assert.Equal(t, float64(20), c.Body["resultsLimit"])
	}

	assert.Equal(t, model.DomainHashtag, res.Domain)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, []string{"travel", "food"}, res.Queries)
	assert.False(t, res.Truncated)
	assert.Equal(t, 3, res.RawRecords)
	assert.Equal(t, 0, res.Failed())

	byTag := map[string][]model.HashtagRow{}
	for _, r := range res.Rows {
		row := r.(model.HashtagRow)
		byTag[row.Hashtag] = append(byTag[row.Hashtag], row)
	}
	require.Len(t, byTag["travel"], 2)
	assert.Contains(t, byTag["travel"], model.HashtagRow{
		Hashtag: "travel", Username: "wanderer", UserLink: "https://www.instagram.com/wanderer/", CaptionText: "sunsets",
	})
	assert.Contains(t, byTag["travel"], model.HashtagRow{
		Hashtag: "travel", Username: "flatuser", CaptionText: "flat caption",
	})
	assert.Equal(t, []model.HashtagRow{{Hashtag: "food", Username: "chef"}}, byTag["food"])
}

func TestHashtags_CapsTagsForLargeLimits(t *testing.T) {
	t.Parallel()

	srv, fake := newFakeApify(t, map[string]actorHandler{
		hashtagActor: func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
			w.Write([]byte(`[]`))
		},
	})
	svc := newTestService(t, srv, testConfig(), nil)

	res, err := svc.Hashtags(context.Background(), Request{Text: "a,b,c,d", Limit: 600})
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.Equal(t, []string{"a", "b"}, res.Queries)
	assert.Len(t, fake.Calls(), 2)
	assert.Empty(t, res.Rows)
}

func TestHashtags_MissingColumnMakesNoCalls(t *testing.T) {
	t.Parallel()

	srv, fake := newFakeApify(t, nil)
	svc := newTestService(t, srv, testConfig(), nil)

	tbl := table.New([]string{"tag"}, [][]string{{"travel"}})
	_, err := svc.Hashtags(context.Background(), Request{Text: "food", Table: tbl})
	require.Error(t, err)

	var se *model.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "hashtag", se.Column)
	assert.Empty(t, fake.Calls())
}

func TestHashtags_EmptyBatch(t *testing.T) {
	t.Parallel()

	srv, fake := newFakeApify(t, nil)
	svc := newTestService(t, srv, testConfig(), nil)

	_, err := svc.Hashtags(context.Background(), Request{Text: " # , "})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, "Provide at least one hashtag", err.Error())
	assert.Empty(t, fake.Calls())
}

func TestHashtags_PartialFailure(t *testing.T) {
	t.Parallel()

	srv, _ := newFakeApify(t, map[string]actorHandler{
		hashtagActor: func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
			if body["hashtags"].([]any)[0] == "broken" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(t, w, []map[string]any{{"user": map[string]any{"username": "ok"}}})
		},
	})
	svc := newTestService(t, srv, testConfig(), nil)

	res, err := svc.Hashtags(context.Background(), Request{Text: "good,broken"})
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "good", res.Rows[0].(model.HashtagRow).Hashtag)
	assert.Equal(t, 1, res.Failed())
}
