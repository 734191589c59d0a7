package discovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/config"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/resilience"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/sink"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

const (
	hashtagActor = "test~hashtag"
	reelsActor   = "test~reels"
	taggedActor  = "test~tagged"
	profileActor = "test~profile"
	keywordActor = "test~keyword"
)

// actorCall is one request received by the fake actor API.
type actorCall struct {
	Actor         string
	WaitForFinish string
	Body          map[string]any
}

// actorHandler answers a run for one actor.
type actorHandler func(w http.ResponseWriter, r *http.Request, body map[string]any)

type fakeApify struct {
	mu       sync.Mutex
	calls    []actorCall
	handlers map[string]actorHandler
}

func newFakeApify(t *testing.T, handlers map[string]actorHandler) (*httptest.Server, *fakeApify) {
	t.Helper()
	f := &fakeApify{handlers: handlers}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 4 || parts[0] != "v2" || parts[1] != "acts" || parts[3] != "run-sync-get-dataset-items" {
			http.NotFound(w, r)
			return
		}
		actor := parts[2]

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.calls = append(f.calls, actorCall{Actor: actor, WaitForFinish: r.URL.Query().Get("waitForFinish"), Body: body})
		h := f.handlers[actor]
		f.mu.Unlock()

		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r, body)
	}))
	t.Cleanup(srv.Close)
	return srv, f
}

func (f *fakeApify) Calls() []actorCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]actorCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Apify.Token = "tok"
	cfg.Actors.Hashtag = config.ActorConfig{ID: hashtagActor, WaitSecs: 300}
	cfg.Actors.Reels = config.ActorConfig{ID: reelsActor, WaitSecs: 600}
	cfg.Actors.Tagged = config.ActorConfig{ID: taggedActor, WaitSecs: 600}
	cfg.Actors.Profile = config.ActorConfig{ID: profileActor, WaitSecs: 600}
	cfg.Actors.Keyword = config.ActorConfig{ID: keywordActor, WaitSecs: 600}
	cfg.Fetch.Workers = 3
	cfg.Fetch.TaskTimeoutSecs = 5
	cfg.Limits.MaxBrandpages = 10
	cfg.Limits.MaxResults = 1000
	cfg.Limits.HashtagDefault = 20
	cfg.Limits.BrandpageDefault = 1000
	cfg.Limits.KeywordDefault = 1000
	return cfg
}

func newTestService(t *testing.T, srv *httptest.Server, cfg *config.Config, appender sink.Appender) *Service {
	t.Helper()
	client := apify.NewClient("tok",
		apify.WithBaseURL(srv.URL),
		apify.WithRetryPolicy(resilience.Policy{MaxAttempts: 2}),
		apify.WithRateLimit(0, 0),
	)
	return New(cfg, client, appender)
}

func strs(vals ...string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
