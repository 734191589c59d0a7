package apify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/resilience"
)

func fastPolicy(attempts int) resilience.Policy {
	return resilience.Policy{MaxAttempts: attempts}
}

func newTestClient(srv *httptest.Server, opts ...Option) Client {
	base := []Option{
		WithBaseURL(srv.URL),
		WithRetryPolicy(fastPolicy(5)),
		WithRateLimit(0, 0),
	}
	return NewClient("tok-123", append(base, opts...)...)
}

func TestRunSync_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/acts/apify~instagram-reel-scraper/run-sync-get-dataset-items", r.URL.Path)
		assert.Equal(t, "tok-123", r.URL.Query().Get("token"))
		assert.Equal(t, "1200", r.URL.Query().Get("waitForFinish"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"nike"}, body["username"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"shortCode":"abc","ownerUsername":"nike","likesCount":1200},{"shortCode":"def"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	items, err := client.RunSync(context.Background(), "apify~instagram-reel-scraper",
		map[string]any{"username": []string{"nike"}}, WithWaitForFinish(1200))

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "abc", items[0].StringOr("", "shortCode"))
	assert.Equal(t, "1200", items[0].StringOr("", "likesCount"))
	assert.Equal(t, "def", items[1].StringOr("", "shortCode"))
}

func TestRunSync_DefaultWaitForFinish(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "600", r.URL.Query().Get("waitForFinish"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv).RunSync(context.Background(), "a~b", map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRunSync_NonArrayBodyIsEmpty(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{"error":{"type":"run-failed"}}`,
		``,
		`null`,
		`"done"`,
	}

	for _, body := range bodies {
		body := body
		t.Run(body, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			items, err := newTestClient(srv).RunSync(context.Background(), "a~b", nil)
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestRunSync_SkipsNonObjectEntries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1, "x", {"id":"ok"}, null]`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv).RunSync(context.Background(), "a~b", nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ok", items[0].StringOr("", "id"))
}

func TestRunSync_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"usernames":["a"]}`, string(body))

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"username":"a"}]`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv).RunSync(context.Background(), "a~b", map[string]any{"usernames": []string{"a"}})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunSync_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid input"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).RunSync(context.Background(), "a~b", nil)
	require.Error(t, err)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, "a~b", runErr.ActorID)
	assert.Equal(t, 1, runErr.Attempts)
	assert.Equal(t, http.StatusBadRequest, runErr.StatusCode)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunSync_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, WithRetryPolicy(fastPolicy(4))).RunSync(context.Background(), "a~b", nil)
	require.Error(t, err)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, 4, runErr.Attempts)
	assert.Equal(t, http.StatusBadGateway, runErr.StatusCode)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, int32(4), calls.Load())
}

func TestRunSync_RetriesTimeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(200 * time.Millisecond)
		}
		w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv, WithTimeout(50*time.Millisecond))
	items, err := client.RunSync(context.Background(), "a~b", nil)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestRunSync_ContextCancelled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv).RunSync(ctx, "a~b", nil)
	require.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRunSync_MarshalError(t *testing.T) {
	t.Parallel()

	client := NewClient("tok")
	_, err := client.RunSync(context.Background(), "a~b", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal input")
}

func TestRunSync_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(srv, WithRateLimit(20, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.RunSync(context.Background(), "a~b", nil)
		require.NoError(t, err)
	}
	// Burst of one at 20/s: the second and third calls wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRunErrorUnwrap(t *testing.T) {
	t.Parallel()

	root := errors.New("boom")
	err := &RunError{ActorID: "x~y", Attempts: 2, Err: root}
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "apify: run x~y failed after 2 attempt(s): boom", err.Error())
}

func TestRunSync_CircuitBreakerFailsFastPerActor(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/v2/acts/healthy/run-sync-get-dataset-items" {
			w.Write([]byte(`[{"id":"1"}]`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv,
		WithRetryPolicy(fastPolicy(2)),
		WithCircuitBreaker(resilience.BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute}),
	)

	// Two failed attempts, then the third failure trips the breaker and the
	// retry that follows is rejected.
	_, err := client.RunSync(context.Background(), "flaky", map[string]any{})
	require.Error(t, err)
	_, err = client.RunSync(context.Background(), "flaky", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrBreakerOpen)
	assert.Equal(t, int32(3), calls.Load())

	_, err = client.RunSync(context.Background(), "flaky", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrBreakerOpen)
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 1, runErr.Attempts)
	assert.Equal(t, int32(3), calls.Load(), "open breaker must not reach the API")

	items, err := client.RunSync(context.Background(), "healthy", map[string]any{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRunSync_CircuitBreakerIgnoresClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newTestClient(srv, WithCircuitBreaker(resilience.BreakerConfig{FailureThreshold: 1}))

	for i := 0; i < 3; i++ {
		_, err := client.RunSync(context.Background(), "strict", map[string]any{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrBreakerOpen)
	}
	assert.Equal(t, int32(3), calls.Load())
}
