// Package collect fans actor calls out over a bounded worker pool and merges
// the records that come back.
package collect

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

// Task fetches the records for one identifier.
type Task func(ctx context.Context, id string) ([]apify.Item, error)

// TaskResult is the outcome of one Task. A failed or timed out task has no
// items.
type TaskResult struct {
	ID       string
	Items    []apify.Item
	Status   model.TaskStatus
	Err      error
	Duration time.Duration
}

// FanOut runs fn once per id with at most workers in flight, each under its
// own timeout. It waits for every task and never cancels siblings when one
// fails. Results arrive in completion order.
func FanOut(ctx context.Context, ids []string, workers int, timeout time.Duration, fn Task) []TaskResult {
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	var (
		mu      sync.Mutex
		results = make([]TaskResult, 0, len(ids))
	)
	var failed atomic.Int64

	for _, id := range ids {
		id := id
		g.Go(func() error {
			res := runTask(ctx, id, timeout, fn)
			if res.Status != model.TaskStatusComplete {
				failed.Add(1)
			}

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	zap.L().Debug("fan-out complete",
		zap.Int("tasks", len(ids)),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

type outcome struct {
	items []apify.Item
	err   error
}

// runTask calls fn and gives up once the task deadline passes, even if fn
// ignores its context.
func runTask(ctx context.Context, id string, timeout time.Duration, fn Task) TaskResult {
	start := time.Now()

	taskCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		items, err := fn(taskCtx, id)
		done <- outcome{items: items, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-taskCtx.Done():
		out = outcome{err: taskCtx.Err()}
	}

	res := TaskResult{ID: id, Duration: time.Since(start)}
	switch {
	case out.err == nil:
		res.Items = out.items
		res.Status = model.TaskStatusComplete
	case errors.Is(taskCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.Err = out.err
		res.Status = model.TaskStatusTimedOut
	default:
		res.Err = out.err
		res.Status = model.TaskStatusFailed
	}
	return res
}

// Items concatenates the records of every completed task.
func Items(results []TaskResult) []apify.Item {
	n := 0
	for _, r := range results {
		n += len(r.Items)
	}
	out := make([]apify.Item, 0, n)
	for _, r := range results {
		out = append(out, r.Items...)
	}
	return out
}

// Summaries converts results for reporting, logging each failure as an
// upstream error.
func Summaries(actorID string, results []TaskResult) []model.TaskSummary {
	out := make([]model.TaskSummary, 0, len(results))
	for _, r := range results {
		s := model.TaskSummary{
			Query:    r.ID,
			Status:   r.Status,
			Records:  len(r.Items),
			Duration: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			upErr := Upstream(actorID, r.ID, r.Err)
			s.Error = upErr.Error()
			zap.L().Warn("actor task failed",
				zap.String("actor", actorID),
				zap.String("query", r.ID),
				zap.String("status", string(r.Status)),
				zap.Error(upErr),
			)
		}
		out = append(out, s)
	}
	return out
}

// Upstream wraps an actor failure with the attempt count reported by the
// client, if any.
func Upstream(actorID, query string, err error) *model.UpstreamError {
	attempts := 1
	var runErr *apify.RunError
	if errors.As(err, &runErr) {
		attempts = runErr.Attempts
	}
	return &model.UpstreamError{Actor: actorID, Query: query, Attempts: attempts, Err: err}
}
