// Package discovery runs the per-domain collection pipelines: it builds the
// identifier batch, invokes the domain's actor, and shapes the returned
// records into export rows.
package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/collect"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/config"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/input"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/sink"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/table"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

// Request is the input of a batch export: free text and/or an uploaded
// table, plus the per-call result limit.
type Request struct {
	Text  string
	Table *table.Table
	// Limit is the number of results requested per actor call. Zero picks
	// the domain default; values are clamped to [1, max_results].
	Limit int
}

// ProfileRequest is the input of a profile enrichment export.
type ProfileRequest struct {
	Table *table.Table
	// Query labels rows whose username cannot be traced to a source row.
	Query string
}

// Service runs exports against the configured actors.
type Service struct {
	cfg    *config.Config
	client apify.Client
	sink   sink.Appender
}

// New creates a Service. A nil appender disables the spreadsheet sink.
func New(cfg *config.Config, client apify.Client, appender sink.Appender) *Service {
	if appender == nil {
		appender = sink.Noop{}
	}
	return &Service{cfg: cfg, client: client, sink: appender}
}

// ClampLimit applies the default and bounds to a requested result limit.
func ClampLimit(limit, def, max int) int {
	if limit == 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

// export tracks one in-flight export and produces its result.
type export struct {
	result *model.ExportResult
	log    *zap.Logger
}

func (s *Service) begin(domain model.Domain) *export {
	id := uuid.NewString()
	return &export{
		result: &model.ExportResult{
			ID:        id,
			Domain:    domain,
			StartedAt: time.Now(),
		},
		log: zap.L().With(zap.String("export_id", id), zap.String("domain", string(domain))),
	}
}

func (e *export) finish(rows []model.Row) *model.ExportResult {
	e.result.Rows = rows
	e.result.Duration = time.Since(e.result.StartedAt).Milliseconds()
	e.log.Info("export complete",
		zap.Int("queries", len(e.result.Queries)),
		zap.Int("tasks", len(e.result.Tasks)),
		zap.Int("failed_tasks", e.result.Failed()),
		zap.Int("raw_records", e.result.RawRecords),
		zap.Int("rows", len(rows)),
		zap.Int64("duration_ms", e.result.Duration),
	)
	return e.result
}

// fanOut runs one actor call per identifier and records the task outcomes.
func (s *Service) fanOut(ctx context.Context, e *export, actor config.ActorConfig, ids []string, payload func(id string) any) []collect.TaskResult {
	results := collect.FanOut(ctx, ids, s.cfg.Fetch.Workers, s.taskTimeout(), func(ctx context.Context, id string) ([]apify.Item, error) {
		return s.client.RunSync(ctx, actor.ID, payload(id), apify.WithWaitForFinish(actor.WaitSecs))
	})
	e.record(actor.ID, results)
	return results
}

// runOnce issues a single actor call covering the whole batch.
func (s *Service) runOnce(ctx context.Context, e *export, actor config.ActorConfig, batch []string, payload any) []apify.Item {
	label := strings.Join(batch, ",")
	results := collect.FanOut(ctx, []string{label}, 1, s.taskTimeout(), func(ctx context.Context, _ string) ([]apify.Item, error) {
		return s.client.RunSync(ctx, actor.ID, payload, apify.WithWaitForFinish(actor.WaitSecs))
	})
	e.record(actor.ID, results)
	return collect.Items(results)
}

func (e *export) record(actorID string, results []collect.TaskResult) {
	e.result.Tasks = append(e.result.Tasks, collect.Summaries(actorID, results)...)
	for _, r := range results {
		e.result.RawRecords += len(r.Items)
	}
}

func (s *Service) taskTimeout() time.Duration {
	return time.Duration(s.cfg.Fetch.TaskTimeoutSecs) * time.Second
}

func (s *Service) maxResults() int {
	return s.cfg.Limits.MaxResults
}

// capBatch truncates the batch and notes it on the export.
func capBatch(e *export, batch input.Batch, n int) input.Batch {
	capped, truncated := batch.Cap(n)
	if truncated {
		e.log.Info("batch truncated", zap.Int("requested", len(batch)), zap.Int("cap", n))
		e.result.Truncated = true
	}
	e.result.Queries = capped
	return capped
}
