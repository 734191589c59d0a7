package main

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/config"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/discovery"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/resilience"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/sink"
	"github.com/Sreehari2710/Apify-Reels-Discovery/pkg/apify"
)

// initService validates the config for mode and wires the Apify client,
// the spreadsheet sink, and the discovery service.
func initService(ctx context.Context, c *config.Config, mode string) (*discovery.Service, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	client := apify.NewClient(c.Apify.Token, apifyOptions(c)...)

	appender := sink.New(ctx, sink.Config{
		SpreadsheetID:   c.Sheets.SpreadsheetID,
		CredentialsFile: c.Sheets.CredentialsFile,
		Range:           c.Sheets.Range,
	})

	return discovery.New(c, client, appender), nil
}

func apifyOptions(c *config.Config) []apify.Option {
	opts := []apify.Option{
		apify.WithRetryPolicy(retryPolicy(c.Apify)),
		apify.WithRateLimit(rate.Limit(c.Apify.RatePerSec), c.Apify.Burst),
	}
	if c.Apify.BaseURL != "" {
		opts = append(opts, apify.WithBaseURL(c.Apify.BaseURL))
	}
	if c.Apify.BreakerThreshold > 0 {
		opts = append(opts, apify.WithCircuitBreaker(breakerConfig(c.Apify)))
	}
	if c.Apify.TimeoutSecs > 0 {
		opts = append(opts, apify.WithTimeout(time.Duration(c.Apify.TimeoutSecs)*time.Second))
	}
	return opts
}

func retryPolicy(a config.ApifyConfig) resilience.Policy {
	p := resilience.DefaultPolicy()
	if a.MaxRetries > 0 {
		p.MaxAttempts = a.MaxRetries
	}
	if a.BackoffMillis > 0 {
		p.InitialBackoff = time.Duration(a.BackoffMillis) * time.Millisecond
	}
	if a.MaxBackoffSecs > 0 {
		p.MaxBackoff = time.Duration(a.MaxBackoffSecs) * time.Second
	}
	return p
}

func breakerConfig(a config.ApifyConfig) resilience.BreakerConfig {
	cfg := resilience.DefaultBreakerConfig()
	cfg.FailureThreshold = a.BreakerThreshold
	if a.BreakerCooldownSecs > 0 {
		cfg.Cooldown = time.Duration(a.BreakerCooldownSecs) * time.Second
	}
	return cfg
}
