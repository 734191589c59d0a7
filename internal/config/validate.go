package config

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the fields required by mode are set. Modes are
// "serve" and "export".
func (c *Config) Validate(mode string) error {
	var missing []string

	if c.Apify.Token == "" {
		missing = append(missing, "apify.token")
	}
	for name, a := range map[string]ActorConfig{
		"hashtag": c.Actors.Hashtag,
		"reels":   c.Actors.Reels,
		"tagged":  c.Actors.Tagged,
		"profile": c.Actors.Profile,
		"keyword": c.Actors.Keyword,
	} {
		if a.ID == "" {
			missing = append(missing, "actors."+name+".id")
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return eris.Errorf("config: missing required fields: %s", strings.Join(missing, ", "))
	}

	if c.Fetch.Workers < 1 || c.Fetch.Workers > 50 {
		return eris.Errorf("config: fetch.workers must be between 1 and 50, got %d", c.Fetch.Workers)
	}
	if c.Apify.MaxRetries < 1 {
		return eris.Errorf("config: apify.max_retries must be at least 1, got %d", c.Apify.MaxRetries)
	}
	if c.Limits.MaxResults < 1 {
		return eris.Errorf("config: limits.max_results must be positive, got %d", c.Limits.MaxResults)
	}

	switch mode {
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return eris.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
		}
	case "export":
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	return nil
}

