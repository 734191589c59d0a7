package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/config"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/discovery"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/table"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "export", "config"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "reels-discovery", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "file", "limit", "out", "query"} {
		assert.NotNil(t, exportCmd.Flags().Lookup(name), "export should have --%s flag", name)
	}
	assert.Equal(t, exportKinds, exportCmd.ValidArgs)
}

func TestExportCommand_RejectsUnknownKind(t *testing.T) {
	assert.Error(t, exportCmd.Args(exportCmd, []string{"stories"}))
	assert.Error(t, exportCmd.Args(exportCmd, []string{}))
	assert.NoError(t, exportCmd.Args(exportCmd, []string{"reels"}))
}

type recordingExporter struct {
	called  string
	request discovery.Request
	profile discovery.ProfileRequest
}

func (r *recordingExporter) result(d model.Domain) *model.ExportResult {
	return &model.ExportResult{ID: "x", Domain: d}
}

func (r *recordingExporter) Hashtags(_ context.Context, req discovery.Request) (*model.ExportResult, error) {
	r.called, r.request = "Hashtags", req
	return r.result(model.DomainHashtag), nil
}

func (r *recordingExporter) BrandpageReels(_ context.Context, req discovery.Request) (*model.ExportResult, error) {
	r.called, r.request = "BrandpageReels", req
	return r.result(model.DomainBrandpageReels), nil
}

func (r *recordingExporter) BrandpageTagged(_ context.Context, req discovery.Request) (*model.ExportResult, error) {
	r.called, r.request = "BrandpageTagged", req
	return r.result(model.DomainBrandpageTagged), nil
}

func (r *recordingExporter) Keywords(_ context.Context, req discovery.Request) (*model.ExportResult, error) {
	r.called, r.request = "Keywords", req
	return r.result(model.DomainKeyword), nil
}

func (r *recordingExporter) Profiles(_ context.Context, req discovery.ProfileRequest) (*model.ExportResult, error) {
	r.called, r.profile = "Profiles", req
	return r.result(model.DomainProfile), nil
}

func TestRunExport_Dispatch(t *testing.T) {
	tbl := table.New([]string{"username"}, nil)

	tests := []struct {
		kind string
		want string
	}{
		{"hashtag", "Hashtags"},
		{"reels", "BrandpageReels"},
		{"tagged", "BrandpageTagged"},
		{"keywords", "Keywords"},
		{"profiles", "Profiles"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rec := &recordingExporter{}
			res, err := runExport(context.Background(), rec, tt.kind, "a,b", tbl, 25, "summer")
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Equal(t, tt.want, rec.called)
			if tt.kind == "profiles" {
				assert.Equal(t, "summer", rec.profile.Query)
				assert.Same(t, tbl, rec.profile.Table)
				return
			}
			assert.Equal(t, "a,b", rec.request.Text)
			assert.Equal(t, 25, rec.request.Limit)
		})
	}
}

func TestRunExport_ProfilesNeedFile(t *testing.T) {
	rec := &recordingExporter{}
	_, err := runExport(context.Background(), rec, "profiles", "", nil, 0, "")
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Empty(t, rec.called)
}

func TestReadTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.csv")
	require.NoError(t, os.WriteFile(path, []byte("brandpage\nnike\nadidas\n"), 0o600))

	tbl, err := readTableFile(path)
	require.NoError(t, err)
	vals, err := tbl.Column("brandpage")
	require.NoError(t, err)
	assert.Equal(t, []string{"nike", "adidas"}, vals)

	_, err = readTableFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	err := writeResult(&buf, &model.ExportResult{
		Domain: model.DomainKeyword,
		Rows:   []model.Row{model.KeywordRow{Keyword: "shoes", URL: "u", ChannelName: "c", ViewCount: "9"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "keyword,url,channelName,viewCount\nshoes,u,c,9\n", buf.String())
}

func TestWriteResultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	res := &model.ExportResult{
		Domain: model.DomainHashtag,
		Rows:   []model.Row{model.HashtagRow{Hashtag: "travel", Username: "w"}},
	}

	require.NoError(t, writeResultFile(path, res))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hashtag,username,user_link,caption_text\ntravel,w,,\n", string(data))

	err = writeResultFile(filepath.Join(t.TempDir(), "missing", "out.csv"), res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export: create")

	err = writeResultFile(path, &model.ExportResult{Domain: "stories"})
	assert.Error(t, err)
}

func TestWriteConfig_RedactsToken(t *testing.T) {
	c := &config.Config{}
	c.Apify.Token = "apify_api_secret"
	c.Actors.Reels = config.ActorConfig{ID: "apify~instagram-reel-scraper", WaitSecs: 600}

	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, c))

	out := buf.String()
	assert.NotContains(t, out, "apify_api_secret")
	assert.Equal(t, "apify_api_secret", c.Apify.Token, "caller's config must not be modified")

	var decoded config.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "********", decoded.Apify.Token)
	assert.Equal(t, "apify~instagram-reel-scraper", decoded.Actors.Reels.ID)
	assert.True(t, strings.HasPrefix(out, "apify:"))
}

func TestRetryPolicyFromConfig(t *testing.T) {
	p := retryPolicy(config.ApifyConfig{MaxRetries: 3, BackoffMillis: 500, MaxBackoffSecs: 4})
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 4*time.Second, p.MaxBackoff)

	def := retryPolicy(config.ApifyConfig{})
	assert.Equal(t, 5, def.MaxAttempts)
}

func TestBreakerConfigFromConfig(t *testing.T) {
	bc := breakerConfig(config.ApifyConfig{BreakerThreshold: 3, BreakerCooldownSecs: 10})
	assert.Equal(t, 3, bc.FailureThreshold)
	assert.Equal(t, 10*time.Second, bc.Cooldown)

	assert.Len(t, apifyOptions(&config.Config{}), 2)
	assert.Len(t, apifyOptions(&config.Config{Apify: config.ApifyConfig{BreakerThreshold: 5}}), 3)
}

func TestInitService_ValidatesConfig(t *testing.T) {
	_, err := initService(context.Background(), &config.Config{}, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apify.token")
}
