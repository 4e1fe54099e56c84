// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-gatherer/internal/httputil"
	"github.com/pdiddy/paper-gatherer/internal/ratelimit"
	"github.com/pdiddy/paper-gatherer/internal/search"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// Source profile names.
const (
	profileScholar = "scholar"
	profileArxiv   = "arxiv"
)

const (
	defaultTotalResults = 100
	defaultPageSize     = 10
	defaultMaxAttempts  = 2
	defaultMaxBodyBytes = 50 << 20

	minYear = 1900
	maxYear = 2100

	// arxivSubdir receives arXiv results below the run directory.
	arxivSubdir = "ArXiv"
)

// registerDefaults installs the default value of every config key.
func registerDefaults() {
	viper.SetDefault("http.timeout", httputil.DefaultTimeout)
	viper.SetDefault("fetch.max_attempts", defaultMaxAttempts)
	viper.SetDefault("fetch.max_body_bytes", defaultMaxBodyBytes)
	viper.SetDefault("ratelimit.document_retry.min", ratelimit.DefaultDocumentRetry.Min)
	viper.SetDefault("ratelimit.document_retry.max", ratelimit.DefaultDocumentRetry.Max)
	viper.SetDefault("ratelimit.page.min", ratelimit.DefaultPage.Min)
	viper.SetDefault("ratelimit.page.max", ratelimit.DefaultPage.Max)
	viper.SetDefault("rotation.seed", 0)
	viper.SetDefault("sources.scholar.base_url", search.DefaultScholarBaseURL)
	viper.SetDefault("sources.scholar.page_size", defaultPageSize)
	viper.SetDefault("sources.scholar.language", "en")
	viper.SetDefault("sources.arxiv.base_url", search.DefaultArxivBaseURL)
	viper.SetDefault("sources.arxiv.page_size", defaultPageSize)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("dedup.index", "")
	viper.SetDefault("secrets.dir", ".secrets")
}

// runParams are the per-invocation parameters given on the command line.
type runParams struct {
	Query        string
	Directory    string
	TotalResults int
	PageSize     int
	Years        types.YearRange
	AllowMissing bool
}

// addRunFlags registers the run parameter flags shared by the commands.
func addRunFlags(cmd *cobra.Command, withQuery bool) {
	if withQuery {
		cmd.Flags().String("query", "", "the search query")
		cmd.Flags().Int("total-results", defaultTotalResults, "how many results to collect")
		cmd.Flags().Int("page-size", 0, "results per page (default from config, 10)")
	}
	cmd.Flags().String("directory", "", "directory to save results and files to")
	cmd.Flags().Int("year-start", 0, "earliest publication year to keep")
	cmd.Flags().Int("year-end", 0, "latest publication year to keep")
	cmd.Flags().Bool("meta-can-be-missing", false, "accept documents that expose no title or author metadata")
	_ = cmd.MarkFlagRequired("directory")
}

// readRunParams reads and validates the run flags of cmd.
func readRunParams(cmd *cobra.Command, withQuery bool) (runParams, error) {
	var p runParams
	p.Directory, _ = cmd.Flags().GetString("directory")
	p.Years.Start, _ = cmd.Flags().GetInt("year-start")
	p.Years.End, _ = cmd.Flags().GetInt("year-end")
	p.AllowMissing, _ = cmd.Flags().GetBool("meta-can-be-missing")
	if withQuery {
		p.Query, _ = cmd.Flags().GetString("query")
		p.TotalResults, _ = cmd.Flags().GetInt("total-results")
		p.PageSize, _ = cmd.Flags().GetInt("page-size")
	}
	return p, p.validate(withQuery)
}

func (p runParams) validate(withQuery bool) error {
	if strings.TrimSpace(p.Directory) == "" {
		return fmt.Errorf("--directory is required")
	}
	if withQuery {
		if strings.TrimSpace(p.Query) == "" {
			return fmt.Errorf("--query is required")
		}
		if p.TotalResults <= 0 {
			return fmt.Errorf("--total-results must be a positive integer, got %d", p.TotalResults)
		}
		if p.PageSize < 0 {
			return fmt.Errorf("--page-size must be positive, got %d", p.PageSize)
		}
	}
	for _, y := range []int{p.Years.Start, p.Years.End} {
		if y != 0 && (y < minYear || y > maxYear) {
			return fmt.Errorf("year must be between %d and %d, got %d", minYear, maxYear, y)
		}
	}
	if p.Years.Start != 0 && p.Years.End != 0 && p.Years.Start > p.Years.End {
		return fmt.Errorf("--year-start %d is after --year-end %d", p.Years.Start, p.Years.End)
	}
	return nil
}

// loadPipelineConfig assembles the session configuration for a source
// profile from viper and the run parameters.
func loadPipelineConfig(profile string, p runParams, dir string) types.PipelineConfig {
	rl := types.RateLimitConfig{
		DocumentRetry: intervalFromViper("ratelimit.document_retry", nil),
		Page:          intervalFromViper("ratelimit.page", nil),
	}
	prefix := "sources." + profile

	cfg := types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig:   types.HTTPConfig{Timeout: viper.GetDuration("http.timeout")},
			MaxAttempts:  viper.GetInt("fetch.max_attempts"),
			MaxBodyBytes: viper.GetInt64("fetch.max_body_bytes"),
		},
		RateLimit: rl,
		Rotation: types.RotationConfig{
			Seed:         viper.GetInt64("rotation.seed"),
			UserAgents:   viper.GetStringSlice("rotation.user_agents"),
			Proxies:      append(viper.GetStringSlice("rotation.proxies"), secretProxies...),
			ProxyListURL: viper.GetString("rotation.proxy_list_url"),
		},
		Source: types.SourceConfig{
			BaseURL:  viper.GetString(prefix + ".base_url"),
			PageSize: viper.GetInt(prefix + ".page_size"),
			Language: viper.GetString(prefix + ".language"),
			RateLimit: types.RateLimitConfig{
				DocumentRetry: intervalFromViper(prefix+".ratelimit.document_retry", rl.DocumentRetry),
				Page:          intervalFromViper(prefix+".ratelimit.page", rl.Page),
			},
		},
		Gather: types.GatherConfig{
			OutputDir:            dir,
			AllowMissingMetadata: p.AllowMissing,
			MaxAttempts:          viper.GetInt("fetch.max_attempts"),
			Years:                p.Years,
			DedupIndex:           viper.GetString("dedup.index"),
		},
		Log: types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}
	if p.PageSize > 0 {
		cfg.Source.PageSize = p.PageSize
	}
	return cfg
}

// intervalFromViper reads prefix.min and prefix.max, keeping fallback's
// bound for any key that is not set. It returns fallback when neither key
// is set, so an explicit zero interval stays distinct from an unset one.
func intervalFromViper(prefix string, fallback *types.Interval) *types.Interval {
	hasMin, hasMax := viper.IsSet(prefix+".min"), viper.IsSet(prefix+".max")
	if !hasMin && !hasMax {
		return fallback
	}
	var iv types.Interval
	if fallback != nil {
		iv = *fallback
	}
	if hasMin {
		iv.Min = viper.GetDuration(prefix + ".min")
	}
	if hasMax {
		iv.Max = viper.GetDuration(prefix + ".max")
	}
	return &iv
}
