// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-gatherer/internal/gather"
	"github.com/pdiddy/paper-gatherer/internal/store"
)

// --- results ---

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Collect Google Scholar results into results.json",
	Long: `Results pages through Google Scholar for the query and writes every
result record to <directory>/results.json. No documents are downloaded.`,
	RunE: runResults,
}

func runResults(cmd *cobra.Command, args []string) error {
	p, err := readRunParams(cmd, true)
	if err != nil {
		return err
	}
	s, err := newSession(profileScholar, loadPipelineConfig(profileScholar, p, p.Directory), logger)
	if err != nil {
		return err
	}
	candidates, err := s.collectResults(cmd.Context(), p.Query, p.TotalResults)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d results written to %s\n",
		profileScholar, len(candidates), filepath.Join(p.Directory, store.ResultsFile))
	return nil
}

// --- files ---

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Download and filter the documents listed in results.json",
	Long: `Files reads <directory>/results.json written by the results command and
downloads each linked document. Documents whose embedded title and authors do
not match their result are rejected; accepted files are numbered in order.`,
	RunE: runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	p, err := readRunParams(cmd, false)
	if err != nil {
		return err
	}
	candidates, err := store.ReadResults(p.Directory)
	if err != nil {
		return err
	}
	s, err := newSession(profileScholar, loadPipelineConfig(profileScholar, p, p.Directory), logger)
	if err != nil {
		return err
	}
	sum, err := s.gatherFiles(cmd.Context(), candidates)
	printSummary(cmd.OutOrStdout(), profileScholar, sum)
	return err
}

// --- arxiv ---

var arxivCmd = &cobra.Command{
	Use:   "arxiv",
	Short: "Collect arXiv results and download their documents",
	Long: `Arxiv queries the arXiv API, writes results.json and downloads the
documents into <directory>/ArXiv.`,
	RunE: runArxiv,
}

func runArxiv(cmd *cobra.Command, args []string) error {
	p, err := readRunParams(cmd, true)
	if err != nil {
		return err
	}
	sum, err := runProfile(cmd.Context(), profileArxiv, p)
	printSummary(cmd.OutOrStdout(), profileArxiv, sum)
	return err
}

// --- all ---

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run the full pipeline: Scholar results and files, optionally arXiv",
	Long: `All collects Google Scholar results, downloads their documents and, with
--include-arxiv, does the same for arXiv into <directory>/ArXiv. With
--parallel the two sessions run concurrently; each keeps its own rate limits,
rotation and dedup state.`,
	RunE: runAll,
}

func runAll(cmd *cobra.Command, args []string) error {
	p, err := readRunParams(cmd, true)
	if err != nil {
		return err
	}
	includeArxiv, _ := cmd.Flags().GetBool("include-arxiv")
	parallel, _ := cmd.Flags().GetBool("parallel")

	profiles := []string{profileScholar}
	if includeArxiv {
		profiles = append(profiles, profileArxiv)
	}
	summaries := make([]gather.Summary, len(profiles))

	if parallel {
		g, ctx := errgroup.WithContext(cmd.Context())
		for i, profile := range profiles {
			g.Go(func() error {
				sum, err := runProfile(ctx, profile, p)
				summaries[i] = sum
				return err
			})
		}
		err = g.Wait()
	} else {
		for i, profile := range profiles {
			if summaries[i], err = runProfile(cmd.Context(), profile, p); err != nil {
				break
			}
		}
	}

	for i, profile := range profiles {
		printSummary(cmd.OutOrStdout(), profile, summaries[i])
	}
	return err
}

// runProfile runs a complete session for profile. arXiv output goes to its
// own subdirectory.
func runProfile(ctx context.Context, profile string, p runParams) (gather.Summary, error) {
	dir := p.Directory
	if profile == profileArxiv {
		dir = filepath.Join(dir, arxivSubdir)
	}
	s, err := newSession(profile, loadPipelineConfig(profile, p, dir), logger)
	if err != nil {
		return gather.Summary{}, err
	}
	return s.run(ctx, p.Query, p.TotalResults)
}

func printSummary(w io.Writer, profile string, sum gather.Summary) {
	fmt.Fprintf(w, "%s: %d candidates, %d fetched, %d fetch-failed, %d rejected, %d duplicates, %d skipped, %d accepted\n",
		profile, sum.Candidates, sum.Fetched, sum.FetchFailed, sum.Rejected, sum.Duplicates, sum.Skipped, sum.Accepted)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of paper-gatherer",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "paper-gatherer %s\n", version)
	},
}

func init() {
	addRunFlags(resultsCmd, true)
	addRunFlags(filesCmd, false)
	addRunFlags(arxivCmd, true)
	addRunFlags(allCmd, true)
	allCmd.Flags().Bool("include-arxiv", false, "also collect and download arXiv results")
	allCmd.Flags().Bool("parallel", false, "run the Scholar and arXiv sessions concurrently")

	rootCmd.AddCommand(resultsCmd, filesCmd, arxivCmd, allCmd, versionCmd)
}
