// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-gatherer CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-gatherer/internal/fetch"
	"github.com/pdiddy/paper-gatherer/internal/gather"
	"github.com/pdiddy/paper-gatherer/internal/logging"
	"github.com/pdiddy/paper-gatherer/internal/secrets"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitFatal     = 2
	exitCancelled = 130
)

var (
	// logger carries the run id on every line.
	logger = zap.NewNop()

	// runID identifies one invocation in logs and sidecars.
	runID string

	// secretProxies are appended to the primary proxy list.
	secretProxies []string
)

// rootCmd is the base command for the paper-gatherer CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-gatherer",
	Short: "Gather scholarly documents matching a search query",
	Long: `paper-gatherer queries Google Scholar and arXiv for a search query, records
every result in results.json, then downloads the linked documents. Each
download is checked against the result's title and authors, duplicates are
dropped, and accepted files are saved with a YAML metadata sidecar.

Requests are strictly sequential with randomized delays; blocked result
pages are retried once directly and once through a proxy.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		})
		if err != nil {
			return fmt.Errorf("configuring logger: %w", err)
		}
		runID = uuid.NewString()
		logger = log.With(zap.String("run_id", runID))
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Info("using config file", zap.String("path", f))
		}

		proxies, err := secrets.Proxies(viper.GetString("secrets.dir"), logger)
		if err != nil {
			return err
		}
		secretProxies = proxies
		if len(proxies) > 0 {
			logger.Info("loaded proxies from secrets", zap.Int("count", len(proxies)))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	registerDefaults()

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-gatherer.yaml or ~/.config/paper-gatherer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json or console")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-gatherer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-gatherer"))
		}
	}

	viper.SetEnvPrefix("PAPER_GATHERER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(ctx, err))
}

// exitCode maps a run error to the process exit status. Fatal aborts (an
// unusable query channel or a failed write) get a status distinct from
// ordinary usage errors.
func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil:
		return exitOK
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return exitCancelled
	case fetch.IsFatal(err), errors.Is(err, gather.ErrPersist):
		return exitFatal
	default:
		return exitError
	}
}
