// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubmed-search CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-search/internal/eutils"
	"github.com/pdiddy/pubmed-search/internal/history"
	"github.com/pdiddy/pubmed-search/internal/logging"
	"github.com/pdiddy/pubmed-search/internal/pipeline"
	"github.com/pdiddy/pubmed-search/internal/secrets"
	"github.com/pdiddy/pubmed-search/internal/service"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// logger is configured from --json-logs and --debug before any command runs.
	logger = slog.Default()

	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets map[string]string
)

// envKeys are the config keys that can be set from PUBMED_SEARCH_* variables
// without a config file.
var envKeys = []string{
	"eutils.email",
	"eutils.api_key",
	"eutils.base_url",
	"history.path",
	"server.addr",
}

// rootCmd is the base command for the pubmed-search CLI.
var rootCmd = &cobra.Command{
	Use:   "pubmed-search",
	Short: "Search PubMed and extract article metadata and author emails",
	Long: `pubmed-search runs a PubMed search through the NCBI E-utilities, fetches
the matching records and extracts title, language, publication date, authors,
affiliations and contact emails.

Searches run from the command line (search) or over HTTP (serve). Every
successful search is recorded in a local SQLite history (history).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		debug, _ := cmd.Flags().GetBool("debug")
		logger = logging.Setup(os.Stderr, logging.Options{JSON: jsonLogs, Debug: debug})

		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", slog.String("path", f))
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := lo.Keys(s)
			slices.Sort(keys)
			logger.Debug("loaded secrets", slog.Any("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pubmed-search.yaml or ~/.config/pubmed-search/pubmed-search.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory holding ncbi-api-key and ncbi-email files")
	rootCmd.PersistentFlags().Bool("json-logs", false, "write logs as JSON")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubmed-search")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubmed-search"))
		}
	}

	viper.SetEnvPrefix("PUBMED_SEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

// loadConfig overlays the config file and environment on the defaults, then
// fills credentials from .secrets/ where the config left them empty.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	secrets.Apply(&cfg.Eutils, loadedSecrets)
	if cfg.Eutils.Email == "" {
		logger.Warn("no contact email configured; NCBI asks callers to identify themselves",
			slog.String("hint", "set eutils.email, PUBMED_SEARCH_EUTILS_EMAIL or .secrets/"+secrets.KeyEmail))
	}
	return cfg, nil
}

// newService wires the E-utilities client into a search service.
func newService(cfg types.Config) *service.Service {
	client := eutils.New(cfg.Eutils, logger.With(slog.String("prefix", "eutils")))
	return service.New(func(contact string) pipeline.Executor {
		return client.NewRun(contact)
	}, cfg.Output.RecordBaseURL, logger)
}

// openHistory opens the history store, or returns nil when history is
// disabled by an empty path.
func openHistory(cfg types.Config) (*history.Store, error) {
	if cfg.History.Path == "" {
		return nil, nil
	}
	return history.NewStore(cfg.History)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
