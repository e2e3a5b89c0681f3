package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"rezoomai/resume-api/internal/config"
	"rezoomai/resume-api/internal/logger"
)

const app = "rezoomai"

// Actual version can be specified in build command.
var version = "dev"

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "rezoomai serves resume upload and AI feedback over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("%s version: %s\n", app, version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is rezoomai.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("logging.debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("logging.json", rootCmd.PersistentFlags().Lookup("json"))

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app, err)
		os.Exit(1)
	}
}

// bootstrap loads and validates the configuration and builds the process logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Logging.JSON, cfg.Logging.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Debug("configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("model", cfg.Gemini.Model),
		zap.Bool("database", cfg.Database.Enabled),
		zap.Bool("qdrant", cfg.Qdrant.Enabled),
		zap.String("archive", cfg.Archive.Backend),
		zap.String("config_file", strings.TrimSpace(viper.ConfigFileUsed())),
	)
	return cfg, log, nil
}
