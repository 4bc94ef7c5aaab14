package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandeepkv93/tasknotes/internal/config"
	"github.com/sandeepkv93/tasknotes/internal/logging"
)

var (
	configPath string
	envFile    string
	apiURL     string
	authToken  string
	logFile    string
	logLevel   string

	runtimeCfg config.RuntimeConfig
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tasknotes",
	Short: "Discuss a task in a terminal notes panel",
	Long: `tasknotes shows the notes thread of a task, polls it for updates and lets
you reply with text, files, voice or video recordings and your location.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, &cfg)
		runtimeCfg = cfg

		l, err := logging.New(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// applyFlagOverrides gives explicitly set flags the last word over file and
// environment values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.RuntimeConfig) {
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.BaseURL = apiURL
	}
	if flags.Changed("token") {
		cfg.AuthToken = authToken
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.StringVar(&apiURL, "api-url", "", "backend base URL")
	pf.StringVar(&authToken, "token", "", "session token sent as the authToken cookie")
	pf.StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
