package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandeepkv93/tasknotes/internal/poller"
	"github.com/sandeepkv93/tasknotes/internal/update"
)

var openMarkdown bool

var openCmd = &cobra.Command{
	Use:   "open <task-id>",
	Short: "Open the notes panel for a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := runtimeCfg
		client, err := newClient(cfg)
		if err != nil {
			fatal("Failed to create API client", err)
		}
		locator, err := newLocator(cfg)
		if err != nil {
			fatal("Failed to configure location", err)
		}
		feed := poller.New(client, poller.Options{
			Interval: cfg.PollInterval,
			Logger:   logger.Named("poller"),
		})

		m := update.NewModel(update.Deps{
			Notes:    client,
			Feed:     feed,
			Recorder: newRecorder(cfg),
			Locator:  locator,
			Logger:   logger.Named("panel"),
		}, update.Options{
			TaskID:        args[0],
			CurrentUserID: currentUserID(cfg.AuthToken),
			Markdown:      openMarkdown,
		})

		logger.Info("opening notes panel", zap.String("task", args[0]), zap.String("api", client.BaseURL()))
		program := tea.NewProgram(m, tea.WithAltScreen())
		_, err = program.Run()
		// Close is idempotent; the panel has usually closed itself already.
		m.Close()
		logger.Info("notes panel exited",
			zap.Uint64("dropped_results", feed.Dropped()),
			zap.Uint64("stale_results", feed.Stale()),
		)
		if err != nil {
			fatal("tasknotes failed", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().BoolVar(&openMarkdown, "markdown", true, "Render note text as markdown")
}
