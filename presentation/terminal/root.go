package terminal

import (
	"fmt"

	"page_capture/infrastructure/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand - builds the page_capture command line
func NewRootCommand() *cobra.Command {
	var (
		url      string
		headless bool
		offline  bool
		stateDir string
		backend  string
	)

	cmd := &cobra.Command{
		Use:   "page_capture",
		Short: "Capture page elements and generate test code from them",
		Long: `Opens a browser, lets you pick elements on the pages you visit and records
an XPath and a CSS selector for each. Captured pages can be arranged into a
flow and sent to a code generator for Cucumber features, step definitions
and page objects.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.Headless = headless
			}
			if stateDir != "" {
				cfg.StateDir = stateDir
			}
			if backend != "" {
				cfg.Storage = backend
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			termInterface, err := NewTerminalInterface(Options{
				Config:  cfg,
				Offline: offline,
				URL:     url,
				In:      cmd.InOrStdin(),
				Out:     cmd.OutOrStdout(),
			}, newLogger(cfg.LogLevel))
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			runErr := termInterface.Run()
			if err := termInterface.Close(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&url, "url", "", "page to open on start")
	flags.BoolVar(&headless, "headless", false, "run the browser without a window")
	flags.BoolVar(&offline, "offline", false, "do not start a browser; inspect saved HTML with 'load'")
	flags.StringVar(&stateDir, "state-dir", "", "directory for saved state (default ~/.page_capture)")
	flags.StringVar(&backend, "storage", "", "storage backend: file or sqlite")

	return cmd
}

func newLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}
