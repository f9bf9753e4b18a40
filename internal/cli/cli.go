package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tokenpace/tokenpace/internal/app"
	"github.com/tokenpace/tokenpace/internal/config"
)

// Execute runs the root command. Both installed binary names call into
// this; they are equivalent entry points.
func Execute() {
	var (
		configPath string
		plan       string
		once       bool
	)

	root := cobra.Command{
		Use:   "tokenpace",
		Short: "tokenpace is a live terminal dashboard for Claude Code token usage.",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if plan != "" {
				cfg.Limit.Plan = plan
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			if once {
				report, err := a.RunOnce()
				if err != nil {
					return err
				}
				fmt.Print(report)
				return nil
			}
			return a.Run()
		},
		SilenceUsage: true,
	}

	root.Flags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")
	root.Flags().StringVar(&plan, "plan", "", "override plan (pro, max5, max20, custom)")
	root.Flags().BoolVar(&once, "once", false, "print one snapshot and exit")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
