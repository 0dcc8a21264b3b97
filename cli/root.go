// Package cli implements the bistscrapper command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"bistscrapper/pipeline"
	"bistscrapper/publish"
	"bistscrapper/server"
	"bistscrapper/utils"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

type rootOptions struct {
	configFile string
	outputDir  string
	debug      bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "bistscrapper",
		Short:         "Scrape Borsa Istanbul offerings, corporate actions and market data",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVarP(&opts.outputDir, "out", "o", "", "output directory (overrides config)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newScrapeCommand(opts),
		newServeCommand(opts),
		newRepairCommand(),
		newSourcesCommand(opts),
	)
	return root
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func newScrapeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "scrape [job...]",
		Short:     "Scrape sources and publish their documents",
		Long:      "Runs the named jobs, or every job when none is named: ipos, capital, targets, dividends, quotes, brokers.",
		ValidArgs: pipeline.Jobs(),
		Args: func(_ *cobra.Command, args []string) error {
			for _, a := range args {
				if a != "all" && !slices.Contains(pipeline.Jobs(), a) {
					return fmt.Errorf("unknown job %q", a)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var summaries []pipeline.Summary
			if len(args) == 0 || slices.Contains(args, "all") {
				summaries, err = a.runner.RunAll(cmd.Context())
			} else {
				for _, job := range args {
					s, runErr := a.runner.Run(cmd.Context(), job)
					summaries = append(summaries, s)
					if runErr != nil {
						err = runErr
						break
					}
				}
			}
			if printErr := printJSON(cmd.OutOrStdout(), summaries); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		noSchedule     bool
		refreshOnStart bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the published documents and refresh them on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !noSchedule && a.cfg.Schedule != "" {
				sched, err := server.NewScheduler(a.cfg.Schedule, a.runner, time.Hour, a.log)
				if err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			}
			if refreshOnStart {
				go func() { _, _ = a.runner.RunAll(ctx) }()
			}
			srv := server.New(a.out, a.runner, a.service, a.registry, a.log)
			return srv.ListenAndServe(ctx, ":"+a.cfg.Port)
		},
	}
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "do not refresh on the configured schedule")
	cmd.Flags().BoolVar(&refreshOnStart, "refresh", false, "run every job once at startup")
	return cmd
}

func newRepairCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repair file...",
		Short: "Fix mangled Turkish letters in JSON files in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, path := range args {
				changed, err := publish.RepairFile(path)
				if err != nil {
					return err
				}
				state := "ok"
				if changed {
					state = "repaired"
				}
				fmt.Fprintf(w, "%s\t%s\n", state, path)
			}
			return nil
		},
	}
}

func newSourcesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the registered sources and their pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()
			reg := a.service.Registry()
			for _, name := range reg.Names() {
				src, _ := reg.Get(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, src.URL())
			}
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := utils.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
