package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"BlogCrawler/internal/app"
	"BlogCrawler/internal/config"
	"BlogCrawler/internal/logging"
	"BlogCrawler/internal/usecase"
)

type cli struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "blogcrawler",
		Short:         "Collect engineering blog posts into the article store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to the YAML config (defaults to $"+config.ConfigPathEnv+")")

	root.AddCommand(
		c.crawlCommand(),
		c.deleteCommand(),
		c.migrateCommand(),
		c.scheduleCommand(),
		c.sourcesCommand(),
	)

	return root
}

func (c *cli) crawlCommand() *cobra.Command {
	var opts usecase.RunOptions

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run the pipeline once over all sources or a single one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application := app.New(c.cfg, c.logger)
			defer application.Close()

			report, err := application.Crawl(cmd.Context(), opts)
			if report.RunID != "" {
				fmt.Fprintln(cmd.OutOrStdout(), usecase.FormatReport(report, c.cfg.Scheduler.Location()))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.SourceID, "source", "s", "", "only crawl the source with this id")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "fetch and classify without writing or reporting")
	return cmd
}

func (c *cli) deleteCommand() *cobra.Command {
	var sourceID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove every stored article of one source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application := app.New(c.cfg, c.logger)
			defer application.Close()

			deleted, err := application.Delete(cmd.Context(), sourceID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d articles of %s\n", deleted, sourceID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sourceID, "source", "s", "", "id of the source to delete")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.New(c.cfg, c.logger).Migrate()
		},
	}
}

func (c *cli) scheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured cron expressions until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application := app.New(c.cfg, c.logger)
			defer application.Close()
			return application.Schedule(cmd.Context())
		},
	}
}

func (c *cli) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTRATEGY\tTHROTTLE\tFEED")
			for _, s := range c.cfg.DomainSources() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", s.ID, s.Name, s.Strategy, s.Throttle, s.FeedURL)
			}
			return w.Flush()
		},
	}
}
