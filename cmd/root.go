package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coppinaphil/job-scraper/internal/app"
	"github.com/coppinaphil/job-scraper/internal/scraper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// appInstance is kept so Execute can release it after the command returns.
var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "job-scraper",
	Short: "Extract employer apply links from a job board",
	Long: `job-scraper logs into a job board, walks the search results page and follows
each listing's apply link to the employer's own site. Every processed listing is
checkpointed to a JSON file as soon as it is done.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		appInstance = application

		cmd.SetContext(app.WithApp(cmd.Context(), application))
		return nil
	},
	RunE: runScrape,
}

func init() {
	rootCmd.Flags().String("start-url", "", "Page to start from (defaults to the search results page)")
	rootCmd.Flags().Int("max-jobs", 0, "Process at most this many listings (1-20)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application, err := app.FromContext(ctx)
	if err != nil {
		return err
	}
	cfg := application.Config
	logger := application.Logger

	if cmd.Flags().Changed("max-jobs") {
		cfg.MaxJobs, _ = cmd.Flags().GetInt("max-jobs")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	startURL, _ := cmd.Flags().GetString("start-url")
	if startURL == "" {
		startURL = cfg.SearchURL()
	}

	logger.Info("Starting extraction",
		zap.String("start_url", startURL),
		zap.Int("max_jobs", cfg.MaxJobs),
		zap.Bool("headless", cfg.Headless),
	)

	// The browser outlives a cancelled run so the error screenshot can still
	// be taken; Close tears it down.
	chrome, err := application.OpenBrowser(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	defer chrome.Close()

	s := scraper.New(cfg, chrome, application.Fs, logger.Named("scraper"))
	summary, runErr := s.Run(ctx, startURL)
	if summary != nil {
		renderSummary(summary, cfg.OutputFile)
	}
	return runErr
}

// Execute runs the root command
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)

	if appInstance != nil {
		appInstance.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		cancel()
		os.Exit(1)
	}
}
