package cmd

import (
	"fmt"
	"strings"

	"github.com/coppinaphil/job-scraper/internal/app"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long:  "View the settings loaded from .env, job-scraper.yaml and the environment",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		cfg := application.Config.Redacted()

		fmt.Println(titleStyle.Render("Configuration"))
		printField("Base URL:", cfg.BaseURL)
		printField("Login URL:", cfg.LoginURL())
		printField("Search URL:", cfg.SearchURL())
		printField("Apply URL:", cfg.ApplyBaseURL()+"/<code>")
		printField("Email:", configured(cfg.Email))
		printField("Password:", configured(cfg.Password))
		printField("Output File:", cfg.OutputFile)
		printField("Artifact Dir:", cfg.ArtifactDir)
		printField("Headless:", cfg.Headless)
		printField("Log Level:", cfg.LogLevel)
		printField("Max Jobs:", cfg.MaxJobs)
		printField("Job Path Marker:", cfg.JobPathMarker)

		fmt.Println(titleStyle.Render("Selectors"))
		printField("Listing:", cfg.Selectors.Listing)
		printField("Email:", strings.Join(cfg.Selectors.Email, ", "))
		printField("Password:", strings.Join(cfg.Selectors.Password, ", "))
		printField("Submit:", strings.Join(cfg.Selectors.Submit, ", "))

		fmt.Println(titleStyle.Render("Timeouts"))
		t := cfg.Timeouts
		printField("Navigation:", t.Navigation)
		printField("Settle:", t.Settle)
		printField("Submit Settle:", t.SubmitSettle)
		printField("Detail Settle:", t.DetailSettle)
		printField("Redirect Settle:", t.RedirectSettle)
		printField("Redirect Deadline:", t.RedirectDeadline)
		printField("Click Retry Pause:", t.ClickRetryPause)
		printField("Listing Render:", t.ListingRender)
		printField("Operation:", t.Operation)
		return nil
	},
}

func configured(v string) string {
	if v == "" {
		return "✗ Not configured"
	}
	return "✓ Configured"
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)
}
