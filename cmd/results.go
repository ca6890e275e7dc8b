package cmd

import (
	"errors"
	"fmt"

	"github.com/coppinaphil/job-scraper/internal/app"
	"github.com/coppinaphil/job-scraper/internal/store"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the records from the last run",
	Long:  "Read the checkpoint file written by the last run, complete or not, and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = application.Config.OutputFile
		}

		records, err := store.Load(application.Fs, path)
		if errors.Is(err, store.ErrNoResults) {
			fmt.Println("No results yet. Run 'job-scraper' first.")
			return nil
		}
		if err != nil {
			return err
		}

		failedOnly, _ := cmd.Flags().GetBool("failed")

		fmt.Println(titleStyle.Render(fmt.Sprintf("Results (%s)", path)))
		shown := 0
		for _, rec := range records {
			if failedOnly && !rec.Failed() {
				continue
			}
			renderRecord(rec)
			shown++
		}
		fmt.Printf("\n%s %d of %d\n", labelStyle.Render("Shown:"), shown, len(records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().String("file", "", "Result file to read (defaults to the configured output file)")
	resultsCmd.Flags().Bool("failed", false, "Only show rows that could not be processed")
}
