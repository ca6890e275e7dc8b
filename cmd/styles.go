package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/coppinaphil/job-scraper/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

func printField(label string, value interface{}) {
	fmt.Printf("%s %s\n", labelStyle.Render(label), valueStyle.Render(fmt.Sprint(value)))
}

// renderRecord prints one result line, highlighting rows with no apply URL.
func renderRecord(rec models.JobRecord) {
	apply := valueStyle.Render(rec.CompanyApplyURL)
	switch rec.CompanyApplyURL {
	case models.ApplyURLNotFound, models.ApplyURLTimeout:
		apply = warnStyle.Render(rec.CompanyApplyURL)
	case models.ApplyURLError, models.ApplyURLProcessError:
		apply = errorStyle.Render(rec.CompanyApplyURL)
	}
	fmt.Printf("%s %s\n   %s\n", labelStyle.Render(fmt.Sprintf("Job %d:", rec.JobIndex)), rec.JobURL, apply)
}

func renderSummary(s *models.RunSummary, outputFile string) {
	fmt.Println(titleStyle.Render("Extraction Summary"))
	printField("Run ID:", s.RunID)
	printField("Duration:", s.FinishedAt.Sub(s.StartedAt).Round(time.Second))
	printField("Listings found:", s.Total)
	printField("Processed:", s.Attempted)
	printField("Resolved:", s.Resolved)
	printField("No job code:", s.NotApplicable)
	printField("Redirect timeouts:", s.TimedOut)
	printField("Failed:", s.Failed)
	printField("Results file:", outputFile)

	if len(s.Records) == 0 {
		return
	}
	fmt.Println(titleStyle.Render("Results"))
	for _, rec := range s.Records {
		renderRecord(rec)
	}
}
