package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeApplyURL(t *testing.T) {
	tests := []struct {
		name     string
		outcome  Outcome
		expected string
	}{
		{
			name:     "resolved keeps final URL",
			outcome:  Resolved("https://employer.example.com/careers/42"),
			expected: "https://employer.example.com/careers/42",
		},
		{
			name:     "missing marker",
			outcome:  NotApplicable("no /job/ in URL"),
			expected: "Not found",
		},
		{
			name:     "redirect timeout",
			outcome:  TimedOut("deadline"),
			expected: "Redirect failed - timeout",
		},
		{
			name:     "navigation error",
			outcome:  Failed("net::ERR_ABORTED"),
			expected: "Redirect failed - error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.outcome.ApplyURL())
		})
	}
}

func TestFailedRecord(t *testing.T) {
	rec := FailedRecord(7)

	assert.Equal(t, 7, rec.JobIndex)
	assert.Equal(t, "Failed to access", rec.JobURL)
	assert.Equal(t, "Processing failed", rec.CompanyApplyURL)
	assert.True(t, rec.Failed())
}

func TestRunSummaryTally(t *testing.T) {
	var s RunSummary
	s.Tally(OutcomeResolved)
	s.Tally(OutcomeResolved)
	s.Tally(OutcomeNotApplicable)
	s.Tally(OutcomeTimedOut)
	s.Tally(OutcomeFailed)

	assert.Equal(t, 5, s.Attempted)
	assert.Equal(t, 2, s.Resolved)
	assert.Equal(t, 1, s.NotApplicable)
	assert.Equal(t, 1, s.TimedOut)
	assert.Equal(t, 1, s.Failed)
}
