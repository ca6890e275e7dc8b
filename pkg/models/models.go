package models

import "time"

// Sentinel values written to a JobRecord when a row could not be resolved.
const (
	JobURLFailed         = "Failed to access"
	ApplyURLNotFound     = "Not found"
	ApplyURLTimeout      = "Redirect failed - timeout"
	ApplyURLError        = "Redirect failed - error"
	ApplyURLProcessError = "Processing failed"
)

// JobRecord is one processed listing row. It is written exactly once per
// attempted row and never changed afterwards.
type JobRecord struct {
	JobIndex        int    `json:"jobIndex"`
	JobURL          string `json:"jobUrl"`
	CompanyApplyURL string `json:"companyApplyUrl"`
}

// Failed reports whether the row could not be processed at all.
func (r JobRecord) Failed() bool {
	return r.JobURL == JobURLFailed
}

// FailedRecord builds the record stored for a row whose processing errored.
func FailedRecord(index int) JobRecord {
	return JobRecord{
		JobIndex:        index,
		JobURL:          JobURLFailed,
		CompanyApplyURL: ApplyURLProcessError,
	}
}

// OutcomeKind classifies how an apply redirect ended.
type OutcomeKind int

const (
	OutcomeResolved OutcomeKind = iota
	OutcomeNotApplicable
	OutcomeTimedOut
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeResolved:
		return "resolved"
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of resolving a job detail page to the employer's
// apply URL.
type Outcome struct {
	Kind   OutcomeKind
	URL    string // final URL, set for OutcomeResolved
	Reason string // human readable cause for the non-resolved kinds
}

func Resolved(url string) Outcome {
	return Outcome{Kind: OutcomeResolved, URL: url}
}

func NotApplicable(reason string) Outcome {
	return Outcome{Kind: OutcomeNotApplicable, Reason: reason}
}

func TimedOut(reason string) Outcome {
	return Outcome{Kind: OutcomeTimedOut, Reason: reason}
}

func Failed(reason string) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

// ApplyURL returns the value persisted in JobRecord.CompanyApplyURL.
func (o Outcome) ApplyURL() string {
	switch o.Kind {
	case OutcomeResolved:
		return o.URL
	case OutcomeNotApplicable:
		return ApplyURLNotFound
	case OutcomeTimedOut:
		return ApplyURLTimeout
	default:
		return ApplyURLError
	}
}

// RunSummary describes a finished extraction run
type RunSummary struct {
	RunID         string      `json:"run_id"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
	Total         int         `json:"total"` // rows found on the search page
	Attempted     int         `json:"attempted"`
	Resolved      int         `json:"resolved"`
	NotApplicable int         `json:"not_applicable"`
	TimedOut      int         `json:"timed_out"`
	Failed        int         `json:"failed"`
	Records       []JobRecord `json:"records"`
}

// Tally updates the counters for one finished row.
func (s *RunSummary) Tally(kind OutcomeKind) {
	s.Attempted++
	switch kind {
	case OutcomeResolved:
		s.Resolved++
	case OutcomeNotApplicable:
		s.NotApplicable++
	case OutcomeTimedOut:
		s.TimedOut++
	default:
		s.Failed++
	}
}
