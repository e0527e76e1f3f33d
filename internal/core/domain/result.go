package domain

import "time"

type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
	// StatusQueued marks an uploaded document the worker has not finished yet.
	StatusQueued ResultStatus = "queued"
)

// DocumentResult is the per-document outcome reported by single and batch runs.
type DocumentResult struct {
	RunID     string       `json:"run_id"`
	Document  string       `json:"document"`
	Status    ResultStatus `json:"status"`
	Message   string       `json:"message"`
	Files     []string     `json:"files"`
	OutputDir string       `json:"output_dir,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type Outcome string

const (
	OutcomeProcessed   Outcome = "processed"
	OutcomeNothingToDo Outcome = "nothing_to_do"
)

// BatchReport holds one result per input document, in input order.
type BatchReport struct {
	RunID   string           `json:"run_id"`
	Outcome Outcome          `json:"outcome"`
	Results []DocumentResult `json:"results"`
}

func (r BatchReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusError {
			n++
		}
	}
	return n
}

// Job is the queued request to process one stored document.
type Job struct {
	RunID      string    `json:"run_id"`
	Document   string    `json:"document"`
	Key        string    `json:"key"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// WrittenProfile describes the directory produced for one person.
type WrittenProfile struct {
	Dir   string
	Files []string
}
