// Package model holds the request-scoped types shared by the collection
// pipeline: export domains, shaped rows, task outcomes, and the error taxonomy.
package model

import "time"

// Domain identifies one kind of export.
type Domain string

const (
	DomainHashtag         Domain = "hashtag"
	DomainBrandpageReels  Domain = "brandpage_reels"
	DomainBrandpageTagged Domain = "brandpage_tagged"
	DomainProfile         Domain = "profile"
	DomainKeyword         Domain = "keyword"
)

// TaskStatus is the outcome of one actor invocation.
type TaskStatus string

const (
	TaskStatusComplete TaskStatus = "complete"
	TaskStatusFailed   TaskStatus = "failed"
	TaskStatusTimedOut TaskStatus = "timed_out"
)

// TaskSummary records how a single actor invocation went. A failed task
// contributes zero records but never fails the export.
type TaskSummary struct {
	Query    string     `json:"query"`
	Status   TaskStatus `json:"status"`
	Records  int        `json:"records"`
	Duration int64      `json:"duration_ms"`
	Error    string     `json:"error,omitempty"`
}

// Row is a shaped record ready for CSV projection. Values must line up with
// the column schema of its domain.
type Row interface {
	Values() []string
}

// ExportResult is everything produced by one export request.
type ExportResult struct {
	ID         string        `json:"id"`
	Domain     Domain        `json:"domain"`
	Queries    []string      `json:"queries"`
	Truncated  bool          `json:"truncated"`
	Tasks      []TaskSummary `json:"tasks"`
	RawRecords int           `json:"raw_records"`
	Rows       []Row         `json:"-"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   int64         `json:"duration_ms"`
}

// Failed returns the number of tasks that did not complete.
func (r *ExportResult) Failed() int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status != TaskStatusComplete {
			n++
		}
	}
	return n
}
