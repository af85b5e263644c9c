// Package report renders the serial versus parallel crawl comparison.
package report

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/aluiziolira/go-crawl-books/models"
)

// Report pairs the serial baseline with the parallel run it validates.
type Report struct {
	StartURL string
	Serial   *models.RunResult
	Parallel *models.RunResult
}

// New builds a report. Both results are required.
func New(startURL string, serial, parallel *models.RunResult) (*Report, error) {
	if serial == nil || parallel == nil {
		return nil, fmt.Errorf("report needs both serial and parallel results")
	}
	return &Report{StartURL: startURL, Serial: serial, Parallel: parallel}, nil
}

// Matched reports whether both strategies produced the same state and
// visited set.
func (r *Report) Matched() bool {
	return r.Serial.State == r.Parallel.State &&
		reflect.DeepEqual(r.Serial.VisitedURLs, r.Parallel.VisitedURLs)
}

// Saved is how much faster the parallel run was; negative when slower.
func (r *Report) Saved() time.Duration {
	return r.Serial.Elapsed - r.Parallel.Elapsed
}

// DownloadedPages counts claimed pages that were fetched successfully.
func (r *Report) DownloadedPages() int {
	return r.Parallel.Visited - len(r.Parallel.FailedURLs)
}

// TimePerBook is the parallel elapsed time divided over records.
func (r *Report) TimePerBook() float64 {
	if r.Parallel.State.TotalCount == 0 {
		return 0
	}
	return r.Parallel.Elapsed.Seconds() / float64(r.Parallel.State.TotalCount)
}

// TimePerPage is the parallel elapsed time divided over unique URLs.
func (r *Report) TimePerPage() float64 {
	if r.Parallel.Visited == 0 {
		return 0
	}
	return r.Parallel.Elapsed.Seconds() / float64(r.Parallel.Visited)
}

// Writer renders a report to an output.
type Writer interface {
	Write(r *Report) error
}

// NewWriter returns the renderer for format writing to w.
func NewWriter(format string, w io.Writer) (Writer, error) {
	switch format {
	case "text":
		return NewTextWriter(w), nil
	case "json":
		return NewJSONWriter(w), nil
	case "markdown":
		return NewMarkdownWriter(w), nil
	case "csv":
		return NewCSVWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
