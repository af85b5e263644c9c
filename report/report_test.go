package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-crawl-books/models"
	"github.com/gocarina/gocsv"
)

func sampleState() models.AggregateState {
	return models.AggregateState{
		TotalCount:   3,
		PriceSum:     35,
		RatingSum:    9,
		RatingCounts: [6]int64{0, 1, 0, 1, 0, 1},
		MinPrice:     5,
		MaxPrice:     20,
		MinRecord:    models.ExtremumRecord{Title: "B", Price: 5, Rating: 1},
		MaxRecord:    models.ExtremumRecord{Title: "C", Price: 20, Rating: 5},
		HasRecords:   true,
	}
}

func sampleRun(strategy string, elapsed time.Duration) *models.RunResult {
	return &models.RunResult{
		Strategy:    strategy,
		Elapsed:     elapsed,
		Visited:     3,
		VisitedURLs: []string{"http://t/a/category/books/x/index.html", "http://t/a/category/books/y/index.html", "http://t/a/index.html"},
		Categories:  []string{"X", "Y"},
		State:       sampleState(),
	}
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	r, err := New("http://t/a/index.html", sampleRun("serial", 3*time.Second), sampleRun("parallel", time.Second))
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	return r
}

func TestNewRequiresBothRuns(t *testing.T) {
	if _, err := New("x", nil, sampleRun("parallel", 0)); err == nil {
		t.Fatalf("expected error for missing serial result")
	}
	if _, err := New("x", sampleRun("serial", 0), nil); err == nil {
		t.Fatalf("expected error for missing parallel result")
	}
}

func TestReportDerivedValues(t *testing.T) {
	r := sampleReport(t)
	if !r.Matched() {
		t.Fatalf("identical runs should match")
	}
	if got := r.Saved(); got != 2*time.Second {
		t.Fatalf("saved=%v, want 2s", got)
	}
	if got := r.DownloadedPages(); got != 3 {
		t.Fatalf("downloaded=%d, want 3", got)
	}
	if got := r.TimePerPage(); got != 1.0/3 {
		t.Fatalf("time per page=%v", got)
	}

	r.Parallel.FailedURLs = []string{"http://t/a/dead.html"}
	if got := r.DownloadedPages(); got != 2 {
		t.Fatalf("downloaded=%d, want 2 after a failure", got)
	}

	r.Parallel.State.TotalCount = 4
	if r.Matched() {
		t.Fatalf("differing states should not match")
	}
}

func TestReportEmptyRunHasZeroRates(t *testing.T) {
	empty := &models.RunResult{Strategy: "parallel", Elapsed: time.Second}
	r, err := New("x", &models.RunResult{Strategy: "serial"}, empty)
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	if r.TimePerBook() != 0 || r.TimePerPage() != 0 {
		t.Fatalf("rates should be zero for an empty run")
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextWriter(&buf).Write(sampleReport(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Number of unique URLs: 3\n",
		"Number of categories: 2\n",
		"Calculations took 1.00000 seconds.\n",
		"Time per book: 0.33333 seconds.\n",
		"Average rating: 3.00000 stars.\n",
		"Average price of book: 11.66667 GBP.\n",
		"The cheapest book:\nTitle: B\nPrice: 5.00\nStars: 1\n",
		"The most expensive book:\nTitle: C\nPrice: 20.00\nStars: 5\n",
		"Serial calculations took 3.00000 seconds.\n",
		"Parallel is 2.00000 seconds faster than serial.\n",
		"Serial and parallel results match: yes\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "unrated") {
		t.Fatalf("unrated row should be omitted when empty:\n%s", out)
	}
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONWriter(&buf).Write(sampleReport(t)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var doc jsonReport
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !doc.Matched || doc.UniqueURLs != 3 || len(doc.Categories) != 2 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Parallel.State.MinRecord.Title != "B" || doc.Serial.Strategy != "serial" {
		t.Fatalf("unexpected runs: %+v / %+v", doc.Serial, doc.Parallel)
	}
}

func TestMarkdownWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).Write(sampleReport(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"# Catalog Crawl Report", "## Star Ratings", "11.66667", "Most expensive"} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVWriter(&buf).Write(sampleReport(t)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var rows []*csvRow
	if err := gocsv.UnmarshalBytes(buf.Bytes(), &rows); err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d, want 2", len(rows))
	}
	if rows[0].Strategy != "serial" || rows[1].Strategy != "parallel" {
		t.Fatalf("unexpected strategies: %q, %q", rows[0].Strategy, rows[1].Strategy)
	}
	if rows[1].AveragePrice != "11.66667" || rows[1].FiveStars != 1 {
		t.Fatalf("unexpected parallel row: %+v", rows[1])
	}
}

func TestNewWriterRejectsUnknownFormat(t *testing.T) {
	if _, err := NewWriter("xml", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestPublishWritesFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	var console, fallback bytes.Buffer

	if err := Publish(sampleReport(t), "json", path, &console, &fallback); err != nil {
		t.Fatalf("publish: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report file: %v", err)
	}
	if !json.Valid(data) {
		t.Fatalf("report file is not json:\n%s", data)
	}
	if !strings.Contains(console.String(), "Average price of book: 11.66667 GBP.") {
		t.Fatalf("console should carry the text report:\n%s", console.String())
	}
	if fallback.Len() != 0 {
		t.Fatalf("fallback should be unused, got %q", fallback.String())
	}
}

func TestPublishFallsBackWhenFileUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	// A regular file in place of a directory makes the path uncreatable.
	path := filepath.Join(blocker, "results.txt")

	var console, fallback bytes.Buffer
	if err := Publish(sampleReport(t), "text", path, &console, &fallback); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(fallback.String(), "Serial and parallel results match: yes") {
		t.Fatalf("fallback should receive the report:\n%s", fallback.String())
	}
	if console.Len() == 0 {
		t.Fatalf("console output should still be written")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPublishReportsWriteErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	err := Publish(sampleReport(t), "text", filepath.Join(blocker, "r.txt"), nil, failingWriter{})
	if err == nil {
		t.Fatalf("expected write error")
	}
}
