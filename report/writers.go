package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-crawl-books/models"
	"github.com/gocarina/gocsv"
	"github.com/nao1215/markdown"
	"github.com/rodaine/table"
)

// TextWriter renders the plain-text report.
type TextWriter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewTextWriter writes the plain-text report to out.
func NewTextWriter(out io.Writer) *TextWriter {
	return &TextWriter{out: out}
}

// Write renders r. Timings use five decimals and prices of single books two.
func (tw *TextWriter) Write(r *Report) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	state := r.Parallel.State
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Parallel fetching results.\n")
	fmt.Fprintf(&buf, "Number of downloaded pages: %d\n", r.DownloadedPages())
	fmt.Fprintf(&buf, "Number of unique URLs: %d\n", r.Parallel.Visited)
	fmt.Fprintf(&buf, "Number of categories: %d\n", len(r.Parallel.Categories))
	fmt.Fprintf(&buf, "Calculations took %.5f seconds.\n", r.Parallel.Elapsed.Seconds())
	fmt.Fprintf(&buf, "Time per book: %.5f seconds.\n", r.TimePerBook())
	fmt.Fprintf(&buf, "Time per page: %.5f seconds.\n\n", r.TimePerPage())

	fmt.Fprintf(&buf, "Star Rating Analytics:\n")
	tbl := table.New("Stars", "Books").WithWriter(&buf)
	for stars := 1; stars <= 5; stars++ {
		tbl.AddRow(stars, state.RatingCounts[stars])
	}
	if state.RatingCounts[0] > 0 {
		tbl.AddRow("unrated", state.RatingCounts[0])
	}
	tbl.Print()
	fmt.Fprintf(&buf, "Average rating: %.5f stars.\n\n", state.AverageRating())
	fmt.Fprintf(&buf, "Average price of book: %.5f GBP.\n\n", state.AveragePrice())

	writeExtremum(&buf, "The cheapest book:", state.MinRecord)
	writeExtremum(&buf, "The most expensive book:", state.MaxRecord)

	fmt.Fprintf(&buf, "Serial calculations took %.5f seconds.\n", r.Serial.Elapsed.Seconds())
	fmt.Fprintf(&buf, "Parallel is %.5f seconds faster than serial.\n", r.Saved().Seconds())
	fmt.Fprintf(&buf, "Serial and parallel results match: %s\n", yesNo(r.Matched()))

	if _, err := tw.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	return nil
}

func writeExtremum(buf *bytes.Buffer, heading string, rec models.ExtremumRecord) {
	fmt.Fprintf(buf, "%s\n", heading)
	fmt.Fprintf(buf, "Title: %s\n", rec.Title)
	fmt.Fprintf(buf, "Price: %.2f\n", rec.Price)
	fmt.Fprintf(buf, "Stars: %d\n\n", rec.Rating)
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

// JSONWriter renders the report as one indented JSON document.
type JSONWriter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewJSONWriter writes JSON to out.
func NewJSONWriter(out io.Writer) *JSONWriter {
	return &JSONWriter{out: out}
}

type jsonRun struct {
	Strategy       string                `json:"strategy"`
	ElapsedSeconds float64               `json:"elapsed_seconds"`
	Visited        int                   `json:"visited"`
	Failed         int                   `json:"failed"`
	Requests       int                   `json:"requests"`
	Retries        int                   `json:"retries"`
	AveragePrice   float64               `json:"average_price"`
	AverageRating  float64               `json:"average_rating"`
	State          models.AggregateState `json:"state"`
}

type jsonReport struct {
	StartURL        string   `json:"start_url"`
	DownloadedPages int      `json:"downloaded_pages"`
	UniqueURLs      int      `json:"unique_urls"`
	Categories      []string `json:"categories"`
	SavedSeconds    float64  `json:"saved_seconds"`
	TimePerBook     float64  `json:"time_per_book_seconds"`
	TimePerPage     float64  `json:"time_per_page_seconds"`
	Matched         bool     `json:"matched"`
	Serial          jsonRun  `json:"serial"`
	Parallel        jsonRun  `json:"parallel"`
}

func newJSONRun(run *models.RunResult) jsonRun {
	return jsonRun{
		Strategy:       run.Strategy,
		ElapsedSeconds: run.Elapsed.Seconds(),
		Visited:        run.Visited,
		Failed:         len(run.FailedURLs),
		Requests:       run.RequestCount,
		Retries:        run.RetryCount,
		AveragePrice:   run.State.AveragePrice(),
		AverageRating:  run.State.AverageRating(),
		State:          run.State,
	}
}

// Write encodes r.
func (jw *JSONWriter) Write(r *Report) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	doc := jsonReport{
		StartURL:        r.StartURL,
		DownloadedPages: r.DownloadedPages(),
		UniqueURLs:      r.Parallel.Visited,
		Categories:      r.Parallel.Categories,
		SavedSeconds:    r.Saved().Seconds(),
		TimePerBook:     r.TimePerBook(),
		TimePerPage:     r.TimePerPage(),
		Matched:         r.Matched(),
		Serial:          newJSONRun(r.Serial),
		Parallel:        newJSONRun(r.Parallel),
	}

	encoder := json.NewEncoder(jw.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// MarkdownWriter renders the report as GitHub-flavoured Markdown.
type MarkdownWriter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewMarkdownWriter writes Markdown to out.
func NewMarkdownWriter(out io.Writer) *MarkdownWriter {
	return &MarkdownWriter{out: out}
}

// Write renders r.
func (mw *MarkdownWriter) Write(r *Report) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	state := r.Parallel.State
	md := markdown.NewMarkdown(mw.out)

	md.H1("Catalog Crawl Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + r.StartURL + "`"},
			{"Downloaded pages", strconv.Itoa(r.DownloadedPages())},
			{"Unique URLs", strconv.Itoa(r.Parallel.Visited)},
			{"Categories", strconv.Itoa(len(r.Parallel.Categories))},
			{"Results match", yesNo(r.Matched())},
		},
	})
	md.PlainText("")

	md.H2("Timing")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Strategy", "Seconds"},
		Rows: [][]string{
			{"serial", fixed5(r.Serial.Elapsed.Seconds())},
			{"parallel", fixed5(r.Parallel.Elapsed.Seconds())},
			{"saved", fixed5(r.Saved().Seconds())},
			{"per book", fixed5(r.TimePerBook())},
			{"per page", fixed5(r.TimePerPage())},
		},
	})
	md.PlainText("")

	md.H2("Star Ratings")
	md.PlainText("")
	rows := make([][]string, 0, 6)
	for stars := 1; stars <= 5; stars++ {
		rows = append(rows, []string{strconv.Itoa(stars), strconv.FormatInt(state.RatingCounts[stars], 10)})
	}
	rows = append(rows, []string{"unrated", strconv.FormatInt(state.RatingCounts[0], 10)})
	md.Table(markdown.TableSet{Header: []string{"Stars", "Books"}, Rows: rows})
	md.PlainText("")
	md.BulletList(
		"Average rating: "+fixed5(state.AverageRating()),
		"Average price: "+fixed5(state.AveragePrice())+" GBP",
	)
	md.PlainText("")

	md.H2("Extremes")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"", "Title", "Price", "Stars"},
		Rows: [][]string{
			{"Cheapest", state.MinRecord.Title, fixed2(state.MinRecord.Price), strconv.Itoa(state.MinRecord.Rating)},
			{"Most expensive", state.MaxRecord.Title, fixed2(state.MaxRecord.Price), strconv.Itoa(state.MaxRecord.Rating)},
		},
	})

	if err := md.Build(); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

func fixed5(v float64) string {
	return strconv.FormatFloat(v, 'f', 5, 64)
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// CSVWriter renders one row per strategy for spreadsheet comparison.
type CSVWriter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewCSVWriter writes CSV to out.
func NewCSVWriter(out io.Writer) *CSVWriter {
	return &CSVWriter{out: out}
}

type csvRow struct {
	Strategy      string `csv:"strategy"`
	Seconds       string `csv:"seconds"`
	Visited       int    `csv:"visited"`
	Failed        int    `csv:"failed"`
	Records       int64  `csv:"records"`
	OneStar       int64  `csv:"one_star"`
	TwoStars      int64  `csv:"two_stars"`
	ThreeStars    int64  `csv:"three_stars"`
	FourStars     int64  `csv:"four_stars"`
	FiveStars     int64  `csv:"five_stars"`
	Unrated       int64  `csv:"unrated"`
	AverageRating string `csv:"average_rating"`
	AveragePrice  string `csv:"average_price"`
	MinTitle      string `csv:"min_title"`
	MinPrice      string `csv:"min_price"`
	MaxTitle      string `csv:"max_title"`
	MaxPrice      string `csv:"max_price"`
}

func newCSVRow(run *models.RunResult) csvRow {
	s := run.State
	return csvRow{
		Strategy:      run.Strategy,
		Seconds:       fixed5(run.Elapsed.Seconds()),
		Visited:       run.Visited,
		Failed:        len(run.FailedURLs),
		Records:       s.TotalCount,
		OneStar:       s.RatingCounts[1],
		TwoStars:      s.RatingCounts[2],
		ThreeStars:    s.RatingCounts[3],
		FourStars:     s.RatingCounts[4],
		FiveStars:     s.RatingCounts[5],
		Unrated:       s.RatingCounts[0],
		AverageRating: fixed5(s.AverageRating()),
		AveragePrice:  fixed5(s.AveragePrice()),
		MinTitle:      s.MinRecord.Title,
		MinPrice:      fixed2(s.MinRecord.Price),
		MaxTitle:      s.MaxRecord.Title,
		MaxPrice:      fixed2(s.MaxRecord.Price),
	}
}

// Write renders r.
func (cw *CSVWriter) Write(r *Report) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	rows := []*csvRow{}
	for _, run := range []*models.RunResult{r.Serial, r.Parallel} {
		row := newCSVRow(run)
		rows = append(rows, &row)
	}
	if err := gocsv.Marshal(&rows, cw.out); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}
