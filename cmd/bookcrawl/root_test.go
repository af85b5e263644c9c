package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-crawl-books/config"
	"github.com/jarcoal/httpmock"
)

const siteBase = "http://books.test/"

const indexPage = `<html><body><h1>All products</h1>
<ul><li><a href="catalogue/category/books/travel_2/index.html">Travel</a></li></ul>
</body></html>`

const travelPage = `<html><body><h1>Travel</h1>
<article class="product_pod"><h3><a title="Middle">Middle</a></h3>
<p class="star-rating Three"></p><p class="price_color">&pound;10.00</p></article>
<article class="product_pod"><h3><a title="Dearest">Dearest</a></h3>
<p class="star-rating Five"></p><p class="price_color">&pound;20.00</p></article>
<ul class="pager"><li class="next"><a href="page-2.html">next</a></li></ul>
</body></html>`

const travelPage2 = `<html><body><h1>Travel</h1>
<article class="product_pod"><h3><a title="Cheapest">Cheapest</a></h3>
<p class="star-rating One"></p><p class="price_color">&pound;5.00</p></article>
</body></html>`

func siteTransport() *httpmock.MockTransport {
	transport := httpmock.NewMockTransport()
	pages := map[string]string{
		siteBase + "index.html":                                    indexPage,
		siteBase + "catalogue/category/books/travel_2/index.html":  travelPage,
		siteBase + "catalogue/category/books/travel_2/page-2.html": travelPage2,
	}
	for url, body := range pages {
		resp := httpmock.NewStringResponse(200, body)
		resp.Header.Set("Content-Type", "text/html")
		transport.RegisterResponder("GET", url, httpmock.ResponderFromResponse(resp))
	}
	return transport
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use == "" || cmd.Short == "" {
		t.Fatalf("root command should describe itself")
	}
	for _, name := range []string{"config", "start-url", "timeout", "max-retries", "max-in-flight", "output", "format", "user-agent", "metrics-addr", "verbose"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing flag %q", name)
		}
	}
	if f := cmd.Flags().Lookup("verbose"); f.Shorthand != "v" {
		t.Fatalf("verbose shorthand=%q, want v", f.Shorthand)
	}
}

func TestResolveConfigLayering(t *testing.T) {
	path := writeConfigFile(t, "start_url: http://file.test/index.html\ntimeout: 4s\noutput_format: json\n")

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--config", path, "--timeout", "7s", "-f", "CSV"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := resolveConfig(cmd, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.StartURL != "http://file.test/index.html" {
		t.Fatalf("start url=%q, want value from file", cfg.StartURL)
	}
	if cfg.Timeout != 7*time.Second {
		t.Fatalf("timeout=%v, want flag value", cfg.Timeout)
	}
	if cfg.OutputFormat != "csv" {
		t.Fatalf("format=%q, want csv", cfg.OutputFormat)
	}
	if cfg.MaxRetries != config.DefaultConfig().MaxRetries {
		t.Fatalf("max retries=%d, want default", cfg.MaxRetries)
	}

	cfg, err = resolveConfig(cmd, []string{"http://arg.test/index.html"})
	if err != nil {
		t.Fatalf("resolve with argument: %v", err)
	}
	if cfg.StartURL != "http://arg.test/index.html" {
		t.Fatalf("start url=%q, want positional argument", cfg.StartURL)
	}
}

func TestResolveConfigRejectsInvalid(t *testing.T) {
	path := writeConfigFile(t, "output_format: text\n")

	tests := []struct {
		name string
		args []string
	}{
		{name: "format", args: []string{"--config", path, "-f", "xml"}},
		{name: "timeout", args: []string{"--config", path, "--timeout", "0s"}},
		{name: "start url", args: []string{"--config", path, "--start-url", "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			if _, err := resolveConfig(cmd, nil); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestHarnessRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StartURL = siteBase + "index.html"
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = time.Millisecond
	cfg.OutputFile = filepath.Join(t.TempDir(), "results.md")
	cfg.OutputFormat = "markdown"

	var stdout, stderr bytes.Buffer
	h := &harness{cfg: cfg, stdout: &stdout, stderr: &stderr, transport: siteTransport()}
	if err := h.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"Number of unique URLs: 3\n",
		"Average price of book: 11.66667 GBP.\n",
		"The cheapest book:\nTitle: Cheapest\nPrice: 5.00\nStars: 1\n",
		"The most expensive book:\nTitle: Dearest\nPrice: 20.00\nStars: 5\n",
		"Serial and parallel results match: yes\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("read report file: %v", err)
	}
	if !strings.Contains(string(data), "# Catalog Crawl Report") {
		t.Fatalf("report file is not markdown:\n%s", data)
	}
}

func TestHarnessRunUnreachableStart(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StartURL = siteBase + "missing.html"
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = time.Millisecond
	cfg.OutputFile = filepath.Join(t.TempDir(), "results.txt")

	var stdout bytes.Buffer
	h := &harness{cfg: cfg, stdout: &stdout, stderr: &bytes.Buffer{}, transport: siteTransport()}
	if err := h.run(context.Background()); err != nil {
		t.Fatalf("unreachable start should not fail the run: %v", err)
	}
	if !strings.Contains(stdout.String(), "Average price of book: 0.00000 GBP.") {
		t.Fatalf("expected zero state report:\n%s", stdout.String())
	}
}
