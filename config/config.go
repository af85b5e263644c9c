package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds crawler configuration.
type Config struct {
	StartURL          string        `yaml:"start_url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax   time.Duration `yaml:"retry_backoff_max"`
	MaxInFlight       int           `yaml:"max_in_flight"`
	ResolverCacheSize int           `yaml:"resolver_cache_size"`
	OutputFile        string        `yaml:"output_file"`
	OutputFormat      string        `yaml:"output_format"` // text, json, markdown or csv
	UserAgent         string        `yaml:"user_agent"`
	Verbose           bool          `yaml:"verbose"`
	MetricsAddr       string        `yaml:"metrics_addr"`
}

// DefaultConfig returns the benchmark defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		StartURL:          "https://books.toscrape.com/index.html",
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		RetryBackoff:      100 * time.Millisecond,
		RetryBackoffMax:   time.Second,
		MaxInFlight:       0,
		ResolverCacheSize: 4096,
		OutputFile:        "results.txt",
		OutputFormat:      "text",
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:           false,
		MetricsAddr:       "",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return fmt.Errorf("start URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.StartURL)
	if err != nil {
		return fmt.Errorf("invalid start URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("start URL must include a scheme and host")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("max in-flight cannot be negative")
	}
	if c.ResolverCacheSize <= 0 {
		return fmt.Errorf("resolver cache size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "text", "json", "markdown", "csv":
	default:
		return fmt.Errorf("output format must be text, json, markdown, or csv")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
