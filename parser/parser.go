package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aluiziolira/go-crawl-books/models"
)

// ValidateRecord ensures the extractor captured the required fields.
func ValidateRecord(r models.Record) error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("record missing title")
	}
	if r.Price < 0 {
		return fmt.Errorf("record %s has negative price %.2f", r.Title, r.Price)
	}
	if r.Rating < 0 || r.Rating > 5 {
		return fmt.Errorf("record %s has rating %d outside 0-5", r.Title, r.Rating)
	}
	return nil
}

// ParsePrice reads the first numeric run from a price label such as "£51.77".
// Currency symbols and mis-decoded prefixes are skipped.
func ParsePrice(text string) (float64, error) {
	text = strings.TrimSpace(text)
	start := strings.IndexFunc(text, unicode.IsDigit)
	if start < 0 {
		return 0, fmt.Errorf("no digits in price %q", text)
	}
	end := start
	for end < len(text) && (text[end] == '.' || (text[end] >= '0' && text[end] <= '9')) {
		end++
	}
	value, err := strconv.ParseFloat(text[start:end], 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	return value, nil
}

// RatingToNumeric converts the textual rating to a numeric scale.
func RatingToNumeric(rating string) int {
	switch strings.TrimSpace(rating) {
	case "Zero":
		return 0
	case "One":
		return 1
	case "Two":
		return 2
	case "Three":
		return 3
	case "Four":
		return 4
	case "Five":
		return 5
	default:
		return 0
	}
}
