// Package parser turns catalog documents into records and outbound links.
package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-crawl-books/models"
)

const (
	categoryMarker   = "/category/"
	categoryLinkPart = "category/books/"
	indexSuffix      = "/index.html"
)

// Extractor pulls records, a category label and outbound links from a document.
type Extractor interface {
	Extract(body []byte, sourceURL string) (models.Page, error)
}

// HTMLExtractor extracts catalog pages using CSS selectors.
type HTMLExtractor struct{}

// NewHTMLExtractor returns the catalog extractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// IsCategoryPage reports whether sourceURL denotes a category listing.
func IsCategoryPage(sourceURL string) bool {
	return strings.Contains(sourceURL, categoryMarker)
}

// Extract parses body. Records are only produced for category listings;
// the category label and next-page link come from any page, and index pages
// additionally yield links to every category.
func (HTMLExtractor) Extract(body []byte, sourceURL string) (models.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Page{}, fmt.Errorf("parse document %s: %w", sourceURL, err)
	}

	page := models.Page{
		Category: strings.TrimSpace(doc.Find("h1").First().Text()),
	}

	if next, ok := doc.Find("li.next a").First().Attr("href"); ok && next != "" {
		page.Links = append(page.Links, next)
	}

	if !IsCategoryPage(sourceURL) {
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href := a.AttrOr("href", "")
			if strings.Contains(href, categoryLinkPart) && strings.HasSuffix(href, indexSuffix) {
				page.Links = append(page.Links, href)
			}
		})
		return page, nil
	}

	doc.Find("article.product_pod").Each(func(_ int, article *goquery.Selection) {
		page.Records = append(page.Records, extractRecord(article, sourceURL))
	})
	return page, nil
}

func extractRecord(article *goquery.Selection, sourceURL string) models.Record {
	link := article.Find("h3 a").First()
	title := strings.TrimSpace(link.AttrOr("title", ""))
	if title == "" {
		title = strings.TrimSpace(link.Text())
	}

	record := models.Record{Title: title}

	priceText := article.Find("p.price_color").First().Text()
	if price, err := ParsePrice(priceText); err == nil {
		record.Price = price
	} else {
		slog.Debug("price missing", slog.String("url", sourceURL), slog.String("title", title), slog.Any("error", err))
	}

	if class, ok := article.Find("p.star-rating").First().Attr("class"); ok {
		parts := strings.Fields(class)
		if len(parts) > 1 {
			record.Rating = RatingToNumeric(parts[1])
		}
	}

	if err := ValidateRecord(record); err != nil {
		slog.Debug("incomplete record", slog.String("url", sourceURL), slog.Any("error", err))
	}
	return record
}
