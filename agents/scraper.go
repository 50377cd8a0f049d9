// Package agents implements the three worker providers the execution engine
// delegates to: scraping, analysis, and visualization. Each provider is a
// black box with a fixed input/output contract; the engine only ever touches
// the contract.
package agents

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lexcodex/analyst/framework"
)

const (
	scrapeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// minTextChars is the floor below which a page without tables is
	// considered unusable rather than a textual artifact.
	minTextChars = 150
)

// footnoteMarker matches wiki-style reference markers like "[a]" or "[12]"
// that pollute scraped header names.
var footnoteMarker = regexp.MustCompile(`\[[^\]]*\]`)

// Scraper fetches a URL and extracts either the largest HTML table on the
// page or the main body text.
type Scraper struct {
	client *http.Client
	logger *log.Logger
}

// NewScraper builds the scrape provider. The timeout bounds the whole fetch;
// it is the only deadline the system enforces.
func NewScraper(timeout time.Duration, logger *log.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Scraper{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		logger: logger,
	}
}

// Scrape fetches the URL and returns a tagged artifact: a table when the
// page has a usable one, otherwise the page text. It fails when the URL is
// unreachable or yields neither a table nor enough text to analyze.
func (s *Scraper) Scrape(ctx context.Context, url string) (framework.Artifact, error) {
	if url == "" {
		return framework.Artifact{}, framework.ErrMissingURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return framework.Artifact{}, framework.Providerf("scrape", err)
	}
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return framework.Artifact{}, framework.Providerf("scrape", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return framework.Artifact{}, framework.Providerf("scrape", fmt.Errorf("GET %s: %s", url, resp.Status))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return framework.Artifact{}, framework.Providerf("scrape", err)
	}

	if table := largestTable(doc); table != nil {
		s.logf("scrape: found table with columns %v (%d rows)", table.Columns, table.NumRows())
		return framework.Artifact{Kind: framework.ArtifactTable, Table: table}, nil
	}

	text := bodyText(doc)
	if len(text) > minTextChars {
		s.logf("scrape: no tables, returning %d characters of text", len(text))
		return framework.Artifact{Kind: framework.ArtifactText, Text: text}, nil
	}

	return framework.Artifact{}, framework.Providerf("scrape",
		fmt.Errorf("no usable tables or significant text content at %s", url))
}

// largestTable extracts every <table> and keeps the one with the most cells.
// The first row supplies the header; marker suffixes like "[a]" are stripped
// from header names.
func largestTable(doc *goquery.Document) *framework.Table {
	var best *framework.Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		table := parseTable(sel)
		if table == nil {
			return
		}
		if best == nil || table.Size() > best.Size() {
			best = table
		}
	})
	return best
}

func parseTable(sel *goquery.Selection) *framework.Table {
	rows := sel.Find("tr")
	if rows.Length() < 2 {
		return nil
	}
	table := &framework.Table{}
	rows.Each(func(i int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() == 0 {
			return
		}
		values := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			values = append(values, cleanCell(cell.Text()))
		})
		if len(table.Columns) == 0 {
			for i := range values {
				values[i] = footnoteMarker.ReplaceAllString(values[i], "")
				values[i] = strings.TrimSpace(values[i])
			}
			table.Columns = values
			return
		}
		// Ragged rows (rowspan artifacts) are padded or clipped to the
		// header width so downstream indexing stays aligned.
		if len(values) > len(table.Columns) {
			values = values[:len(table.Columns)]
		}
		for len(values) < len(table.Columns) {
			values = append(values, "")
		}
		table.Rows = append(table.Rows, values)
	})
	if len(table.Columns) == 0 || len(table.Rows) == 0 {
		return nil
	}
	return table
}

func cleanCell(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// bodyText returns the page's visible text with scripts and styles removed
// and whitespace collapsed.
func bodyText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}
	body.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

func (s *Scraper) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
