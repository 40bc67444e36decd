package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/granaria/trendlens/pkg/models"
)

const lookupBaseURL = "https://finance.yahoo.com/lookup"

// Lookup searches Yahoo Finance's symbol lookup page for assets matching a
// free-text query. It is a scrape, not an API call, so results are best
// effort and limited to what the first page shows.
type Lookup struct{}

// NewLookup creates a symbol lookup scraper.
func NewLookup() *Lookup { return &Lookup{} }

// Search returns assets matching the query, up to limit results.
func (l *Lookup) Search(ctx context.Context, query string, limit int) ([]models.AssetInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty lookup query", ErrSymbolNotFound)
	}
	if limit <= 0 {
		limit = 10
	}

	u := fmt.Sprintf("%s?s=%s", lookupBaseURL, url.QueryEscape(query))
	body, _, err := doGet(ctx, u, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo lookup %q: %w", query, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse lookup HTML: %w", err)
	}

	var results []models.AssetInfo
	doc.Find("table tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}

		symbol := strings.TrimSpace(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())
		if symbol == "" {
			return true
		}

		info := models.AssetInfo{
			Symbol: FromYahooSymbol(symbol),
			Name:   name,
		}
		// The lookup table carries type and exchange in trailing columns
		// when present.
		if cells.Length() >= 4 {
			info.Type = strings.ToLower(strings.TrimSpace(cells.Eq(3).Text()))
		}
		if cells.Length() >= 5 {
			info.Exchange = strings.TrimSpace(cells.Eq(4).Text())
		}

		results = append(results, info)
		return len(results) < limit
	})

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrSymbolNotFound, query)
	}
	return results, nil
}
