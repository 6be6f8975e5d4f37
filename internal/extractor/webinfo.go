package extractor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageInfo holds the public channel fields scraped from a channel page.
type PageInfo struct {
	Title        string
	Description  string
	ThumbnailURL string
}

// WebInfoClient scrapes open-graph metadata from a channel page. It serves as
// a fallback source of channel title/thumbnail when the extractor returns a
// tree without them.
type WebInfoClient struct {
	client *http.Client
}

// NewWebInfoClient creates a scraper with a pooled HTTP client.
func NewWebInfoClient() *WebInfoClient {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &WebInfoClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

// FetchPageInfo retrieves and parses the channel page at url.
func (w *WebInfoClient) FetchPageInfo(ctx context.Context, url string) (*PageInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching channel page", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel page: %w", err)
	}

	return parsePageInfo(doc), nil
}

func parsePageInfo(doc *goquery.Document) *PageInfo {
	info := &PageInfo{}

	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		info.Title = strings.TrimSpace(title)
	}
	if info.Title == "" {
		info.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		info.Description = strings.TrimSpace(desc)
	}
	if thumb, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		info.ThumbnailURL = strings.TrimSpace(thumb)
	}

	return info
}
