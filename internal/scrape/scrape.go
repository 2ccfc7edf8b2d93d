// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape extracts notice rows from department board pages.
//
// Board markup varies across college sites, so the scraper tries a fixed
// list of candidate CSS selector pairs and keeps the first one that yields
// rows. Only the title, link, and posted date are needed.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jshan/notice-engine/internal/httputil"
	"github.com/jshan/notice-engine/pkg/types"
)

// Row is one parsed board entry. PostedAt is the raw date string as it
// appears on the page ("" when the board shows no date).
type Row struct {
	Title    string
	URL      string
	PostedAt string
}

// candidate holds a row selector and the anchor selector inside it. An empty
// anchor selector means the row element itself is the anchor.
type candidate struct {
	row    string
	anchor string
}

// Tried in order; the first selector pair producing at least one row wins.
var candidates = []candidate{
	{"table tbody tr", "td a"},
	{"div.board_list tbody tr", "td a"},
	{"ul li", "a"},
	{"div.list li", "a"},
	{"div.card", "a"},
}

var dateRE = regexp.MustCompile(
	`(20\d{2}[./-]\d{1,2}[./-]\d{1,2})|(\d{4}\.\d{2}\.\d{2})|(\d{4}-\d{2}-\d{2})`)

var spaceRE = regexp.MustCompile(`\s+`)

// Scraper fetches and parses board pages.
type Scraper struct {
	Client *http.Client
	HTTP   types.HTTPConfig
}

// New returns a Scraper using client, or http.DefaultClient when nil.
func New(client *http.Client, cfg types.HTTPConfig) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	return &Scraper{Client: client, HTTP: cfg}
}

// FetchRows downloads a board page and parses its notice rows. A 404 on a
// URL without a mode parameter is retried once with mode=list appended,
// matching how college boards distinguish list and view pages.
func (s *Scraper) FetchRows(ctx context.Context, pageURL string) ([]Row, error) {
	body, finalURL, err := s.fetch(ctx, pageURL)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound && !strings.Contains(pageURL, "mode=list") {
			body, finalURL, err = s.fetch(ctx, appendQuery(pageURL, "mode=list"))
		}
		if err != nil {
			return nil, err
		}
	}
	return ParseRows(body, finalURL)
}

// fetch GETs pageURL with retry and Korean-encoding-aware decoding. It
// returns the decoded body and the final URL after redirects.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.HTTP.UserAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.8,en-US;q=0.5,en;q=0.3")

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return "", nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, &statusError{url: pageURL, code: resp.StatusCode}
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return "", nil, fmt.Errorf("decoding %s: %w", pageURL, err)
	}
	return body, resp.Request.URL, nil
}

// ParseRows extracts notice rows from board HTML. base resolves relative
// hrefs. It returns an error when no candidate selector matches anything.
func ParseRows(html string, base *url.URL) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing board HTML: %w", err)
	}

	for _, c := range candidates {
		var rows []Row
		doc.Find(c.row).Each(func(_ int, sel *goquery.Selection) {
			anchor := sel
			if c.anchor != "" {
				anchor = sel.Find(c.anchor).First()
			}
			href, ok := anchor.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return
			}
			title := NormalizeWhitespace(anchor.Text())
			if title == "" {
				return
			}
			rows = append(rows, Row{
				Title:    title,
				URL:      resolveHref(base, strings.TrimSpace(href)),
				PostedAt: extractDate(sel),
			})
		})
		if len(rows) > 0 {
			return rows, nil
		}
	}

	return nil, fmt.Errorf("no notice rows parsed from %s", base)
}

// GuessListURL converts a view URL into the board's list URL: mode=view
// becomes mode=list, and a URL with no mode parameter gets one appended.
func GuessListURL(pageURL string) string {
	if strings.Contains(pageURL, "mode=view") {
		return strings.Replace(pageURL, "mode=view", "mode=list", 1)
	}
	if strings.Contains(pageURL, "mode=list") {
		return pageURL
	}
	return appendQuery(pageURL, "mode=list")
}

// NormalizeWhitespace collapses runs of whitespace to single spaces and trims.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(s, " "))
}

func appendQuery(pageURL, param string) string {
	if strings.Contains(pageURL, "?") {
		return pageURL + "&" + param
	}
	return pageURL + "?" + param
}

// extractDate finds the first date-looking string inside a row element.
func extractDate(sel *goquery.Selection) string {
	text := NormalizeWhitespace(sel.Text())
	return dateRE.FindString(text)
}

// resolveHref makes href absolute against the page URL.
func resolveHref(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// statusError reports a non-200 board response.
type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.code, e.url)
}
