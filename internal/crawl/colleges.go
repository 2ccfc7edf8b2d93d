// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jshan/notice-engine/pkg/types"
)

const defaultCollegeListPath = "/college/list.json"

// collegeRecord is the portal's college listing JSON shape.
type collegeRecord struct {
	Code string `json:"collegeCd"`
	Name string `json:"collegeNm"`
	URL  string `json:"url"`
}

// DiscoverColleges fetches the portal's college listing and upserts each
// college. The JSON endpoint is tried first; when it fails, anchors on the
// portal front page that point at college sites are used instead.
func (c *Crawler) DiscoverColleges(ctx context.Context, w io.Writer) ([]types.College, error) {
	listPath := c.Cfg.CollegeListPath
	if listPath == "" {
		listPath = defaultCollegeListPath
	}
	listURL := strings.TrimSuffix(c.Cfg.RootURL, "/") + listPath

	var records []collegeRecord
	if err := c.fetchJSON(ctx, listURL, &records); err != nil {
		fmt.Fprintf(w, "warning: college listing %s failed (%v), falling back to portal page\n", listURL, err)
		var fallbackErr error
		records, fallbackErr = c.collegesFromPortalPage(ctx)
		if fallbackErr != nil {
			return nil, fmt.Errorf("discovering colleges: %w", fallbackErr)
		}
	}

	var colleges []types.College
	for _, r := range records {
		if r.Code == "" || r.Name == "" || r.URL == "" {
			fmt.Fprintf(w, "warning: skipping incomplete college record %+v\n", r)
			continue
		}
		college := types.College{Code: r.Code, Name: r.Name, URL: r.URL}
		if err := c.Store.UpsertCollege(ctx, &college); err != nil {
			return nil, err
		}
		colleges = append(colleges, college)
	}

	if len(colleges) == 0 {
		return nil, fmt.Errorf("no colleges discovered from %s", c.Cfg.RootURL)
	}
	fmt.Fprintf(w, "discovered %d colleges\n", len(colleges))
	return colleges, nil
}

// collegesFromPortalPage scrapes college anchors off the portal front page.
// The anchor path's last segment doubles as the college code.
func (c *Crawler) collegesFromPortalPage(ctx context.Context) ([]collegeRecord, error) {
	html, err := c.fetchHTML(ctx, c.Cfg.RootURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing portal page: %w", err)
	}

	base, err := url.Parse(c.Cfg.RootURL)
	if err != nil {
		return nil, fmt.Errorf("parsing root URL: %w", err)
	}

	seen := make(map[string]bool)
	var records []collegeRecord
	doc.Find("a[href*='college']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		code := lastPathSegment(abs.Path)
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		records = append(records, collegeRecord{Code: code, Name: name, URL: abs.String()})
	})
	return records, nil
}

func lastPathSegment(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	return segments[len(segments)-1]
}
