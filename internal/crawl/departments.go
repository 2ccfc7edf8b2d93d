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

// deptRecord is the college site's department listing JSON shape.
type deptRecord struct {
	Code string `json:"deptCd"`
	Name string `json:"deptNm"`
	URL  string `json:"url"`
}

// CrawlDepartments refreshes the department list of one college and returns
// how many departments were upserted. The JSON listing is tried first, with
// a static-HTML fallback scanning department anchors on the college page.
func (c *Crawler) CrawlDepartments(ctx context.Context, college types.College, w io.Writer) (int, error) {
	listURL := strings.TrimSuffix(college.URL, "/") + "/department/list.json"

	var records []deptRecord
	if err := c.fetchJSON(ctx, listURL, &records); err != nil {
		var fallbackErr error
		records, fallbackErr = c.departmentsFromCollegePage(ctx, college)
		if fallbackErr != nil {
			return 0, fmt.Errorf("listing departments of %s: %w", college.Name, fallbackErr)
		}
	}

	count := 0
	for _, r := range records {
		if r.Code == "" || r.Name == "" || r.URL == "" {
			fmt.Fprintf(w, "warning: skipping incomplete department record %+v\n", r)
			continue
		}
		dept := types.Department{
			CollegeID: college.ID,
			Code:      r.Code,
			Name:      r.Name,
			URL:       r.URL,
		}
		if err := c.Store.UpsertDepartment(ctx, &dept); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// departmentsFromCollegePage scrapes department anchors off the college
// page. The second-to-last path segment is the department code, matching
// /department/<code>/ style URLs.
func (c *Crawler) departmentsFromCollegePage(ctx context.Context, college types.College) ([]deptRecord, error) {
	html, err := c.fetchHTML(ctx, college.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing college page: %w", err)
	}

	base, err := url.Parse(college.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing college URL: %w", err)
	}

	seen := make(map[string]bool)
	var records []deptRecord
	doc.Find("a[href*='department']").Each(func(_ int, sel *goquery.Selection) {
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

		segments := strings.Split(strings.Trim(abs.Path, "/"), "/")
		if len(segments) < 2 {
			return
		}
		code := segments[len(segments)-1]
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		records = append(records, deptRecord{Code: code, Name: name, URL: abs.String()})
	})

	if len(records) == 0 {
		return nil, fmt.Errorf("no department anchors found on %s", college.URL)
	}
	return records, nil
}
