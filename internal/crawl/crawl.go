// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl walks the campus portal: colleges, then each college's
// departments, then each department's notice boards. Board crawls are
// incremental; pagination stops at the last stored post.
package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/jshan/notice-engine/internal/httputil"
	"github.com/jshan/notice-engine/internal/store"
	"github.com/jshan/notice-engine/pkg/types"
)

const defaultWorkers = 4

// Crawler runs the crawl pipeline against one store.
type Crawler struct {
	Client *http.Client
	Store  *store.Store
	Cfg    types.CrawlConfig
}

// New returns a Crawler. A nil client means http.DefaultClient.
func New(client *http.Client, st *store.Store, cfg types.CrawlConfig) *Crawler {
	if client == nil {
		client = http.DefaultClient
	}
	return &Crawler{Client: client, Store: st, Cfg: cfg}
}

// Summary holds counts from one crawl run.
type Summary struct {
	Colleges    int
	Departments int
	NewNotices  int
	Failed      int
}

// Run executes the full pipeline: discover colleges, refresh each college's
// departments, then crawl all department boards concurrently. Individual
// failures are reported to w and counted; the crawl continues.
func (c *Crawler) Run(ctx context.Context, w io.Writer) (Summary, error) {
	var summary Summary

	colleges, err := c.DiscoverColleges(ctx, w)
	if err != nil {
		return summary, err
	}
	summary.Colleges = len(colleges)

	for _, college := range colleges {
		n, err := c.CrawlDepartments(ctx, college, w)
		if err != nil {
			fmt.Fprintf(w, "failed  %s departments: %v\n", college.Name, err)
			summary.Failed++
			continue
		}
		summary.Departments += n
	}

	depts, err := c.Store.Departments(ctx)
	if err != nil {
		return summary, err
	}

	inserted, failed := c.crawlNotices(ctx, depts, w)
	summary.NewNotices = inserted
	summary.Failed += failed

	fmt.Fprintf(w, "\ncolleges: %d, departments: %d, new notices: %d, failed: %d\n",
		summary.Colleges, summary.Departments, summary.NewNotices, summary.Failed)
	return summary, nil
}

// crawlNotices fans department board crawls out over a bounded worker pool.
func (c *Crawler) crawlNotices(ctx context.Context, depts []types.Department, w io.Writer) (inserted, failed int) {
	workers := c.Cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(depts) {
		workers = len(depts)
	}
	if workers == 0 {
		return 0, 0
	}

	type outcome struct {
		dept     string
		inserted int
		err      error
	}

	jobs := make(chan types.Department)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dept := range jobs {
				n, err := c.CrawlDepartmentNotices(ctx, dept)
				results <- outcome{dept: dept.Name, inserted: n, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, d := range depts {
			select {
			case jobs <- d:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", r.dept, r.err)
			failed++
			continue
		}
		if r.inserted > 0 {
			fmt.Fprintf(w, "crawled %s: %d new notices\n", r.dept, r.inserted)
		}
		inserted += r.inserted
	}
	return inserted, failed
}

// fetchJSON GETs url with retry and decodes the JSON body into v.
func (c *Crawler) fetchJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", url, err)
	}
	return nil
}

// fetchHTML GETs url with retry and returns the decoded body.
func (c *Crawler) fetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return httputil.ReadBody(resp)
}
