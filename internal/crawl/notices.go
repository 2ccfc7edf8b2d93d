// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jshan/notice-engine/pkg/types"
)

const defaultMaxPages = 50

// boardPaths maps each board to its listing path under the department URL.
var boardPaths = map[types.Board]string{
	types.BoardUndergrad: "board?code=undergrad_notice",
	types.BoardGrad:      "board?code=grad_notice",
}

// postRecord is one board post from either the JSON listing or the HTML
// fallback.
type postRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Date  string `json:"date"`
}

// boardResponse tolerates both a bare array and a {"posts": [...]} wrapper.
type boardResponse struct {
	Posts []postRecord `json:"posts"`
}

// CrawlDepartmentNotices crawls all boards of one department and returns
// the number of newly stored notices.
func (c *Crawler) CrawlDepartmentNotices(ctx context.Context, dept types.Department) (int, error) {
	total := 0
	for _, board := range types.Boards {
		n, err := c.crawlBoard(ctx, dept, board)
		if err != nil {
			return total, fmt.Errorf("board %s: %w", board, err)
		}
		total += n
	}
	return total, nil
}

// crawlBoard pages through one board, newest first, stopping at the last
// stored post ID. Fresh posts are bulk-inserted page by page.
func (c *Crawler) crawlBoard(ctx context.Context, dept types.Department, board types.Board) (int, error) {
	lastID, err := c.Store.LastPostID(ctx, dept.ID, board)
	if err != nil {
		return 0, err
	}

	maxPages := c.Cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	base := strings.TrimSuffix(dept.URL, "/")
	inserted := 0

	for page := 1; page <= maxPages; page++ {
		if page > 1 && c.Cfg.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return inserted, ctx.Err()
			case <-time.After(c.Cfg.RequestDelay):
			}
		}

		listURL := fmt.Sprintf("%s/%s&page=%d", base, boardPaths[board], page)
		posts, err := c.fetchBoardPage(ctx, listURL)
		if err != nil {
			return inserted, err
		}
		if len(posts) == 0 {
			break
		}

		var fresh []types.Notice
		reachedKnown := false
		for _, p := range posts {
			// Board numbering is sequential, so the first known ID ends
			// the incremental walk.
			if p.ID <= lastID {
				reachedKnown = true
				break
			}
			noticeURL := p.URL
			if !strings.HasPrefix(noticeURL, "http") {
				noticeURL = base + noticeURL
			}
			fresh = append(fresh, types.Notice{
				DeptID:   dept.ID,
				Board:    board,
				PostID:   p.ID,
				Title:    p.Title,
				URL:      noticeURL,
				PostedAt: parsePostedAt(p.Date),
			})
		}
		if len(fresh) == 0 {
			break
		}

		n, err := c.Store.InsertNotices(ctx, fresh)
		if err != nil {
			return inserted, err
		}
		inserted += n

		if reachedKnown {
			break
		}
	}
	return inserted, nil
}

// fetchBoardPage reads one board page, trying the JSON shapes first and
// falling back to the HTML table layout used by older boards. The page is
// fetched once and decoded as whichever format it turns out to be.
func (c *Crawler) fetchBoardPage(ctx context.Context, listURL string) ([]postRecord, error) {
	body, err := c.fetchHTML(ctx, listURL)
	if err != nil {
		return nil, err
	}

	var posts []postRecord
	if err := json.Unmarshal([]byte(body), &posts); err == nil {
		return posts, nil
	}
	var wrapped boardResponse
	if err := json.Unmarshal([]byte(body), &wrapped); err == nil && wrapped.Posts != nil {
		return wrapped.Posts, nil
	}

	return parseBoardHTML(body)
}

// parseBoardHTML extracts posts from the legacy table layout: post number
// in td.no, anchored title in td.title, date in td.date.
func parseBoardHTML(html string) ([]postRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing board page: %w", err)
	}

	var posts []postRecord
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		id := strings.TrimSpace(row.Find("td.no").First().Text())
		anchor := row.Find("td.title a").First()
		href, _ := anchor.Attr("href")
		title := strings.TrimSpace(anchor.Text())
		if id == "" || title == "" || href == "" {
			return
		}
		posts = append(posts, postRecord{
			ID:    id,
			Title: title,
			URL:   strings.TrimSpace(href),
			Date:  strings.TrimSpace(row.Find("td.date").First().Text()),
		})
	})
	return posts, nil
}

// parsePostedAt accepts the date formats boards actually serve.
func parsePostedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006.01.02", "2006/01/02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
