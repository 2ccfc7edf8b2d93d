// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshan/notice-engine/internal/store"
	"github.com/jshan/notice-engine/pkg/types"
)

func testCrawler(t *testing.T, handler http.Handler) (*Crawler, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st, err := store.New(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := types.CrawlConfig{RootURL: srv.URL}
	cfg.UserAgent = "notice-engine-test"
	return New(srv.Client(), st, cfg), srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestDiscoverCollegesFromListing(t *testing.T) {
	mux := http.NewServeMux()
	c, srv := testCrawler(t, mux)
	mux.HandleFunc("/college/list.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []collegeRecord{
			{Code: "E1", Name: "공과대학", URL: srv.URL + "/eng"},
			{Code: "H1", Name: "인문대학", URL: srv.URL + "/hum"},
			{Code: "", Name: "결손 레코드", URL: ""},
		})
	})

	colleges, err := c.DiscoverColleges(context.Background(), io.Discard)
	require.NoError(t, err)
	require.Len(t, colleges, 2)
	assert.Equal(t, "공과대학", colleges[0].Name)
	assert.NotZero(t, colleges[0].ID)

	stored, err := c.Store.Colleges(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestDiscoverCollegesPortalFallback(t *testing.T) {
	mux := http.NewServeMux()
	c, _ := testCrawler(t, mux)
	// No list.json handler, so the listing 404s and the front page is scraped.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/college/engineering">공과대학</a>
			<a href="/college/humanities">인문대학</a>
			<a href="/college/engineering">공과대학 바로가기</a>
			<a href="/news">학교 소식</a>
		</body></html>`)
	})

	colleges, err := c.DiscoverColleges(context.Background(), io.Discard)
	require.NoError(t, err)
	require.Len(t, colleges, 2)
	assert.Equal(t, "engineering", colleges[0].Code)
	assert.Equal(t, "humanities", colleges[1].Code)
}

func TestDiscoverCollegesEmptyFails(t *testing.T) {
	mux := http.NewServeMux()
	c, _ := testCrawler(t, mux)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no anchors here</body></html>`)
	})

	_, err := c.DiscoverColleges(context.Background(), io.Discard)
	require.Error(t, err)
}

func TestCrawlDepartments(t *testing.T) {
	mux := http.NewServeMux()
	c, srv := testCrawler(t, mux)
	mux.HandleFunc("/eng/department/list.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []deptRecord{
			{Code: "cse", Name: "컴퓨터공학과", URL: srv.URL + "/eng/cse"},
			{Code: "chem", Name: "화학공학과", URL: srv.URL + "/eng/chem"},
		})
	})

	ctx := context.Background()
	college := types.College{Code: "E1", Name: "공과대학", URL: srv.URL + "/eng"}
	require.NoError(t, c.Store.UpsertCollege(ctx, &college))

	n, err := c.CrawlDepartments(ctx, college, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	depts, err := c.Store.Departments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 2)
	assert.Equal(t, college.ID, depts[0].CollegeID)
}

func TestCrawlDepartmentsAnchorFallback(t *testing.T) {
	mux := http.NewServeMux()
	c, srv := testCrawler(t, mux)
	mux.HandleFunc("/eng", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="/eng/department/cse">컴퓨터공학과</a>
			<a href="/eng/department/mech">기계공학과</a>
		</body></html>`)
	})

	ctx := context.Background()
	college := types.College{Code: "E1", Name: "공과대학", URL: srv.URL + "/eng"}
	require.NoError(t, c.Store.UpsertCollege(ctx, &college))

	n, err := c.CrawlDepartments(ctx, college, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// boardHandler serves a department's undergrad board as pages of a JSON
// array, newest post first. Posts are numbered down from top.
func boardHandler(top, perPage int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") != "undergrad_notice" {
			writeJSON(w, []postRecord{})
			return
		}
		page := 1
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)

		var posts []postRecord
		first := top - (page-1)*perPage
		for i := 0; i < perPage; i++ {
			id := first - i
			if id <= 0 {
				break
			}
			posts = append(posts, postRecord{
				ID:    fmt.Sprintf("%d", id),
				Title: fmt.Sprintf("공지 %d", id),
				URL:   fmt.Sprintf("/board/view?no=%d", id),
				Date:  "2026-03-02",
			})
		}
		writeJSON(w, posts)
	}
}

func seedCrawlDepartment(t *testing.T, c *Crawler, deptURL string) types.Department {
	t.Helper()
	ctx := context.Background()

	college := types.College{Code: "E1", Name: "공과대학", URL: deptURL}
	require.NoError(t, c.Store.UpsertCollege(ctx, &college))
	dept := types.Department{CollegeID: college.ID, Code: "cse", Name: "컴퓨터공학과", URL: deptURL}
	require.NoError(t, c.Store.UpsertDepartment(ctx, &dept))
	return dept
}

func TestCrawlBoardIsIncremental(t *testing.T) {
	mux := http.NewServeMux()
	c, srv := testCrawler(t, mux)

	top := 7
	mux.HandleFunc("/cse/board", func(w http.ResponseWriter, r *http.Request) {
		boardHandler(top, 3)(w, r)
	})

	ctx := context.Background()
	dept := seedCrawlDepartment(t, c, srv.URL+"/cse")

	// First run walks every page.
	n, err := c.CrawlDepartmentNotices(ctx, dept)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	// Nothing new: stops on the first post of page one.
	n, err = c.CrawlDepartmentNotices(ctx, dept)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Two new posts appear; only they are stored.
	top = 9
	n, err = c.CrawlDepartmentNotices(ctx, dept)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recent, err := c.Store.RecentNotices(ctx, 20)
	require.NoError(t, err)
	require.Len(t, recent, 9)

	byTitle := make(map[string]store.NoticeView, len(recent))
	for _, v := range recent {
		byTitle[v.Title] = v
	}
	require.Contains(t, byTitle, "공지 9")
	assert.Equal(t, srv.URL+"/cse/board/view?no=9", byTitle["공지 9"].URL)
}

func TestCrawlBoardHTMLFallback(t *testing.T) {
	mux := http.NewServeMux()
	c, srv := testCrawler(t, mux)

	mux.HandleFunc("/cse/board", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") != "undergrad_notice" || r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `<html><body><table></table></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body><table><tbody>
			<tr><td class="no">12</td><td class="title"><a href="/board/view?no=12">수강신청 안내</a></td><td class="date">2026.03.02</td></tr>
			<tr><td class="no">11</td><td class="title"><a href="/board/view?no=11">장학금 신청</a></td><td class="date">2026.02.27</td></tr>
		</tbody></table></body></html>`)
	})

	ctx := context.Background()
	dept := seedCrawlDepartment(t, c, srv.URL+"/cse")

	n, err := c.CrawlDepartmentNotices(ctx, dept)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recent, err := c.Store.RecentNotices(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	for _, v := range recent {
		if v.PostID == "12" {
			assert.Equal(t, "수강신청 안내", v.Title)
			assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), v.PostedAt)
		}
	}
}

func TestCrawlBoardRespectsMaxPages(t *testing.T) {
	mux := http.NewServeMux()
	c, srv := testCrawler(t, mux)
	c.Cfg.MaxPages = 2

	mux.HandleFunc("/cse/board", func(w http.ResponseWriter, r *http.Request) {
		boardHandler(100, 10)(w, r)
	})

	ctx := context.Background()
	dept := seedCrawlDepartment(t, c, srv.URL+"/cse")

	n, err := c.CrawlDepartmentNotices(ctx, dept)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestRunPipeline(t *testing.T) {
	mux := http.NewServeMux()
	c, srv := testCrawler(t, mux)

	mux.HandleFunc("/college/list.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []collegeRecord{{Code: "E1", Name: "공과대학", URL: srv.URL + "/eng"}})
	})
	mux.HandleFunc("/eng/department/list.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []deptRecord{{Code: "cse", Name: "컴퓨터공학과", URL: srv.URL + "/eng/cse"}})
	})
	mux.HandleFunc("/eng/cse/board", func(w http.ResponseWriter, r *http.Request) {
		boardHandler(4, 10)(w, r)
	})

	summary, err := c.Run(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Summary{Colleges: 1, Departments: 1, NewNotices: 4, Failed: 0}, summary)
}

func TestRunCountsFailedDepartments(t *testing.T) {
	mux := http.NewServeMux()
	c, srv := testCrawler(t, mux)

	mux.HandleFunc("/college/list.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []collegeRecord{{Code: "E1", Name: "공과대학", URL: srv.URL + "/eng"}})
	})
	mux.HandleFunc("/eng/department/list.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []deptRecord{{Code: "cse", Name: "컴퓨터공학과", URL: srv.URL + "/eng/cse"}})
	})
	mux.HandleFunc("/eng/cse/board", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	summary, err := c.Run(context.Background(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.NewNotices)
}

func TestParsePostedAt(t *testing.T) {
	cases := map[string]time.Time{
		"2026-03-02":           time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		"2026.03.02":           time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		"2026/03/02":           time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		"2026-03-02T09:30:00Z": time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		"어제":                   {},
		"":                     {},
	}
	for in, want := range cases {
		assert.Equal(t, want, parsePostedAt(in), "input %q", in)
	}
}
