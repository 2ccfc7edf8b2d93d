// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package noticeengine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshan/notice-engine/internal/scrape"
	"github.com/jshan/notice-engine/internal/vecindex"
	"github.com/jshan/notice-engine/pkg/types"
)

// boardPage is a small list-mode notice board.
func boardPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("mode") != "list" {
		http.Error(w, "not a list page", http.StatusNotFound)
		return
	}
	fmt.Fprint(w, `<html><body><table><tbody>
		<tr><td>3</td><td><a href="/board?mode=view&no=3">졸업요건 변경 안내</a></td><td>2026.03.02</td></tr>
		<tr><td>2</td><td><a href="/board?mode=view&no=2">수강신청 일정</a></td><td>2026.02.20</td></tr>
		<tr><td>1</td><td><a href="/board?mode=view&no=1">신입생 오리엔테이션</a></td><td>2026.02.10</td></tr>
	</tbody></table></body></html>`)
}

func testEngine(t *testing.T) (*Engine, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/board", boardPage)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dataDir := t.TempDir()
	registry := strings.Join([]string{
		"공과대학,컴퓨터공학과," + srv.URL + "/board?mode=view&no=3",
		"인문대학,국어국문학과," + srv.URL + "/hum/board?mode=view&no=9",
		"자연과학대학,화학과," + srv.URL + "/sci/board?mode=view&no=4",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, RegistryFile), []byte(registry), 0o644))

	cfg := types.EngineConfig{Store: types.StoreConfig{DataDir: dataDir}}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, srv
}

func TestUpdateIndexThenSearch(t *testing.T) {
	e, srv := testEngine(t)
	ctx := context.Background()

	status, err := e.UpdateIndex(ctx)
	require.NoError(t, err)
	assert.Contains(t, status, "indexed 3 links")
	assert.Contains(t, status, "links.index")

	out, err := e.SearchLinks(ctx, "컴퓨터")
	require.NoError(t, err)
	assert.Contains(t, out, "[MATCH] 공과대학/컴퓨터공학과")
	assert.Contains(t, out, srv.URL+"/board?mode=list&no=3")
	assert.Contains(t, out, "졸업요건 변경 안내")
	assert.Contains(t, out, "2026.03.02")
	assert.Contains(t, out, "3 notices")
}

func TestSearchAppliesSynonyms(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	_, err := e.UpdateIndex(ctx)
	require.NoError(t, err)

	// "화공" expands to "화학" and must land on the chemistry board even
	// though no registry text contains the literal query.
	best, err := e.bestLink(ctx, "화공")
	require.NoError(t, err)
	assert.Equal(t, "화학과", best.Dept)
}

func TestSearchBeforeUpdateFails(t *testing.T) {
	e, _ := testEngine(t)

	_, err := e.SearchLinks(context.Background(), "컴퓨터")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run update")
}

func TestSearchEmptyQuery(t *testing.T) {
	e, _ := testEngine(t)

	_, err := e.SearchLinks(context.Background(), "   ")
	require.Error(t, err)
}

func TestUpdateIndexWithoutRegistry(t *testing.T) {
	cfg := types.EngineConfig{Store: types.StoreConfig{DataDir: t.TempDir()}}
	e, err := New(cfg)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.UpdateIndex(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry is empty")
}

func TestUpdateIndexIsRepeatable(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	first, err := e.UpdateIndex(ctx)
	require.NoError(t, err)
	second, err := e.UpdateIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearchRejectsMismatchedIndex(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	_, err := e.UpdateIndex(ctx)
	require.NoError(t, err)

	// Same registry and index dir, different embedding width.
	cfg := e.cfg
	cfg.Embed.Dimensions = 64
	narrow, err := New(cfg)
	require.NoError(t, err)
	defer narrow.Close()

	_, err = narrow.SearchLinks(ctx, "컴퓨터")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run update")
}

func TestSearchRejectsForeignModelIndex(t *testing.T) {
	e, _ := testEngine(t)
	ctx := context.Background()

	_, err := e.UpdateIndex(ctx)
	require.NoError(t, err)

	// Rewrite the sidecar as if the index came from a remote model.
	infoPath := filepath.Join(e.indexDir(), vecindex.InfoFile)
	data, err := os.ReadFile(infoPath)
	require.NoError(t, err)
	var info vecindex.Info
	require.NoError(t, json.Unmarshal(data, &info))
	info.Model = "ko-sroberta"
	data, err = json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(infoPath, data, 0o644))

	_, err = e.SearchLinks(ctx, "컴퓨터")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `index built with model "ko-sroberta"`)
}

func TestExpandQuery(t *testing.T) {
	cases := map[string]string{
		"AI":    "인공지능",
		"ai":    "인공지능",
		"화공":    "화학",
		"컴퓨터":   "컴퓨터공학",
		"국어국문":  "국어국문",
		"물리학과":  "물리",
		"물리 학과": "물리",
	}
	for in, want := range cases {
		assert.Equal(t, want, expandQuery(in, nil), "input %q", in)
	}

	// Config synonyms win over the built-ins.
	assert.Equal(t, "전자공학", expandQuery("컴퓨터", map[string]string{"컴퓨터": "전자공학"}))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ai공지사항", normalize("AI 공지사항!"))
	assert.Equal(t, "2026학년도", normalize(" 2026 학년도 "))
	assert.Equal(t, "", normalize("★☆"))
}

func TestRerankPrefersContainment(t *testing.T) {
	candidates := []types.Link{
		{ID: 1, College: "인문대학", Dept: "국어국문학과"},
		{ID: 2, College: "공과대학", Dept: "컴퓨터공학과"},
		{ID: 3, College: "자연과학대학", Dept: "물리학과"},
	}

	best := rerank("컴퓨터", candidates, nil)
	assert.Equal(t, int64(2), best.ID)

	// No candidate contains the whole query; the sequence ratio decides.
	best = rerank("물리천문", candidates, nil)
	assert.Equal(t, int64(3), best.ID)
}

func TestRerankStripsDepartmentSuffix(t *testing.T) {
	candidates := []types.Link{
		{ID: 1, College: "인문대학", Dept: "국어국문학과"},
		{ID: 2, College: "자연과학대학", Dept: "수학부"},
	}

	// "수학과" is nowhere in the texts, but stripped to "수학" it is
	// contained in the math department.
	best := rerank("수학과", candidates, nil)
	assert.Equal(t, int64(2), best.ID)
}

func TestFormatMatchEmpty(t *testing.T) {
	var b strings.Builder
	formatMatch(&b, types.Link{College: "공과대학", Dept: "컴퓨터공학과"}, "http://x/board?mode=list", nil)
	assert.Contains(t, b.String(), "No results found.")
}

func TestFormatMatchTable(t *testing.T) {
	rows := []scrape.Row{
		{Title: "수강신청 일정", URL: "http://x/board?mode=view&no=2", PostedAt: "2026-02-20"},
	}
	var b strings.Builder
	formatMatch(&b, types.Link{College: "공과대학", Dept: "컴퓨터공학과"}, "http://x/board?mode=list", rows)

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "[MATCH] 공과대학/컴퓨터공학과 -> http://x/board?mode=list"))
	assert.Contains(t, out, "수강신청 일정")
	assert.Contains(t, out, "1 notices")
}

func TestTruncateCountsRunes(t *testing.T) {
	long := strings.Repeat("가", 60)
	got := truncate(long, 50)
	assert.Equal(t, 50, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "짧은 제목", truncate("짧은 제목", 50))
}
