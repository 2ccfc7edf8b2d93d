// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package noticeengine

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/jshan/notice-engine/pkg/types"
)

// builtinSynonyms maps common query shorthand to the department keyword the
// registry actually uses. Config synonyms are merged over these.
var builtinSynonyms = map[string]string{
	"ai":   "인공지능",
	"응용화학": "화학",
	"화공":   "화학",
	"컴퓨터":  "컴퓨터공학",
}

var normRE = regexp.MustCompile(`[^0-9a-z가-힣]+`)

// normalize lowercases and strips everything outside latin letters, digits
// and hangul, so "AI 공지" and "ai공지" compare equal.
func normalize(s string) string {
	return normRE.ReplaceAllString(strings.ToLower(s), "")
}

// expandQuery rewrites the normalized query through the synonym table and
// drops the "학과" suffix, so "물리학과" matches as "물리".
func expandQuery(query string, extra map[string]string) string {
	q := normalize(query)
	if to, ok := extra[q]; ok {
		q = normalize(to)
	} else if to, ok := builtinSynonyms[q]; ok {
		q = normalize(to)
	}
	return strings.ReplaceAll(q, "학과", "")
}

// rerank picks the best of the vector-index candidates. Exact containment
// of the expanded query in a candidate's text counts double; a sequence
// ratio breaks near-ties. Candidates arrive in vector-rank order and the
// first keeps ties.
func rerank(query string, candidates []types.Link, synonyms map[string]string) types.Link {
	q := expandQuery(query, synonyms)

	best := candidates[0]
	bestScore := -1.0
	for _, c := range candidates {
		score := scoreCandidate(q, c)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

func scoreCandidate(q string, link types.Link) float64 {
	text := normalize(link.IndexText())
	var score float64
	if q != "" && strings.Contains(text, q) {
		score += 2
	}
	score += sequenceRatio(q, text)
	return score
}

// sequenceRatio is a character-level similarity in [0, 1].
func sequenceRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
