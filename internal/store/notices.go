// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jshan/notice-engine/pkg/types"
)

// LastPostID returns the highest stored post ID for a department board, or
// "0" when the board has no stored notices. Post IDs compare as strings,
// matching the board's own numbering.
func (s *Store) LastPostID(ctx context.Context, deptID int64, board types.Board) (string, error) {
	var postID string
	err := s.db.QueryRowContext(ctx,
		`SELECT post_id FROM notices WHERE dept_id = ? AND board = ?
		 ORDER BY post_id DESC LIMIT 1`,
		deptID, string(board),
	).Scan(&postID)
	if err == sql.ErrNoRows {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying last post id: %w", err)
	}
	return postID, nil
}

// InsertNotices bulk-inserts notices inside one transaction, ignoring rows
// already present. It returns the number of rows actually inserted.
func (s *Store) InsertNotices(ctx context.Context, notices []types.Notice) (int, error) {
	if len(notices) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO notices (dept_id, board, post_id, title, url, posted_at, crawled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, n := range notices {
		crawledAt := n.CrawledAt
		if crawledAt.IsZero() {
			crawledAt = time.Now().UTC()
		}
		res, err := stmt.ExecContext(ctx,
			n.DeptID, string(n.Board), n.PostID, n.Title, n.URL,
			formatTime(n.PostedAt), formatTime(crawledAt),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting notice %s: %w", n.PostID, err)
		}
		if count, err := res.RowsAffected(); err == nil {
			inserted += int(count)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing notices: %w", err)
	}
	return inserted, nil
}

// NoticeView is a notice joined with its department and college names.
type NoticeView struct {
	types.Notice `yaml:",inline"`
	DeptName     string `json:"dept_name" yaml:"dept_name"`
	CollegeName  string `json:"college_name" yaml:"college_name"`
}

// RecentNotices returns the most recently crawled notices, newest first,
// joined with their department and college.
func (s *Store) RecentNotices(ctx context.Context, limit int) ([]NoticeView, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, n.dept_id, n.board, n.post_id, n.title, n.url,
			n.posted_at, n.crawled_at, d.name, c.name
		 FROM notices n
		 JOIN departments d ON n.dept_id = d.id
		 JOIN colleges c ON d.college_id = c.id
		 ORDER BY n.crawled_at DESC, n.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent notices: %w", err)
	}
	defer rows.Close()

	var out []NoticeView
	for rows.Next() {
		var v NoticeView
		var board, postedAt, crawledAt string
		if err := rows.Scan(&v.ID, &v.DeptID, &board, &v.PostID, &v.Title, &v.URL,
			&postedAt, &crawledAt, &v.DeptName, &v.CollegeName); err != nil {
			return nil, fmt.Errorf("scanning notice: %w", err)
		}
		v.Board = types.Board(board)
		v.PostedAt = parseTime(postedAt)
		v.CrawledAt = parseTime(crawledAt)
		out = append(out, v)
	}
	return out, rows.Err()
}
