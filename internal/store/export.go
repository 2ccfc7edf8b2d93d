// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"
)

const csvDir = "csv"

// ExportCSV writes all stored notices to dataDir/csv/notices_YYYYMMDD.csv
// and returns the file path. The file is written via a temp file and
// renamed into place.
func (s *Store) ExportCSV(ctx context.Context) (string, error) {
	outDir := filepath.Join(s.dataDir, csvDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating csv directory: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, c.name, d.name, n.board, n.post_id, n.title, n.url,
			n.posted_at, n.crawled_at
		 FROM notices n
		 JOIN departments d ON n.dept_id = d.id
		 JOIN colleges c ON d.college_id = c.id
		 ORDER BY n.id`)
	if err != nil {
		return "", fmt.Errorf("querying notices: %w", err)
	}
	defer rows.Close()

	tmp, err := os.CreateTemp(outDir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	header := []string{"id", "college", "dept", "board", "post_id", "title", "url", "posted_at", "crawled_at"}
	if err := w.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing csv header: %w", err)
	}

	for rows.Next() {
		var id int64
		var college, dept, board, postID, title, noticeURL, postedAt, crawledAt string
		if err := rows.Scan(&id, &college, &dept, &board, &postID, &title, &noticeURL,
			&postedAt, &crawledAt); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return "", fmt.Errorf("scanning notice: %w", err)
		}
		record := []string{strconv.FormatInt(id, 10), college, dept, board, postID, title, noticeURL, postedAt, crawledAt}
		if err := w.Write(record); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return "", fmt.Errorf("writing csv record: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("reading notices: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("flushing csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("notices_%s.csv", time.Now().UTC().Format("20060102")))
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming export: %w", err)
	}
	return outPath, nil
}

// ExportYAML writes the most recently crawled notices (joined with their
// department and college) to path.
func (s *Store) ExportYAML(ctx context.Context, path string, limit int) error {
	views, err := s.RecentNotices(ctx, limit)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(views)
	if err != nil {
		return fmt.Errorf("marshaling notices: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
