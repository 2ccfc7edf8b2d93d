// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jshan/notice-engine/pkg/types"
)

// ParseRegistry reads the link registry format: one "college,dept,url" line
// per link. Blank lines and lines starting with # are skipped. A "-" in the
// college or dept column is replaced by the other column's value, so rows
// for college-wide boards need only one name.
func ParseRegistry(r io.Reader) ([]types.Link, error) {
	var links []types.Link

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ",", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("registry line %d: expected college,dept,url: %q", lineNum, line)
		}

		college := strings.TrimSpace(parts[0])
		dept := strings.TrimSpace(parts[1])
		linkURL := strings.TrimSpace(parts[2])
		if linkURL == "" {
			return nil, fmt.Errorf("registry line %d: empty url", lineNum)
		}

		if college == "-" {
			college = dept
		}
		if dept == "-" {
			dept = college
		}
		if college == "" && dept == "" {
			return nil, fmt.Errorf("registry line %d: no college or dept name", lineNum)
		}

		links = append(links, types.Link{College: college, Dept: dept, URL: linkURL})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	return links, nil
}

// LoadRegistryFile parses the registry file at path.
func LoadRegistryFile(path string) ([]types.Link, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening registry %s: %w", path, err)
	}
	defer f.Close()
	return ParseRegistry(f)
}

// ReplaceLinks swaps the stored link registry for the given rows in one
// transaction and fills in their IDs.
func (s *Store) ReplaceLinks(ctx context.Context, links []types.Link) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM links`); err != nil {
		return fmt.Errorf("clearing links: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO links (college, dept, url) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range links {
		res, err := stmt.ExecContext(ctx, links[i].College, links[i].Dept, links[i].URL)
		if err != nil {
			return fmt.Errorf("inserting link %s/%s: %w", links[i].College, links[i].Dept, err)
		}
		if id, err := res.LastInsertId(); err == nil {
			links[i].ID = id
		}
	}

	return tx.Commit()
}

// Links returns the stored link registry ordered by ID.
func (s *Store) Links(ctx context.Context) ([]types.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, college, dept, url FROM links ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var out []types.Link
	for rows.Next() {
		var l types.Link
		if err := rows.Scan(&l.ID, &l.College, &l.Dept, &l.URL); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
