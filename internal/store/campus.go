// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jshan/notice-engine/pkg/types"
)

// UpsertCollege inserts or updates a college keyed by code and fills in the
// record's ID.
func (s *Store) UpsertCollege(ctx context.Context, c *types.College) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO colleges (code, name, url, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET name=excluded.name, url=excluded.url`,
		c.Code, c.Name, c.URL, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting college %s: %w", c.Code, err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM colleges WHERE code = ?`, c.Code,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("reading college id for %s: %w", c.Code, err)
	}
	return nil
}

// Colleges returns all stored colleges ordered by code.
func (s *Store) Colleges(ctx context.Context) ([]types.College, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, url, created_at FROM colleges ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying colleges: %w", err)
	}
	defer rows.Close()

	var out []types.College
	for rows.Next() {
		var c types.College
		var created string
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.URL, &created); err != nil {
			return nil, fmt.Errorf("scanning college: %w", err)
		}
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertDepartment inserts or updates a department keyed by (college, code)
// and fills in the record's ID.
func (s *Store) UpsertDepartment(ctx context.Context, d *types.Department) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO departments (college_id, code, name, url, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(college_id, code) DO UPDATE SET name=excluded.name, url=excluded.url`,
		d.CollegeID, d.Code, d.Name, d.URL, formatTime(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting department %s: %w", d.Code, err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM departments WHERE college_id = ? AND code = ?`, d.CollegeID, d.Code,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("reading department id for %s: %w", d.Code, err)
	}
	return nil
}

// Departments returns all stored departments ordered by college and code.
func (s *Store) Departments(ctx context.Context) ([]types.Department, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, college_id, code, name, url, created_at
		 FROM departments ORDER BY college_id, code`)
	if err != nil {
		return nil, fmt.Errorf("querying departments: %w", err)
	}
	defer rows.Close()

	var out []types.Department
	for rows.Next() {
		var d types.Department
		var created string
		if err := rows.Scan(&d.ID, &d.CollegeID, &d.Code, &d.Name, &d.URL, &created); err != nil {
			return nil, fmt.Errorf("scanning department: %w", err)
		}
		d.CreatedAt = parseTime(created)
		out = append(out, d)
	}
	return out, rows.Err()
}
