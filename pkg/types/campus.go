// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared domain records and stage configurations
// for notice-engine.
package types

import "time"

// Board identifies a department notice board.
type Board string

const (
	BoardUndergrad Board = "undergrad"
	BoardGrad      Board = "grad"
)

// Boards lists the boards crawled per department, in crawl order.
var Boards = []Board{BoardUndergrad, BoardGrad}

// College is a top-level campus unit discovered from the portal.
type College struct {
	// ID is the store row ID; zero before the record is persisted.
	ID int64 `json:"id" yaml:"id"`

	// Code is the portal's college code (e.g. "E1").
	Code string `json:"code" yaml:"code"`

	// Name is the display name (e.g. "공과대학").
	Name string `json:"name" yaml:"name"`

	// URL is the college site root.
	URL string `json:"url" yaml:"url"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Department is a unit under a College with its own notice boards.
type Department struct {
	ID        int64  `json:"id" yaml:"id"`
	CollegeID int64  `json:"college_id" yaml:"college_id"`
	Code      string `json:"code" yaml:"code"`
	Name      string `json:"name" yaml:"name"`
	URL       string `json:"url" yaml:"url"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Notice is a single board post.
type Notice struct {
	ID     int64 `json:"id" yaml:"id"`
	DeptID int64 `json:"dept_id" yaml:"dept_id"`

	// Board is the source board (undergrad or grad).
	Board Board `json:"board" yaml:"board"`

	// PostID is the board's own post number; pagination stops when it
	// reaches the last stored value.
	PostID string `json:"post_id" yaml:"post_id"`

	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`

	// PostedAt is the board-reported publication date. Zero when the board
	// exposes no date.
	PostedAt time.Time `json:"posted_at" yaml:"posted_at"`

	CrawledAt time.Time `json:"crawled_at" yaml:"crawled_at"`
}

// Link is one row of the searchable link registry: a named board URL for a
// college/department pair. These are the records the vector index is built
// over.
type Link struct {
	ID int64 `json:"id" yaml:"id"`

	// College and Dept are display names. The registry file substitutes one
	// for the other when a row carries "-".
	College string `json:"college" yaml:"college"`
	Dept    string `json:"dept" yaml:"dept"`

	// URL is the board URL (list or view form; search normalizes to list).
	URL string `json:"url" yaml:"url"`
}

// IndexText returns the text embedded for this link.
func (l Link) IndexText() string {
	return l.College + " " + l.Dept
}
