// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how page-based navigation is requested and how the resulting
// page envelope is computed. The envelope math is deterministic: it depends
// only on the total count, the requested page, and the limit.
package pagination

import "math"

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 10
	// MaxLimit is the upper bound for items per page to prevent system abuse.
	MaxLimit = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
	// MaxOffset bounds [Params.Offset] so that adding a page's worth of
	// items to it never overflows.
	MaxOffset = math.MaxInt - MaxLimit - 1
)

// Params holds a normalized page and limit.
type Params struct {
	Page  int
	Limit int
}

// NewParams clamps raw values: non-positive page or limit fall back to the
// defaults and limits above [MaxLimit] are capped.
func NewParams(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset returns the SQL OFFSET value derived from [Page] and [Limit].
// Pages far beyond any real data saturate at [MaxOffset].
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > MaxOffset/p.Limit {
		return MaxOffset
	}
	return (p.Page - 1) * p.Limit
}

// Page is the envelope returned by paginated list endpoints.
//
// # Invariants
//   - TotalPages  = ceil(TotalDocs / Limit), 0 when there are no documents
//   - HasNextPage = Page < TotalPages
//   - HasPrevPage = Page > 1, computed from the requested page
type Page[T any] struct {
	Docs          []T  `json:"docs"`
	TotalDocs     int  `json:"totalDocs"`
	Limit         int  `json:"limit"`
	TotalPages    int  `json:"totalPages"`
	Page          int  `json:"page"`
	PagingCounter int  `json:"pagingCounter"`
	HasPrevPage   bool `json:"hasPrevPage"`
	HasNextPage   bool `json:"hasNextPage"`
	PrevPage      *int `json:"prevPage"`
	NextPage      *int `json:"nextPage"`
}

// NewPage builds the envelope for one page of docs out of total matches.
func NewPage[T any](docs []T, total int, params Params) Page[T] {
	if docs == nil {
		docs = []T{}
	}

	totalPages := 0
	if params.Limit > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}

	page := Page[T]{
		Docs:          docs,
		TotalDocs:     total,
		Limit:         params.Limit,
		TotalPages:    totalPages,
		Page:          params.Page,
		PagingCounter: params.Offset() + 1,
		HasPrevPage:   params.Page > 1,
		HasNextPage:   params.Page < totalPages,
	}

	if page.HasPrevPage {
		prev := params.Page - 1
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := params.Page + 1
		page.NextPage = &next
	}

	return page
}
