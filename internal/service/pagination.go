package service

import (
	apperrors "catalog/internal/errors"
)

// PageRequest selects one 1-indexed page of a listing.
type PageRequest struct {
	Page     int
	PageSize int
}

func (r PageRequest) offset() int {
	return (r.Page - 1) * r.PageSize
}

func (r PageRequest) check() error {
	if r.Page < 1 || r.PageSize < 1 {
		return apperrors.ErrInvalidPage
	}
	return nil
}

// Page is one page of results plus the total number of matches.
type Page[T any] struct {
	Items    []T
	Count    int64
	Page     int
	PageSize int
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return int64(p.Page*p.PageSize) < p.Count
}

// HasPrevious reports whether an earlier page exists.
func (p *Page[T]) HasPrevious() bool {
	return p.Page > 1
}

// newPage builds a Page, rejecting pages past the end. The first page is
// always valid, even when empty.
func newPage[T any](items []T, count int64, req PageRequest) (*Page[T], error) {
	if req.Page > 1 && int64(req.offset()) >= count {
		return nil, apperrors.ErrInvalidPage
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Count: count, Page: req.Page, PageSize: req.PageSize}, nil
}
