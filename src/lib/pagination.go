package lib

import (
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// PageRequest is a validated page/pageSize pair
type PageRequest struct {
	Page     int
	PageSize int
}

// PageMetadata describes a page of results
type PageMetadata struct {
	TotalCount int64  `json:"totalCount"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	LastPage   int64  `json:"lastPage"`
	Keyword    string `json:"keyword"`
}

// Page is a slice of results together with its metadata
type Page[T any] struct {
	Metadata PageMetadata `json:"metadata"`
	Data     []T          `json:"data"`
}

// ParsePageRequest turns raw query values into a PageRequest. Missing or
// non-numeric values take the defaults, numeric values below 1 are rejected
// and pageSize is capped at MaxPageSize.
func ParsePageRequest(rawPage, rawPageSize string) (PageRequest, error) {
	req := PageRequest{Page: DefaultPage, PageSize: DefaultPageSize}

	if n, err := strconv.Atoi(strings.TrimSpace(rawPage)); err == nil {
		if n < 1 {
			return req, Validation("page must be a positive integer")
		}
		req.Page = n
	}

	if n, err := strconv.Atoi(strings.TrimSpace(rawPageSize)); err == nil {
		if n < 1 {
			return req, Validation("pageSize must be a positive integer")
		}
		req.PageSize = min(n, MaxPageSize)
	}

	return req, nil
}

// Offset is the number of records to skip
func (p PageRequest) Offset() int64 {
	return int64(p.Page-1) * int64(p.PageSize)
}

// LastPage is ceil(totalCount / pageSize)
func (p PageRequest) LastPage(totalCount int64) int64 {
	if totalCount <= 0 {
		return 0
	}
	size := int64(p.PageSize)
	return (totalCount + size - 1) / size
}

// NewPage assembles a Page, never returning a nil data slice
func NewPage[T any](req PageRequest, keyword string, totalCount int64, data []T) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Metadata: PageMetadata{
			TotalCount: totalCount,
			Page:       req.Page,
			PageSize:   req.PageSize,
			LastPage:   req.LastPage(totalCount),
			Keyword:    keyword,
		},
		Data: data,
	}
}
