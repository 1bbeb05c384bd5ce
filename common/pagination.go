package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// PageParams are the normalized pagination inputs shared by every list
// endpoint.
type PageParams struct {
	Limit  int
	Offset int
}

// PageMeta is the pagination envelope returned next to list data.
type PageMeta struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// ParsePage coerces limit/offset query strings into bounded integers.
// Malformed or out-of-range values fall back to defaults rather than
// erroring; pagination is never a reason to fail a read.
func ParsePage(c *gin.Context, defaultLimit int) PageParams {
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}

	p := PageParams{Limit: defaultLimit, Offset: 0}

	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			switch {
			case v < 1:
				p.Limit = 1
			case v > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = v
			}
		}
	}

	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
		}
	}

	return p
}

// Meta builds the response envelope for a page of results.
func (p PageParams) Meta(total int64) PageMeta {
	return PageMeta{
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: int64(p.Offset+p.Limit) < total,
	}
}
