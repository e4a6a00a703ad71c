package pagination

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination and ordering parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
	SortBy string
	Desc   bool
}

// FromContext extracts pagination parameters from the echo context. sortable
// lists the column names callers may order by; anything else falls back to
// the first entry.
func FromContext(c echo.Context, sortable ...string) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	p := Params{Limit: limit, Offset: offset}
	if len(sortable) == 0 {
		return p
	}

	p.SortBy = sortable[0]
	requested := c.QueryParam("sort")
	for _, col := range sortable {
		if requested == col {
			p.SortBy = col
			break
		}
	}
	p.Desc = strings.EqualFold(c.QueryParam("direction"), "desc")
	return p
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// OrderSQL returns the ORDER BY clause, or "" when no sort column is set.
// SortBy is only ever one of the caller-supplied sortable names, never raw
// request input.
func (p Params) OrderSQL() string {
	if p.SortBy == "" {
		return ""
	}
	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", p.SortBy, dir)
}

// SQL returns the LIMIT and OFFSET clause for SQL queries.
func (p Params) SQL() string {
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit, p.Offset)
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}
