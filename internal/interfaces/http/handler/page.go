package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/domain/shared"
)

// Page is the paginated list body of the REST API:
// {"count", "next", "previous", "results"}
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// newPage converts a service page, linking the neighbouring pages on the
// request URL
func newPage[T any](c *gin.Context, p *shared.Paginated[T]) Page[T] {
	out := Page[T]{Count: p.Total, Results: p.Items}
	if out.Results == nil {
		out.Results = []T{}
	}
	if p.HasNext() {
		link := pageLink(c, p.Page+1)
		out.Next = &link
	}
	if p.HasPrevious() {
		link := pageLink(c, p.Page-1)
		out.Previous = &link
	}
	return out
}

func pageLink(c *gin.Context, page int) string {
	q := c.Request.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	link := absoluteURL(c, c.Request.URL.Path)
	if encoded := q.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}
