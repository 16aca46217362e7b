package internalhttp

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eventbook/eventbook/internal/storage"
)

const (
	defaultPageSize = 10
	maxPageSize     = 20

	// maxPageNumber keeps Number*Size and the derived offset within int range.
	maxPageNumber = math.MaxInt / maxPageSize
)

// pageFromRequest reads the page and page_size query params, falling back to
// the defaults on anything non-numeric or out of range.
func pageFromRequest(c *gin.Context) storage.Page {
	page := storage.Page{Number: 1, Size: defaultPageSize}

	if number, err := strconv.Atoi(c.Query("page")); err == nil && number > 0 {
		if number > maxPageNumber {
			number = maxPageNumber
		}
		page.Number = number
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil && size > 0 {
		if size > maxPageSize {
			size = maxPageSize
		}
		page.Size = size
	}
	return page
}

// paginationFor builds the envelope pagination block. Links keep the caller's
// query string and are absolute; a link pointing at page 1 drops the page
// param entirely.
func paginationFor(c *gin.Context, page storage.Page, total int) *Pagination {
	p := &Pagination{Count: total}
	if page.Number > 1 {
		p.Previous = pageLink(c, page.Number-1)
	}
	if page.Number*page.Size < total {
		p.Next = pageLink(c, page.Number+1)
	}
	return p
}

func pageLink(c *gin.Context, number int) *string {
	u := *c.Request.URL
	query := u.Query()
	if number <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = query.Encode()

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	link := scheme + "://" + c.Request.Host + u.Path
	if u.RawQuery != "" {
		link += "?" + u.RawQuery
	}
	return &link
}
