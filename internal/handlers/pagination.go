package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const storeHistoryPageSize = int64(10)

func parsePageParam(pageStr string) (int64, error) {
	if pageStr == "" {
		return 1, nil
	}
	p, err := strconv.ParseInt(pageStr, 10, 64)
	if err != nil || p < 1 {
		return 0, gin.Error{}
	}
	return p, nil
}

// pageLink rebuilds the request URL with a different page number, or returns
// nil when the target page does not exist.
func pageLink(c *gin.Context, page, totalPages int64) *string {
	if page < 1 || page > totalPages {
		return nil
	}
	query := c.Request.URL.Query()
	query.Set("page", strconv.FormatInt(page, 10))
	link := fmt.Sprintf("%s?%s", c.Request.URL.Path, query.Encode())
	return &link
}
