package rest

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-token-scanner/internal/store"
)

// ListTokensQueryParams holds query parameters for GET /api/tokens
type ListTokensQueryParams struct {
	Offset      int    `form:"offset,default=0"`
	Limit       int    `form:"limit,default=50"`
	SearchQuery string `form:"searchQuery"`
}

// ParseListTokensQuery parses query parameters for GET /api/tokens. Limits above
// the page cap are lowered to it.
func ParseListTokensQuery(c *gin.Context) (*ListTokensQueryParams, error) {
	var params ListTokensQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Offset < 0 {
		return nil, errors.New("offset must be a non-negative integer")
	}
	if params.Limit < 1 {
		return nil, errors.New("limit must be a positive integer")
	}
	if params.Limit > store.MaxPageSize {
		params.Limit = store.MaxPageSize
	}

	return &params, nil
}

// Filter converts the parameters to a store filter
func (p *ListTokensQueryParams) Filter() store.TokenQueryFilter {
	return store.TokenQueryFilter{
		Offset:      p.Offset,
		Limit:       p.Limit,
		SearchQuery: p.SearchQuery,
	}
}
