package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	Query        string           `json:"q,omitempty"`
	CategorySlug string           `json:"category,omitempty"`
	MinPrice     *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal `json:"max_price,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter products.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}

type productListQuery struct {
	Pagination pagination.Params
	Filters    ProductListFilters
	// VendorID scopes a management listing. Nil with PublishedOnly lists the public catalog.
	VendorID      *uuid.UUID
	PublishedOnly bool
}
