package controllers

import (
	"net/http"

	"github.com/rentease/rentease-backend/api/responses"
	"github.com/rentease/rentease-backend/api/validators"
	product "github.com/rentease/rentease-backend/internal/products"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
)

const maxSearchLength = 100

func listProductsInput(r *http.Request) (product.ListProductsInput, error) {
	page, err := pageParams(r)
	if err != nil {
		return product.ListProductsInput{}, err
	}
	minPrice, err := validators.ParseQueryDecimal(r, "min_price")
	if err != nil {
		return product.ListProductsInput{}, err
	}
	maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
	if err != nil {
		return product.ListProductsInput{}, err
	}
	query := r.URL.Query()
	return product.ListProductsInput{
		Filters: product.ProductListFilters{
			Query:        validators.SanitizeString(query.Get("q"), maxSearchLength),
			CategorySlug: validators.SanitizeString(query.Get("category"), maxSearchLength),
			MinPrice:     minPrice,
			MaxPrice:     maxPrice,
		},
		Pagination: page,
	}, nil
}

// ProductList serves the public catalog of published, rentable products.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		input, err := listProductsInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductAvailability reports free stock, optionally over ?start_date&end_date.
func ProductAvailability(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		input, err := parseAvailability(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Availability(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseAvailability(r *http.Request) (product.AvailabilityInput, error) {
	productID, err := validators.ParseURLUUID(r, "productId")
	if err != nil {
		return product.AvailabilityInput{}, err
	}
	variantID, err := validators.ParseQueryUUID(r, "variant_id")
	if err != nil {
		return product.AvailabilityInput{}, err
	}
	start, err := validators.ParseQueryTime(r, "start_date")
	if err != nil {
		return product.AvailabilityInput{}, err
	}
	end, err := validators.ParseQueryTime(r, "end_date")
	if err != nil {
		return product.AvailabilityInput{}, err
	}
	return product.AvailabilityInput{ProductID: productID, VariantID: variantID, StartDate: start, EndDate: end}, nil
}

// ProductPrice quotes the rental price for ?start_date&end_date&quantity.
func ProductPrice(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		window, err := parseAvailability(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if window.StartDate == nil || window.EndDate == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "start_date and end_date are required"))
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Quote(r.Context(), product.QuoteInput{
			ProductID: window.ProductID,
			VariantID: window.VariantID,
			StartDate: *window.StartDate,
			EndDate:   *window.EndDate,
			Quantity:  quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CategoryList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		result, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CategoryCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product service"))
			return
		}
		var body product.CreateCategoryInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateCategory(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
