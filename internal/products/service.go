package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/inventory"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/db/models"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/pagination"
	"github.com/rentease/rentease-backend/pkg/types"
)

// Service exposes catalog browsing and vendor product management.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	Availability(ctx context.Context, input AvailabilityInput) (*AvailabilityDTO, error)
	Quote(ctx context.Context, input QuoteInput) (*PriceQuoteDTO, error)

	ListManagedProducts(ctx context.Context, actor types.Actor, input ListProductsInput) (*ProductListResult, error)
	GetManagedProduct(ctx context.Context, actor types.Actor, productID uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, actor types.Actor, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actor types.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, actor types.Actor, productID uuid.UUID) error

	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	ListAttributes(ctx context.Context) ([]AttributeDefinitionDTO, error)
	CreateAttribute(ctx context.Context, input CreateAttributeInput) (*AttributeDefinitionDTO, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	VendorID          *uuid.UUID       `json:"vendor_id,omitempty"`
	CategoryID        *uuid.UUID       `json:"category_id,omitempty"`
	Name              string           `json:"name" validate:"required,max=200"`
	Description       string           `json:"description" validate:"max=5000"`
	ImageURL          *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags              []string         `json:"tags,omitempty"`
	CostPrice         decimal.Decimal  `json:"cost_price"`
	SalesPrice        decimal.Decimal  `json:"sales_price"`
	PricePerHour      *decimal.Decimal `json:"price_per_hour,omitempty"`
	PricePerDay       *decimal.Decimal `json:"price_per_day,omitempty"`
	PricePerWeek      *decimal.Decimal `json:"price_per_week,omitempty"`
	QuantityOnHand    int              `json:"quantity_on_hand" validate:"gte=0"`
	IsRentable        *bool            `json:"is_rentable,omitempty"`
	PublishOnWebsite  bool             `json:"publish_on_website"`
	Variants          []VariantInput   `json:"variants,omitempty" validate:"dive"`
	AttributeValueIDs []uuid.UUID      `json:"attribute_value_ids,omitempty"`
}

// VariantInput describes one variant override.
type VariantInput struct {
	Name           string           `json:"name" validate:"required,max=200"`
	SKU            string           `json:"sku,omitempty" validate:"max=100"`
	PricePerHour   *decimal.Decimal `json:"price_per_hour,omitempty"`
	PricePerDay    *decimal.Decimal `json:"price_per_day,omitempty"`
	PricePerWeek   *decimal.Decimal `json:"price_per_week,omitempty"`
	QuantityOnHand *int             `json:"quantity_on_hand,omitempty" validate:"omitempty,gte=0"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	CategoryID        *uuid.UUID       `json:"category_id,omitempty"`
	Name              *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description       *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	ImageURL          *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags              *[]string        `json:"tags,omitempty"`
	CostPrice         *decimal.Decimal `json:"cost_price,omitempty"`
	SalesPrice        *decimal.Decimal `json:"sales_price,omitempty"`
	PricePerHour      *decimal.Decimal `json:"price_per_hour,omitempty"`
	PricePerDay       *decimal.Decimal `json:"price_per_day,omitempty"`
	PricePerWeek      *decimal.Decimal `json:"price_per_week,omitempty"`
	QuantityOnHand    *int             `json:"quantity_on_hand,omitempty" validate:"omitempty,gte=0"`
	IsRentable        *bool            `json:"is_rentable,omitempty"`
	PublishOnWebsite  *bool            `json:"publish_on_website,omitempty"`
	Variants          *[]VariantInput  `json:"variants,omitempty" validate:"omitempty,dive"`
	AttributeValueIDs *[]uuid.UUID     `json:"attribute_value_ids,omitempty"`
}

// CreateCategoryInput creates a category. Slug is derived from the name when empty.
type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug,omitempty" validate:"max=100"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

// CreateAttributeInput creates an attribute with its values.
type CreateAttributeInput struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Values []string `json:"values" validate:"required,min=1,dive,required,max=100"`
}

// AvailabilityInput asks for availability, optionally over a window.
type AvailabilityInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

// QuoteInput asks for the rental price of a window.
type QuoteInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Quantity  int
}

type availabilityChecker interface {
	AvailableQuantity(ctx context.Context, tx *gorm.DB, product *models.Product, variant *models.ProductVariant, window *inventory.Window) (int, error)
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	inventory availabilityChecker
}

// NewService builds the product service.
func NewService(repo *Repository, dbClient *db.Client, inventory availabilityChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &service{repo: repo, dbClient: dbClient, inventory: inventory}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	return s.list(ctx, productListQuery{
		Pagination:    input.Pagination,
		Filters:       input.Filters,
		PublishedOnly: true,
	})
}

func (s *service) ListManagedProducts(ctx context.Context, actor types.Actor, input ListProductsInput) (*ProductListResult, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	return s.list(ctx, productListQuery{
		Pagination: input.Pagination,
		Filters:    input.Filters,
		VendorID:   actor.VendorScope(),
	})
}

func (s *service) list(ctx context.Context, query productListQuery) (*ProductListResult, error) {
	if lo, hi := query.Filters.MinPrice, query.Filters.MaxPrice; lo != nil && hi != nil && lo.GreaterThan(*hi) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}
	if _, err := pagination.ParseCursor(query.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListSummaries(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	page := pagination.BuildPage(rows, query.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	summaries := make([]ProductSummary, 0, len(page.Items))
	for _, row := range page.Items {
		summaries = append(summaries, newProductSummary(row))
	}
	return &ProductListResult{Products: summaries, NextCursor: page.NextCursor}, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadDetail(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.PublishOnWebsite || !product.IsRentable {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return NewProductDTO(product, false), nil
}

func (s *service) GetManagedProduct(ctx context.Context, actor types.Actor, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadDetail(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(product.VendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
	}
	return NewProductDTO(product, true), nil
}

func (s *service) Availability(ctx context.Context, input AvailabilityInput) (*AvailabilityDTO, error) {
	product, variant, err := s.loadRentable(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}

	var window *inventory.Window
	switch {
	case input.StartDate != nil && input.EndDate != nil:
		window = &inventory.Window{Start: input.StartDate.UTC(), End: input.EndDate.UTC()}
		if !window.Valid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "start_date must be before end_date")
		}
	case input.StartDate != nil || input.EndDate != nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start_date and end_date must be provided together")
	}

	available, err := s.inventory.AvailableQuantity(ctx, nil, product, variant, window)
	if err != nil {
		return nil, err
	}
	return &AvailabilityDTO{
		ProductID: product.ID,
		VariantID: input.VariantID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Available: available,
	}, nil
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*PriceQuoteDTO, error) {
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	start, end := input.StartDate.UTC(), input.EndDate.UTC()
	if !start.Before(end) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start_date must be before end_date")
	}
	product, variant, err := s.loadRentable(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	available, err := s.inventory.AvailableQuantity(ctx, nil, product, variant, &inventory.Window{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	unit := RentalPrice(product, variant, start, end)
	return &PriceQuoteDTO{
		ProductID: product.ID,
		VariantID: input.VariantID,
		StartDate: start,
		EndDate:   end,
		Quantity:  input.Quantity,
		UnitPrice: unit,
		Total:     unit.Mul(decimal.NewFromInt(int64(input.Quantity))),
		Available: available,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, actor types.Actor, input CreateProductInput) (*ProductDTO, error) {
	if !actor.Role.IsVendorOrAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor or admin role required")
	}
	vendorID := actor.UserID
	if input.VendorID != nil && *input.VendorID != uuid.Nil {
		if !actor.CanManage(*input.VendorID) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot create products for another vendor")
		}
		vendorID = *input.VendorID
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.QuantityOnHand < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_on_hand must not be negative")
	}
	if err := validateAmounts(map[string]*decimal.Decimal{
		"cost_price":     &input.CostPrice,
		"sales_price":    &input.SalesPrice,
		"price_per_hour": input.PricePerHour,
		"price_per_day":  input.PricePerDay,
		"price_per_week": input.PricePerWeek,
	}); err != nil {
		return nil, err
	}
	variants, err := buildVariants(input.Variants)
	if err != nil {
		return nil, err
	}

	isRentable := true
	if input.IsRentable != nil {
		isRentable = *input.IsRentable
	}
	product := &models.Product{
		VendorID:         vendorID,
		CategoryID:       input.CategoryID,
		Name:             name,
		Description:      strings.TrimSpace(input.Description),
		ImageURL:         input.ImageURL,
		Tags:             pq.StringArray(normalizeTags(input.Tags)),
		CostPrice:        input.CostPrice,
		SalesPrice:       input.SalesPrice,
		PricePerHour:     toNullDecimal(input.PricePerHour),
		PricePerDay:      toNullDecimal(input.PricePerDay),
		PricePerWeek:     toNullDecimal(input.PricePerWeek),
		QuantityOnHand:   input.QuantityOnHand,
		IsRentable:       isRentable,
		PublishOnWebsite: input.PublishOnWebsite,
		Variants:         variants,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureCategory(ctx, repo, input.CategoryID); err != nil {
			return err
		}
		if err := ensureAttributeValues(ctx, repo, input.AttributeValueIDs); err != nil {
			return err
		}
		if err := repo.CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		if err := repo.ReplaceAttributeValues(ctx, product.ID, input.AttributeValueIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link attributes")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.loadDetail(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(created, true), nil
}

// UpdateProduct updates an existing product and related rows.
func (s *service) UpdateProduct(ctx context.Context, actor types.Actor, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if input.QuantityOnHand != nil && *input.QuantityOnHand < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity_on_hand must not be negative")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
	}
	if err := validateAmounts(map[string]*decimal.Decimal{
		"cost_price":     input.CostPrice,
		"sales_price":    input.SalesPrice,
		"price_per_hour": input.PricePerHour,
		"price_per_day":  input.PricePerDay,
		"price_per_week": input.PricePerWeek,
	}); err != nil {
		return nil, err
	}
	var variants []models.ProductVariant
	if input.Variants != nil {
		built, err := buildVariants(*input.Variants)
		if err != nil {
			return nil, err
		}
		variants = built
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if !actor.CanManage(product.VendorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
		}
		if err := ensureCategory(ctx, repo, input.CategoryID); err != nil {
			return err
		}

		applyUpdateToProduct(product, input)
		if err := repo.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		if input.Variants != nil {
			if err := repo.ReplaceVariants(ctx, product.ID, variants); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace variants")
			}
		}
		if input.AttributeValueIDs != nil {
			if err := ensureAttributeValues(ctx, repo, *input.AttributeValueIDs); err != nil {
				return err
			}
			if err := repo.ReplaceAttributeValues(ctx, product.ID, *input.AttributeValueIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link attributes")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.loadDetail(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated, true), nil
}

func (s *service) DeleteProduct(ctx context.Context, actor types.Actor, productID uuid.UUID) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if !actor.CanManage(product.VendorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
		}
		rented, err := repo.HasRentalHistory(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check rental history")
		}
		if rented {
			return pkgerrors.New(pkgerrors.CodeConflict, "product has rental history; unpublish it instead")
		}
		if err := repo.DeleteProduct(ctx, productID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "product is still referenced")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
		}
		return nil
	})
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewCategoryDTO(row))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.Category{
		Name:        name,
		Slug:        models.Slugify(input.Slug),
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name or slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	dto := NewCategoryDTO(*category)
	return &dto, nil
}

func (s *service) ListAttributes(ctx context.Context) ([]AttributeDefinitionDTO, error) {
	rows, err := s.repo.ListAttributes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list attributes")
	}
	out := make([]AttributeDefinitionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newAttributeDefinitionDTO(row))
	}
	return out, nil
}

func (s *service) CreateAttribute(ctx context.Context, input CreateAttributeInput) (*AttributeDefinitionDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	seen := map[string]struct{}{}
	attribute := &models.ProductAttribute{Name: name}
	for _, raw := range input.Values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(value)]; dup {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "duplicate value %q", value)
		}
		seen[strings.ToLower(value)] = struct{}{}
		attribute.Values = append(attribute.Values, models.AttributeValue{Value: value})
	}
	if len(attribute.Values) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one value is required")
	}
	if err := s.repo.CreateAttribute(ctx, attribute); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "attribute already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create attribute")
	}
	dto := newAttributeDefinitionDTO(*attribute)
	return &dto, nil
}

func (s *service) loadDetail(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func (s *service) loadRentable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.Product, *models.ProductVariant, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsRentable || !product.PublishOnWebsite {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if variantID == nil {
		return product, nil, nil
	}
	variant, err := s.repo.FindVariant(ctx, productID, *variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
	}
	return product, variant, nil
}

func ensureCategory(ctx context.Context, repo *Repository, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := repo.FindCategory(ctx, *categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}
	return nil
}

func ensureAttributeValues(ctx context.Context, repo *Repository, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	unique := map[uuid.UUID]struct{}{}
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	if len(unique) != len(ids) {
		return pkgerrors.New(pkgerrors.CodeValidation, "attribute_value_ids must be unique")
	}
	count, err := repo.CountAttributeValues(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load attribute values")
	}
	if int(count) != len(ids) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown attribute value")
	}
	return nil
}

func validateAmounts(values map[string]*decimal.Decimal) error {
	for field, value := range values {
		if value != nil && value.IsNegative() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s must not be negative", field)
		}
	}
	return nil
}

func buildVariants(inputs []VariantInput) ([]models.ProductVariant, error) {
	variants := make([]models.ProductVariant, 0, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name is required")
		}
		if input.QuantityOnHand != nil && *input.QuantityOnHand < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant quantity_on_hand must not be negative")
		}
		if err := validateAmounts(map[string]*decimal.Decimal{
			"variant price_per_hour": input.PricePerHour,
			"variant price_per_day":  input.PricePerDay,
			"variant price_per_week": input.PricePerWeek,
		}); err != nil {
			return nil, err
		}
		variants = append(variants, models.ProductVariant{
			Name:           name,
			SKU:            strings.TrimSpace(input.SKU),
			PricePerHour:   toNullDecimal(input.PricePerHour),
			PricePerDay:    toNullDecimal(input.PricePerDay),
			PricePerWeek:   toNullDecimal(input.PricePerWeek),
			QuantityOnHand: input.QuantityOnHand,
		})
	}
	return variants, nil
}

func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.Tags != nil {
		product.Tags = pq.StringArray(normalizeTags(*input.Tags))
	}
	if input.CostPrice != nil {
		product.CostPrice = *input.CostPrice
	}
	if input.SalesPrice != nil {
		product.SalesPrice = *input.SalesPrice
	}
	if input.PricePerHour != nil {
		product.PricePerHour = toNullDecimal(input.PricePerHour)
	}
	if input.PricePerDay != nil {
		product.PricePerDay = toNullDecimal(input.PricePerDay)
	}
	if input.PricePerWeek != nil {
		product.PricePerWeek = toNullDecimal(input.PricePerWeek)
	}
	if input.QuantityOnHand != nil {
		product.QuantityOnHand = *input.QuantityOnHand
	}
	if input.IsRentable != nil {
		product.IsRentable = *input.IsRentable
	}
	if input.PublishOnWebsite != nil {
		product.PublishOnWebsite = *input.PublishOnWebsite
	}
}

func newProductSummary(product models.Product) ProductSummary {
	summary := ProductSummary{
		ID:               product.ID,
		VendorID:         product.VendorID,
		Name:             product.Name,
		ImageURL:         product.ImageURL,
		SalesPrice:       product.SalesPrice,
		PricePerDay:      nullDecimalPtr(product.PricePerDay),
		PricePerWeek:     nullDecimalPtr(product.PricePerWeek),
		QuantityOnHand:   product.QuantityOnHand,
		PublishOnWebsite: product.PublishOnWebsite,
		CreatedAt:        product.CreatedAt,
	}
	if product.Category != nil {
		slug := product.Category.Slug
		summary.CategorySlug = &slug
	}
	return summary
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func toNullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*value)
}
