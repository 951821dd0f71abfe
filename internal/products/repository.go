package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/pagination"
)

// Repository manages products, variants, categories and attributes.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindDetail loads a product with category, variants and attribute values.
func (r *Repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Attributes.Attribute").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads a variant belonging to the product.
func (r *Repository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// CreateProduct inserts the product and its variants. Attributes are linked separately.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Attributes", "Category").Create(product).Error
}

// UpdateProduct saves scalar columns only.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
}

// DeleteProduct removes a product. Variants and attribute links cascade.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// HasRentalHistory reports whether any order line references the product.
func (r *Repository) HasRentalHistory(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderLine{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceVariants swaps the product's variant set.
func (r *Repository) ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.ProductVariant{}).Error; err != nil {
		return err
	}
	if len(variants) == 0 {
		return nil
	}
	for i := range variants {
		variants[i].ProductID = productID
	}
	return r.db.WithContext(ctx).Create(&variants).Error
}

// ReplaceAttributeValues swaps the product's attribute links.
func (r *Repository) ReplaceAttributeValues(ctx context.Context, productID uuid.UUID, valueIDs []uuid.UUID) error {
	if err := r.db.WithContext(ctx).Exec("DELETE FROM product_attribute_values WHERE product_id = ?", productID).Error; err != nil {
		return err
	}
	if len(valueIDs) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(valueIDs))
	for _, id := range valueIDs {
		rows = append(rows, map[string]any{"product_id": productID, "attribute_value_id": id})
	}
	return r.db.WithContext(ctx).Table("product_attribute_values").Create(&rows).Error
}

// CountAttributeValues counts how many of the ids exist.
func (r *Repository) CountAttributeValues(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AttributeValue{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// ListSummaries pages products newest first.
func (r *Repository) ListSummaries(ctx context.Context, query productListQuery) ([]models.Product, error) {
	page, err := pagination.Keyset(query.Pagination)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Category")

	if query.PublishedOnly {
		qb = qb.Where("is_rentable = ? AND publish_on_website = ?", true, true)
	}
	if query.VendorID != nil {
		qb = qb.Where("vendor_id = ?", *query.VendorID)
	}

	filter := query.Filters
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		qb = qb.Where("category_id IN (?)", r.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug))
	}
	if filter.MinPrice != nil {
		qb = qb.Where("price_per_day >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		qb = qb.Where("price_per_day <= ?", *filter.MaxPrice)
	}

	var rows []models.Product
	if err := qb.Scopes(page).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCategories returns active categories by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindCategory loads a category by id.
func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// ListAttributes returns attributes with their values.
func (r *Repository) ListAttributes(ctx context.Context) ([]models.ProductAttribute, error) {
	var rows []models.ProductAttribute
	if err := r.db.WithContext(ctx).
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("value ASC") }).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateAttribute inserts an attribute and its values.
func (r *Repository) CreateAttribute(ctx context.Context, attribute *models.ProductAttribute) error {
	return r.db.WithContext(ctx).Create(attribute).Error
}
