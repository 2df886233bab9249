package productcontroller

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductQuery holds the catalog filters. Zero values mean "no filter".
type ProductQuery struct {
	Search      string
	Category    string
	IsAvailable *bool
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	SortBy      string
	Order       string
}

// sortable columns; anything else is rejected rather than interpolated
var sortColumns = map[string]string{
	"name":             "products.name",
	"price":            "products.price",
	"discounted_price": "products.discounted_price",
	"created_at":       "products.created_at",
}

// ListProducts returns products matching q with their sizes and category.
func ListProducts(db *gorm.DB, q ProductQuery) ([]models.Product, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, apperr.Validation("cannot sort by %q", q.SortBy)
	}
	order := strings.ToLower(q.Order)
	switch order {
	case "":
		order = "desc"
	case "asc", "desc":
	default:
		return nil, apperr.Validation("order must be asc or desc")
	}

	query := db.Model(&models.Product{}).Preload("Sizes").Preload("Category")

	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}
	if c := strings.TrimSpace(q.Category); c != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("LOWER(categories.name) = ?", strings.ToLower(c))
	}
	if q.IsAvailable != nil {
		query = query.Where("products.is_available = ?", *q.IsAvailable)
	}
	if q.MinPrice != nil {
		query = query.Where("products.discounted_price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("products.discounted_price <= ?", *q.MaxPrice)
	}

	var products []models.Product
	err := query.Order(fmt.Sprintf("%s %s, products.id %s", column, order, order)).Find(&products).Error
	return products, err
}

// GetProduct finds a product by numeric id or by slug.
func GetProduct(db *gorm.DB, idOrSlug string) (*models.Product, error) {
	var product models.Product
	query := db.Preload("Sizes", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	}).Preload("Category")

	var err error
	if id, convErr := strconv.ParseUint(idOrSlug, 10, 64); convErr == nil {
		err = query.First(&product, id).Error
	} else {
		err = query.Where("slug = ?", idOrSlug).First(&product).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product")
		}
		return nil, err
	}
	return &product, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
