package productcontroller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SizeStock struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type ProductInput struct {
	Name            string             `json:"name"`
	Slug            string             `json:"slug"`
	Description     string             `json:"description"`
	Price           decimal.Decimal    `json:"price"`
	DiscountedPrice *decimal.Decimal   `json:"discounted_price"`
	ProductType     models.ProductType `json:"product_type"`
	Quantity        int                `json:"quantity"`
	IsAvailable     *bool              `json:"is_available"`
	CategoryID      *uint              `json:"category_id"`
	ImageURL        string             `json:"image_url"`
	Sizes           []SizeStock        `json:"sizes"`
}

func validatePrices(price, discounted decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation("price cannot be negative")
	}
	if discounted.IsNegative() {
		return apperr.Validation("discounted_price cannot be negative")
	}
	if discounted.GreaterThan(price) {
		return apperr.Validation("discounted_price cannot exceed price")
	}
	return nil
}

// parseSizes validates a size stock list and rejects duplicates.
func parseSizes(in []SizeStock) ([]models.ProductSize, error) {
	seen := make(map[models.Size]bool)
	out := make([]models.ProductSize, 0, len(in))
	for _, s := range in {
		size, err := models.ParseSize(s.Size)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		if size == models.SizeNone {
			return nil, apperr.Validation("size is required for every size row")
		}
		if seen[size] {
			return nil, apperr.Validation("size %s listed twice", size)
		}
		if s.Quantity < 0 {
			return nil, apperr.Validation("quantity for size %s cannot be negative", size)
		}
		seen[size] = true
		out = append(out, models.ProductSize{Size: size, Quantity: s.Quantity})
	}
	return out, nil
}

func checkCategory(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var cat models.Category
	if err := tx.Select("id").First(&cat, *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("category")
		}
		return err
	}
	return nil
}

func slugTaken(tx *gorm.DB, slug string, exceptID uint) (bool, error) {
	var count int64
	err := tx.Unscoped().Model(&models.Product{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count).Error
	return count > 0, err
}

// CreateProduct adds a product. Sized products carry their stock in sizes;
// non-sized products in quantity.
func CreateProduct(db *gorm.DB, in ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	discounted := in.Price
	if in.DiscountedPrice != nil {
		discounted = *in.DiscountedPrice
	}
	if err := validatePrices(in.Price, discounted); err != nil {
		return nil, err
	}

	productType := in.ProductType
	if productType == "" {
		productType = models.ProductTypeNonSized
	}
	if !productType.Valid() {
		return nil, apperr.Validation("product_type must be sized or non-sized")
	}

	product := models.Product{
		CategoryID:      in.CategoryID,
		Name:            name,
		Slug:            slugify(in.Slug),
		Description:     in.Description,
		Price:           in.Price.Round(2),
		DiscountedPrice: discounted.Round(2),
		ProductType:     productType,
		IsAvailable:     in.IsAvailable == nil || *in.IsAvailable,
		ImageURL:        in.ImageURL,
	}
	if product.Slug == "" {
		product.Slug = slugify(name)
	}
	if product.Slug == "" {
		return nil, apperr.Validation("name must contain letters or digits")
	}

	if productType == models.ProductTypeSized {
		sizes, err := parseSizes(in.Sizes)
		if err != nil {
			return nil, err
		}
		product.Sizes = sizes
	} else {
		if len(in.Sizes) > 0 {
			return nil, apperr.Validation("non-sized products cannot have sizes")
		}
		if in.Quantity < 0 {
			return nil, apperr.Validation("quantity cannot be negative")
		}
		product.Quantity = in.Quantity
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, in.CategoryID); err != nil {
			return err
		}
		taken, err := slugTaken(tx, product.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Validation("slug %q is already in use", product.Slug)
		}
		return tx.Create(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// POST /admin/products
func CreateProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		product, err := CreateProduct(db, input)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}
