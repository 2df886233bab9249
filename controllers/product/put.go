package productcontroller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductPatch changes only the fields that are set. The product type is
// fixed at creation.
type ProductPatch struct {
	Name            *string          `json:"name"`
	Slug            *string          `json:"slug"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price"`
	Quantity        *int             `json:"quantity"`
	IsAvailable     *bool            `json:"is_available"`
	CategoryID      *uint            `json:"category_id"`
	ClearCategory   bool             `json:"clear_category"`
}

func loadProduct(tx *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product")
		}
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(db *gorm.DB, id uint, patch ProductPatch) (*models.Product, error) {
	var product *models.Product
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if product, err = loadProduct(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return apperr.Validation("name cannot be empty")
			}
			updates["name"] = name
		}
		if patch.Slug != nil {
			slug := slugify(*patch.Slug)
			if slug == "" {
				return apperr.Validation("slug cannot be empty")
			}
			taken, err := slugTaken(tx, slug, product.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Validation("slug %q is already in use", slug)
			}
			updates["slug"] = slug
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}

		price, discounted := product.Price, product.DiscountedPrice
		if patch.Price != nil {
			price = patch.Price.Round(2)
			updates["price"] = price
		}
		if patch.DiscountedPrice != nil {
			discounted = patch.DiscountedPrice.Round(2)
			updates["discounted_price"] = discounted
		}
		if err := validatePrices(price, discounted); err != nil {
			return err
		}

		if patch.Quantity != nil {
			if product.IsSized() {
				return apperr.Validation("stock of sized products is set per size")
			}
			if *patch.Quantity < 0 {
				return apperr.Validation("quantity cannot be negative")
			}
			updates["quantity"] = *patch.Quantity
		}
		if patch.IsAvailable != nil {
			updates["is_available"] = *patch.IsAvailable
		}
		if patch.ClearCategory {
			updates["category_id"] = nil
		} else if patch.CategoryID != nil {
			if err := checkCategory(tx, patch.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *patch.CategoryID
		}

		if len(updates) > 0 {
			if err := tx.Model(product).Updates(updates).Error; err != nil {
				return err
			}
		}
		product, err = loadProduct(tx.Preload("Sizes").Preload("Category"), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// ReplaceSizes sets the full size stock list of a sized product. Sizes not
// listed are removed.
func ReplaceSizes(db *gorm.DB, id uint, in []SizeStock) ([]models.ProductSize, error) {
	sizes, err := parseSizes(in)
	if err != nil {
		return nil, err
	}

	var out []models.ProductSize
	err = db.Transaction(func(tx *gorm.DB) error {
		product, err := loadProduct(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		if !product.IsSized() {
			return apperr.Validation("%s is not a sized product", product.Name)
		}

		keep := make([]models.Size, 0, len(sizes))
		for i := range sizes {
			sizes[i].ProductID = product.ID
			keep = append(keep, sizes[i].Size)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "product_id"}, {Name: "size"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
			}).Create(&sizes[i]).Error; err != nil {
				return err
			}
		}

		del := tx.Where("product_id = ?", product.ID)
		if len(keep) > 0 {
			del = del.Where("size NOT IN ?", keep)
		}
		if err := del.Delete(&models.ProductSize{}).Error; err != nil {
			return err
		}
		return tx.Where("product_id = ?", product.ID).Order("id ASC").Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func productID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return uint(id), true
}

// PUT /admin/products/:id
func UpdateProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c)
		if !ok {
			return
		}
		var patch ProductPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		product, err := UpdateProduct(db, id, patch)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// PUT /admin/products/:id/sizes
func ReplaceSizesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c)
		if !ok {
			return
		}
		var input struct {
			Sizes []SizeStock `json:"sizes" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		sizes, err := ReplaceSizes(db, id, input.Sizes)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, sizes)
	}
}
