package productcontroller

import (
	"net/http"
	"strconv"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GET /products?search=&category=&is_available=&min_price=&max_price=&sort_by=&order=
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := ProductQuery{
			Search:   c.Query("search"),
			Category: c.Query("category"),
			SortBy:   c.Query("sort_by"),
			Order:    c.Query("order"),
		}

		if v := c.Query("is_available"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is_available"})
				return
			}
			q.IsAvailable = &b
		}
		if v := c.Query("min_price"); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
				return
			}
			q.MinPrice = &d
		}
		if v := c.Query("max_price"); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
				return
			}
			q.MaxPrice = &d
		}

		products, err := ListProducts(db, q)
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
