package productcontroller

import (
	"net/http"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetProductByID returns one product with its sizes.
// URL param: /products/:id (numeric id or slug)
func GetProductByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := GetProduct(db, c.Param("id"))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
