package productcontroller

import (
	"net/http"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DeleteProduct soft-deletes a product and drops it from every cart. Order
// items keep their snapshot.
func DeleteProduct(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		product, err := loadProduct(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
}

// DELETE /admin/products/:id
func DeleteProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := productID(c)
		if !ok {
			return
		}
		if err := DeleteProduct(db, id); err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
