package productcontroller

import (
	"log"
	"net/http"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/media"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// POST /admin/products/:id/image
func UploadProductImage(db *gorm.DB, store media.ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
			return
		}
		id, ok := productID(c)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
			return
		}

		product, err := loadProduct(db, id)
		if err != nil {
			apperr.Respond(c, err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open image"})
			return
		}
		defer file.Close()

		url, err := store.Upload(c.Request.Context(), file, fileHeader.Filename)
		if err != nil {
			log.Printf("❌ Image upload failed for product %d: %v", product.ID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to upload image"})
			return
		}

		old := product.ImageURL
		if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("image_url", url).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image"})
			return
		}
		if old != "" {
			if err := store.Delete(c.Request.Context(), old); err != nil {
				log.Printf("⚠️ Failed to delete old image %s: %v", old, err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"id": product.ID, "image_url": url})
	}
}
