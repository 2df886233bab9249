package reviewControllers

import (
	"net/http"
	"strconv"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	OrderItemID uint   `json:"order_item_id" binding:"required"`
	Rating      int    `json:"rating" binding:"required"`
	Comment     string `json:"comment"`
}

// GET /user/reviews/eligible
func GetEligibleItems(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := ListEligible(db, middleware.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviewable items"})
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// POST /user/reviews
func PostReview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateReviewInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		review, err := CreateReview(db, CreateReviewRequest{
			UserID:      middleware.UserID(c),
			OrderItemID: input.OrderItemID,
			Rating:      input.Rating,
			Comment:     input.Comment,
		})
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, review)
	}
}

// GET /products/:id/reviews
func GetProductReviews(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
			return
		}
		reviews, err := ListProductReviews(db, uint(id))
		if err != nil {
			apperr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, reviews)
	}
}
