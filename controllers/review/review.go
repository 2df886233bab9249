package reviewControllers

import (
	"errors"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EligibleItem struct {
	OrderItemID    uint        `json:"order_item_id"`
	OrderReference string      `json:"order_reference"`
	ProductID      uint        `json:"product_id"`
	ProductName    string      `json:"product_name"`
	Size           models.Size `json:"size"`
}

type CreateReviewRequest struct {
	UserID      string
	OrderItemID uint
	Rating      int
	Comment     string
}

type ProductReviews struct {
	ProductID uint            `json:"product_id"`
	Count     int             `json:"count"`
	Average   float64         `json:"average"`
	Reviews   []models.Review `json:"reviews"`
}

// eligibleItems selects the user's order items that are paid, delivered and
// whose (product, size) slot has no review from the user yet.
func eligibleItems(db *gorm.DB, userID string) *gorm.DB {
	return db.Table("order_items").
		Select("order_items.id AS order_item_id, orders.reference AS order_reference, "+
			"order_items.product_id, order_items.product_name, order_items.size").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND orders.delivery_status = ?",
			userID, models.PaymentSuccess, models.DeliveryDelivered).
		Where("NOT EXISTS (?)", db.Table("reviews").Select("1").
			Where("reviews.user_id = orders.user_id AND reviews.product_id = order_items.product_id AND reviews.size = order_items.size"))
}

// ListEligible returns one reviewable item per (product, size), the most
// recent purchase first.
func ListEligible(db *gorm.DB, userID string) ([]EligibleItem, error) {
	var rows []EligibleItem
	if err := eligibleItems(db, userID).Order("order_items.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	type slot struct {
		productID uint
		size      models.Size
	}
	seen := make(map[slot]bool)
	out := make([]EligibleItem, 0, len(rows))
	for _, r := range rows {
		k := slot{r.ProductID, r.Size}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out, nil
}

// IsEligible reports whether the order item may be reviewed by its buyer.
func IsEligible(db *gorm.DB, userID string, orderItemID uint) (bool, error) {
	var rows []EligibleItem
	err := eligibleItems(db, userID).Where("order_items.id = ?", orderItemID).Scan(&rows).Error
	return len(rows) > 0, err
}

// CreateReview stores a verified-purchase review for one order item.
func CreateReview(db *gorm.DB, req CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	var review models.Review
	err := db.Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		err := tx.First(&item, req.OrderItemID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order item")
		}
		if err != nil {
			return err
		}

		var order models.Order
		if err := tx.First(&order, item.OrderID).Error; err != nil {
			return err
		}
		if order.UserID != req.UserID {
			return apperr.Forbidden("you can only review your own purchases")
		}
		if order.Status != models.PaymentSuccess || order.DeliveryStatus != models.DeliveryDelivered {
			return apperr.Forbidden("purchase not verified, reviews open once the order is delivered")
		}

		review = models.Review{
			UserID:      req.UserID,
			ProductID:   item.ProductID,
			Size:        item.Size,
			OrderItemID: item.ID,
			Rating:      req.Rating,
			Comment:     strings.TrimSpace(req.Comment),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&review)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Validation("you have already reviewed this product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListProductReviews returns a product's reviews, newest first, with the
// average rating.
func ListProductReviews(db *gorm.DB, productID uint) (*ProductReviews, error) {
	var product models.Product
	if err := db.Select("id").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product")
		}
		return nil, err
	}

	var reviews []models.Review
	if err := db.Preload("User", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "username")
	}).Where("product_id = ?", productID).Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}

	out := &ProductReviews{ProductID: productID, Count: len(reviews), Reviews: reviews}
	if out.Reviews == nil {
		out.Reviews = []models.Review{}
	}
	if len(reviews) > 0 {
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		out.Average = float64(sum) / float64(len(reviews))
	}
	return out, nil
}
