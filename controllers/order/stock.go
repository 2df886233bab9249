package orderControllers

import (
	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"gorm.io/gorm"
)

// reserveStock takes quantity from the line's stock row in one conditional
// update. No rows affected means the stock ran out since the cart was built.
func reserveStock(tx *gorm.DB, item models.CartItem) error {
	var res *gorm.DB
	if item.Product.IsSized() {
		res = tx.Model(&models.ProductSize{}).
			Where("product_id = ? AND size = ? AND quantity >= ?", item.ProductID, item.Size, item.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
	} else {
		res = tx.Model(&models.Product{}).
			Where("id = ? AND quantity >= ?", item.ProductID, item.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	return apperr.InsufficientStock(item.Product.Name, availableStock(tx, item))
}

func availableStock(tx *gorm.DB, item models.CartItem) int {
	var qty int
	if item.Product.IsSized() {
		tx.Model(&models.ProductSize{}).
			Where("product_id = ? AND size = ?", item.ProductID, item.Size).
			Select("quantity").Scan(&qty)
	} else {
		tx.Model(&models.Product{}).Where("id = ?", item.ProductID).Select("quantity").Scan(&qty)
	}
	return qty
}

// ReleaseStock returns an order's reserved stock. It runs at most once per
// order; later calls are no-ops.
func ReleaseStock(tx *gorm.DB, orderID uint) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND stock_released = ?", orderID, false).
		UpdateColumn("stock_released", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		var err error
		if item.Size != models.SizeNone {
			err = tx.Model(&models.ProductSize{}).
				Where("product_id = ? AND size = ?", item.ProductID, item.Size).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error
		} else {
			err = tx.Unscoped().Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error
		}
		if err != nil {
			return err
		}
	}
	return nil
}
