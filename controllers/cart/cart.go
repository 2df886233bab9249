package cartControllers

import (
	"errors"
	"time"

	"github.com/Justjoseph0/e-commerce-backend/apperr"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// -------- Views --------

type CartView struct {
	ID    uint              `json:"id"`
	Items []models.CartItem `json:"items"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

type SyncLine struct {
	ProductID uint   `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type SyncLineError struct {
	ProductID uint   `json:"product_id"`
	Size      string `json:"size"`
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
}

type SyncResult struct {
	Applied int             `json:"applied"`
	Errors  []SyncLineError `json:"errors"`
}

// -------- Helpers --------

// CartFor returns the user's cart, creating it on first use.
func CartFor(tx *gorm.DB, userID string) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// stockLine is the stock row a cart line is checked against.
type stockLine struct {
	product   models.Product
	size      models.Size
	available int
}

// lockStock loads the product and its stock row under a row lock so
// concurrent cart writes for the same row serialize.
func lockStock(tx *gorm.DB, productID uint, rawSize string) (*stockLine, error) {
	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product")
		}
		return nil, err
	}

	if !product.IsSized() {
		// size is meaningless for non-sized products and is dropped
		return &stockLine{product: product, size: models.SizeNone, available: product.Quantity}, nil
	}

	size, err := models.ParseSize(rawSize)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if size == models.SizeNone {
		return nil, apperr.Validation("size is required for %s", product.Name)
	}

	var ps models.ProductSize
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND size = ?", product.ID, size).
		First(&ps).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("size " + string(size) + " of " + product.Name)
		}
		return nil, err
	}
	return &stockLine{product: product, size: size, available: ps.Quantity}, nil
}

func findItem(tx *gorm.DB, cartID, productID uint, size models.Size) (*models.CartItem, error) {
	var item models.CartItem
	err := tx.Where("cart_id = ? AND product_id = ? AND size = ?", cartID, productID, size).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// -------- Core Logic --------

// AddProduct adds quantity of a product to the user's cart, merging with an
// existing line for the same product and size. Stock is checked, not taken.
func AddProduct(db *gorm.DB, userID string, productID uint, quantity int, rawSize string) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	var result models.CartItem
	err := db.Transaction(func(tx *gorm.DB) error {
		cart, err := CartFor(tx, userID)
		if err != nil {
			return err
		}
		line, err := lockStock(tx, productID, rawSize)
		if err != nil {
			return err
		}
		if !line.product.IsAvailable {
			return apperr.Validation("%s is not available", line.product.Name)
		}

		item, err := findItem(tx, cart.ID, productID, line.size)
		if err != nil {
			return err
		}

		wanted := quantity
		if item != nil {
			wanted += item.Quantity
		}
		if line.available < wanted {
			return apperr.InsufficientStock(line.product.Name, line.available)
		}

		if item == nil {
			item = &models.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Size:      line.size,
				Quantity:  quantity,
				AddedAt:   time.Now(),
			}
			if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(item).Updates(map[string]interface{}{"quantity": wanted, "added_at": time.Now()}).Error; err != nil {
				return err
			}
			item.Quantity = wanted
		}

		item.Product = line.product
		result = *item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SetQuantity sets the absolute quantity of a cart line. Zero removes it.
func SetQuantity(db *gorm.DB, userID string, productID uint, rawSize string, quantity int) (*models.CartItem, error) {
	var result *models.CartItem
	err := db.Transaction(func(tx *gorm.DB) error {
		cart, err := CartFor(tx, userID)
		if err != nil {
			return err
		}
		result, err = setQuantity(tx, cart.ID, productID, rawSize, quantity, false)
		return err
	})
	return result, err
}

// setQuantity returns a nil item when the line was removed. With create set,
// a missing line is added instead of reported.
func setQuantity(tx *gorm.DB, cartID, productID uint, rawSize string, quantity int, create bool) (*models.CartItem, error) {
	if quantity < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}

	line, err := lockStock(tx, productID, rawSize)
	if err != nil {
		return nil, err
	}
	item, err := findItem(tx, cartID, productID, line.size)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		if item == nil {
			if create {
				return nil, nil
			}
			return nil, apperr.NotFound("cart item")
		}
		return nil, tx.Delete(item).Error
	}

	if item == nil && !create {
		return nil, apperr.NotFound("cart item")
	}
	if !line.product.IsAvailable {
		return nil, apperr.Validation("%s is not available", line.product.Name)
	}
	if line.available < quantity {
		return nil, apperr.InsufficientStock(line.product.Name, line.available)
	}

	if item == nil {
		item = &models.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Size:      line.size,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		}
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return nil, err
		}
	} else {
		if err := tx.Model(item).Updates(map[string]interface{}{"quantity": quantity, "added_at": time.Now()}).Error; err != nil {
			return nil, err
		}
		item.Quantity = quantity
	}
	item.Product = line.product
	return item, nil
}

// RemoveItem deletes one line of the user's cart by its id.
func RemoveItem(db *gorm.DB, userID string, itemID uint) error {
	result := db.Where("id = ? AND cart_id IN (?)", itemID,
		db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("cart item")
	}
	return nil
}

func Clear(db *gorm.DB, userID string) error {
	return db.Where("cart_id IN (?)",
		db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{}).Error
}

// Get returns the cart with products loaded and the discounted total.
func Get(db *gorm.DB, userID string) (*CartView, error) {
	cart, err := CartFor(db, userID)
	if err != nil {
		return nil, err
	}
	if err := db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("added_at ASC, id ASC")
	}).Preload("Items.Product").First(cart, cart.ID).Error; err != nil {
		return nil, err
	}

	view := &CartView{ID: cart.ID, Items: cart.Items, Total: decimal.Zero}
	if view.Items == nil {
		view.Items = []models.CartItem{}
	}
	for _, item := range cart.Items {
		view.Count += item.Quantity
		view.Total = view.Total.Add(item.LineTotal())
	}
	return view, nil
}

// Sync merges a client-side cart. Each line sets an absolute quantity and is
// applied on its own; failing lines are reported without blocking the rest.
func Sync(db *gorm.DB, userID string, lines []SyncLine) (*SyncResult, error) {
	cart, err := CartFor(db, userID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Errors: []SyncLineError{}}
	for _, line := range lines {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := setQuantity(tx, cart.ID, line.ProductID, line.Size, line.Quantity, true)
			return err
		})
		if err == nil {
			result.Applied++
			continue
		}

		var appErr *apperr.Error
		if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
			return nil, err
		}
		result.Errors = append(result.Errors, SyncLineError{
			ProductID: line.ProductID,
			Size:      line.Size,
			Error:     appErr.Message,
			Available: appErr.Available,
		})
	}
	return result, nil
}
