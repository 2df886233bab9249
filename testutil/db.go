// Package testutil holds shared fixtures for package tests: an in-memory
// database, a scripted payment gateway and a recording notifier.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Justjoseph0/e-commerce-backend/auth"
	"github.com/Justjoseph0/e-commerce-backend/database"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "test-jwt-secret"

// NewDB returns a migrated in-memory SQLite database. A single connection
// keeps every query on the same in-memory instance.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, id string, role auth.Role) models.User {
	t.Helper()
	user := models.User{ID: id, Email: id + "@example.com", Username: id, Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateAddress(t testing.TB, db *gorm.DB, userID string) models.Address {
	t.Helper()
	addr := models.Address{
		UserID:        userID,
		RecipientName: "Ada Obi",
		Phone:         "+2348000000000",
		Line1:         "12 Marina Road",
		City:          "Lagos",
		Country:       "NG",
	}
	if err := db.Create(&addr).Error; err != nil {
		t.Fatalf("create address: %v", err)
	}
	return addr
}

var productSeq int

// CreateNonSizedProduct creates an available product with stock qty.
func CreateNonSizedProduct(t testing.TB, db *gorm.DB, name, price string, qty int) models.Product {
	t.Helper()
	return createProduct(t, db, models.Product{
		Name:        name,
		ProductType: models.ProductTypeNonSized,
		Quantity:    qty,
	}, price)
}

// CreateSizedProduct creates an available sized product with the given
// per-size stock.
func CreateSizedProduct(t testing.TB, db *gorm.DB, name, price string, stock map[models.Size]int) models.Product {
	t.Helper()
	p := models.Product{Name: name, ProductType: models.ProductTypeSized}
	for size, qty := range stock {
		p.Sizes = append(p.Sizes, models.ProductSize{Size: size, Quantity: qty})
	}
	return createProduct(t, db, p, price)
}

func createProduct(t testing.TB, db *gorm.DB, p models.Product, price string) models.Product {
	t.Helper()
	productSeq++
	p.Slug = fmt.Sprintf("product-%d-%d", productSeq, time.Now().UnixNano())
	p.Price = decimal.RequireFromString(price).Add(decimal.NewFromInt(10))
	p.DiscountedPrice = decimal.RequireFromString(price)
	p.IsAvailable = true
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func SizeStock(t testing.TB, db *gorm.DB, productID uint, size models.Size) int {
	t.Helper()
	var ps models.ProductSize
	if err := db.Where("product_id = ? AND size = ?", productID, size).First(&ps).Error; err != nil {
		t.Fatalf("load size stock: %v", err)
	}
	return ps.Quantity
}

func ProductStock(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.Quantity
}

// Token returns a bearer header value for the user.
func Token(t testing.TB, userID string, role auth.Role) string {
	t.Helper()
	tok, err := auth.IssueToken(JWTSecret, userID, userID+"@example.com", role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}
