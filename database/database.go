package database

import (
	"errors"
	"fmt"
	"log"

	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres through the lib/pq driver.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        dsn,
	}), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Println("✅ Database connected")
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductSize{},
		&models.User{},
		&models.Address{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.PaymentEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Println("✅ Database migrated")
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint error, raw
// from lib/pq or translated by gorm.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
