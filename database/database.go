package database

import (
	"log"
	"os"
	"strings"

	"storefront-cart/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DefaultSQLitePath is used when DATABASE_URL is unset.
const DefaultSQLitePath = "storefront_cart.db"

func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = DefaultSQLitePath
	}
	return Open(dsn)
}

// Open picks the sqlite driver for file paths and in-memory DSNs, postgres otherwise.
func Open(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if isSQLite(dsn) {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if isSQLite(dsn) {
		// sqlite allows one writer at a time
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func isSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, "file:") ||
		strings.HasPrefix(dsn, ":memory:") ||
		strings.HasSuffix(dsn, ".db") ||
		strings.HasSuffix(dsn, ".sqlite")
}

// Migrate creates the guest cart record table used by the database storage driver.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.StoredRecord{})
}

// MigrateCartAPI creates the tables of the reference Cart API.
func MigrateCartAPI(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
	)
}

// SeedProducts inserts a small demo catalog when the products table is empty.
func SeedProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []models.Product{
		{ID: "65a1b2c3d4e5f6a7b8c9d0e1", Name: "Linen Shirt", Price: 49.90, Category: "apparel", Stock: 100},
		{ID: "65a1b2c3d4e5f6a7b8c9d0e2", Name: "Canvas Sneakers", Price: 79.00, Category: "footwear", Stock: 50},
		{ID: "65a1b2c3d4e5f6a7b8c9d0e3", Name: "Wool Beanie", Price: 19.50, Category: "accessories", Stock: 200},
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	log.Printf("Seeded %d demo products", len(products))
	return nil
}
