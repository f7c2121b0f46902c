package Models

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "database.db"
	}

	connection, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = connection

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}

// Migrate runs AutoMigrate in dependency order so foreign keys resolve.
func Migrate(db *gorm.DB) error {
	// 1. Base registries with no dependencies
	if err := db.AutoMigrate(
		&User{},
		&CustomerType{},
		&BusinessGroup{},
		&Product{},
	); err != nil {
		return err
	}

	// 2. Models with simple foreign key relationships
	if err := db.AutoMigrate(
		&Customer{}, // Depends on CustomerType and BusinessGroup
		&Scenario{},
	); err != nil {
		return err
	}

	// 3. Models that depend on multiple other models
	return db.AutoMigrate(
		&Invoice{},            // Depends on Customer
		&InvoiceItem{},        // Depends on Invoice and Product
		&ScenarioAssumption{}, // Depends on Scenario plus the four dimension registries
		&Projection{},         // Depends on Scenario and the dimension registries
		&ProjectionDetail{},   // Depends on Projection
	)
}
