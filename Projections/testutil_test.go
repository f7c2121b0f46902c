package Projections

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Forecast/Models"
)

var testDBCounter int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:projections_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, name string, groupID *uint) *Models.Customer {
	t.Helper()
	customerType := Models.CustomerType{Name: name + " type"}
	require.NoError(t, db.Create(&customerType).Error)

	customer := Models.Customer{
		Name:            name,
		CustomerTypeID:  customerType.ID,
		BusinessGroupID: groupID,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&customer).Error)
	return &customer
}

var invoiceCounter int

func seedInvoice(t *testing.T, db *gorm.DB, customerID uint, date time.Time, total float64, status string) *Models.Invoice {
	t.Helper()
	invoiceCounter++
	invoice := Models.Invoice{
		CustomerID:    customerID,
		InvoiceNumber: fmt.Sprintf("INV-%05d", invoiceCounter),
		InvoiceDate:   date,
		DueDate:       date.AddDate(0, 1, 0),
		Status:        status,
		Subtotal:      total,
		Total:         total,
	}
	require.NoError(t, db.Create(&invoice).Error)
	return &invoice
}

func seedScenario(t *testing.T, db *gorm.DB, baseYear, historicalMonths, projectionYears int) *Models.Scenario {
	t.Helper()
	scenario := Models.Scenario{
		Name:              fmt.Sprintf("Scenario %d", baseYear),
		BaseYear:          baseYear,
		HistoricalMonths:  historicalMonths,
		ProjectionYears:   projectionYears,
		CalculationMethod: Models.MethodSimpleAverage,
		TaxRate:           Models.DefaultTaxRate,
		Status:            Models.ScenarioStatusActive,
	}
	require.NoError(t, db.Create(&scenario).Error)
	return &scenario
}

func ptr(id uint) *uint {
	return &id
}

func fixedNow(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
}
