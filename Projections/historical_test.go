package Projections

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Forecast/Models"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestAverageMonthlyRevenueSixMonthWindow(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Acme", nil)

	// 75,400 of issued/paid revenue spread across Jul-Dec 2024.
	seedInvoice(t, db, customer.ID, date(2024, time.July, 10), 15000, Models.InvoiceStatusPaid)
	seedInvoice(t, db, customer.ID, date(2024, time.August, 10), 12400, Models.InvoiceStatusPaid)
	seedInvoice(t, db, customer.ID, date(2024, time.September, 10), 11000, Models.InvoiceStatusIssued)
	seedInvoice(t, db, customer.ID, date(2024, time.October, 10), 13000, Models.InvoiceStatusPaid)
	seedInvoice(t, db, customer.ID, date(2024, time.November, 10), 14000, Models.InvoiceStatusIssued)
	seedInvoice(t, db, customer.ID, date(2024, time.December, 10), 10000, Models.InvoiceStatusPaid)

	analyzer := NewHistoricalAnalyzer(db)
	avg, err := analyzer.AverageMonthlyRevenue(customer.ID, date(2024, time.July, 1), date(2024, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, 12566.67, avg)
}

func TestAverageMonthlyRevenueIgnoresDraftAndCancelled(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Acme", nil)

	seedInvoice(t, db, customer.ID, date(2024, time.October, 5), 10000, Models.InvoiceStatusPaid)
	seedInvoice(t, db, customer.ID, date(2024, time.November, 5), 12000, Models.InvoiceStatusIssued)
	seedInvoice(t, db, customer.ID, date(2024, time.November, 20), 30000, Models.InvoiceStatusCancelled)
	seedInvoice(t, db, customer.ID, date(2024, time.December, 5), 20000, Models.InvoiceStatusDraft)

	analyzer := NewHistoricalAnalyzer(db)
	avg, err := analyzer.AverageMonthlyRevenue(customer.ID, date(2024, time.October, 1), date(2024, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, 7333.33, avg)
}

func TestAverageMonthlyRevenueNoInvoices(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Acme", nil)

	analyzer := NewHistoricalAnalyzer(db)
	avg, err := analyzer.AverageMonthlyRevenue(customer.ID, date(2024, time.January, 1), date(2024, time.December, 31))
	require.NoError(t, err)
	assert.Zero(t, avg)
}

func TestSufficientData(t *testing.T) {
	db := newTestDB(t)
	analyzer := NewHistoricalAnalyzer(db)
	analyzer.Now = fixedNow(2025, time.June, 15)

	t.Run("eight months of history", func(t *testing.T) {
		customer := seedCustomer(t, db, "Old", nil)
		seedInvoice(t, db, customer.ID, date(2024, time.October, 15), 5000, Models.InvoiceStatusPaid)

		enough, err := analyzer.SufficientData(customer.ID, 6)
		require.NoError(t, err)
		assert.True(t, enough)
	})

	t.Run("three months of history", func(t *testing.T) {
		customer := seedCustomer(t, db, "New", nil)
		seedInvoice(t, db, customer.ID, date(2025, time.March, 15), 5000, Models.InvoiceStatusPaid)

		enough, err := analyzer.SufficientData(customer.ID, 6)
		require.NoError(t, err)
		assert.False(t, enough)
	})

	t.Run("no invoices", func(t *testing.T) {
		customer := seedCustomer(t, db, "Empty", nil)

		enough, err := analyzer.SufficientData(customer.ID, 6)
		require.NoError(t, err)
		assert.False(t, enough)
	})

	t.Run("only cancelled invoices", func(t *testing.T) {
		customer := seedCustomer(t, db, "Cancelled", nil)
		seedInvoice(t, db, customer.ID, date(2023, time.January, 15), 5000, Models.InvoiceStatusCancelled)

		enough, err := analyzer.SufficientData(customer.ID, 6)
		require.NoError(t, err)
		assert.False(t, enough)
	})
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 6, MonthsBetween(date(2024, time.January, 1), date(2024, time.June, 30)))
	assert.Equal(t, 6, MonthsBetween(date(2024, time.July, 1), date(2024, time.December, 31)))
	assert.Equal(t, 1, MonthsBetween(date(2024, time.March, 5), date(2024, time.March, 20)))
	assert.Equal(t, 12, MonthsBetween(date(2024, time.January, 1), date(2024, time.December, 31)))
	assert.Equal(t, 13, MonthsBetween(date(2023, time.December, 31), date(2024, time.December, 31)))
	assert.Equal(t, 0, MonthsBetween(date(2024, time.June, 1), date(2024, time.January, 1)))
}

func TestMonthlyTrendFillsEmptyMonths(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Acme", nil)
	seedInvoice(t, db, customer.ID, date(2025, time.February, 10), 4000, Models.InvoiceStatusPaid)
	seedInvoice(t, db, customer.ID, date(2025, time.April, 10), 6000, Models.InvoiceStatusPaid)

	analyzer := NewHistoricalAnalyzer(db)
	analyzer.Now = fixedNow(2025, time.April, 20)

	trend, err := analyzer.MonthlyTrend(customer.ID, 4)
	require.NoError(t, err)
	require.Len(t, trend, 4)
	assert.Equal(t, "2025-01", trend[0].Month)
	assert.Zero(t, trend[0].Revenue)
	assert.Equal(t, 4000.0, trend[1].Revenue)
	assert.Zero(t, trend[2].Revenue)
	assert.Equal(t, 6000.0, trend[3].Revenue)
}

func TestGrowthRate(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Acme", nil)

	// Previous 6 months: 10,000. Trailing 6 months: 12,500. +25%.
	seedInvoice(t, db, customer.ID, date(2024, time.September, 10), 10000, Models.InvoiceStatusPaid)
	seedInvoice(t, db, customer.ID, date(2025, time.March, 10), 12500, Models.InvoiceStatusPaid)

	analyzer := NewHistoricalAnalyzer(db)
	analyzer.Now = fixedNow(2025, time.June, 15)

	rate, err := analyzer.GrowthRate(customer.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 25.0, rate)
}

func TestGrowthRateNoPriorRevenue(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Fresh", nil)
	seedInvoice(t, db, customer.ID, date(2025, time.May, 10), 9000, Models.InvoiceStatusPaid)

	analyzer := NewHistoricalAnalyzer(db)
	analyzer.Now = fixedNow(2025, time.June, 15)

	rate, err := analyzer.GrowthRate(customer.ID, 6)
	require.NoError(t, err)
	assert.Zero(t, rate)
}

func TestRevenueByProduct(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Acme", nil)

	widget := Models.Product{Name: "Widget", SKU: "W-1", UnitPrice: 100}
	gadget := Models.Product{Name: "Gadget", SKU: "G-1", UnitPrice: 250}
	require.NoError(t, db.Create(&widget).Error)
	require.NoError(t, db.Create(&gadget).Error)

	invoice := seedInvoice(t, db, customer.ID, date(2024, time.June, 10), 1500, Models.InvoiceStatusPaid)
	require.NoError(t, db.Create(&[]Models.InvoiceItem{
		{InvoiceID: invoice.ID, ProductID: widget.ID, Quantity: 10, UnitPrice: 100, Subtotal: 1000},
		{InvoiceID: invoice.ID, ProductID: gadget.ID, Quantity: 2, UnitPrice: 250, Subtotal: 500},
	}).Error)

	cancelled := seedInvoice(t, db, customer.ID, date(2024, time.June, 12), 9000, Models.InvoiceStatusCancelled)
	require.NoError(t, db.Create(&Models.InvoiceItem{
		InvoiceID: cancelled.ID, ProductID: widget.ID, Quantity: 90, UnitPrice: 100, Subtotal: 9000,
	}).Error)

	analyzer := NewHistoricalAnalyzer(db)
	results, err := analyzer.RevenueByProduct(&customer.ID, date(2024, time.January, 1), date(2024, time.December, 31))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Widget", results[0].ProductName)
	assert.Equal(t, 1000.0, results[0].Revenue)
	assert.Equal(t, "Gadget", results[1].ProductName)
	assert.Equal(t, 500.0, results[1].Revenue)
}

func TestAggregateByPeriod(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "Acme", nil)
	seedInvoice(t, db, customer.ID, date(2024, time.January, 15), 1000, Models.InvoiceStatusPaid)
	seedInvoice(t, db, customer.ID, date(2024, time.February, 15), 2000, Models.InvoiceStatusPaid)
	seedInvoice(t, db, customer.ID, date(2024, time.July, 15), 4000, Models.InvoiceStatusIssued)

	analyzer := NewHistoricalAnalyzer(db)

	quarters, err := analyzer.AggregateByPeriod(date(2024, time.January, 1), date(2024, time.December, 31), "quarter")
	require.NoError(t, err)
	require.Len(t, quarters, 2)
	assert.Equal(t, "2024-Q1", quarters[0].Period)
	assert.Equal(t, 3000.0, quarters[0].Revenue)
	assert.Equal(t, 2, quarters[0].Count)
	assert.Equal(t, "2024-Q3", quarters[1].Period)
	assert.Equal(t, 4000.0, quarters[1].Revenue)

	years, err := analyzer.AggregateByPeriod(date(2024, time.January, 1), date(2024, time.December, 31), "year")
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, "2024", years[0].Period)
	assert.Equal(t, 7000.0, years[0].Revenue)
}
