package Projections

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"Forecast/Models"
)

// HistoricalAnalyzer answers revenue questions over posted invoice history.
// Every query counts issued and paid invoices only; draft and cancelled
// invoices are not realized revenue and never contribute.
type HistoricalAnalyzer struct {
	DB *gorm.DB

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewHistoricalAnalyzer(db *gorm.DB) *HistoricalAnalyzer {
	return &HistoricalAnalyzer{DB: db, Now: time.Now}
}

func (a *HistoricalAnalyzer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// AverageMonthlyRevenue sums qualifying invoice totals for the customer over
// [start, end] inclusive and divides by the number of calendar months the
// window spans. Returns 0 when no qualifying invoices exist.
func (a *HistoricalAnalyzer) AverageMonthlyRevenue(customerID uint, start, end time.Time) (float64, error) {
	var total float64
	err := a.DB.Model(&Models.Invoice{}).
		Where("customer_id = ?", customerID).
		Where("status IN ?", Models.RevenueStatuses).
		Where("invoice_date BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum invoice revenue for customer %d: %w", customerID, err)
	}
	if total == 0 {
		return 0, nil
	}

	months := MonthsBetween(start, end)
	if months < 1 {
		months = 1
	}
	return Round2(total / float64(months)), nil
}

// SufficientData reports whether the customer has enough invoice history to
// seed a projection: at least one issued/paid invoice, with the earliest one
// at least requiredMonths old. Customers failing this are skipped silently by
// the calculator, never errored.
func (a *HistoricalAnalyzer) SufficientData(customerID uint, requiredMonths int) (bool, error) {
	var earliest Models.Invoice
	err := a.DB.Where("customer_id = ?", customerID).
		Where("status IN ?", Models.RevenueStatuses).
		Order("invoice_date ASC").
		First(&earliest).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to find earliest invoice for customer %d: %w", customerID, err)
	}

	span := elapsedMonths(earliest.InvoiceDate, a.now())
	return span >= requiredMonths, nil
}

// ProductRevenue is one row of the by-product revenue report.
type ProductRevenue struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	Revenue     float64 `json:"revenue"`
	Quantity    float64 `json:"quantity"`
}

// RevenueByProduct aggregates invoice line subtotals per product over the
// window. A nil customerID aggregates across all customers.
func (a *HistoricalAnalyzer) RevenueByProduct(customerID *uint, start, end time.Time) ([]ProductRevenue, error) {
	query := a.DB.Table("invoice_items").
		Select(`invoice_items.product_id,
			products.name AS product_name,
			COALESCE(SUM(invoice_items.subtotal), 0) AS revenue,
			COALESCE(SUM(invoice_items.quantity), 0) AS quantity`).
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Joins("JOIN products ON products.id = invoice_items.product_id").
		Where("invoices.status IN ?", Models.RevenueStatuses).
		Where("invoices.invoice_date BETWEEN ? AND ?", start, end).
		Where("invoices.deleted_at IS NULL AND invoice_items.deleted_at IS NULL").
		Group("invoice_items.product_id, products.name").
		Order("revenue DESC")
	if customerID != nil {
		query = query.Where("invoices.customer_id = ?", *customerID)
	}

	var results []ProductRevenue
	if err := query.Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue by product: %w", err)
	}
	for i := range results {
		results[i].Revenue = Round2(results[i].Revenue)
	}
	return results, nil
}

// PeriodRevenue is one bucket of the period aggregation report.
type PeriodRevenue struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"invoice_count"`
}

// AggregateByPeriod buckets qualifying invoices into month, quarter, or year
// periods. Invoices are fetched and bucketed in Go rather than leaning on
// engine-specific date formatting in SQL.
func (a *HistoricalAnalyzer) AggregateByPeriod(start, end time.Time, period string) ([]PeriodRevenue, error) {
	var invoices []Models.Invoice
	err := a.DB.Where("status IN ?", Models.RevenueStatuses).
		Where("invoice_date BETWEEN ? AND ?", start, end).
		Order("invoice_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoices for aggregation: %w", err)
	}

	buckets := make(map[string]*PeriodRevenue)
	var order []string
	for _, inv := range invoices {
		key := periodKey(inv.InvoiceDate, period)
		bucket, exists := buckets[key]
		if !exists {
			bucket = &PeriodRevenue{Period: key}
			buckets[key] = bucket
			order = append(order, key)
		}
		bucket.Revenue += inv.Total
		bucket.Count++
	}

	results := make([]PeriodRevenue, 0, len(order))
	for _, key := range order {
		bucket := buckets[key]
		bucket.Revenue = Round2(bucket.Revenue)
		results = append(results, *bucket)
	}
	return results, nil
}

func periodKey(date time.Time, period string) string {
	switch period {
	case "year":
		return date.Format("2006")
	case "quarter":
		quarter := (int(date.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", date.Year(), quarter)
	default: // month
		return date.Format("2006-01")
	}
}

// MonthRevenue is one month of the trailing revenue trend.
type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// MonthlyTrend returns the customer's revenue for each of the trailing N
// months, oldest first, with zero entries for months without invoices.
func (a *HistoricalAnalyzer) MonthlyTrend(customerID uint, months int) ([]MonthRevenue, error) {
	if months < 1 {
		months = 12
	}
	end := a.now()
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location()).
		AddDate(0, -(months - 1), 0)

	var invoices []Models.Invoice
	err := a.DB.Where("customer_id = ?", customerID).
		Where("status IN ?", Models.RevenueStatuses).
		Where("invoice_date BETWEEN ? AND ?", start, end).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch invoices for trend: %w", err)
	}

	totals := make(map[string]float64)
	for _, inv := range invoices {
		totals[inv.InvoiceDate.Format("2006-01")] += inv.Total
	}

	trend := make([]MonthRevenue, 0, months)
	for i := 0; i < months; i++ {
		month := start.AddDate(0, i, 0)
		key := month.Format("2006-01")
		trend = append(trend, MonthRevenue{
			Month:   key,
			Revenue: Round2(totals[key]),
		})
	}
	return trend, nil
}

// GrowthRate compares the customer's revenue over the trailing periodMonths
// against the periodMonths before that and returns the percentage change,
// rounded to 2 decimals. Returns 0 when the earlier period had no revenue.
func (a *HistoricalAnalyzer) GrowthRate(customerID uint, periodMonths int) (float64, error) {
	if periodMonths < 1 {
		periodMonths = 12
	}
	end := a.now()
	mid := end.AddDate(0, -periodMonths, 0)
	start := mid.AddDate(0, -periodMonths, 0)

	current, err := a.periodRevenue(customerID, mid, end)
	if err != nil {
		return 0, err
	}
	previous, err := a.periodRevenue(customerID, start, mid)
	if err != nil {
		return 0, err
	}
	if previous == 0 {
		return 0, nil
	}
	return Round2((current - previous) / previous * 100), nil
}

func (a *HistoricalAnalyzer) periodRevenue(customerID uint, start, end time.Time) (float64, error) {
	var total float64
	err := a.DB.Model(&Models.Invoice{}).
		Where("customer_id = ?", customerID).
		Where("status IN ?", Models.RevenueStatuses).
		Where("invoice_date > ? AND invoice_date <= ?", start, end).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum period revenue for customer %d: %w", customerID, err)
	}
	return total, nil
}

// MonthsBetween counts the calendar months touched by [start, end] inclusive:
// Jan 1 through Jun 30 spans 6 months regardless of the days involved.
func MonthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
}

// elapsedMonths counts whole months elapsed from one instant to another.
func elapsedMonths(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Round2 rounds to 2 decimal places, the convention for every monetary figure
// in the engine.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
