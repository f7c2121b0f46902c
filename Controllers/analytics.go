package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Forecast/Models"
	"Forecast/Projections"
)

// AnalyticsController handles historical revenue reporting endpoints,
// backed by the HistoricalAnalyzer's read-only aggregation queries.
type AnalyticsController struct {
	DB       *gorm.DB
	Analyzer *Projections.HistoricalAnalyzer
}

func NewAnalyticsController(db *gorm.DB) *AnalyticsController {
	return &AnalyticsController{
		DB:       db,
		Analyzer: Projections.NewHistoricalAnalyzer(db),
	}
}

// Summary returns overall revenue totals.
func (c *AnalyticsController) Summary(ctx *fiber.Ctx) error {
	type RevenueSummary struct {
		CustomerCount int64   `json:"customer_count"`
		InvoiceCount  int64   `json:"invoice_count"`
		TotalRevenue  float64 `json:"total_revenue"`
	}
	var summary RevenueSummary

	c.DB.Model(&Models.Customer{}).Where("is_active = ?", true).Count(&summary.CustomerCount)
	c.DB.Model(&Models.Invoice{}).Where("status IN ?", Models.RevenueStatuses).Count(&summary.InvoiceCount)
	c.DB.Model(&Models.Invoice{}).Where("status IN ?", Models.RevenueStatuses).
		Select("COALESCE(SUM(total), 0)").Scan(&summary.TotalRevenue)
	summary.TotalRevenue = Projections.Round2(summary.TotalRevenue)

	return ctx.JSON(summary)
}

// MonthlyTrend returns the trailing revenue series for one customer.
func (c *AnalyticsController) MonthlyTrend(ctx *fiber.Ctx) error {
	customerID, err := strconv.Atoi(ctx.Params("customer_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	months, err := strconv.Atoi(ctx.Query("months", "12"))
	if err != nil || months < 1 {
		months = 12
	}

	trend, err := c.Analyzer.MonthlyTrend(uint(customerID), months)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute trend"})
	}
	return ctx.JSON(trend)
}

// RevenueByProduct breaks revenue down per product over a date range.
func (c *AnalyticsController) RevenueByProduct(ctx *fiber.Ctx) error {
	start, end, err := parseDateRange(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var customerID *uint
	if raw := ctx.Query("customer_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
		}
		value := uint(id)
		customerID = &value
	}

	results, err := c.Analyzer.RevenueByProduct(customerID, start, end)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to aggregate revenue"})
	}
	return ctx.JSON(results)
}

// AggregateByPeriod buckets revenue into month, quarter, or year periods.
func (c *AnalyticsController) AggregateByPeriod(ctx *fiber.Ctx) error {
	start, end, err := parseDateRange(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	period := ctx.Query("period", "month")
	if period != "month" && period != "quarter" && period != "year" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Period must be month, quarter, or year"})
	}

	results, err := c.Analyzer.AggregateByPeriod(start, end, period)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to aggregate revenue"})
	}
	return ctx.JSON(results)
}

// GrowthRate compares a customer's trailing period against the one before it.
func (c *AnalyticsController) GrowthRate(ctx *fiber.Ctx) error {
	customerID, err := strconv.Atoi(ctx.Params("customer_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	months, err := strconv.Atoi(ctx.Query("months", "12"))
	if err != nil || months < 1 {
		months = 12
	}

	rate, err := c.Analyzer.GrowthRate(uint(customerID), months)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute growth rate"})
	}
	return ctx.JSON(fiber.Map{"growth_rate": rate, "period_months": months})
}

func parseDateRange(ctx *fiber.Ctx) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	start, err := time.Parse(layout, ctx.Query("start"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Invalid start date. Use YYYY-MM-DD")
	}
	end, err := time.Parse(layout, ctx.Query("end"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Invalid end date. Use YYYY-MM-DD")
	}
	// Make the end date inclusive of its whole day.
	end = end.Add(24*time.Hour - time.Second)
	return start, end, nil
}
