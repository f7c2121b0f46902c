package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Forecast/Models"
	"Forecast/Projections"
)

// ProjectionController exposes the computed projection rows. Projections are
// read-only from here: they are only ever produced by the calculator.
type ProjectionController struct {
	DB         *gorm.DB
	Calculator *Projections.ProjectionCalculator
}

func NewProjectionController(db *gorm.DB) *ProjectionController {
	return &ProjectionController{
		DB:         db,
		Calculator: Projections.NewProjectionCalculator(db),
	}
}

func (c *ProjectionController) GetScenarioProjections(ctx *fiber.Ctx) error {
	scenarioID, err := strconv.Atoi(ctx.Params("scenario_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	if result := c.DB.First(&scenario, scenarioID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	query := c.DB.Preload("Customer").Where("scenario_id = ?", scenarioID)
	if year := ctx.Query("year"); year != "" {
		query = query.Where("year = ?", year)
	}
	if ctx.Query("details") == "true" {
		query = query.Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("month ASC")
		})
	}

	var projections []Models.Projection
	if result := query.Order("year ASC, customer_id ASC").Find(&projections); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve projections"})
	}
	return ctx.JSON(projections)
}

func (c *ProjectionController) GetProjection(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid projection ID"})
	}

	var projection Models.Projection
	result := c.DB.Preload("Customer").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("month ASC") }).
		First(&projection, id)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Projection not found"})
	}
	return ctx.JSON(projection)
}

// GetScenarioSummary totals the scenario's projections per year.
func (c *ProjectionController) GetScenarioSummary(ctx *fiber.Ctx) error {
	scenarioID, err := strconv.Atoi(ctx.Params("scenario_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	if result := c.DB.First(&scenario, scenarioID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	type YearSummary struct {
		Year          int     `json:"year"`
		Customers     int     `json:"customers"`
		TotalSubtotal float64 `json:"total_subtotal"`
		TotalTax      float64 `json:"total_tax"`
		TotalAmount   float64 `json:"total_amount"`
		BaseAmount    float64 `json:"base_amount"`
	}

	var summaries []YearSummary
	err = c.DB.Model(&Models.Projection{}).
		Select(`year,
			COUNT(id) AS customers,
			COALESCE(SUM(total_subtotal), 0) AS total_subtotal,
			COALESCE(SUM(total_tax), 0) AS total_tax,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(base_amount), 0) AS base_amount`).
		Where("scenario_id = ?", scenarioID).
		Group("year").
		Order("year ASC").
		Scan(&summaries).Error
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to summarize projections"})
	}
	for i := range summaries {
		summaries[i].TotalSubtotal = Projections.Round2(summaries[i].TotalSubtotal)
		summaries[i].TotalTax = Projections.Round2(summaries[i].TotalTax)
		summaries[i].TotalAmount = Projections.Round2(summaries[i].TotalAmount)
		summaries[i].BaseAmount = Projections.Round2(summaries[i].BaseAmount)
	}
	return ctx.JSON(summaries)
}

// Recalculate removes one projection and reruns its entire scenario. The
// scenario-wide rerun is deliberate: one row cannot be recomputed in
// isolation because any assumption change can affect its siblings.
func (c *ProjectionController) Recalculate(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid projection ID"})
	}

	var projection Models.Projection
	if result := c.DB.First(&projection, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Projection not found"})
	}

	if err := c.Calculator.RecalculateProjection(uint(id)); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to calculate projections",
			"details": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{"message": "Projections recalculated successfully"})
}

// TraceAssumptions shows every assumption level that would apply to a
// customer in a given year, most specific first. Diagnostic view over the
// resolver's AllApplicable.
func (c *ProjectionController) TraceAssumptions(ctx *fiber.Ctx) error {
	scenarioID, err := strconv.Atoi(ctx.Params("scenario_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}
	customerID, err := strconv.Atoi(ctx.Query("customer_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	year, err := strconv.Atoi(ctx.Query("year"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid year"})
	}

	var customer Models.Customer
	if result := c.DB.First(&customer, customerID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	resolver, err := Projections.NewAssumptionResolver(c.DB, uint(scenarioID))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load assumptions"})
	}

	dims := Projections.Dimensions{
		CustomerID:      &customer.ID,
		CustomerTypeID:  &customer.CustomerTypeID,
		BusinessGroupID: customer.BusinessGroupID,
	}
	if productID, err := strconv.Atoi(ctx.Query("product_id")); err == nil && productID > 0 {
		pid := uint(productID)
		dims.ProductID = &pid
	}

	return ctx.JSON(fiber.Map{
		"resolved":   resolver.Resolve(year, dims),
		"applicable": resolver.AllApplicable(year, dims),
	})
}
