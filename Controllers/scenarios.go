package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Forecast/Models"
	"Forecast/Projections"
)

// ScenarioController handles forecasting scenario endpoints
type ScenarioController struct {
	DB         *gorm.DB
	Calculator *Projections.ProjectionCalculator
}

func NewScenarioController(db *gorm.DB) *ScenarioController {
	return &ScenarioController{
		DB:         db,
		Calculator: Projections.NewProjectionCalculator(db),
	}
}

func (c *ScenarioController) GetScenarios(ctx *fiber.Ctx) error {
	var scenarios []Models.Scenario
	query := c.DB.Order("created_at DESC")
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if result := query.Find(&scenarios); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve scenarios"})
	}
	return ctx.JSON(scenarios)
}

func (c *ScenarioController) GetScenario(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	result := c.DB.Preload("Assumptions").First(&scenario, id)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}
	return ctx.JSON(scenario)
}

func (c *ScenarioController) CreateScenario(ctx *fiber.Ctx) error {
	var input Models.ScenarioRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	method := input.CalculationMethod
	if method == "" {
		method = Models.MethodSimpleAverage
	}
	taxRate := input.TaxRate
	if taxRate == 0 {
		taxRate = Models.DefaultTaxRate
	}

	scenario := Models.Scenario{
		Name:                input.Name,
		Description:         input.Description,
		BaseYear:            input.BaseYear,
		HistoricalMonths:    input.HistoricalMonths,
		ProjectionYears:     input.ProjectionYears,
		CalculationMethod:   method,
		IncludeInflation:    input.IncludeInflation,
		GlobalInflationRate: input.GlobalInflationRate,
		TaxRate:             taxRate,
		Status:              Models.ScenarioStatusDraft,
		IsBaseline:          input.IsBaseline,
	}
	if user, ok := ctx.Locals("user").(Models.User); ok {
		scenario.CreatedByID = user.ID
	}

	if result := c.DB.Create(&scenario); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create scenario"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(scenario)
}

func (c *ScenarioController) UpdateScenario(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	if result := c.DB.First(&scenario, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	var input Models.ScenarioUpdateRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	updates := make(map[string]interface{})
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.BaseYear != 0 {
		updates["base_year"] = input.BaseYear
	}
	if input.HistoricalMonths != 0 {
		updates["historical_months"] = input.HistoricalMonths
	}
	if input.ProjectionYears != 0 {
		updates["projection_years"] = input.ProjectionYears
	}
	if input.CalculationMethod != "" {
		updates["calculation_method"] = input.CalculationMethod
	}
	if input.TaxRate != nil {
		updates["tax_rate"] = *input.TaxRate
	}
	if input.IncludeInflation != nil {
		updates["include_inflation"] = *input.IncludeInflation
	}
	if input.GlobalInflationRate != nil {
		updates["global_inflation_rate"] = *input.GlobalInflationRate
	}
	if input.IsBaseline != nil {
		updates["is_baseline"] = *input.IsBaseline
	}

	if len(updates) == 0 {
		return ctx.JSON(scenario)
	}
	c.DB.Model(&scenario).Updates(updates)

	// The configuration the projections were computed from has changed, so
	// they are no longer trustworthy.
	if err := Models.InvalidateProjections(c.DB, scenario.ID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to invalidate projections"})
	}

	c.DB.First(&scenario, id)
	return ctx.JSON(scenario)
}

// UpdateScenarioStatus moves a scenario between draft, active, and archived.
func (c *ScenarioController) UpdateScenarioStatus(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	if result := c.DB.First(&scenario, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	switch input.Status {
	case Models.ScenarioStatusDraft, Models.ScenarioStatusActive, Models.ScenarioStatusArchived:
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}

	c.DB.Model(&scenario).Update("status", input.Status)
	return ctx.JSON(scenario)
}

func (c *ScenarioController) DeleteScenario(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	if result := c.DB.First(&scenario, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := Models.InvalidateProjections(tx, scenario.ID); err != nil {
			return err
		}
		if err := tx.Where("scenario_id = ?", scenario.ID).
			Delete(&Models.ScenarioAssumption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&scenario).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete scenario"})
	}
	Projections.ReleaseScenarioLock(scenario.ID)

	return ctx.JSON(fiber.Map{"message": "Scenario deleted successfully"})
}

// Recalculate runs the full projection pipeline for the scenario. The whole
// recompute is one transaction: on error nothing changed and the previous
// projections are still in place.
func (c *ScenarioController) Recalculate(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	if result := c.DB.First(&scenario, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	if err := c.Calculator.CalculateForScenario(&scenario); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to calculate projections",
			"details": err.Error(),
		})
	}

	var count int64
	c.DB.Model(&Models.Projection{}).Where("scenario_id = ?", scenario.ID).Count(&count)
	return ctx.JSON(fiber.Map{
		"message":     "Projections calculated successfully",
		"projections": count,
	})
}

// Duplicate copies a scenario's configuration and assumptions into a new
// draft. Projections are not copied; the new scenario starts with no projections.
func (c *ScenarioController) Duplicate(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var source Models.Scenario
	if result := c.DB.Preload("Assumptions").First(&source, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	clone := Models.Scenario{
		Name:                source.Name + " (copy)",
		Description:         source.Description,
		BaseYear:            source.BaseYear,
		HistoricalMonths:    source.HistoricalMonths,
		ProjectionYears:     source.ProjectionYears,
		CalculationMethod:   source.CalculationMethod,
		IncludeInflation:    source.IncludeInflation,
		GlobalInflationRate: source.GlobalInflationRate,
		TaxRate:             source.TaxRate,
		Status:              Models.ScenarioStatusDraft,
		IsBaseline:          false,
		CreatedByID:         source.CreatedByID,
	}
	if user, ok := ctx.Locals("user").(Models.User); ok {
		clone.CreatedByID = user.ID
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&clone).Error; err != nil {
			return err
		}
		for _, a := range source.Assumptions {
			duplicate := Models.ScenarioAssumption{
				ScenarioID:         clone.ID,
				Year:               a.Year,
				CustomerID:         a.CustomerID,
				CustomerTypeID:     a.CustomerTypeID,
				BusinessGroupID:    a.BusinessGroupID,
				ProductID:          a.ProductID,
				GrowthRate:         a.GrowthRate,
				InflationRate:      a.InflationRate,
				AdjustmentType:     a.AdjustmentType,
				FixedAmount:        a.FixedAmount,
				SeasonalityFactors: a.SeasonalityFactors,
			}
			if err := tx.Create(&duplicate).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to duplicate scenario"})
	}

	c.DB.Preload("Assumptions").First(&clone, clone.ID)
	return ctx.Status(fiber.StatusCreated).JSON(clone)
}
