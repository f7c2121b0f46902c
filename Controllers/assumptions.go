package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Forecast/Models"
)

// AssumptionController handles scenario assumption endpoints. Every mutation
// synchronously invalidates the scenario's projections: any of them may
// depend on the changed rule, and none may be readable as valid afterward.
type AssumptionController struct {
	DB *gorm.DB
}

func NewAssumptionController(db *gorm.DB) *AssumptionController {
	return &AssumptionController{DB: db}
}

func (c *AssumptionController) GetScenarioAssumptions(ctx *fiber.Ctx) error {
	scenarioID, err := strconv.Atoi(ctx.Params("scenario_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	if result := c.DB.First(&scenario, scenarioID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	var assumptions []Models.ScenarioAssumption
	result := c.DB.Where("scenario_id = ?", scenarioID).
		Order("year ASC, id ASC").Find(&assumptions)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve assumptions"})
	}
	return ctx.JSON(assumptions)
}

func (c *AssumptionController) CreateAssumption(ctx *fiber.Ctx) error {
	scenarioID, err := strconv.Atoi(ctx.Params("scenario_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid scenario ID"})
	}

	var scenario Models.Scenario
	if result := c.DB.First(&scenario, scenarioID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Scenario not found"})
	}

	var input Models.AssumptionRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}
	if !validSeasonalitySum(input.SeasonalityFactors) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Seasonality factors must sum to approximately 12.0",
		})
	}

	// At most one assumption may exist per exact dimension tuple.
	var existing int64
	query := c.DB.Model(&Models.ScenarioAssumption{}).
		Where("scenario_id = ? AND year = ?", scenarioID, input.Year)
	query = whereDimension(query, "customer_id", input.CustomerID)
	query = whereDimension(query, "customer_type_id", input.CustomerTypeID)
	query = whereDimension(query, "business_group_id", input.BusinessGroupID)
	query = whereDimension(query, "product_id", input.ProductID)
	query.Count(&existing)
	if existing > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An assumption already exists for this scope and year",
		})
	}

	adjustmentType := input.AdjustmentType
	if adjustmentType == "" {
		adjustmentType = Models.AdjustmentPercentage
	}

	assumption := Models.ScenarioAssumption{
		ScenarioID:      uint(scenarioID),
		Year:            input.Year,
		CustomerID:      input.CustomerID,
		CustomerTypeID:  input.CustomerTypeID,
		BusinessGroupID: input.BusinessGroupID,
		ProductID:       input.ProductID,
		GrowthRate:      input.GrowthRate,
		InflationRate:   input.InflationRate,
		AdjustmentType:  adjustmentType,
		FixedAmount:     input.FixedAmount,
	}
	if len(input.SeasonalityFactors) == 12 {
		if err := assumption.SetSeasonality(input.SeasonalityFactors); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&assumption).Error; err != nil {
			return err
		}
		return Models.InvalidateProjections(tx, uint(scenarioID))
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create assumption"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(assumption)
}

func (c *AssumptionController) UpdateAssumption(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assumption ID"})
	}

	var assumption Models.ScenarioAssumption
	if result := c.DB.First(&assumption, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assumption not found"})
	}

	var input Models.AssumptionRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}
	if !validSeasonalitySum(input.SeasonalityFactors) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Seasonality factors must sum to approximately 12.0",
		})
	}

	// The update may move the assumption onto a different dimension tuple, so
	// the tuple must be re-checked against every other row of the scenario.
	var existing int64
	query := c.DB.Model(&Models.ScenarioAssumption{}).
		Where("scenario_id = ? AND year = ?", assumption.ScenarioID, input.Year).
		Where("id <> ?", assumption.ID)
	query = whereDimension(query, "customer_id", input.CustomerID)
	query = whereDimension(query, "customer_type_id", input.CustomerTypeID)
	query = whereDimension(query, "business_group_id", input.BusinessGroupID)
	query = whereDimension(query, "product_id", input.ProductID)
	query.Count(&existing)
	if existing > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An assumption already exists for this scope and year",
		})
	}

	assumption.Year = input.Year
	assumption.CustomerID = input.CustomerID
	assumption.CustomerTypeID = input.CustomerTypeID
	assumption.BusinessGroupID = input.BusinessGroupID
	assumption.ProductID = input.ProductID
	assumption.GrowthRate = input.GrowthRate
	assumption.InflationRate = input.InflationRate
	assumption.FixedAmount = input.FixedAmount
	if input.AdjustmentType != "" {
		assumption.AdjustmentType = input.AdjustmentType
	}
	if len(input.SeasonalityFactors) == 12 {
		if err := assumption.SetSeasonality(input.SeasonalityFactors); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&assumption).Error; err != nil {
			return err
		}
		return Models.InvalidateProjections(tx, assumption.ScenarioID)
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update assumption"})
	}
	return ctx.JSON(assumption)
}

func (c *AssumptionController) DeleteAssumption(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assumption ID"})
	}

	var assumption Models.ScenarioAssumption
	if result := c.DB.First(&assumption, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assumption not found"})
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&assumption).Error; err != nil {
			return err
		}
		return Models.InvalidateProjections(tx, assumption.ScenarioID)
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete assumption"})
	}
	return ctx.JSON(fiber.Map{"message": "Assumption deleted successfully"})
}

// whereDimension adds the exact-match condition for one dimension column,
// matching NULL explicitly when the value is absent.
func whereDimension(query *gorm.DB, column string, value *uint) *gorm.DB {
	if value == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *value)
}
