package Projections

import (
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"Forecast/Models"
)

// ProjectionCalculator runs the whole-scenario recompute: invalidate existing
// projections, enumerate active customers, seed each from invoice history,
// apply the resolved assumption per year, and persist one Projection with 12
// monthly details per (customer, year). The entire recompute is one database
// transaction; it either fully commits or leaves prior projections untouched.
type ProjectionCalculator struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewProjectionCalculator(db *gorm.DB) *ProjectionCalculator {
	return &ProjectionCalculator{DB: db, Now: time.Now}
}

// Concurrent recomputes of the same scenario would race on delete/insert of
// the same rows, so they are serialized with one mutex per scenario id.
// Different scenarios recompute independently.
var scenarioLocks sync.Map

func lockScenario(scenarioID uint) *sync.Mutex {
	lock, _ := scenarioLocks.LoadOrStore(scenarioID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	return mu
}

// ReleaseScenarioLock drops the recompute mutex of a deleted scenario so the
// lock map does not accumulate entries for scenarios that no longer exist.
func ReleaseScenarioLock(scenarioID uint) {
	scenarioLocks.Delete(scenarioID)
}

func (c *ProjectionCalculator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// CalculateForScenario recomputes every projection of the scenario.
func (c *ProjectionCalculator) CalculateForScenario(scenario *Models.Scenario) error {
	if scenario.Status == Models.ScenarioStatusArchived {
		return fmt.Errorf("scenario %d is archived and cannot be recalculated", scenario.ID)
	}
	if scenario.ProjectionYears < 1 {
		return fmt.Errorf("scenario %d has no projection years configured", scenario.ID)
	}

	mu := lockScenario(scenario.ID)
	defer mu.Unlock()

	log.Printf("Recalculating projections for scenario %d (%s)", scenario.ID, scenario.Name)

	skipped := 0
	created := 0
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := Models.InvalidateProjections(tx, scenario.ID); err != nil {
			return err
		}

		resolver, err := NewAssumptionResolver(tx, scenario.ID)
		if err != nil {
			return err
		}
		analyzer := &HistoricalAnalyzer{DB: tx, Now: c.Now}

		// Baseline window: the historical_months calendar months ending with
		// December of the base year.
		baseDate := time.Date(scenario.BaseYear, 12, 31, 23, 59, 59, 0, time.UTC)
		startDate := time.Date(scenario.BaseYear+1, 1, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, -scenario.HistoricalMonths, 0)

		var customers []Models.Customer
		if err := tx.Preload("CustomerType").Preload("BusinessGroup").
			Where("is_active = ?", true).
			Find(&customers).Error; err != nil {
			return fmt.Errorf("failed to enumerate active customers: %w", err)
		}

		for i := range customers {
			customer := &customers[i]

			enough, err := analyzer.SufficientData(customer.ID, scenario.HistoricalMonths)
			if err != nil {
				return err
			}
			if !enough {
				// Policy, not failure: too little history means no projection.
				skipped++
				continue
			}

			baseAmount, err := analyzer.AverageMonthlyRevenue(customer.ID, startDate, baseDate)
			if err != nil {
				return err
			}

			for year := scenario.BaseYear + 1; year <= scenario.BaseYear+scenario.ProjectionYears; year++ {
				projection, err := c.buildProjection(scenario, resolver, customer, year, baseAmount)
				if err != nil {
					return err
				}
				if err := tx.Create(projection).Error; err != nil {
					return fmt.Errorf("failed to persist projection for customer %d year %d: %w",
						customer.ID, year, err)
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to calculate projections for scenario %d: %w", scenario.ID, err)
	}

	log.Printf("Scenario %d recalculated: %d projections created, %d customers skipped",
		scenario.ID, created, skipped)
	return nil
}

// buildProjection computes one (customer, year) projection row with its 12
// monthly details. Projections are computed at customer granularity, so
// product is never supplied to the resolver and is always NULL on the row.
func (c *ProjectionCalculator) buildProjection(
	scenario *Models.Scenario,
	resolver *AssumptionResolver,
	customer *Models.Customer,
	year int,
	baseAmount float64,
) (*Models.Projection, error) {
	customerID := customer.ID
	typeID := customer.CustomerTypeID
	assumption := resolver.Resolve(year, Dimensions{
		CustomerID:      &customerID,
		CustomerTypeID:  &typeID,
		BusinessGroupID: customer.BusinessGroupID,
	})

	annualBase := baseAmount * 12

	growthRate := 0.0
	inflationRate := 0.0
	if assumption != nil {
		growthRate = assumption.GrowthRate
	}
	if scenario.IncludeInflation {
		if assumption != nil && assumption.InflationRate != nil {
			inflationRate = *assumption.InflationRate
		} else {
			inflationRate = scenario.GlobalInflationRate
		}
	}

	// Growth applies first, then inflation compounds multiplicatively on top.
	// A fixed_amount assumption replaces the percentage growth step with a
	// flat annual adjustment.
	grown := annualBase * (1 + growthRate/100)
	if assumption != nil && assumption.AdjustmentType == Models.AdjustmentFixedAmount {
		grown = annualBase + assumption.FixedAmount
		growthRate = 0
	}
	projected := Round2(grown * (1 + inflationRate/100))

	var factors []float64
	if assumption != nil {
		factors = assumption.Seasonality()
	}
	normalized := NormalizeFactors(factors)
	amounts := Distribute(projected, factors)

	taxRate := scenario.EffectiveTaxRate()
	totalTax := Round2(projected * taxRate)
	totalSubtotal := Round2(projected - totalTax)

	projection := &Models.Projection{
		ScenarioID:         scenario.ID,
		Year:               year,
		CustomerID:         &customerID,
		CustomerTypeID:     &typeID,
		BusinessGroupID:    customer.BusinessGroupID,
		ProductID:          nil,
		TotalSubtotal:      totalSubtotal,
		TotalTax:           totalTax,
		TotalAmount:        projected,
		TotalWithInflation: projected,
		BaseAmount:         Round2(annualBase),
		GrowthApplied:      growthRate,
		InflationApplied:   inflationRate,
		CalculationMethod:  scenario.CalculationMethod,
		CalculatedAt:       c.now(),
	}

	details := make([]Models.ProjectionDetail, 0, 12)
	for month := 1; month <= 12; month++ {
		amount := amounts[month-1]
		tax := Round2(amount * taxRate)
		details = append(details, Models.ProjectionDetail{
			Month:             month,
			Subtotal:          Round2(amount - tax),
			Tax:               tax,
			Amount:            amount,
			BaseAmount:        baseAmount,
			SeasonalityFactor: normalized[month-1],
		})
	}
	projection.Details = details

	return projection, nil
}

// RecalculateProjection hard-deletes one projection row and reruns the whole
// scenario. Partial recomputation is deliberately unsupported: assumption
// resolution for one entity can be affected by any assumption change, so the
// scenario always recomputes as a unit.
func (c *ProjectionCalculator) RecalculateProjection(projectionID uint) error {
	var projection Models.Projection
	if err := c.DB.First(&projection, projectionID).Error; err != nil {
		return fmt.Errorf("projection %d not found: %w", projectionID, err)
	}
	var scenario Models.Scenario
	if err := c.DB.First(&scenario, projection.ScenarioID).Error; err != nil {
		return fmt.Errorf("scenario %d not found: %w", projection.ScenarioID, err)
	}

	if err := Models.PurgeProjection(c.DB, projectionID); err != nil {
		return err
	}
	return c.CalculateForScenario(&scenario)
}

// NormalizeFactors scales seasonality factors so they sum to 12, making the
// distribution depend only on relative weights. Wrong-length or absent input
// falls back to the uniform curve; a non-positive sum degenerates to uniform.
func NormalizeFactors(factors []float64) []float64 {
	normalized := make([]float64, 12)
	if len(factors) != 12 {
		for i := range normalized {
			normalized[i] = 1.0
		}
		return normalized
	}

	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	for i, f := range factors {
		if sum > 0 {
			normalized[i] = f / sum * 12
		} else {
			normalized[i] = 1.0
		}
	}
	return normalized
}

// Distribute spreads an annual amount across 12 months according to the
// seasonality factors. The normalization guarantees the monthly amounts sum
// back to the annual amount up to per-month rounding.
func Distribute(annualAmount float64, factors []float64) []float64 {
	normalized := NormalizeFactors(factors)
	amounts := make([]float64, 12)
	for i, factor := range normalized {
		amounts[i] = Round2(annualAmount / 12 * factor)
	}
	return amounts
}
