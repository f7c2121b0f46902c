package Models

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Scenario lifecycle statuses. Archived scenarios refuse recalculation.
const (
	ScenarioStatusDraft    = "draft"
	ScenarioStatusActive   = "active"
	ScenarioStatusArchived = "archived"
)

// Calculation methods. Only simple_average has a distinct implementation;
// the other two are accepted and recorded but currently route to the same
// baseline computation.
const (
	MethodSimpleAverage   = "simple_average"
	MethodWeightedAverage = "weighted_average"
	MethodTrend           = "trend"
)

const (
	AdjustmentPercentage  = "percentage"
	AdjustmentFixedAmount = "fixed_amount"
)

// DefaultTaxRate splits projected amounts into subtotal and tax when a
// scenario does not override it.
const DefaultTaxRate = 0.15

type Scenario struct {
	gorm.Model
	Name                string  `json:"name" gorm:"size:255;not null"`
	Description         string  `json:"description" gorm:"type:text"`
	BaseYear            int     `json:"base_year" gorm:"not null"`
	HistoricalMonths    int     `json:"historical_months" gorm:"not null;default:12"`
	ProjectionYears     int     `json:"projection_years" gorm:"not null;default:3"`
	CalculationMethod   string  `json:"calculation_method" gorm:"size:30;not null;default:simple_average"`
	IncludeInflation    bool    `json:"include_inflation" gorm:"not null;default:false"`
	GlobalInflationRate float64 `json:"global_inflation_rate" gorm:"not null;default:0"`
	TaxRate             float64 `json:"tax_rate" gorm:"not null;default:0.15"`
	Status              string  `json:"status" gorm:"size:20;not null;default:draft"`
	IsBaseline          bool    `json:"is_baseline" gorm:"not null;default:false"`
	CreatedByID         uint    `json:"created_by_id" gorm:"index"`

	// Relationships
	CreatedBy   User                 `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	Assumptions []ScenarioAssumption `json:"assumptions,omitempty" gorm:"foreignKey:ScenarioID"`
	Projections []Projection         `json:"projections,omitempty" gorm:"foreignKey:ScenarioID"`
}

// EffectiveTaxRate falls back to the default when the stored rate is unset.
func (s *Scenario) EffectiveTaxRate() float64 {
	if s.TaxRate <= 0 {
		return DefaultTaxRate
	}
	return s.TaxRate
}

// ScenarioAssumption is a growth/inflation/seasonality rule scoped to a
// (scenario, year) pair plus up to four optional dimension filters. The
// composite unique index guarantees at most one rule per exact dimension
// tuple, which is what lets the resolver treat each specificity level as
// returning at most one row.
type ScenarioAssumption struct {
	gorm.Model
	ScenarioID      uint  `json:"scenario_id" gorm:"not null;index;uniqueIndex:idx_assumption_scope"`
	Year            int   `json:"year" gorm:"not null;uniqueIndex:idx_assumption_scope"`
	CustomerID      *uint `json:"customer_id" gorm:"uniqueIndex:idx_assumption_scope"`
	CustomerTypeID  *uint `json:"customer_type_id" gorm:"uniqueIndex:idx_assumption_scope"`
	BusinessGroupID *uint `json:"business_group_id" gorm:"uniqueIndex:idx_assumption_scope"`
	ProductID       *uint `json:"product_id" gorm:"uniqueIndex:idx_assumption_scope"`

	GrowthRate     float64  `json:"growth_rate" gorm:"not null;default:0"`
	InflationRate  *float64 `json:"inflation_rate"` // nil inherits the scenario-level global rate
	AdjustmentType string   `json:"adjustment_type" gorm:"size:20;not null;default:percentage"`
	FixedAmount    float64  `json:"fixed_amount" gorm:"not null;default:0"`

	// Twelve per-month weights stored as JSON, sum ~= 12.0.
	SeasonalityFactors datatypes.JSON `json:"seasonality_factors"`

	// Relationship
	Scenario Scenario `json:"scenario,omitempty" gorm:"foreignKey:ScenarioID"`
}

// SetSeasonality stores the 12 monthly factors as the JSON column.
func (a *ScenarioAssumption) SetSeasonality(factors []float64) error {
	if len(factors) != 12 {
		return fmt.Errorf("seasonality requires exactly 12 factors, got %d", len(factors))
	}
	raw, err := json.Marshal(factors)
	if err != nil {
		return err
	}
	a.SeasonalityFactors = datatypes.JSON(raw)
	return nil
}

// Seasonality decodes the stored factors. Returns nil when unset or when the
// stored value is not a 12-element array, which callers treat as the uniform
// distribution.
func (a *ScenarioAssumption) Seasonality() []float64 {
	if len(a.SeasonalityFactors) == 0 {
		return nil
	}
	var factors []float64
	if err := json.Unmarshal(a.SeasonalityFactors, &factors); err != nil {
		return nil
	}
	if len(factors) != 12 {
		return nil
	}
	return factors
}

type AssumptionRequest struct {
	Year               int       `json:"year" validate:"required,min=1900,max=2200"`
	CustomerID         *uint     `json:"customer_id"`
	CustomerTypeID     *uint     `json:"customer_type_id"`
	BusinessGroupID    *uint     `json:"business_group_id"`
	ProductID          *uint     `json:"product_id"`
	GrowthRate         float64   `json:"growth_rate" validate:"gte=-100,lte=1000"`
	InflationRate      *float64  `json:"inflation_rate" validate:"omitempty,gte=-100,lte=1000"`
	AdjustmentType     string    `json:"adjustment_type" validate:"omitempty,oneof=percentage fixed_amount"`
	FixedAmount        float64   `json:"fixed_amount"`
	SeasonalityFactors []float64 `json:"seasonality_factors" validate:"omitempty,len=12,dive,gte=0"`
}

// ScenarioUpdateRequest is the partial-update body: only fields present in
// the request are applied, so an omitted flag never clobbers stored config.
type ScenarioUpdateRequest struct {
	Name                string   `json:"name"`
	Description         *string  `json:"description"`
	BaseYear            int      `json:"base_year" validate:"omitempty,min=1900,max=2200"`
	HistoricalMonths    int      `json:"historical_months" validate:"omitempty,min=1,max=60"`
	ProjectionYears     int      `json:"projection_years" validate:"omitempty,min=1,max=20"`
	CalculationMethod   string   `json:"calculation_method" validate:"omitempty,oneof=simple_average weighted_average trend"`
	IncludeInflation    *bool    `json:"include_inflation"`
	GlobalInflationRate *float64 `json:"global_inflation_rate" validate:"omitempty,gte=-100,lte=1000"`
	TaxRate             *float64 `json:"tax_rate" validate:"omitempty,gte=0,lt=1"`
	IsBaseline          *bool    `json:"is_baseline"`
}

type ScenarioRequest struct {
	Name                string  `json:"name" validate:"required"`
	Description         string  `json:"description"`
	BaseYear            int     `json:"base_year" validate:"required,min=1900,max=2200"`
	HistoricalMonths    int     `json:"historical_months" validate:"required,min=1,max=60"`
	ProjectionYears     int     `json:"projection_years" validate:"required,min=1,max=20"`
	CalculationMethod   string  `json:"calculation_method" validate:"omitempty,oneof=simple_average weighted_average trend"`
	IncludeInflation    bool    `json:"include_inflation"`
	GlobalInflationRate float64 `json:"global_inflation_rate" validate:"gte=-100,lte=1000"`
	TaxRate             float64 `json:"tax_rate" validate:"gte=0,lt=1"`
	IsBaseline          bool    `json:"is_baseline"`
}
