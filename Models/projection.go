package Models

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// Projection is one computed annual revenue figure for an entity/year under a
// scenario. Rows are produced only by the calculation pipeline and are
// invalidated and regenerated as a unit; they are never hand-edited.
type Projection struct {
	gorm.Model
	ScenarioID      uint  `json:"scenario_id" gorm:"not null;index"`
	Year            int   `json:"year" gorm:"not null;index"`
	CustomerID      *uint `json:"customer_id" gorm:"index"`
	CustomerTypeID  *uint `json:"customer_type_id"`
	BusinessGroupID *uint `json:"business_group_id"`
	ProductID       *uint `json:"product_id"`

	TotalSubtotal      float64   `json:"total_subtotal" gorm:"not null;default:0"`
	TotalTax           float64   `json:"total_tax" gorm:"not null;default:0"`
	TotalAmount        float64   `json:"total_amount" gorm:"not null;default:0"`
	TotalWithInflation float64   `json:"total_with_inflation" gorm:"not null;default:0"`
	BaseAmount         float64   `json:"base_amount" gorm:"not null;default:0"` // annualized baseline
	GrowthApplied      float64   `json:"growth_applied" gorm:"not null;default:0"`
	InflationApplied   float64   `json:"inflation_applied" gorm:"not null;default:0"`
	CalculationMethod  string    `json:"calculation_method" gorm:"size:30;not null"`
	CalculatedAt       time.Time `json:"calculated_at"`

	// Relationships
	Scenario Scenario           `json:"scenario,omitempty" gorm:"foreignKey:ScenarioID"`
	Customer *Customer          `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Details  []ProjectionDetail `json:"details,omitempty" gorm:"foreignKey:ProjectionID;constraint:OnDelete:CASCADE"`
}

// ProjectionDetail is the monthly breakdown of its parent Projection,
// exactly one row per month 1-12.
type ProjectionDetail struct {
	gorm.Model
	ProjectionID      uint    `json:"projection_id" gorm:"not null;index;uniqueIndex:idx_projection_month"`
	Month             int     `json:"month" gorm:"not null;uniqueIndex:idx_projection_month"`
	Subtotal          float64 `json:"subtotal" gorm:"not null;default:0"`
	Tax               float64 `json:"tax" gorm:"not null;default:0"`
	Amount            float64 `json:"amount" gorm:"not null;default:0"`
	BaseAmount        float64 `json:"base_amount" gorm:"not null;default:0"` // monthly baseline
	SeasonalityFactor float64 `json:"seasonality_factor" gorm:"not null;default:1"`
}

// AmountTolerance is the permitted drift between total_amount and
// total_subtotal + total_tax. The calculator constructs amounts so the
// identity holds exactly; this only rejects hand-crafted or corrupt rows.
const AmountTolerance = 0.01

func (p *Projection) BeforeSave(tx *gorm.DB) error {
	if math.Abs(p.TotalAmount-(p.TotalSubtotal+p.TotalTax)) > AmountTolerance {
		return fmt.Errorf("projection amount mismatch: total %.2f != subtotal %.2f + tax %.2f",
			p.TotalAmount, p.TotalSubtotal, p.TotalTax)
	}
	return nil
}

func (d *ProjectionDetail) BeforeSave(tx *gorm.DB) error {
	if math.Abs(d.Amount-(d.Subtotal+d.Tax)) > AmountTolerance {
		return fmt.Errorf("projection detail amount mismatch: amount %.2f != subtotal %.2f + tax %.2f",
			d.Amount, d.Subtotal, d.Tax)
	}
	return nil
}

// InvalidateProjections soft-deletes every projection of a scenario together
// with its monthly details. Every assumption write path must call this
// synchronously so no stale projection is ever readable after a rule it
// depended on has changed.
func InvalidateProjections(db *gorm.DB, scenarioID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&Projection{}).Where("scenario_id = ?", scenarioID).
			Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("failed to list projections for scenario %d: %w", scenarioID, err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("projection_id IN ?", ids).Delete(&ProjectionDetail{}).Error; err != nil {
			return fmt.Errorf("failed to invalidate projection details: %w", err)
		}
		if err := tx.Where("scenario_id = ?", scenarioID).Delete(&Projection{}).Error; err != nil {
			return fmt.Errorf("failed to invalidate projections: %w", err)
		}
		return nil
	})
}

// PurgeProjection hard-deletes one projection row and its details, bypassing
// soft delete. Used by the single-row recalculation path before the full
// scenario recompute runs.
func PurgeProjection(db *gorm.DB, projectionID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("projection_id = ?", projectionID).
			Delete(&ProjectionDetail{}).Error; err != nil {
			return fmt.Errorf("failed to purge projection details: %w", err)
		}
		if err := tx.Unscoped().Delete(&Projection{}, projectionID).Error; err != nil {
			return fmt.Errorf("failed to purge projection %d: %w", projectionID, err)
		}
		return nil
	})
}
