package Models

import (
	"gorm.io/gorm"
)

type CustomerType struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Description string `json:"description" gorm:"type:text"`
}

type BusinessGroup struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Description string `json:"description" gorm:"type:text"`
}

type Product struct {
	gorm.Model
	Name      string  `json:"name" gorm:"size:255;not null"`
	SKU       string  `json:"sku" gorm:"size:100;uniqueIndex"`
	UnitPrice float64 `json:"unit_price" gorm:"not null;default:0"`
}

// Customer is the primary projection entity. IsActive gates whether the
// calculator considers it at all.
type Customer struct {
	gorm.Model
	Name            string `json:"name" gorm:"size:255;not null"`
	Email           string `json:"email" gorm:"size:255"`
	CustomerTypeID  uint   `json:"customer_type_id" gorm:"not null;index"`
	BusinessGroupID *uint  `json:"business_group_id" gorm:"index"`
	IsActive        bool   `json:"is_active" gorm:"not null;default:true"`

	// Relationships
	CustomerType  CustomerType   `json:"customer_type,omitempty" gorm:"foreignKey:CustomerTypeID"`
	BusinessGroup *BusinessGroup `json:"business_group,omitempty" gorm:"foreignKey:BusinessGroupID"`
	Invoices      []Invoice      `json:"invoices,omitempty" gorm:"foreignKey:CustomerID"`
}

type CustomerRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email"`
	CustomerTypeID  uint   `json:"customer_type_id" validate:"required"`
	BusinessGroupID *uint  `json:"business_group_id"`
	IsActive        *bool  `json:"is_active"`
}
