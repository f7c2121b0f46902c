package Models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses. Only issued and paid invoices count as realized revenue;
// draft and cancelled are excluded from every historical aggregation.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusIssued    = "issued"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// RevenueStatuses are the invoice statuses that count toward historical revenue.
var RevenueStatuses = []string{InvoiceStatusIssued, InvoiceStatusPaid}

type Invoice struct {
	gorm.Model
	CustomerID    uint      `json:"customer_id" gorm:"not null;index"`
	InvoiceNumber string    `json:"invoice_number" gorm:"size:50;not null;uniqueIndex"`
	InvoiceDate   time.Time `json:"invoice_date" gorm:"not null;index"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status" gorm:"size:20;not null;default:draft;index"`
	Subtotal      float64   `json:"subtotal" gorm:"not null;default:0"`
	Tax           float64   `json:"tax" gorm:"not null;default:0"`
	Total         float64   `json:"total" gorm:"not null;default:0"`
	Notes         string    `json:"notes" gorm:"type:text"`

	// Relationships
	Customer Customer      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// InvoiceItem is a product line on an invoice. Product attribution here is
// what feeds the by-product revenue reports.
type InvoiceItem struct {
	gorm.Model
	InvoiceID uint    `json:"invoice_id" gorm:"not null;index"`
	ProductID uint    `json:"product_id" gorm:"not null;index"`
	Quantity  float64 `json:"quantity" gorm:"not null;default:1"`
	UnitPrice float64 `json:"unit_price" gorm:"not null"`
	Subtotal  float64 `json:"subtotal" gorm:"not null"`

	// Relationship
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

type InvoiceRequest struct {
	CustomerID    uint                 `json:"customer_id" validate:"required"`
	InvoiceNumber string               `json:"invoice_number" validate:"required"`
	InvoiceDate   string               `json:"invoice_date" validate:"required"`
	DueDate       string               `json:"due_date"`
	Status        string               `json:"status" validate:"omitempty,oneof=draft issued paid cancelled"`
	Tax           float64              `json:"tax" validate:"gte=0"`
	Notes         string               `json:"notes"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type InvoiceItemRequest struct {
	ProductID uint    `json:"product_id" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}
