package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Forecast/Models"
	"Forecast/Projections"
)

// InvoiceController handles invoice endpoints
type InvoiceController struct {
	DB *gorm.DB
}

func NewInvoiceController(db *gorm.DB) *InvoiceController {
	return &InvoiceController{DB: db}
}

// Allowed status transitions: draft can be issued or cancelled, issued can be
// paid or cancelled. Paid and cancelled are terminal.
var invoiceTransitions = map[string][]string{
	Models.InvoiceStatusDraft:  {Models.InvoiceStatusIssued, Models.InvoiceStatusCancelled},
	Models.InvoiceStatusIssued: {Models.InvoiceStatusPaid, Models.InvoiceStatusCancelled},
}

func (c *InvoiceController) GetCustomerInvoices(ctx *fiber.Ctx) error {
	customerID, err := strconv.Atoi(ctx.Params("customer_id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	if result := c.DB.First(&customer, customerID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var invoices []Models.Invoice
	result := c.DB.Preload("Items").Where("customer_id = ?", customerID).
		Order("invoice_date DESC").Find(&invoices)
	if result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve invoices"})
	}
	return ctx.JSON(invoices)
}

func (c *InvoiceController) GetInvoice(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	var invoice Models.Invoice
	result := c.DB.Preload("Items").Preload("Items.Product").Preload("Customer").First(&invoice, id)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
	}
	return ctx.JSON(invoice)
}

func (c *InvoiceController) CreateInvoice(ctx *fiber.Ctx) error {
	var input Models.InvoiceRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	var customer Models.Customer
	if result := c.DB.First(&customer, input.CustomerID); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	invoiceDate, err := time.Parse("2006-01-02", input.InvoiceDate)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice date. Use YYYY-MM-DD"})
	}
	dueDate := invoiceDate
	if input.DueDate != "" {
		dueDate, err = time.Parse("2006-01-02", input.DueDate)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid due date. Use YYYY-MM-DD"})
		}
	}

	status := input.Status
	if status == "" {
		status = Models.InvoiceStatusDraft
	}

	subtotal := 0.0
	items := make([]Models.InvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		unitPrice := item.UnitPrice
		if unitPrice == 0 {
			var product Models.Product
			if result := c.DB.First(&product, item.ProductID); result.Error != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Product not found"})
			}
			unitPrice = product.UnitPrice
		}
		lineSubtotal := Projections.Round2(item.Quantity * unitPrice)
		subtotal += lineSubtotal
		items = append(items, Models.InvoiceItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  lineSubtotal,
		})
	}

	invoice := Models.Invoice{
		CustomerID:    input.CustomerID,
		InvoiceNumber: input.InvoiceNumber,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		Status:        status,
		Subtotal:      Projections.Round2(subtotal),
		Tax:           Projections.Round2(input.Tax),
		Total:         Projections.Round2(subtotal + input.Tax),
		Notes:         input.Notes,
		Items:         items,
	}

	if result := c.DB.Create(&invoice); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create invoice"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(invoice)
}

// UpdateInvoiceStatus moves an invoice along the draft → issued → paid path
// or cancels it.
func (c *InvoiceController) UpdateInvoiceStatus(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	var invoice Models.Invoice
	if result := c.DB.First(&invoice, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	allowed := false
	for _, next := range invoiceTransitions[invoice.Status] {
		if next == input.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Cannot transition invoice from " + invoice.Status + " to " + input.Status,
		})
	}

	c.DB.Model(&invoice).Update("status", input.Status)
	return ctx.JSON(invoice)
}

func (c *InvoiceController) DeleteInvoice(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice ID"})
	}

	var invoice Models.Invoice
	if result := c.DB.First(&invoice, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
	}

	c.DB.Delete(&invoice)
	return ctx.JSON(fiber.Map{"message": "Invoice deleted successfully"})
}
