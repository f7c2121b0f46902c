package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Forecast/Models"
)

// CustomerController handles customer registry endpoints
type CustomerController struct {
	DB *gorm.DB
}

func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{DB: db}
}

func (c *CustomerController) GetCustomers(ctx *fiber.Ctx) error {
	var customers []Models.Customer
	query := c.DB.Preload("CustomerType").Preload("BusinessGroup")
	if ctx.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}
	if result := query.Order("name ASC").Find(&customers); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve customers"})
	}
	return ctx.JSON(customers)
}

func (c *CustomerController) GetCustomer(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	result := c.DB.Preload("CustomerType").Preload("BusinessGroup").First(&customer, id)
	if result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}
	return ctx.JSON(customer)
}

func (c *CustomerController) CreateCustomer(ctx *fiber.Ctx) error {
	var input Models.CustomerRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if messages := validateStruct(input); messages != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": messages})
	}

	var customerType Models.CustomerType
	if result := c.DB.First(&customerType, input.CustomerTypeID); result.Error != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Customer type not found"})
	}

	customer := Models.Customer{
		Name:            input.Name,
		Email:           input.Email,
		CustomerTypeID:  input.CustomerTypeID,
		BusinessGroupID: input.BusinessGroupID,
		IsActive:        true,
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if result := c.DB.Create(&customer); result.Error != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create customer"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(customer)
}

func (c *CustomerController) UpdateCustomer(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	if result := c.DB.First(&customer, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	var input Models.CustomerRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updates := make(map[string]interface{})
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Email != "" {
		updates["email"] = input.Email
	}
	if input.CustomerTypeID != 0 {
		updates["customer_type_id"] = input.CustomerTypeID
	}
	if input.BusinessGroupID != nil {
		updates["business_group_id"] = *input.BusinessGroupID
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		c.DB.Model(&customer).Updates(updates)
		c.DB.Preload("CustomerType").Preload("BusinessGroup").First(&customer, id)
	}
	return ctx.JSON(customer)
}

func (c *CustomerController) DeleteCustomer(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid customer ID"})
	}

	var customer Models.Customer
	if result := c.DB.First(&customer, id); result.Error != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}

	c.DB.Delete(&customer)
	return ctx.JSON(fiber.Map{"message": "Customer deleted successfully"})
}
