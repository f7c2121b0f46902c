package FiberConfig

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"

	"Forecast/Controllers"
	"Forecast/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize handlers
	customerController := Controllers.NewCustomerController(db)
	invoiceController := Controllers.NewInvoiceController(db)
	scenarioController := Controllers.NewScenarioController(db)
	assumptionController := Controllers.NewAssumptionController(db)
	projectionController := Controllers.NewProjectionController(db)
	analyticsController := Controllers.NewAnalyticsController(db)

	// API group
	api := app.Group("/api")

	// Auth routes
	api.Post("/register", middleware.Verify(4), Controllers.RegisterUser)
	api.Post("/login", Controllers.Login)
	api.Get("/user", middleware.Verify(1), Controllers.CurrentUser)
	api.Post("/logout", Controllers.Logout)

	// Customer routes
	customers := api.Group("/customers", middleware.Verify(1))
	customers.Get("/", customerController.GetCustomers)
	customers.Post("/", middleware.Verify(2), customerController.CreateCustomer)
	customers.Get("/:id", customerController.GetCustomer)
	customers.Put("/:id", middleware.Verify(2), customerController.UpdateCustomer)
	customers.Delete("/:id", middleware.Verify(3), customerController.DeleteCustomer)

	// Invoice routes under customers
	customers.Get("/:customer_id/invoices", invoiceController.GetCustomerInvoices)

	// Direct invoice routes
	invoices := api.Group("/invoices", middleware.Verify(1))
	invoices.Post("/", middleware.Verify(2), invoiceController.CreateInvoice)
	invoices.Get("/:id", invoiceController.GetInvoice)
	invoices.Patch("/:id/status", middleware.Verify(2), invoiceController.UpdateInvoiceStatus)
	invoices.Delete("/:id", middleware.Verify(3), invoiceController.DeleteInvoice)

	// Scenario routes
	scenarios := api.Group("/scenarios", middleware.Verify(1))
	scenarios.Get("/", scenarioController.GetScenarios)
	scenarios.Post("/", middleware.Verify(2), scenarioController.CreateScenario)
	scenarios.Get("/:id", scenarioController.GetScenario)
	scenarios.Put("/:id", middleware.Verify(2), scenarioController.UpdateScenario)
	scenarios.Patch("/:id/status", middleware.Verify(2), scenarioController.UpdateScenarioStatus)
	scenarios.Delete("/:id", middleware.Verify(3), scenarioController.DeleteScenario)
	scenarios.Post("/:id/recalculate", middleware.Verify(2), scenarioController.Recalculate)
	scenarios.Post("/:id/duplicate", middleware.Verify(2), scenarioController.Duplicate)

	// Assumption routes under scenarios
	scenarios.Get("/:scenario_id/assumptions", assumptionController.GetScenarioAssumptions)
	scenarios.Post("/:scenario_id/assumptions", middleware.Verify(2), assumptionController.CreateAssumption)

	// Direct assumption routes
	assumptions := api.Group("/assumptions", middleware.Verify(2))
	assumptions.Put("/:id", assumptionController.UpdateAssumption)
	assumptions.Delete("/:id", assumptionController.DeleteAssumption)

	// Projection routes (read-only plus recalculation triggers)
	scenarios.Get("/:scenario_id/projections", projectionController.GetScenarioProjections)
	scenarios.Get("/:scenario_id/projections/summary", projectionController.GetScenarioSummary)
	scenarios.Get("/:scenario_id/assumption-trace", projectionController.TraceAssumptions)
	projections := api.Group("/projections", middleware.Verify(1))
	projections.Get("/:id", projectionController.GetProjection)
	projections.Post("/:id/recalculate", middleware.Verify(2), projectionController.Recalculate)

	// Analytics routes
	analytics := api.Group("/analytics", middleware.Verify(1))
	analytics.Get("/summary", analyticsController.Summary)
	analytics.Get("/by-product", analyticsController.RevenueByProduct)
	analytics.Get("/by-period", analyticsController.AggregateByPeriod)
	analytics.Get("/customers/:customer_id/trend", analyticsController.MonthlyTrend)
	analytics.Get("/customers/:customer_id/growth", analyticsController.GrowthRate)
}

func FiberConfig(db *gorm.DB) {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           300,
	}))

	SetupRoutes(app, db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Fatal(app.Listen(":" + port))
}
