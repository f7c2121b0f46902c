package Controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Forecast/Models"
)

var testDBCounter int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:controllers_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Models.Migrate(db))
	return db
}

// newTestApp wires the scenario and assumption handlers without the auth
// middleware so handler behavior is exercised directly.
func newTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	scenarios := NewScenarioController(db)
	assumptions := NewAssumptionController(db)

	app.Put("/scenarios/:id", scenarios.UpdateScenario)
	app.Delete("/scenarios/:id", scenarios.DeleteScenario)
	app.Post("/scenarios/:scenario_id/assumptions", assumptions.CreateAssumption)
	app.Put("/assumptions/:id", assumptions.UpdateAssumption)
	app.Delete("/assumptions/:id", assumptions.DeleteAssumption)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, url string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func seedScenario(t *testing.T, db *gorm.DB) *Models.Scenario {
	t.Helper()
	scenario := Models.Scenario{
		Name:              "Base case",
		BaseYear:          2024,
		HistoricalMonths:  6,
		ProjectionYears:   1,
		CalculationMethod: Models.MethodSimpleAverage,
		TaxRate:           Models.DefaultTaxRate,
		Status:            Models.ScenarioStatusActive,
	}
	require.NoError(t, db.Create(&scenario).Error)
	return &scenario
}

func seedProjection(t *testing.T, db *gorm.DB, scenarioID uint) *Models.Projection {
	t.Helper()
	projection := Models.Projection{
		ScenarioID:        scenarioID,
		Year:              2025,
		TotalSubtotal:     850,
		TotalTax:          150,
		TotalAmount:       1000,
		CalculationMethod: Models.MethodSimpleAverage,
		CalculatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&projection).Error)
	return &projection
}

func liveProjections(db *gorm.DB, scenarioID uint) int64 {
	var count int64
	db.Model(&Models.Projection{}).Where("scenario_id = ?", scenarioID).Count(&count)
	return count
}
