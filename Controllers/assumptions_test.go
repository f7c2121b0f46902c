package Controllers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Forecast/Models"
)

func TestCreateAssumptionInvalidatesProjections(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	scenario := seedScenario(t, db)
	seedProjection(t, db, scenario.ID)

	resp := doJSON(t, app, "POST", fmt.Sprintf("/scenarios/%d/assumptions", scenario.ID),
		Models.AssumptionRequest{Year: 2025, GrowthRate: 10})
	require.Equal(t, 201, resp.StatusCode)

	assert.Zero(t, liveProjections(db, scenario.ID))
}

func TestUpdateAssumptionInvalidatesProjections(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	scenario := seedScenario(t, db)
	assumption := Models.ScenarioAssumption{
		ScenarioID: scenario.ID, Year: 2025, GrowthRate: 10,
		AdjustmentType: Models.AdjustmentPercentage,
	}
	require.NoError(t, db.Create(&assumption).Error)
	seedProjection(t, db, scenario.ID)

	resp := doJSON(t, app, "PUT", fmt.Sprintf("/assumptions/%d", assumption.ID),
		Models.AssumptionRequest{Year: 2025, GrowthRate: 15})
	require.Equal(t, 200, resp.StatusCode)

	assert.Zero(t, liveProjections(db, scenario.ID))
}

func TestDeleteAssumptionInvalidatesProjections(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	scenario := seedScenario(t, db)
	assumption := Models.ScenarioAssumption{
		ScenarioID: scenario.ID, Year: 2025, GrowthRate: 10,
		AdjustmentType: Models.AdjustmentPercentage,
	}
	require.NoError(t, db.Create(&assumption).Error)
	seedProjection(t, db, scenario.ID)

	resp := doJSON(t, app, "DELETE", fmt.Sprintf("/assumptions/%d", assumption.ID), nil)
	require.Equal(t, 200, resp.StatusCode)

	assert.Zero(t, liveProjections(db, scenario.ID))

	var remaining int64
	db.Model(&Models.ScenarioAssumption{}).Where("scenario_id = ?", scenario.ID).Count(&remaining)
	assert.Zero(t, remaining)
}

func TestCreateAssumptionRejectsDuplicateScope(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	scenario := seedScenario(t, db)

	body := Models.AssumptionRequest{Year: 2025, GrowthRate: 10}
	resp := doJSON(t, app, "POST", fmt.Sprintf("/scenarios/%d/assumptions", scenario.ID), body)
	require.Equal(t, 201, resp.StatusCode)

	resp = doJSON(t, app, "POST", fmt.Sprintf("/scenarios/%d/assumptions", scenario.ID), body)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestUpdateAssumptionRejectsOccupiedScope(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(db)
	scenario := seedScenario(t, db)

	customerID := uint(7)
	global := Models.ScenarioAssumption{
		ScenarioID: scenario.ID, Year: 2025, GrowthRate: 5,
		AdjustmentType: Models.AdjustmentPercentage,
	}
	scoped := Models.ScenarioAssumption{
		ScenarioID: scenario.ID, Year: 2025, CustomerID: &customerID, GrowthRate: 10,
		AdjustmentType: Models.AdjustmentPercentage,
	}
	require.NoError(t, db.Create(&global).Error)
	require.NoError(t, db.Create(&scoped).Error)

	// Moving the customer-scoped rule onto the global tuple would collide.
	resp := doJSON(t, app, "PUT", fmt.Sprintf("/assumptions/%d", scoped.ID),
		Models.AssumptionRequest{Year: 2025, GrowthRate: 10})
	assert.Equal(t, 409, resp.StatusCode)

	// Updating in place, keeping its own tuple, is fine.
	resp = doJSON(t, app, "PUT", fmt.Sprintf("/assumptions/%d", scoped.ID),
		Models.AssumptionRequest{Year: 2025, CustomerID: &customerID, GrowthRate: 20})
	assert.Equal(t, 200, resp.StatusCode)

	var updated Models.ScenarioAssumption
	require.NoError(t, db.First(&updated, scoped.ID).Error)
	assert.Equal(t, 20.0, updated.GrowthRate)
}
