package Projections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Forecast/Models"
)

// Identifier values used throughout: growth rate doubles as a marker for
// which specificity level a seeded assumption sits at.
const (
	testCustomer = uint(11)
	testType     = uint(22)
	testGroup    = uint(33)
	testProduct  = uint(44)
)

func seedAssumption(t *testing.T, db *gorm.DB, scenarioID uint, year int, growth float64,
	customer, customerType, group, product *uint) *Models.ScenarioAssumption {
	t.Helper()
	assumption := Models.ScenarioAssumption{
		ScenarioID:      scenarioID,
		Year:            year,
		CustomerID:      customer,
		CustomerTypeID:  customerType,
		BusinessGroupID: group,
		ProductID:       product,
		GrowthRate:      growth,
		AdjustmentType:  Models.AdjustmentPercentage,
	}
	require.NoError(t, db.Create(&assumption).Error)
	return &assumption
}

func fullDims() Dimensions {
	return Dimensions{
		CustomerID:      ptr(testCustomer),
		CustomerTypeID:  ptr(testType),
		BusinessGroupID: ptr(testGroup),
		ProductID:       ptr(testProduct),
	}
}

// seedAllLevels creates one assumption per specificity level, growth rate 1-8
// marking the level.
func seedAllLevels(t *testing.T, db *gorm.DB, scenarioID uint, year int) {
	seedAssumption(t, db, scenarioID, year, 1, ptr(testCustomer), nil, nil, ptr(testProduct))
	seedAssumption(t, db, scenarioID, year, 2, ptr(testCustomer), nil, nil, nil)
	seedAssumption(t, db, scenarioID, year, 3, nil, nil, ptr(testGroup), ptr(testProduct))
	seedAssumption(t, db, scenarioID, year, 4, nil, nil, ptr(testGroup), nil)
	seedAssumption(t, db, scenarioID, year, 5, nil, ptr(testType), nil, ptr(testProduct))
	seedAssumption(t, db, scenarioID, year, 6, nil, ptr(testType), nil, nil)
	seedAssumption(t, db, scenarioID, year, 7, nil, nil, nil, ptr(testProduct))
	seedAssumption(t, db, scenarioID, year, 8, nil, nil, nil, nil)
}

func TestResolvePrecedenceOrder(t *testing.T) {
	db := newTestDB(t)
	scenario := seedScenario(t, db, 2024, 12, 3)
	seedAllLevels(t, db, scenario.ID, 2025)

	// With all levels present, each removal should expose the next one.
	for expected := 1.0; expected <= 8.0; expected++ {
		resolver, err := NewAssumptionResolver(db, scenario.ID)
		require.NoError(t, err)

		match := resolver.Resolve(2025, fullDims())
		require.NotNil(t, match, "expected a match at level %v", expected)
		assert.Equal(t, expected, match.GrowthRate)

		require.NoError(t, db.Unscoped().Delete(match).Error)
	}

	resolver, err := NewAssumptionResolver(db, scenario.ID)
	require.NoError(t, err)
	assert.Nil(t, resolver.Resolve(2025, fullDims()))
}

func TestResolveSkipsLevelsWithMissingDimensions(t *testing.T) {
	db := newTestDB(t)
	scenario := seedScenario(t, db, 2024, 12, 3)
	seedAllLevels(t, db, scenario.ID, 2025)

	resolver, err := NewAssumptionResolver(db, scenario.ID)
	require.NoError(t, err)

	// No product: levels 1, 3, 5, 7 are skipped, so customer-only wins.
	noProduct := fullDims()
	noProduct.ProductID = nil
	match := resolver.Resolve(2025, noProduct)
	require.NotNil(t, match)
	assert.Equal(t, 2.0, match.GrowthRate)

	// Product only: levels requiring customer, group, or type are skipped.
	productOnly := Dimensions{ProductID: ptr(testProduct)}
	match = resolver.Resolve(2025, productOnly)
	require.NotNil(t, match)
	assert.Equal(t, 7.0, match.GrowthRate)

	// Nothing supplied: only the global level can match.
	match = resolver.Resolve(2025, Dimensions{})
	require.NotNil(t, match)
	assert.Equal(t, 8.0, match.GrowthRate)
}

func TestResolveRequiresExactNullMatch(t *testing.T) {
	db := newTestDB(t)
	scenario := seedScenario(t, db, 2024, 12, 3)

	// A rule scoped to (type AND group) is not one of the 8 levels; it must
	// never satisfy a type-only or group-only lookup.
	seedAssumption(t, db, scenario.ID, 2025, 99, nil, ptr(testType), ptr(testGroup), nil)

	resolver, err := NewAssumptionResolver(db, scenario.ID)
	require.NoError(t, err)

	assert.Nil(t, resolver.Resolve(2025, Dimensions{CustomerTypeID: ptr(testType)}))
	assert.Nil(t, resolver.Resolve(2025, Dimensions{BusinessGroupID: ptr(testGroup)}))
	assert.Nil(t, resolver.Resolve(2025, fullDims()))
}

func TestResolveScopedToYear(t *testing.T) {
	db := newTestDB(t)
	scenario := seedScenario(t, db, 2024, 12, 3)
	seedAssumption(t, db, scenario.ID, 2025, 8, nil, nil, nil, nil)

	resolver, err := NewAssumptionResolver(db, scenario.ID)
	require.NoError(t, err)

	assert.NotNil(t, resolver.Resolve(2025, Dimensions{}))
	assert.Nil(t, resolver.Resolve(2026, Dimensions{}))
}

func TestResolveScopedToScenario(t *testing.T) {
	db := newTestDB(t)
	scenario := seedScenario(t, db, 2024, 12, 3)
	other := seedScenario(t, db, 2024, 12, 3)
	seedAssumption(t, db, other.ID, 2025, 8, nil, nil, nil, nil)

	resolver, err := NewAssumptionResolver(db, scenario.ID)
	require.NoError(t, err)
	assert.Nil(t, resolver.Resolve(2025, Dimensions{}))
}

func TestAllApplicableOrdersMostSpecificFirst(t *testing.T) {
	db := newTestDB(t)
	scenario := seedScenario(t, db, 2024, 12, 3)
	seedAllLevels(t, db, scenario.ID, 2025)

	resolver, err := NewAssumptionResolver(db, scenario.ID)
	require.NoError(t, err)

	matches := resolver.AllApplicable(2025, fullDims())
	require.Len(t, matches, 8)
	for i, match := range matches {
		assert.Equal(t, float64(i+1), match.GrowthRate)
	}

	// Without a product only the four product-free levels remain, still in
	// specificity order.
	noProduct := fullDims()
	noProduct.ProductID = nil
	matches = resolver.AllApplicable(2025, noProduct)
	require.Len(t, matches, 4)
	assert.Equal(t, []float64{2, 4, 6, 8}, []float64{
		matches[0].GrowthRate, matches[1].GrowthRate, matches[2].GrowthRate, matches[3].GrowthRate,
	})
}
