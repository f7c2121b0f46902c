package Projections

import (
	"fmt"

	"gorm.io/gorm"

	"Forecast/Models"
)

// Dimensions identifies the entity a rule lookup is scoped to. A nil field
// means the caller has no value for that dimension, and every specificity
// level requiring it is skipped, never matched against NULL.
type Dimensions struct {
	CustomerID      *uint
	CustomerTypeID  *uint
	BusinessGroupID *uint
	ProductID       *uint
}

// dimKey is the full dimension tuple an assumption row is stored under.
// Zero means the column is NULL; real identifiers are always positive.
type dimKey struct {
	customer      uint
	customerType  uint
	businessGroup uint
	product       uint
}

// AssumptionResolver finds the single most specific assumption for a
// (year, dimensions) query. All of a scenario's assumptions are loaded once
// and indexed by their exact dimension tuple, so each of the 8 specificity
// levels is an O(1) map probe instead of a database round-trip. The unique
// constraint on the tuple guarantees at most one row per level.
type AssumptionResolver struct {
	scenarioID uint
	byYear     map[int]map[dimKey]*Models.ScenarioAssumption
}

// NewAssumptionResolver loads and indexes every assumption of the scenario.
func NewAssumptionResolver(db *gorm.DB, scenarioID uint) (*AssumptionResolver, error) {
	var assumptions []Models.ScenarioAssumption
	if err := db.Where("scenario_id = ?", scenarioID).Find(&assumptions).Error; err != nil {
		return nil, fmt.Errorf("failed to load assumptions for scenario %d: %w", scenarioID, err)
	}

	resolver := &AssumptionResolver{
		scenarioID: scenarioID,
		byYear:     make(map[int]map[dimKey]*Models.ScenarioAssumption),
	}
	for i := range assumptions {
		a := &assumptions[i]
		index, exists := resolver.byYear[a.Year]
		if !exists {
			index = make(map[dimKey]*Models.ScenarioAssumption)
			resolver.byYear[a.Year] = index
		}
		index[dimKey{
			customer:      deref(a.CustomerID),
			customerType:  deref(a.CustomerTypeID),
			businessGroup: deref(a.BusinessGroupID),
			product:       deref(a.ProductID),
		}] = a
	}
	return resolver, nil
}

// Specificity levels, most specific first. A level yields a candidate key
// only when every dimension it requires is present in the input; dimensions
// the level does not use are forced to NULL in the key, so a broader row can
// never satisfy a narrower query by accident.
var specificityLevels = []func(d Dimensions) (dimKey, bool){
	// 1. customer + product
	func(d Dimensions) (dimKey, bool) {
		if d.CustomerID == nil || d.ProductID == nil {
			return dimKey{}, false
		}
		return dimKey{customer: *d.CustomerID, product: *d.ProductID}, true
	},
	// 2. customer only
	func(d Dimensions) (dimKey, bool) {
		if d.CustomerID == nil {
			return dimKey{}, false
		}
		return dimKey{customer: *d.CustomerID}, true
	},
	// 3. business group + product
	func(d Dimensions) (dimKey, bool) {
		if d.BusinessGroupID == nil || d.ProductID == nil {
			return dimKey{}, false
		}
		return dimKey{businessGroup: *d.BusinessGroupID, product: *d.ProductID}, true
	},
	// 4. business group only
	func(d Dimensions) (dimKey, bool) {
		if d.BusinessGroupID == nil {
			return dimKey{}, false
		}
		return dimKey{businessGroup: *d.BusinessGroupID}, true
	},
	// 5. customer type + product
	func(d Dimensions) (dimKey, bool) {
		if d.CustomerTypeID == nil || d.ProductID == nil {
			return dimKey{}, false
		}
		return dimKey{customerType: *d.CustomerTypeID, product: *d.ProductID}, true
	},
	// 6. customer type only
	func(d Dimensions) (dimKey, bool) {
		if d.CustomerTypeID == nil {
			return dimKey{}, false
		}
		return dimKey{customerType: *d.CustomerTypeID}, true
	},
	// 7. product only
	func(d Dimensions) (dimKey, bool) {
		if d.ProductID == nil {
			return dimKey{}, false
		}
		return dimKey{product: *d.ProductID}, true
	},
	// 8. global
	func(d Dimensions) (dimKey, bool) {
		return dimKey{}, true
	},
}

// Resolve returns the assumption from the most specific matching level, or
// nil when no level matches. More specific knowledge about a named customer
// always overrides broader knowledge about its type or group.
func (r *AssumptionResolver) Resolve(year int, dims Dimensions) *Models.ScenarioAssumption {
	index := r.byYear[year]
	if index == nil {
		return nil
	}
	for _, level := range specificityLevels {
		key, ok := level(dims)
		if !ok {
			continue
		}
		if assumption, found := index[key]; found {
			return assumption
		}
	}
	return nil
}

// AllApplicable walks the same levels but collects every match instead of
// stopping at the first, most specific first. Used for diagnostics so a user
// can see which broader rules a specific one is shadowing.
func (r *AssumptionResolver) AllApplicable(year int, dims Dimensions) []*Models.ScenarioAssumption {
	index := r.byYear[year]
	if index == nil {
		return nil
	}
	var matches []*Models.ScenarioAssumption
	for _, level := range specificityLevels {
		key, ok := level(dims)
		if !ok {
			continue
		}
		if assumption, found := index[key]; found {
			matches = append(matches, assumption)
		}
	}
	return matches
}

func deref(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
