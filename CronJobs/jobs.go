package CronJobs

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"Forecast/Models"
	"Forecast/Projections"
)

// ScenarioRecalculator refreshes every active scenario's projections on a
// schedule so stored figures keep up with newly posted invoices.
type ScenarioRecalculator struct {
	cronScheduler  *cron.Cron
	db             *gorm.DB
	runImmediately bool
	jobID          cron.EntryID
}

// NewScenarioRecalculator creates a recalculator over the given database.
func NewScenarioRecalculator(db *gorm.DB, runImmediately bool) *ScenarioRecalculator {
	return &ScenarioRecalculator{
		cronScheduler:  cron.New(cron.WithSeconds()),
		db:             db,
		runImmediately: runImmediately,
	}
}

// Start schedules the nightly recalculation.
func (s *ScenarioRecalculator) Start() error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc("0 0 2 * * *", func() {
		log.Println("Running scheduled scenario recalculation")
		s.runRecalculation()
	})
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}

	s.cronScheduler.Start()
	fmt.Println("Scenario recalculation scheduler started - will run daily at 2:00 AM")

	if s.runImmediately {
		fmt.Println("Running initial scenario recalculation")
		s.runRecalculation()
	}
	return nil
}

// Stop terminates the scheduler.
func (s *ScenarioRecalculator) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
		log.Println("Scenario recalculation scheduler stopped")
	}
}

// UpdateSchedule changes the recalculation schedule.
// Format: "0 0 2 * * *" = At 02:00:00 AM every day
func (s *ScenarioRecalculator) UpdateSchedule(schedule string) error {
	s.cronScheduler.Remove(s.jobID)

	var err error
	s.jobID, err = s.cronScheduler.AddFunc(schedule, func() {
		log.Println("Running scheduled scenario recalculation")
		s.runRecalculation()
	})
	if err != nil {
		return fmt.Errorf("error rescheduling cron job: %w", err)
	}
	return nil
}

func (s *ScenarioRecalculator) runRecalculation() {
	var scenarios []Models.Scenario
	if err := s.db.Where("status = ?", Models.ScenarioStatusActive).Find(&scenarios).Error; err != nil {
		log.Printf("Failed to list active scenarios: %v", err)
		return
	}

	calculator := Projections.NewProjectionCalculator(s.db)
	for i := range scenarios {
		if err := calculator.CalculateForScenario(&scenarios[i]); err != nil {
			// One failed scenario must not block the rest of the batch.
			log.Printf("Scheduled recalculation failed for scenario %d: %v", scenarios[i].ID, err)
		}
	}
}
