package main

import (
	"log"

	"github.com/joho/godotenv"

	"Forecast/CronJobs"
	"Forecast/FiberConfig"
	"Forecast/Models"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	Models.Connect()

	recalculator := CronJobs.NewScenarioRecalculator(Models.DB, false)
	if err := recalculator.Start(); err != nil {
		log.Printf("Failed to start scenario recalculation scheduler: %v", err)
	}
	defer recalculator.Stop()

	FiberConfig.FiberConfig(Models.DB)
}
