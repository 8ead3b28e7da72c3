// Package seed builds the synthetic datasets served by the demo endpoints.
package seed

import (
	"math"
	"time"

	"fileshare/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// SalesRecordCount is the size of the generated sales dataset.
const SalesRecordCount = 100

// SalesWindow bounds how far back generated sale dates go.
const SalesWindow = 90 * 24 * time.Hour

var (
	salesProducts = []string{
		"Premium Headphones", "Wireless Keyboard", "Smart Watch", "Bluetooth Speaker", "Gaming Mouse",
		"USB-C Hub", "Laptop Stand", "Wireless Charger", "External SSD", "Webcam",
	}
	salesLocations = []string{
		"New York", "Los Angeles", "Chicago", "Houston", "Phoenix",
		"Philadelphia", "San Antonio", "San Diego", "Dallas", "San Jose",
	}
	salesUserNames = []string{
		"Alex Johnson", "Sam Smith", "Jordan Lee", "Taylor Brown", "Casey Williams",
		"Morgan Davis", "Riley Wilson", "Jamie Miller", "Avery Jones", "Quinn Thomas",
	}
)

// SalesProducts returns a copy of the product vocabulary.
func SalesProducts() []string { return append([]string(nil), salesProducts...) }

// SalesLocations returns a copy of the location vocabulary.
func SalesLocations() []string { return append([]string(nil), salesLocations...) }

// SalesUserNames returns a copy of the customer vocabulary.
func SalesUserNames() []string { return append([]string(nil), salesUserNames...) }

// GenerateSales builds SalesRecordCount records dated within SalesWindow before now.
// Pass gofakeit.New(0) for a random dataset or a fixed seed for a reproducible one.
func GenerateSales(faker *gofakeit.Faker, now time.Time) []models.SalesRecord {
	records := make([]models.SalesRecord, 0, SalesRecordCount)
	for i := 1; i <= SalesRecordCount; i++ {
		back := time.Duration(faker.Float64Range(0, float64(SalesWindow)))
		records = append(records, models.SalesRecord{
			ID:       uint(i),
			Product:  faker.RandomString(salesProducts),
			Amount:   roundCents(faker.Float64Range(0, 1)*1000 + 50),
			Date:     now.Add(-back).UTC().Format(models.SalesDateLayout),
			Location: faker.RandomString(salesLocations),
			UserName: faker.RandomString(salesUserNames),
		})
	}
	return records
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
