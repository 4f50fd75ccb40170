package service

import (
	"context"
	"fmt"
	"time"

	"airline-reservation/internal/models"
	"airline-reservation/internal/reservation"
)

type sampleFlight struct {
	code, name, origin, destination string
	dayOffset, depHour, depMin       int
	duration                         time.Duration
	executive, economy               int
	fares                            models.Fares
}

var sampleFlights = []sampleFlight{
	{"AI101", "Air India", "Delhi", "Mumbai", 1, 8, 0, 2 * time.Hour, 20, 150,
		models.Fares{Executive: 8500, Economy: 4500, Business: 12750}},
	{"AI102", "Air India", "Mumbai", "Delhi", 1, 14, 0, 2 * time.Hour, 30, 120,
		models.Fares{Executive: 8200, Economy: 4300, Business: 12300}},
	{"SG201", "SpiceJet", "Delhi", "Bangalore", 2, 9, 0, 150 * time.Minute, 15, 130,
		models.Fares{Executive: 9100, Economy: 5200, Business: 13650}},
	{"6E301", "IndiGo", "Delhi", "Chennai", 2, 10, 0, 150 * time.Minute, 25, 140,
		models.Fares{Executive: 8800, Economy: 4900, Business: 13200}},
}

var sampleCustomers = []models.Customer{
	{
		Name: "Lerato Lesholu", ContactName: "Mohale Makubela", Gender: "Male",
		DateOfBirth: models.NewDate(1985, time.May, 15), Address: "123 Main St, New York",
		Phone: "1234567890", Profession: "Software Engineer", Concession: "None",
	},
	{
		Name: "Katleho Rothi", ContactName: "Thato Rothi", Gender: "Female",
		DateOfBirth: models.NewDate(1978, time.August, 22), Address: "Thabong, Maseru",
		Phone: "0987654321", Profession: "Doctor", Concession: "Senior Citizen",
	},
	{
		Name: "Thato Mphama", ContactName: "Botle Thakholi", Gender: "Female",
		DateOfBirth: models.NewDate(1995, time.March, 10), Address: "Roma, Motse_mocha",
		Phone: "1122334455", Profession: "Student", Concession: "Student",
	},
}

// SeedSampleData loads the demo flights and customers into an empty store.
// Departures are relative to now. A store that already has flights is left
// alone and seeded reports false.
func SeedSampleData(ctx context.Context, store *reservation.Store, now time.Time) (seeded bool, err error) {
	existing, err := store.ListFlights(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, sf := range sampleFlights {
		day := now.AddDate(0, 0, sf.dayOffset)
		dep := time.Date(day.Year(), day.Month(), day.Day(), sf.depHour, sf.depMin, 0, 0, now.Location())
		_, err := store.CreateFlight(ctx, models.Flight{
			Code:        sf.code,
			Name:        sf.name,
			Origin:      sf.origin,
			Destination: sf.destination,
			Departure:   dep,
			Arrival:     dep.Add(sf.duration),
			Seats:       models.SeatInventory{Executive: sf.executive, Economy: sf.economy},
			Fares:       sf.fares,
		})
		if err != nil {
			return false, fmt.Errorf("failed to seed flight %s: %w", sf.code, err)
		}
	}
	for _, c := range sampleCustomers {
		if _, err := store.CreateCustomer(ctx, c); err != nil {
			return false, fmt.Errorf("failed to seed customer %s: %w", c.Name, err)
		}
	}
	return true, nil
}
