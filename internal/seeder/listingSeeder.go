package seeder

import (
	"context"
	"database/sql"
	"log"
)

// seedListings seeds a starter catalog of properties and green-energy
// equipment so a fresh environment has something to sell.
func (seeder *Seeder) seedListings() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	properties := []struct {
		Name        string
		Description string
		Price       float64
		Location    string
		Features    string
	}{
		{
			Name:        "Palm Grove Duplex",
			Description: "4-bedroom duplex in a serviced estate with 24/7 power",
			Price:       450_000,
			Location:    "Lekki, Lagos",
			Features:    `["4 bedrooms","2 parking spaces","fitted kitchen"]`,
		},
		{
			Name:        "Harbor View Apartments",
			Description: "2-bedroom waterfront apartment with gym and pool access",
			Price:       280_000,
			Location:    "Victoria Island, Lagos",
			Features:    `["2 bedrooms","gym","swimming pool"]`,
		},
		{
			Name:        "Cedar Heights Terrace",
			Description: "3-bedroom terrace in a gated community near the airport",
			Price:       320_000,
			Location:    "Abuja",
			Features:    `["3 bedrooms","gated community","garden"]`,
		},
	}

	for _, property := range properties {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO properties (name, description, price, location, features)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO NOTHING;`,
			property.Name, property.Description, property.Price, property.Location, property.Features,
		)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert property '%s': %v", property.Name, err)
		}
	}

	equipments := []struct {
		Name        string
		Description string
		Price       float64
		Features    string
	}{
		{
			Name:        "SolarMax 10kW Home Kit",
			Description: "10kW rooftop solar array with hybrid inverter and installation",
			Price:       18_500,
			Features:    `["10kW panels","hybrid inverter","installation included"]`,
		},
		{
			Name:        "PowerWall 15kWh Battery",
			Description: "15kWh lithium storage unit for day-night load shifting",
			Price:       9_800,
			Features:    `["15kWh capacity","10-year warranty"]`,
		},
		{
			Name:        "WindStream 5kW Turbine",
			Description: "5kW residential wind turbine for coastal and open sites",
			Price:       14_200,
			Features:    `["5kW rated output","low-noise blades"]`,
		},
	}

	for _, equipment := range equipments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO equipments (name, description, price, features)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING;`,
			equipment.Name, equipment.Description, equipment.Price, equipment.Features,
		)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert equipment '%s': %v", equipment.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}
}
