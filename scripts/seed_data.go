//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/aditya/go-carpool/internal/config"
	"github.com/aditya/go-carpool/internal/database"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
)

var (
	firstNames = []string{"Rahul", "Priya", "Amit", "Sneha", "Vikram", "Anita", "Raj", "Neha", "Suresh", "Kavita",
		"Arun", "Deepa", "Kiran", "Meera", "Sanjay", "Ritu", "Vijay", "Pooja", "Manoj", "Swati"}
	lastNames    = []string{"Kumar", "Sharma", "Patel", "Singh", "Reddy", "Rao", "Gupta", "Joshi", "Nair", "Menon"}
	destinations = []string{"Koramangala", "Whitefield", "Electronic City", "Indiranagar", "HSR Layout",
		"Marathahalli", "Hebbal", "Jayanagar", "BTM Layout", "MG Road"}
)

func main() {
	rand.Seed(time.Now().UnixNano())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	userRepo := repository.NewUserRepository(db.DB)
	driverRepo := repository.NewDriverRepository(db.DB)
	rideRepo := repository.NewRideRepository(db.DB)
	bookingRepo := repository.NewBookingRepository(db.DB)

	// Riders
	log.Println("Creating 30 riders...")
	riderIDs := make([]string, 0)
	for i := 0; i < 30; i++ {
		user := &models.User{
			Phone: fmt.Sprintf("98%08d", rand.Intn(100000000)),
			Name:  randomName(),
			Role:  models.RoleRider,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("Failed to create rider: %v", err)
			continue
		}
		riderIDs = append(riderIDs, user.ID)
	}

	// Drivers with approved profiles
	log.Println("Creating 10 drivers...")
	driverUserIDs := make([]string, 0)
	for i := 0; i < 10; i++ {
		user := &models.User{
			Phone: fmt.Sprintf("97%08d", rand.Intn(100000000)),
			Name:  randomName(),
			Role:  models.RoleDriver,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("Failed to create driver user: %v", err)
			continue
		}

		driver := &models.Driver{
			UserID:         user.ID,
			VehicleNumber:  fmt.Sprintf("KA%02d%c%c%04d", rand.Intn(60), 'A'+rand.Intn(26), 'A'+rand.Intn(26), rand.Intn(10000)),
			AvailableSeats: 3 + rand.Intn(4),
		}
		if err := driverRepo.Create(ctx, driver); err != nil {
			log.Printf("Failed to create driver profile: %v", err)
			continue
		}
		if err := driverRepo.SetApproved(ctx, driver.ID, true); err != nil {
			log.Printf("Failed to approve driver: %v", err)
			continue
		}
		driverUserIDs = append(driverUserIDs, user.ID)
	}

	// Active rides
	log.Println("Creating 20 rides...")
	rideIDs := make([]string, 0)
	for i := 0; i < 20; i++ {
		ride := &models.Ride{
			DriverID:     driverUserIDs[rand.Intn(len(driverUserIDs))],
			Destination:  destinations[rand.Intn(len(destinations))],
			DepartureAt:  time.Now().Add(time.Duration(1+rand.Intn(72)) * time.Hour),
			PricePerSeat: float64(50 + rand.Intn(250)),
		}
		if err := rideRepo.Create(ctx, ride); err != nil {
			log.Printf("Failed to create ride: %v", err)
			continue
		}
		rideIDs = append(rideIDs, ride.ID)
	}

	// A few bookings to make the data interesting
	log.Println("Creating bookings...")
	created := 0
	for i := 0; i < 40; i++ {
		rideID := rideIDs[rand.Intn(len(rideIDs))]
		riderID := riderIDs[rand.Intn(len(riderIDs))]

		ride, err := rideRepo.GetByID(ctx, rideID)
		if err != nil || ride == nil {
			continue
		}

		seats := 1 + rand.Intn(2)
		booking := &models.Booking{
			RideID:  rideID,
			RiderID: riderID,
			Seats:   seats,
		}
		payment := &models.Payment{
			Amount: float64(seats) * ride.PricePerSeat,
			Method: models.PaymentMethodCash,
		}
		if err := bookingRepo.CreateConfirmed(ctx, booking, payment); err != nil {
			continue
		}
		created++
	}

	log.Printf("Seed complete: %d riders, %d drivers, %d rides, %d bookings",
		len(riderIDs), len(driverUserIDs), len(rideIDs), created)
}

func randomName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}
