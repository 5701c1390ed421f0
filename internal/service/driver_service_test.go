package service

import (
	"context"
	"sync"
	"testing"

	"github.com/aditya/go-carpool/internal/models"
)

func newDriverEnv() (*memStore, DriverService, BookingService) {
	store := newMemStore()
	driverSvc := NewDriverService(&fakeDriverRepo{store}, &fakeUserRepo{store})
	bookingSvc := NewBookingService(&fakeBookingRepo{store}, &fakeRideRepo{store}, &fakeDriverRepo{store}, nil)
	return store, driverSvc, bookingSvc
}

func TestCreateDriverProfile(t *testing.T) {
	store, driverSvc, _ := newDriverEnv()
	ctx := context.Background()

	user := store.addUser(models.RoleDriver, false)
	driver, err := driverSvc.CreateDriver(ctx, principalFor(user), &models.CreateDriverRequest{
		VehicleNumber:  "KA05MX9921",
		AvailableSeats: 4,
	})
	if err != nil {
		t.Fatalf("CreateDriver() error = %v", err)
	}
	if driver.IsApproved {
		t.Error("new driver must start unapproved")
	}

	// One profile per account.
	_, err = driverSvc.CreateDriver(ctx, principalFor(user), &models.CreateDriverRequest{
		VehicleNumber:  "KA05MX9922",
		AvailableSeats: 2,
	})
	if code := apiCode(t, err); code != "conflict" {
		t.Errorf("error code = %q, want conflict", code)
	}
}

func TestCreateDriverRiderRejected(t *testing.T) {
	store, driverSvc, _ := newDriverEnv()
	ctx := context.Background()

	user := store.addUser(models.RoleRider, false)
	_, err := driverSvc.CreateDriver(ctx, principalFor(user), &models.CreateDriverRequest{
		VehicleNumber:  "KA05MX9921",
		AvailableSeats: 4,
	})
	if code := apiCode(t, err); code != "unauthorized" {
		t.Errorf("error code = %q, want unauthorized", code)
	}
}

func TestApproveDriverAdminOnly(t *testing.T) {
	store, driverSvc, _ := newDriverEnv()
	ctx := context.Background()

	user := store.addUser(models.RoleDriver, false)
	profile := store.addDriver(user.ID, 4, false)

	_, err := driverSvc.Approve(ctx, principalFor(user), profile.ID)
	if code := apiCode(t, err); code != "forbidden" {
		t.Errorf("error code = %q, want forbidden", code)
	}

	admin := store.addUser(models.RoleAdmin, false)
	approved, err := driverSvc.Approve(ctx, principalFor(admin), profile.ID)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if !approved.IsApproved {
		t.Error("driver not approved after admin approval")
	}
}

func TestUpdateSeatsBelowBookings(t *testing.T) {
	store, driverSvc, bookingSvc := newDriverEnv()
	ctx := context.Background()

	user := store.addUser(models.RoleDriver, false)
	store.addDriver(user.ID, 4, true)
	ride := store.addRide(user.ID, 100)

	riderA := store.addUser(models.RoleRider, false)
	riderB := store.addUser(models.RoleRider, false)
	if _, err := bookingSvc.CreateBooking(ctx, principalFor(riderA), &models.CreateBookingRequest{RideID: ride.ID, Seats: 2}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := bookingSvc.CreateBooking(ctx, principalFor(riderB), &models.CreateBookingRequest{RideID: ride.ID, Seats: 1}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	// 3 seats are sold on an open ride; shrinking below that is refused.
	_, err := driverSvc.UpdateAvailableSeats(ctx, principalFor(user), &models.UpdateSeatsRequest{AvailableSeats: 2})
	if code := apiCode(t, err); code != "conflict" {
		t.Errorf("error code = %q, want conflict", code)
	}

	driver, err := driverSvc.UpdateAvailableSeats(ctx, principalFor(user), &models.UpdateSeatsRequest{AvailableSeats: 3})
	if err != nil {
		t.Fatalf("UpdateAvailableSeats(3) error = %v", err)
	}
	if driver.AvailableSeats != 3 {
		t.Errorf("available seats = %d, want 3", driver.AvailableSeats)
	}
}

// Shrinking capacity races against bookings grabbing seats on the same
// driver. Whichever interleaving wins, no ride may end up holding more
// live seats than the driver's final capacity.
func TestUpdateSeatsConcurrentWithBookings(t *testing.T) {
	const rounds = 50

	for round := 0; round < rounds; round++ {
		store, driverSvc, bookingSvc := newDriverEnv()
		ctx := context.Background()

		user := store.addUser(models.RoleDriver, false)
		store.addDriver(user.ID, 4, true)
		ride := store.addRide(user.ID, 100)

		const riders = 4
		var wg sync.WaitGroup
		start := make(chan struct{})
		var shrinkErr error

		for i := 0; i < riders; i++ {
			rider := store.addUser(models.RoleRider, false)
			wg.Add(1)
			go func(p models.Principal) {
				defer wg.Done()
				<-start
				bookingSvc.CreateBooking(ctx, p, &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
			}(principalFor(rider))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, shrinkErr = driverSvc.UpdateAvailableSeats(ctx, principalFor(user), &models.UpdateSeatsRequest{AvailableSeats: 1})
		}()

		close(start)
		wg.Wait()

		booked, _ := (&fakeBookingRepo{store}).BookedSeats(ctx, ride.ID)
		profile, _ := (&fakeDriverRepo{store}).GetByUserID(ctx, user.ID)
		if booked > profile.AvailableSeats {
			t.Fatalf("round %d: %d seats booked with capacity %d (shrink err = %v)",
				round, booked, profile.AvailableSeats, shrinkErr)
		}
		if shrinkErr == nil && profile.AvailableSeats != 1 {
			t.Fatalf("round %d: shrink reported success but capacity = %d", round, profile.AvailableSeats)
		}
	}
}
