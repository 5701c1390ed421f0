package service

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
)

func newBookingEnv() (*memStore, BookingService) {
	store := newMemStore()
	svc := NewBookingService(
		&fakeBookingRepo{store},
		&fakeRideRepo{store},
		&fakeDriverRepo{store},
		nil,
	)
	return store, svc
}

func apiCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*apperrors.APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	return apiErr.Code
}

func TestCreateBooking(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)
	rider := store.addUser(models.RoleRider, false)

	booking, err := svc.CreateBooking(ctx, principalFor(rider), &models.CreateBookingRequest{
		RideID: ride.ID,
		Seats:  2,
	})
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}
	if booking.Status != models.BookingStatusConfirmed {
		t.Errorf("booking status = %q, want confirmed", booking.Status)
	}

	// The pending payment is created in the same operation, priced at
	// seats times price per seat.
	payment := store.paymentForBooking(booking.ID)
	if payment == nil {
		t.Fatal("expected a payment for the booking")
	}
	if payment.Status != models.PaymentStatusPending {
		t.Errorf("payment status = %q, want pending", payment.Status)
	}
	if payment.Amount != 200 {
		t.Errorf("payment amount = %v, want 200", payment.Amount)
	}
}

func TestCreateBookingCapacity(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)

	// A takes 2, B takes 1; C wants 2 but only 1 remains.
	riderA := store.addUser(models.RoleRider, false)
	riderB := store.addUser(models.RoleRider, false)
	riderC := store.addUser(models.RoleRider, false)

	if _, err := svc.CreateBooking(ctx, principalFor(riderA), &models.CreateBookingRequest{RideID: ride.ID, Seats: 2}); err != nil {
		t.Fatalf("rider A booking failed: %v", err)
	}
	if _, err := svc.CreateBooking(ctx, principalFor(riderB), &models.CreateBookingRequest{RideID: ride.ID, Seats: 1}); err != nil {
		t.Fatalf("rider B booking failed: %v", err)
	}

	_, err := svc.CreateBooking(ctx, principalFor(riderC), &models.CreateBookingRequest{RideID: ride.ID, Seats: 2})
	if code := apiCode(t, err); code != "insufficient_seats" {
		t.Errorf("error code = %q, want insufficient_seats", code)
	}

	// The last seat is still bookable.
	if _, err := svc.CreateBooking(ctx, principalFor(riderC), &models.CreateBookingRequest{RideID: ride.ID, Seats: 1}); err != nil {
		t.Fatalf("rider C single-seat booking failed: %v", err)
	}
}

func TestCreateBookingConcurrent(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)

	const riders = 12
	var wg sync.WaitGroup
	errs := make([]error, riders)

	for i := 0; i < riders; i++ {
		rider := store.addUser(models.RoleRider, false)
		wg.Add(1)
		go func(i int, p models.Principal) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(ctx, p, &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
		}(i, principalFor(rider))
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 4 {
		t.Errorf("confirmed bookings = %d, want exactly the driver's 4 seats", succeeded)
	}

	booked, _ := (&fakeBookingRepo{store}).BookedSeats(ctx, ride.ID)
	if booked != 4 {
		t.Errorf("booked seats = %d, want 4", booked)
	}
}

func TestCreateBookingSeatNumberRace(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)

	seat := 2
	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		rider := store.addUser(models.RoleRider, false)
		wg.Add(1)
		go func(i int, p models.Principal) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(ctx, p, &models.CreateBookingRequest{
				RideID:     ride.ID,
				Seats:      1,
				SeatNumber: &seat,
			})
		}(i, principalFor(rider))
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("winners for seat %d = %d, want 1", seat, succeeded)
	}
}

func TestCreateBookingDuplicateRider(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)
	rider := store.addUser(models.RoleRider, false)
	p := principalFor(rider)

	first, err := svc.CreateBooking(ctx, p, &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err = svc.CreateBooking(ctx, p, &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
	if code := apiCode(t, err); code != "duplicate_booking" {
		t.Errorf("error code = %q, want duplicate_booking", code)
	}

	// Cancelling clears the way for a fresh booking on the same ride.
	if _, err := svc.CancelBooking(ctx, p, first.ID); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}
	if _, err := svc.CreateBooking(ctx, p, &models.CreateBookingRequest{RideID: ride.ID, Seats: 1}); err != nil {
		t.Fatalf("rebooking after cancel failed: %v", err)
	}
}

func TestCreateBookingInactiveRide(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)

	store.mu.Lock()
	store.rides[ride.ID].Status = models.RideStatusCompleted
	store.mu.Unlock()

	rider := store.addUser(models.RoleRider, false)
	_, err := svc.CreateBooking(ctx, principalFor(rider), &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
	if code := apiCode(t, err); code != "ride_not_active" {
		t.Errorf("error code = %q, want ride_not_active", code)
	}
}

func TestCreateBookingSuspendedRider(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)

	rider := store.addUser(models.RoleRider, true)
	_, err := svc.CreateBooking(ctx, principalFor(rider), &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
	if code := apiCode(t, err); code != "account_suspended" {
		t.Errorf("error code = %q, want account_suspended", code)
	}
}

func TestCancelBookingKeepsPayment(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)
	rider := store.addUser(models.RoleRider, false)
	p := principalFor(rider)

	booking, err := svc.CreateBooking(ctx, p, &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	payment := store.paymentForBooking(booking.ID)
	paymentRepo := &fakePaymentRepo{store}
	if ok, _ := paymentRepo.MarkCompleted(ctx, payment.ID, models.PaymentMethodCash); !ok {
		t.Fatal("MarkCompleted() = false, want true")
	}

	// Direct cancellation does not refund; only the decline and cascade
	// paths do.
	if _, err := svc.CancelBooking(ctx, p, booking.ID); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}

	payment = store.paymentForBooking(booking.ID)
	if payment.Status != models.PaymentStatusCompleted {
		t.Errorf("payment status after cancel = %q, want completed", payment.Status)
	}
}

func TestCancelBookingTwice(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)
	rider := store.addUser(models.RoleRider, false)
	p := principalFor(rider)

	booking, err := svc.CreateBooking(ctx, p, &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}

	if _, err := svc.CancelBooking(ctx, p, booking.ID); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	_, err = svc.CancelBooking(ctx, p, booking.ID)
	if code := apiCode(t, err); code != "invalid_transition" {
		t.Errorf("error code = %q, want invalid_transition", code)
	}
}

func TestUpdatePickupTimesBatch(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)
	otherRide := store.addRide(driver.ID, 100)

	riderA := store.addUser(models.RoleRider, false)
	riderB := store.addUser(models.RoleRider, false)

	onRide, err := svc.CreateBooking(ctx, principalFor(riderA), &models.CreateBookingRequest{RideID: ride.ID, Seats: 1})
	if err != nil {
		t.Fatalf("booking on ride failed: %v", err)
	}
	offRide, err := svc.CreateBooking(ctx, principalFor(riderB), &models.CreateBookingRequest{RideID: otherRide.ID, Seats: 1})
	if err != nil {
		t.Fatalf("booking on other ride failed: %v", err)
	}

	pickup := time.Now().Add(12 * time.Hour)
	result, err := svc.UpdatePickupTimes(ctx, principalFor(driver), ride.ID, []models.PickupUpdate{
		{BookingID: onRide.ID, PickupTime: pickup, PickupLocation: "Silk Board"},
		{BookingID: offRide.ID, PickupTime: pickup},
	})
	if err != nil {
		t.Fatalf("UpdatePickupTimes() error = %v", err)
	}

	if len(result.Updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(result.Updated))
	}
	if result.Updated[0].ID != onRide.ID {
		t.Errorf("updated booking = %s, want %s", result.Updated[0].ID, onRide.ID)
	}
	if len(result.SkippedIDs) != 1 || result.SkippedIDs[0] != offRide.ID {
		t.Errorf("skipped = %v, want [%s]", result.SkippedIDs, offRide.ID)
	}

	got := store.booking(onRide.ID)
	if got.PickupTime == nil || !got.PickupTime.Equal(pickup) {
		t.Errorf("pickup time = %v, want %v", got.PickupTime, pickup)
	}
	if got.PickupLocation == nil || *got.PickupLocation != "Silk Board" {
		t.Errorf("pickup location = %v, want Silk Board", got.PickupLocation)
	}
}

func TestUpdatePickupTimesNotDriver(t *testing.T) {
	store, svc := newBookingEnv()
	ctx := context.Background()

	driver := store.addUser(models.RoleDriver, false)
	store.addDriver(driver.ID, 4, true)
	ride := store.addRide(driver.ID, 100)

	stranger := store.addUser(models.RoleRider, false)
	_, err := svc.UpdatePickupTimes(ctx, principalFor(stranger), ride.ID, []models.PickupUpdate{
		{BookingID: "ignored", PickupTime: time.Now()},
	})
	if code := apiCode(t, err); code != "unauthorized" {
		t.Errorf("error code = %q, want unauthorized", code)
	}
}
