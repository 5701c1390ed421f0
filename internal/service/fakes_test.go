package service

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/repository"
	"github.com/google/uuid"
)

// memStore backs the fake repositories. The single mutex stands in for the
// row locks the real repositories take, which keeps the compound operations
// atomic under the concurrency tests.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	drivers  map[string]*models.Driver
	rides    map[string]*models.Ride
	bookings map[string]*models.Booking
	payments map[string]*models.Payment
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*models.User),
		drivers:  make(map[string]*models.Driver),
		rides:    make(map[string]*models.Ride),
		bookings: make(map[string]*models.Booking),
		payments: make(map[string]*models.Payment),
	}
}

func (s *memStore) addUser(role string, suspended bool) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.New().String(), Phone: uuid.New().String()[:10], Name: "test", Role: role, Suspended: suspended}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addDriver(userID string, seats int, approved bool) *models.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &models.Driver{ID: uuid.New().String(), UserID: userID, VehicleNumber: "KA01AB1234", AvailableSeats: seats, IsApproved: approved}
	s.drivers[d.ID] = d
	return d
}

func (s *memStore) addRide(driverID string, price float64) *models.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &models.Ride{
		ID:           uuid.New().String(),
		DriverID:     driverID,
		Destination:  "Whitefield",
		DepartureAt:  time.Now().Add(24 * time.Hour),
		PricePerSeat: price,
		Status:       models.RideStatusActive,
	}
	s.rides[r.ID] = r
	return r
}

func (s *memStore) paymentForBooking(bookingID string) *models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (s *memStore) booking(id string) *models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

func principalFor(u *models.User) models.Principal {
	return models.Principal{UserID: u.ID, Role: u.Role, Suspended: u.Suspended}
}

// --- booking repository fake ---

type fakeBookingRepo struct {
	store *memStore
}

func (r *fakeBookingRepo) CreateConfirmed(ctx context.Context, booking *models.Booking, payment *models.Payment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ride, ok := s.rides[booking.RideID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if ride.Status != models.RideStatusActive {
		return apperrors.ErrRideNotActive
	}

	var capacity int
	found := false
	for _, d := range s.drivers {
		if d.UserID == ride.DriverID {
			capacity = d.AvailableSeats
			found = true
			break
		}
	}
	if !found {
		return apperrors.ErrNotFound
	}

	booked := 0
	for _, b := range s.bookings {
		if b.RideID != booking.RideID || b.Status == models.BookingStatusCancelled {
			continue
		}
		booked += b.Seats
		if b.RiderID == booking.RiderID {
			return apperrors.ErrDuplicateBooking
		}
		if booking.SeatNumber != nil && b.SeatNumber != nil && *b.SeatNumber == *booking.SeatNumber {
			return apperrors.ErrSeatTaken
		}
	}

	if booked+booking.Seats > capacity {
		return apperrors.ErrInsufficientSeats
	}

	booking.ID = uuid.New().String()
	booking.Status = models.BookingStatusConfirmed
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	cp := *booking
	s.bookings[booking.ID] = &cp

	payment.ID = uuid.New().String()
	payment.BookingID = booking.ID
	payment.Status = models.PaymentStatusPending
	pcp := *payment
	s.payments[payment.ID] = &pcp

	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.store.booking(id), nil
}

func (r *fakeBookingRepo) ListByRideID(ctx context.Context, rideID string) ([]models.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.RideID == rideID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByRiderID(ctx context.Context, riderID string) ([]models.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.RiderID == riderID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByDriverID(ctx context.Context, driverID string) ([]models.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if ride, ok := s.rides[b.RideID]; ok && ride.DriverID == driverID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) BookedSeats(ctx context.Context, rideID string) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	booked := 0
	for _, b := range s.bookings {
		if b.RideID == rideID && b.Status != models.BookingStatusCancelled {
			booked += b.Seats
		}
	}
	return booked, nil
}

func (r *fakeBookingRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeBookingRepo) UpdatePickup(ctx context.Context, id string, pickupTime *time.Time, pickupLocation *string) (*models.Booking, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	if pickupTime != nil {
		t := *pickupTime
		b.PickupTime = &t
	}
	if pickupLocation != nil {
		loc := *pickupLocation
		b.PickupLocation = &loc
	}
	b.UpdatedAt = time.Now()
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) RequestAmount(ctx context.Context, id string, amount float64) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != models.BookingStatusConfirmed {
		return false, nil
	}
	if b.AdditionalAmountStatus != nil && *b.AdditionalAmountStatus == models.AmountRequestPending {
		return false, nil
	}
	pending := models.AmountRequestPending
	b.AdditionalAmount = &amount
	b.AdditionalAmountStatus = &pending
	b.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeBookingRepo) AcceptAmount(ctx context.Context, id string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != models.BookingStatusConfirmed || !b.HasPendingAmountRequest() {
		return false, nil
	}
	accepted := models.AmountRequestAccepted
	b.AdditionalAmountStatus = &accepted
	b.UpdatedAt = time.Now()
	for _, p := range s.payments {
		if p.BookingID == id {
			p.Amount += *b.AdditionalAmount
		}
	}
	return true, nil
}

func (r *fakeBookingRepo) DeclineAmount(ctx context.Context, id string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != models.BookingStatusConfirmed || !b.HasPendingAmountRequest() {
		return false, nil
	}
	declined := models.AmountRequestDeclined
	b.AdditionalAmountStatus = &declined
	b.Status = models.BookingStatusCancelled
	b.UpdatedAt = time.Now()
	for _, p := range s.payments {
		if p.BookingID == id && p.Status == models.PaymentStatusCompleted {
			p.Status = models.PaymentStatusRefunded
		}
	}
	return true, nil
}

func (r *fakeBookingRepo) ForceCancel(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	b.Status = models.BookingStatusCancelled
	b.UpdatedAt = time.Now()
	for _, p := range s.payments {
		if p.BookingID == id && p.Status == models.PaymentStatusCompleted {
			p.Status = models.PaymentStatusRefunded
		}
	}
	return nil
}

// --- ride repository fake ---

type fakeRideRepo struct {
	store *memStore
}

func (r *fakeRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	ride.ID = uuid.New().String()
	ride.Status = models.RideStatusActive
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = ride.CreatedAt
	cp := *ride
	s.rides[ride.ID] = &cp
	return nil
}

func (r *fakeRideRepo) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if ride, ok := s.rides[id]; ok {
		cp := *ride
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRideRepo) ListActive(ctx context.Context) ([]models.Ride, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Ride
	for _, ride := range s.rides {
		if ride.Status == models.RideStatusActive {
			out = append(out, *ride)
		}
	}
	return out, nil
}

func (r *fakeRideRepo) ListByDriverID(ctx context.Context, driverID string) ([]models.Ride, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Ride
	for _, ride := range s.rides {
		if ride.DriverID == driverID {
			out = append(out, *ride)
		}
	}
	return out, nil
}

func (r *fakeRideRepo) UpdateAndSettle(ctx context.Context, id string, patch *models.UpdateRideRequest) (*models.SettlementResult, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ride, ok := s.rides[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	prevStatus := ride.Status

	if patch.Status != nil && *patch.Status != prevStatus {
		if !ride.CanTransitionTo(*patch.Status) {
			return nil, apperrors.ErrInvalidTransition
		}
		ride.Status = *patch.Status
	} else if patch.Status != nil && prevStatus != models.RideStatusActive {
		return nil, apperrors.ErrInvalidTransition
	}

	if patch.Destination != nil {
		ride.Destination = *patch.Destination
	}
	if patch.DepartureAt != nil {
		ride.DepartureAt = *patch.DepartureAt
	}
	if patch.PricePerSeat != nil {
		ride.PricePerSeat = *patch.PricePerSeat
	}
	ride.UpdatedAt = time.Now()

	cp := *ride
	result := &models.SettlementResult{Ride: &cp}

	if prevStatus == models.RideStatusActive && ride.Status == models.RideStatusCompleted {
		var earnings float64
		for _, b := range s.bookings {
			if b.RideID != id || b.Status != models.BookingStatusConfirmed {
				continue
			}
			b.Status = models.BookingStatusCompleted
			result.CompletedBookings++
			for _, p := range s.payments {
				if p.BookingID == b.ID && p.Status == models.PaymentStatusCompleted {
					earnings += p.Amount
				}
			}
		}
		if earnings > 0 {
			for _, d := range s.drivers {
				if d.UserID == ride.DriverID {
					d.TotalEarnings += earnings
				}
			}
		}
		result.Settled = true
		result.SettledEarnings = earnings
	}

	return result, nil
}

func (r *fakeRideRepo) DeleteCascade(ctx context.Context, id string) (*models.CascadeResult, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ride, ok := s.rides[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	result := &models.CascadeResult{}
	for _, b := range s.bookings {
		if b.RideID != id || b.Status == models.BookingStatusCancelled {
			continue
		}
		for _, p := range s.payments {
			if p.BookingID == b.ID && p.Status == models.PaymentStatusCompleted {
				p.Status = models.PaymentStatusRefunded
				result.RefundedPayments++
			}
		}
		b.Status = models.BookingStatusCancelled
		result.CancelledBookings++
	}
	ride.Status = models.RideStatusCancelled
	return result, nil
}

// --- driver repository fake ---

type fakeDriverRepo struct {
	store *memStore
}

func (r *fakeDriverRepo) Create(ctx context.Context, driver *models.Driver) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	driver.ID = uuid.New().String()
	cp := *driver
	s.drivers[driver.ID] = &cp
	return nil
}

func (r *fakeDriverRepo) GetByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.drivers {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDriverRepo) GetByID(ctx context.Context, id string) (*models.Driver, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drivers[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeDriverRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drivers[id]; ok {
		d.IsApproved = approved
	}
	return nil
}

func (r *fakeDriverRepo) UpdateAvailableSeats(ctx context.Context, userID string, seats int) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check and write under the same lock, as the SQL implementation does
	// with its driver row lock.
	perRide := make(map[string]int)
	for _, b := range s.bookings {
		ride, ok := s.rides[b.RideID]
		if !ok || ride.DriverID != userID || ride.Status != models.RideStatusActive {
			continue
		}
		if b.Status != models.BookingStatusCancelled {
			perRide[b.RideID] += b.Seats
		}
	}
	for _, n := range perRide {
		if seats < n {
			return false, nil
		}
	}

	for _, d := range s.drivers {
		if d.UserID == userID {
			d.AvailableSeats = seats
		}
	}
	return true, nil
}

// --- payment repository fake ---

type fakePaymentRepo struct {
	store *memStore
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakePaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	return r.store.paymentForBooking(bookingID), nil
}

func (r *fakePaymentRepo) MarkCompleted(ctx context.Context, id, method string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = models.PaymentStatusCompleted
	p.Method = method
	return true, nil
}

// --- user repository fake ---

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = uuid.New().String()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) SetSuspended(ctx context.Context, id string, suspended bool) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Suspended = suspended
	}
	return nil
}

var (
	_ repository.BookingRepository = (*fakeBookingRepo)(nil)
	_ repository.RideRepository    = (*fakeRideRepo)(nil)
	_ repository.DriverRepository  = (*fakeDriverRepo)(nil)
	_ repository.PaymentRepository = (*fakePaymentRepo)(nil)
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
)
