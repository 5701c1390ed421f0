package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/aditya/go-carpool/internal/errors"
	"github.com/aditya/go-carpool/internal/middleware"
	"github.com/aditya/go-carpool/internal/models"
	"github.com/aditya/go-carpool/internal/service"
	"github.com/aditya/go-carpool/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type RideHandler struct {
	rideService    service.RideService
	bookingService service.BookingService
	inventory      service.InventoryService
	validate       *validator.Validate
}

func NewRideHandler(rideService service.RideService, bookingService service.BookingService, inventory service.InventoryService) *RideHandler {
	return &RideHandler{
		rideService:    rideService,
		bookingService: bookingService,
		inventory:      inventory,
		validate:       validator.New(),
	}
}

// RegisterPublicRoutes mounts read endpoints that need no authentication.
func (h *RideHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/rides", h.ListRides)
	r.Get("/rides/{id}", h.GetRide)
	r.Get("/rides/{id}/availability", h.GetAvailability)
}

func (h *RideHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rides", h.CreateRide)
	r.Patch("/rides/{id}", h.UpdateRide)
	r.Delete("/rides/{id}", h.DeleteRide)
	r.Post("/rides/{id}/complete", h.CompleteRide)
	r.Get("/rides/{id}/bookings", h.ListRideBookings)
	r.Patch("/rides/{id}/pickup-times", h.UpdatePickupTimes)
	r.Get("/driver/rides", h.ListDriverRides)
}

// POST /v1/rides
func (h *RideHandler) CreateRide(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	var req models.CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	ride, err := h.rideService.CreateRide(r.Context(), p, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, ride)
}

// GET /v1/rides
func (h *RideHandler) ListRides(w http.ResponseWriter, r *http.Request) {
	rides, err := h.rideService.ListRides(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, rides)
}

// GET /v1/rides/{id}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid ride id")
		return
	}

	ride, err := h.rideService.GetRide(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, ride)
}

// GET /v1/rides/{id}/availability
func (h *RideHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid ride id")
		return
	}

	available, err := h.inventory.AvailableSeats(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]int{"available_seats": available})
}

// PATCH /v1/rides/{id}
func (h *RideHandler) UpdateRide(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid ride id")
		return
	}

	var req models.UpdateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	result, err := h.rideService.UpdateRide(r.Context(), p, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, result)
}

// POST /v1/rides/{id}/complete
func (h *RideHandler) CompleteRide(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid ride id")
		return
	}

	result, err := h.rideService.CompleteRide(r.Context(), p, id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, result)
}

// DELETE /v1/rides/{id}
func (h *RideHandler) DeleteRide(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid ride id")
		return
	}

	result, err := h.rideService.DeleteRide(r.Context(), p, id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, result)
}

// GET /v1/rides/{id}/bookings
func (h *RideHandler) ListRideBookings(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid ride id")
		return
	}

	bookings, err := h.bookingService.ListRideBookings(r.Context(), p, id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, bookings)
}

// PATCH /v1/rides/{id}/pickup-times
func (h *RideHandler) UpdatePickupTimes(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid ride id")
		return
	}

	var req models.UpdatePickupTimesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	result, err := h.bookingService.UpdatePickupTimes(r.Context(), p, id, req.Updates)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, result)
}

// GET /v1/driver/rides
func (h *RideHandler) ListDriverRides(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	rides, err := h.rideService.ListDriverRides(r.Context(), p)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, rides)
}
