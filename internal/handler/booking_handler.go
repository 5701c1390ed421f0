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

type BookingHandler struct {
	bookingService     service.BookingService
	negotiationService service.NegotiationService
	validate           *validator.Validate
}

func NewBookingHandler(bookingService service.BookingService, negotiationService service.NegotiationService) *BookingHandler {
	return &BookingHandler{
		bookingService:     bookingService,
		negotiationService: negotiationService,
		validate:           validator.New(),
	}
}

func (h *BookingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bookings", h.CreateBooking)
	r.Get("/bookings", h.ListMyBookings)
	r.Get("/bookings/{id}", h.GetBooking)
	r.Patch("/bookings/{id}", h.UpdateBooking)
	r.Post("/bookings/{id}/cancel", h.CancelBooking)
	r.Post("/bookings/{id}/amount-request", h.RequestAdditionalAmount)
	r.Post("/bookings/{id}/amount-response", h.RespondToAdditionalAmount)
}

// POST /v1/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), p, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, booking)
}

// GET /v1/bookings
func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	bookings, err := h.bookingService.ListRiderBookings(r.Context(), p)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, bookings)
}

// GET /v1/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid booking id")
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), p, id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

// PATCH /v1/bookings/{id}
func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid booking id")
		return
	}

	var req models.UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	booking, err := h.bookingService.UpdateBooking(r.Context(), p, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

// POST /v1/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid booking id")
		return
	}

	booking, err := h.bookingService.CancelBooking(r.Context(), p, id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

// POST /v1/bookings/{id}/amount-request
func (h *BookingHandler) RequestAdditionalAmount(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid booking id")
		return
	}

	var req models.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	booking, err := h.negotiationService.RequestAdditionalAmount(r.Context(), p, id, req.Amount)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

// POST /v1/bookings/{id}/amount-response
func (h *BookingHandler) RespondToAdditionalAmount(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid booking id")
		return
	}

	var req models.AmountResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	booking, err := h.negotiationService.RespondToAdditionalAmount(r.Context(), p, id, req.Action == "accept")
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

func handleError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*apperrors.APIError); ok {
		utils.Error(w, apiErr)
		return
	}

	switch err {
	case apperrors.ErrNotFound:
		utils.Error(w, apperrors.NotFound("resource"))
	case apperrors.ErrRideNotActive:
		utils.Error(w, apperrors.RideNotActive())
	case apperrors.ErrDuplicateBooking:
		utils.Error(w, apperrors.DuplicateBooking())
	case apperrors.ErrPendingRequest:
		utils.Error(w, apperrors.ConflictingRequest())
	case apperrors.ErrNoPendingRequest:
		utils.Error(w, apperrors.NoPendingRequest())
	case apperrors.ErrAccountSuspended:
		utils.Error(w, apperrors.AccountSuspended())
	case apperrors.ErrDriverNotApproved:
		utils.Error(w, apperrors.DriverNotApproved())
	case apperrors.ErrUnavailable:
		utils.Error(w, apperrors.Unavailable())
	default:
		utils.InternalError(w, "internal server error")
	}
}
