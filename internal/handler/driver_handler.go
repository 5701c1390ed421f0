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

type DriverHandler struct {
	driverService  service.DriverService
	bookingService service.BookingService
	validate       *validator.Validate
}

func NewDriverHandler(driverService service.DriverService, bookingService service.BookingService) *DriverHandler {
	return &DriverHandler{
		driverService:  driverService,
		bookingService: bookingService,
		validate:       validator.New(),
	}
}

func (h *DriverHandler) RegisterRoutes(r chi.Router) {
	r.Post("/drivers", h.CreateDriver)
	r.Post("/drivers/{id}/approve", h.ApproveDriver)
	r.Get("/driver/profile", h.GetProfile)
	r.Patch("/driver/seats", h.UpdateSeats)
	r.Get("/driver/bookings", h.ListDriverBookings)
}

// POST /v1/drivers
func (h *DriverHandler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	var req models.CreateDriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	driver, err := h.driverService.CreateDriver(r.Context(), p, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, driver.ToResponse())
}

// POST /v1/drivers/{id}/approve
func (h *DriverHandler) ApproveDriver(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid driver id")
		return
	}

	driver, err := h.driverService.Approve(r.Context(), p, id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, driver.ToResponse())
}

// GET /v1/driver/profile
func (h *DriverHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	profile, err := h.driverService.GetProfile(r.Context(), p)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, profile)
}

// PATCH /v1/driver/seats
func (h *DriverHandler) UpdateSeats(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	var req models.UpdateSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	driver, err := h.driverService.UpdateAvailableSeats(r.Context(), p, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, driver.ToResponse())
}

// GET /v1/driver/bookings
func (h *DriverHandler) ListDriverBookings(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	bookings, err := h.bookingService.ListDriverBookings(r.Context(), p)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, bookings)
}
