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

type UserHandler struct {
	userService service.UserService
	jwtManager  *utils.JWTManager
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService, jwtManager *utils.JWTManager) *UserHandler {
	return &UserHandler{
		userService: userService,
		jwtManager:  jwtManager,
		validate:    validator.New(),
	}
}

// RegisterPublicRoutes mounts registration, which has to work pre-auth.
func (h *UserHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/users", h.Register)
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/{id}", h.GetUser)
	r.Post("/users/{id}/suspend", h.SuspendUser)
}

// POST /v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Role, user.Suspended)
	if err != nil {
		utils.InternalError(w, "failed to issue token")
		return
	}

	utils.Created(w, map[string]interface{}{
		"user":  user.ToResponse(),
		"token": token,
	})
}

// GET /v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid user id")
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, user)
}

// POST /v1/users/{id}/suspend
func (h *UserHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		utils.Error(w, apperrors.Unauthorized("authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if !utils.IsValidUUID(id) {
		utils.BadRequest(w, "invalid user id")
		return
	}

	var req struct {
		Suspended bool `json:"suspended"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.userService.Suspend(r.Context(), p, id, req.Suspended); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]bool{"suspended": req.Suspended})
}
