// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the self-service endpoints. authenticated must
// install both the principal and the resolved identity.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticated func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
	})
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}", h.UpdateUser)
		r.Put("/{userID}/role", h.UpdateUserRole)
		r.Put("/{userID}/tier", h.UpdateUserTier)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	profile := ProfileFromContext(r.Context())
	if profile == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, ToUserResponse(profile))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateMe(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(updated))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Tier:     r.URL.Query().Get("tier"),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(found))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateUser(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(updated))
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateUserRole(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		req.Role,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(updated))
}

func (h *Handler) UpdateUserTier(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserTierRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateUserTier(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
		req.Tier,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(updated))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, core.ValidationMessage(err))
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
