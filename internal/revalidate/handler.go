// AngelaMos | 2026
// handler.go

package revalidate

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/middleware"
)

type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// RegisterRoutes mounts POST /revalidate. viewer attaches the principal and
// identity when present; the handler itself answers 401 and 403.
func (h *Handler) RegisterRoutes(r chi.Router, viewer func(http.Handler) http.Handler) {
	r.With(viewer).Post("/revalidate", h.Revalidate)
}

type Response struct {
	Revalidated bool  `json:"revalidated"`
	Now         int64 `json:"now"`
}

func (h *Handler) Revalidate(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsAuthenticated(r.Context()) {
		core.Unauthorized(w, "")
		return
	}
	if !middleware.IsAdmin(r.Context()) {
		core.Forbidden(w, "")
		return
	}

	var target Target
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if _, err := h.service.Invalidate(r.Context(), target); err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, core.ValidationMessage(err))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.JSON(w, http.StatusOK, Response{Revalidated: true, Now: h.now().UnixMilli()})
}
