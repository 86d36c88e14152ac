// AngelaMos | 2026
// handler.go

package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/audit-logs", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))           //nolint:errcheck // defaults to 0
	pageSize, _ := strconv.Atoi(q.Get("page_size")) //nolint:errcheck // defaults to 0

	params := ListParams{
		Page:       page,
		PageSize:   pageSize,
		EntityType: q.Get("entity_type"),
		ActorID:    q.Get("actor_id"),
	}
	params.Normalize()

	logs, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToLogResponseList(logs), params.Page, params.PageSize, total)
}
