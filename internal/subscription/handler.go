// AngelaMos | 2026
// handler.go

package subscription

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/research-portal/internal/access"
	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/middleware"
	"github.com/carterperez-dev/research-portal/internal/user"
)

// LineLookup maps a public slug to an active research line id.
type LineLookup interface {
	ActiveLineID(ctx context.Context, slug string) (string, error)
}

type Handler struct {
	service   *Service
	lines     LineLookup
	loginPath string
}

func NewHandler(service *Service, lines LineLookup, loginPath string) *Handler {
	return &Handler{
		service:   service,
		lines:     lines,
		loginPath: loginPath,
	}
}

// RegisterRoutes mounts subscribe/unsubscribe under /lines/{slug}. viewer
// must attach an identity when a valid token is present without rejecting
// anonymous callers.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	viewer, authenticated func(http.Handler) http.Handler,
) {
	r.With(viewer).Post("/lines/{slug}/subscribe", h.Subscribe)
	r.With(viewer).Post("/lines/{slug}/unsubscribe", h.Unsubscribe)
	r.With(authenticated).Get("/dashboard", h.Dashboard)
}

type StateResponse struct {
	ResearchLineID string     `json:"research_line_id"`
	Slug           string     `json:"slug"`
	Subscribed     bool       `json:"subscribed"`
	SubscribedAt   *time.Time `json:"subscribed_at,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

type DashboardResponse struct {
	Profile       user.UserResponse `json:"profile"`
	Subscriptions []ActiveLine      `json:"subscriptions"`
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Subscribe)
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Unsubscribe)
}

func (h *Handler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, userID, lineID string) (*Subscription, error),
) {
	slug := chi.URLParam(r, "slug")

	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Redirect(w, r, h.LoginURL("/lines/"+slug))
		return
	}

	lineID, err := h.lines.ActiveLineID(r.Context(), slug)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "research line")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	sub, err := op(r.Context(), userID, lineID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "research line")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	resp := StateResponse{ResearchLineID: lineID, Slug: slug}
	if sub != nil {
		resp.Subscribed = sub.IsActive
		resp.SubscribedAt = &sub.SubscribedAt
		resp.UnsubscribedAt = sub.UnsubscribedAt
	}

	core.OK(w, resp)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	profile := user.ProfileFromContext(r.Context())
	if profile == nil {
		core.Unauthorized(w, "")
		return
	}

	lines, err := h.service.ListForUser(r.Context(), profile.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, DashboardResponse{
		Profile:       user.ToUserResponse(profile),
		Subscriptions: lines,
	})
}

// LoginURL returns the login path carrying next as the return target.
func (h *Handler) LoginURL(next string) string {
	return access.LoginURL(h.loginPath, next)
}
