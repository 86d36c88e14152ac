// AngelaMos | 2026
// handler.go

package researchline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/research-portal/internal/access"
	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/event"
	"github.com/carterperez-dev/research-portal/internal/middleware"
	"github.com/carterperez-dev/research-portal/internal/revalidate"
)

type Gate interface {
	Decide(ctx context.Context, viewer *middleware.Identity, researchLineID string) (access.Decision, error)
}

type PageCache interface {
	Get(ctx context.Context, path string) ([]byte, bool, error)
	Set(ctx context.Context, path string, body []byte) error
}

type EventRecorder interface {
	Record(ctx context.Context, entry event.Entry)
}

type HandlerConfig struct {
	Service   *Service
	Gate      Gate
	Cache     PageCache
	Events    EventRecorder
	LoginPath string
	// APIPrefix is prepended to action URLs handed back to clients.
	APIPrefix string
	Logger    *slog.Logger
}

type Handler struct {
	service   *Service
	gate      Gate
	cache     PageCache
	events    EventRecorder
	loginPath string
	apiPrefix string
	logger    *slog.Logger
	validator *validator.Validate
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   cfg.Service,
		gate:      cfg.Gate,
		cache:     cfg.Cache,
		events:    cfg.Events,
		loginPath: cfg.LoginPath,
		apiPrefix: cfg.APIPrefix,
		logger:    logger,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, viewer func(http.Handler) http.Handler) {
	r.With(viewer).Get("/lines", h.ListPublic)
	r.With(viewer).Get("/lines/{slug}", h.GetPage)
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/lines", h.ListAll)
	r.Post("/lines", h.Create)
	r.Get("/lines/{lineID}", h.Get)
	r.Put("/lines/{lineID}", h.Update)
	r.Delete("/lines/{lineID}", h.Delete)
	r.Post("/lines/{lineID}/activate", h.Activate)
	r.Post("/lines/{lineID}/deactivate", h.Deactivate)
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAdmin(r.Context()) {
		lines, err := h.service.List(r.Context(), true)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		core.OK(w, ToLineResponseList(lines))
		return
	}

	path := revalidate.PathLines
	var out []LineResponse
	if h.cached(r.Context(), path, &out) {
		core.OK(w, out)
		return
	}

	lines, err := h.service.List(r.Context(), false)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	out = ToLineResponseList(lines)
	h.store(r.Context(), path, out)

	core.OK(w, out)
}

func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	admin := middleware.IsAdmin(ctx)

	page, err := h.loadPage(ctx, slug, admin)
	if err != nil {
		writeError(w, err)
		return
	}

	viewer := access.ViewerFromContext(ctx)
	decision, err := h.gate.Decide(ctx, viewer, page.Line.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if h.events != nil {
		entry := event.Entry{
			Type: event.TypeResearchLineView,
			Details: map[string]any{
				"research_line_id": page.Line.ID,
				"slug":             page.Line.Slug,
			},
		}
		if viewer != nil {
			entry.UserID = viewer.UserID
		}
		h.events.Record(ctx, entry)
	}

	core.OK(w, PageResponse{
		Page:   *page,
		Access: h.accessState(decision, page.Line.Slug),
	})
}

// loadPage reads through the page cache for non-admin viewers. Admin
// viewers see drafts and inactive lines, so their view is never cached.
func (h *Handler) loadPage(ctx context.Context, slug string, admin bool) (*Page, error) {
	if admin {
		return h.service.Page(ctx, slug, true)
	}

	path := revalidate.LinePath(slug)
	var page Page
	if h.cached(ctx, path, &page) {
		return &page, nil
	}

	loaded, err := h.service.Page(ctx, slug, false)
	if err != nil {
		return nil, err
	}
	h.store(ctx, path, loaded)
	return loaded, nil
}

func (h *Handler) accessState(d access.Decision, slug string) access.State {
	return d.State(
		h.apiPrefix+"/lines/"+slug+"/subscribe",
		access.LoginURL(h.loginPath, revalidate.LinePath(slug)),
	)
}

func (h *Handler) cached(ctx context.Context, path string, dst any) bool {
	if h.cache == nil {
		return false
	}

	body, ok, err := h.cache.Get(ctx, path)
	if err != nil {
		h.logger.WarnContext(ctx, "page cache read failed", "path", path, "error", err)
		return false
	}
	if !ok {
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		h.logger.WarnContext(ctx, "page cache entry unreadable", "path", path, "error", err)
		return false
	}
	return true
}

func (h *Handler) store(ctx context.Context, path string, v any) {
	if h.cache == nil {
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, path, body); err != nil {
		h.logger.WarnContext(ctx, "page cache write failed", "path", path, "error", err)
	}
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.List(r.Context(), true)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, ToLineResponseList(lines))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	line, err := h.service.Get(r.Context(), chi.URLParam(r, "lineID"))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToLineResponse(line))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	line, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToLineResponse(line))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	line, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "lineID"),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToLineResponse(line))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "lineID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	line, err := h.service.SetActive(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "lineID"),
		active,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToLineResponse(line))
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
		core.NotFound(w, "research line")
	case errors.Is(err, core.ErrDuplicateKey):
		core.Conflict(w, "slug already exists")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, core.ValidationMessage(err))
	default:
		core.InternalServerError(w, err)
	}
}
