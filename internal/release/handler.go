// AngelaMos | 2026
// handler.go

package release

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/research-portal/internal/access"
	"github.com/carterperez-dev/research-portal/internal/core"
	"github.com/carterperez-dev/research-portal/internal/event"
	"github.com/carterperez-dev/research-portal/internal/middleware"
	"github.com/carterperez-dev/research-portal/internal/revalidate"
)

const defaultMaxUploadBytes int64 = 50 << 20

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
	Service        *Service
	Resolver       *Resolver
	Gate           Gate
	Cache          PageCache
	Events         EventRecorder
	LoginPath      string
	APIPrefix      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type Handler struct {
	service   *Service
	resolver  *Resolver
	gate      Gate
	cache     PageCache
	events    EventRecorder
	loginPath string
	apiPrefix string
	maxUpload int64
	logger    *slog.Logger
	validator *validator.Validate
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = NewResolver(nil, nil, logger)
	}
	return &Handler{
		service:   cfg.Service,
		resolver:  resolver,
		gate:      cfg.Gate,
		cache:     cfg.Cache,
		events:    cfg.Events,
		loginPath: cfg.LoginPath,
		apiPrefix: cfg.APIPrefix,
		maxUpload: maxUpload,
		logger:    logger,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, viewer func(http.Handler) http.Handler) {
	r.With(viewer).Get("/lines/{slug}/releases/{releaseSlug}", h.View)
}

// RegisterAdminRoutes expects r to be guarded by the admin middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/lines/{lineID}/releases", h.ListForLine)
	r.Post("/lines/{lineID}/releases", h.Create)
	r.Post("/releases/{releaseID}/publish", h.Publish)
	r.Post("/releases/{releaseID}/documents", h.AddDocument)
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lineSlug := chi.URLParam(r, "slug")
	releaseSlug := chi.URLParam(r, "releaseSlug")

	view, err := h.loadView(ctx, lineSlug, releaseSlug, middleware.IsAdmin(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	viewer := access.ViewerFromContext(ctx)
	decision, err := h.gate.Decide(ctx, viewer, view.Line.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if h.events != nil {
		entry := event.Entry{
			Type: event.TypeReleaseView,
			Details: map[string]any{
				"release_id":       view.ID,
				"research_line_id": view.Line.ID,
				"granted":          decision.Granted,
			},
		}
		if viewer != nil {
			entry.UserID = viewer.UserID
		}
		h.events.Record(ctx, entry)
	}

	shown := *view
	if !decision.Granted {
		shown = view.Preview()
	}

	core.OK(w, ViewResponse{
		Release: shown,
		Access: decision.State(
			h.apiPrefix+"/lines/"+lineSlug+"/subscribe",
			access.LoginURL(h.loginPath, revalidate.ReleasePath(lineSlug, releaseSlug)),
		),
	})
}

// loadView reads the full, ungated view through the page cache. Gating is
// applied after, so one cached entry serves every viewer. A hit still
// requires the line to be active and to be the same line that was cached.
// Admin views may include drafts and are never cached.
func (h *Handler) loadView(
	ctx context.Context,
	lineSlug, releaseSlug string,
	admin bool,
) (*View, error) {
	cachePath := revalidate.ReleasePath(lineSlug, releaseSlug)

	if !admin && h.cache != nil {
		body, ok, err := h.cache.Get(ctx, cachePath)
		if err != nil {
			h.logger.WarnContext(ctx, "page cache read failed", "path", cachePath, "error", err)
		}
		if ok {
			var cached View
			if err := json.Unmarshal(body, &cached); err == nil {
				line, err := h.service.VisibleLine(ctx, lineSlug)
				if err != nil {
					return nil, err
				}
				if line.ID == cached.Line.ID {
					return &cached, nil
				}
			}
		}
	}

	content, line, err := h.service.Load(ctx, lineSlug, releaseSlug, admin)
	if err != nil {
		return nil, err
	}

	view := h.resolver.Resolve(ctx, content, LineSummary{
		ID:          line.ID,
		Title:       line.Title,
		Slug:        line.Slug,
		Description: line.Description,
	})

	if !admin && h.cache != nil {
		if body, err := json.Marshal(view); err == nil {
			if err := h.cache.Set(ctx, cachePath, body); err != nil {
				h.logger.WarnContext(ctx, "page cache write failed", "path", cachePath, "error", err)
			}
		}
	}

	return &view, nil
}

func (h *Handler) ListForLine(w http.ResponseWriter, r *http.Request) {
	releases, err := h.service.ListForLine(r.Context(), chi.URLParam(r, "lineID"))
	if err != nil {
		writeError(w, err)
		return
	}
	core.OK(w, ToReleaseResponseList(releases))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rel, err := h.service.Create(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "lineID"),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToReleaseResponse(rel))
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	rel, err := h.service.Publish(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "releaseID"),
	)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			core.Conflict(w, "release is already published")
			return
		}
		writeError(w, err)
		return
	}

	core.OK(w, ToReleaseResponse(rel))
}

type DocumentResponse struct {
	ID          string  `json:"id"`
	ReleaseID   string  `json:"release_id"`
	Name        string  `json:"name"`
	StoragePath string  `json:"storage_path"`
	Size        string  `json:"size"`
	ContentType *string `json:"content_type,omitempty"`
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.JSONError(w, core.NewAppError(err, "document exceeds upload limit",
				http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"))
			return
		}
		core.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		core.BadRequest(w, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck // read-only upload handle

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}

	doc, err := h.service.AddDocument(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "releaseID"),
		Upload{
			Name:        name,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		},
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, DocumentResponse{
		ID:          doc.ID,
		ReleaseID:   doc.ReleaseID,
		Name:        doc.Name,
		StoragePath: doc.StoragePath,
		Size:        FormatFileSize(doc.SizeBytes),
		ContentType: doc.ContentType,
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "release")
	case errors.Is(err, core.ErrDuplicateKey):
		core.Conflict(w, "release slug already exists in this line")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, core.ValidationMessage(err))
	case errors.Is(err, core.ErrStorageAbsent):
		core.JSONError(w, core.NewAppError(err, "document storage is not configured",
			http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"))
	default:
		core.InternalServerError(w, err)
	}
}
