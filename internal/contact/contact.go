// AngelaMos | 2026
// contact.go

package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Message struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Company   string    `db:"company"`
	Role      string    `db:"role"`
	Topic     string    `db:"topic"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

// Request accepts any non-blank email and message. Over-long fields are
// clipped, never rejected.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"   validate:"required"`
	Company string `json:"company"`
	Role    string `json:"role"`
	Topic   string `json:"topic"`
	Message string `json:"message" validate:"required"`
}

const (
	maxFieldRunes   = 200
	maxEmailRunes   = 255
	maxMessageRunes = 10000
)

func (r *Request) normalize() {
	r.Name = clip(r.Name, maxFieldRunes)
	r.Email = clip(r.Email, maxEmailRunes)
	r.Company = clip(r.Company, maxFieldRunes)
	r.Role = clip(r.Role, maxFieldRunes)
	r.Topic = clip(r.Topic, maxFieldRunes)
	r.Message = clip(r.Message, maxMessageRunes)
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n])
	}
	return s
}

type Repository interface {
	Insert(ctx context.Context, msg *Message) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO contact_messages (name, email, company, role, topic, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		msg.Name,
		msg.Email,
		msg.Company,
		msg.Role,
		msg.Topic,
		msg.Message,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

type Handler struct {
	repo      Repository
	logger    *slog.Logger
	validator *validator.Validate
}

func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:      repo,
		logger:    logger,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the contact form behind throttle, which callers use
// to hold submissions to a tighter budget than the rest of the API.
func (h *Handler) RegisterRoutes(r chi.Router, throttle func(http.Handler) http.Handler) {
	r.With(throttle).Post("/contact", h.Submit)
}

type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Submit answers with a bare {"success": ...} body rather than the API
// envelope; the marketing site posts here directly.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.JSON(w, http.StatusBadRequest, Response{Error: "invalid request body"})
		return
	}
	req.normalize()

	if err := h.validator.Struct(&req); err != nil {
		core.JSON(w, http.StatusBadRequest, Response{Error: "email and message are required"})
		return
	}

	msg := &Message{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Role:    req.Role,
		Topic:   req.Topic,
		Message: req.Message,
	}
	if err := h.repo.Insert(r.Context(), msg); err != nil {
		h.logger.ErrorContext(r.Context(), "contact message not stored", "error", err)
		core.JSON(w, http.StatusInternalServerError, Response{Error: "unable to send message"})
		return
	}

	h.logger.InfoContext(r.Context(), "contact message received",
		"id", msg.ID,
		"topic", msg.Topic,
	)
	core.JSON(w, http.StatusOK, Response{Success: true})
}
