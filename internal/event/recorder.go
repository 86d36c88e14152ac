// AngelaMos | 2026
// recorder.go

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultSummaryDays = 30
	MaxSummaryDays     = 365
)

// Recorder appends engagement events. Writes are best-effort: a failed
// insert is logged at debug level and never surfaces to the caller.
type Recorder struct {
	repo    Repository
	counter *prometheus.CounterVec
	logger  *slog.Logger
	now     func() time.Time
}

func NewRecorder(
	repo Repository,
	counter *prometheus.CounterVec,
	logger *slog.Logger,
) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		repo:    repo,
		counter: counter,
		logger:  logger,
		now:     time.Now,
	}
}

func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r.counter != nil {
		r.counter.WithLabelValues(string(entry.Type)).Inc()
	}

	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}

	raw, err := json.Marshal(details)
	if err != nil {
		r.logger.DebugContext(ctx, "event details not encodable",
			"type", entry.Type,
			"error", err,
		)
		raw = []byte("{}")
	}

	e := &Event{
		ID:        uuid.New().String(),
		EventType: entry.Type,
		Details:   raw,
	}
	if entry.UserID != "" {
		uid := entry.UserID
		e.UserID = &uid
	}

	if err := r.repo.Insert(ctx, e); err != nil {
		r.logger.DebugContext(ctx, "event not recorded",
			"type", entry.Type,
			"error", err,
		)
	}
}

type Summary struct {
	Days   int         `json:"days"`
	Since  time.Time   `json:"since"`
	Counts []TypeCount `json:"counts"`
	Total  int         `json:"total"`
}

// Summarize counts events by type over the trailing window of days.
func (r *Recorder) Summarize(ctx context.Context, days int) (*Summary, error) {
	if days < 1 {
		days = DefaultSummaryDays
	}
	if days > MaxSummaryDays {
		days = MaxSummaryDays
	}

	since := r.now().UTC().AddDate(0, 0, -days)

	counts, err := r.repo.CountByType(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("summarize events: %w", err)
	}
	if counts == nil {
		counts = []TypeCount{}
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	return &Summary{Days: days, Since: since, Counts: counts, Total: total}, nil
}
