// AngelaMos | 2026
// service.go

package revalidate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/research-portal/internal/core"
)

type Store interface {
	Invalidate(ctx context.Context, paths []string) error
	// Cached lists the cached page paths starting with prefix.
	Cached(ctx context.Context, prefix string) ([]string, error)
}

type SlugLister interface {
	ListSlugs(ctx context.Context) ([]string, error)
}

type Service struct {
	store    Store
	lines    SlugLister
	timeout  time.Duration
	counter  *prometheus.CounterVec
	logger   *slog.Logger
	inflight sync.WaitGroup
}

type ServiceConfig struct {
	Store   Store
	Lines   SlugLister
	Timeout time.Duration
	Counter *prometheus.CounterVec
	Logger  *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		store:   cfg.Store,
		lines:   cfg.Lines,
		timeout: timeout,
		counter: cfg.Counter,
		logger:  logger,
	}
}

// Invalidate marks every page affected by t stale and returns the paths it
// touched.
func (s *Service) Invalidate(ctx context.Context, t Target) ([]string, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "revalidate.invalidate",
		attribute.String("kind", string(t.Type)),
	)
	defer span.End()

	var slugs []string
	if t.Type == KindAll {
		var err error
		slugs, err = s.lines.ListSlugs(ctx)
		if err != nil {
			s.observe(t.Type, "error")
			core.SetSpanError(ctx, err)
			return nil, fmt.Errorf("list line slugs: %w", err)
		}
	}

	paths, err := s.expand(ctx, t, Paths(t, slugs))
	if err != nil {
		s.observe(t.Type, "error")
		core.SetSpanError(ctx, err)
		return nil, err
	}

	if err := s.store.Invalidate(ctx, paths); err != nil {
		s.observe(t.Type, "error")
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("invalidate %s: %w", t.Type, err)
	}

	s.observe(t.Type, "ok")
	core.AddSpanEvent(ctx, "pages.invalidated", attribute.Int("paths", len(paths)))
	return paths, nil
}

func (s *Service) expand(ctx context.Context, t Target, paths []string) ([]string, error) {
	subtrees := Subtrees(t)
	if len(subtrees) == 0 {
		return paths, nil
	}

	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		seen[p] = struct{}{}
	}

	for _, prefix := range subtrees {
		cached, err := s.store.Cached(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("list cached pages under %s: %w", prefix, err)
		}
		for _, p := range cached {
			if _, dup := seen[p]; !dup {
				seen[p] = struct{}{}
				paths = append(paths, p)
			}
		}
	}
	return paths, nil
}

// Trigger runs Invalidate in the background, detached from the caller's
// cancellation. Failures are logged only.
func (s *Service) Trigger(ctx context.Context, t Target) {
	detached := context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		runCtx, cancel := context.WithTimeout(detached, s.timeout)
		defer cancel()

		if _, err := s.Invalidate(runCtx, t); err != nil {
			s.logger.ErrorContext(runCtx, "page invalidation failed",
				"type", t.Type,
				"slug", t.Slug,
				"research_line_slug", t.ResearchLineSlug,
				"release_slug", t.ReleaseSlug,
				"error", err,
			)
		}
	}()
}

// Wait blocks until triggered invalidations finish or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) observe(kind Kind, outcome string) {
	if s.counter != nil {
		s.counter.WithLabelValues(string(kind), outcome).Inc()
	}
}
