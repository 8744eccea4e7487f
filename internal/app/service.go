// Package service owns the live sessions and the components they share.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pscore/internal/adapters/kvstore"
	"github.com/okian/pscore/internal/adapters/llm"
	"github.com/okian/pscore/internal/app/session"
	"github.com/okian/pscore/internal/domain/scoring"
	"github.com/okian/pscore/pkg/logger"
	"github.com/okian/pscore/pkg/metrics"
)

const sessionKeyPrefix = "session:"

// Service implements the API dependencies for the score application.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     kvstore.Store
	generator scoring.Generator
	scorer    *scoring.Service
	sessions  map[string]*session.Controller

	// Configuration
	model            string
	temperature      float32
	leaderboardDelay time.Duration
	tickInterval     time.Duration
	estimatedSeconds int
	maxSessions      int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:         make(map[string]*session.Controller),
		model:            scoring.DefaultModel,
		temperature:      scoring.DefaultTemperature,
		leaderboardDelay: scoring.DefaultLeaderboardDelay,
		tickInterval:     session.DefaultTickInterval,
		estimatedSeconds: session.DefaultEstimatedSeconds,
		maxSessions:      10000,
		logger:           nil, // replaced on Start
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the shared components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting score service...")

	if s.store == nil {
		s.store = kvstore.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.generator == nil {
		s.generator = scoring.GeneratorFunc(func(context.Context, scoring.Request) (string, error) {
			return "", llm.ErrMissingAPIKey
		})
		s.logger.Warn(ctx, "no model generator configured")
	}
	s.scorer = scoring.New(s.generator,
		scoring.WithModel(s.model),
		scoring.WithTemperature(s.temperature),
		scoring.WithLeaderboardDelay(s.leaderboardDelay),
		scoring.WithLogger(s.logger.Named("scoring")),
	)

	s.started = true
	s.logger.Info(ctx, "score service started",
		logger.String("model", s.model),
		logger.Int("maxSessions", s.maxSessions),
	)

	return nil
}

// Stop cancels running generations, waits for session work and closes the
// store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping score service...")

	for _, c := range s.sessions {
		c.Close()
	}
	s.sessions = make(map[string]*session.Controller)
	metrics.UpdateActiveSessions(0)

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "failed to close store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "score service stopped")
}

// CreateSession starts a new session and returns its id.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.Session(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Session returns the live session for id, restoring it from the store the
// first time it is seen by this process. A session whose state could not be
// read is not kept, so the next lookup retries the restore.
func (s *Service) Session(ctx context.Context, id string) (*session.Controller, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	id = parsed.String()

	s.mu.RLock()
	c, ok := s.sessions[id]
	started, full := s.started, s.maxSessions > 0 && len(s.sessions) >= s.maxSessions
	store, scorer, log := s.store, s.scorer, s.logger
	s.mu.RUnlock()
	switch {
	case !started:
		return nil, ErrNotStarted
	case ok:
		return c, nil
	case full:
		return nil, ErrTooManySessions
	}

	c = session.New(
		kvstore.Scope(store, sessionKeyPrefix+id),
		scorer,
		session.WithLogger(log.With(logger.String("session", id))),
		session.WithTickInterval(s.tickInterval),
		session.WithEstimatedSeconds(s.estimatedSeconds),
	)
	if err := c.Activate(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	kept, err := s.keep(id, c)
	if kept != c {
		c.Close()
	}
	return kept, err
}

// keep caches a restored controller. When a concurrent restore of the same
// id got there first, that controller is returned instead.
func (s *Service) keep(id string, c *session.Controller) (*session.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return nil, ErrTooManySessions
	}
	s.sessions[id] = c
	metrics.RecordSessionCreated()
	metrics.UpdateActiveSessions(len(s.sessions))
	return c, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"model":       s.model,
		"maxSessions": s.maxSessions,
	}

	if s.started {
		generating, posted := 0, 0
		for _, c := range s.sessions {
			snap := c.Snapshot()
			if snap.Generating {
				generating++
			}
			if snap.HasPosted {
				posted++
			}
		}
		stats["sessions"] = len(s.sessions)
		stats["generating"] = generating
		stats["posted"] = posted

		metrics.UpdateActiveSessions(len(s.sessions))
	}

	return stats
}
