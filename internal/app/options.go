package service

import (
	"time"

	"github.com/okian/pscore/internal/adapters/kvstore"
	"github.com/okian/pscore/internal/domain/scoring"
	"github.com/okian/pscore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the durable store shared by all sessions. The service
// closes it on Stop.
func WithStore(store kvstore.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithGenerator sets the remote model.
func WithGenerator(g scoring.Generator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.model = name
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(s *Service) {
		if t >= 0 {
			s.temperature = t
		}
	}
}

// WithLeaderboardDelay sets the simulated leaderboard round trip.
func WithLeaderboardDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.leaderboardDelay = d
		}
	}
}

// WithTickInterval sets the countdown step of every session.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithEstimatedSeconds sets the countdown start value of every session.
func WithEstimatedSeconds(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.estimatedSeconds = n
		}
	}
}

// WithMaxSessions caps the number of live sessions. Zero means no cap.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}
