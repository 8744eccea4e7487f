// Package scoring requests productivity reports from a generative model and
// assembles the simulated leaderboards.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/pscore/internal/adapters/kvstore"
	"github.com/okian/pscore/internal/domain/dedupe"
	"github.com/okian/pscore/internal/domain/model"
	"github.com/okian/pscore/internal/domain/runhash"
	"github.com/okian/pscore/pkg/logger"
	"github.com/okian/pscore/pkg/metrics"
)

// Request is one call to the remote model. The response schema is owned by
// the Generator implementation.
type Request struct {
	Model            string
	Prompt           string
	Temperature      float32
	ResponseMIMEType string
}

// Generator is the remote generative model. It returns the raw response text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithModel sets the model name sent with each request.
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

// WithLeaderboardDelay sets the simulated round trip of ListLeaderboards.
// Zero disables the delay.
func WithLeaderboardDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.leaderboardDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service is the score service.
type Service struct {
	generator        Generator
	model            string
	temperature      float32
	leaderboardDelay time.Duration
	logger           logger.Logger
}

// New creates a Service calling generator.
func New(generator Generator, opts ...Option) *Service {
	s := &Service{
		generator:        generator,
		model:            DefaultModel,
		temperature:      DefaultTemperature,
		leaderboardDelay: DefaultLeaderboardDelay,
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate makes a single remote call and returns the parsed report with its
// RunHash set to the SHA-1 of the trimmed response text.
func (s *Service) Generate(ctx context.Context) (model.ProductivityScore, error) {
	start := time.Now()
	metrics.GenerationStarted()
	defer metrics.GenerationFinished()

	raw, err := s.generator.Generate(ctx, Request{
		Model:            s.model,
		Prompt:           Prompt,
		Temperature:      s.temperature,
		ResponseMIMEType: ResponseMIMEType,
	})
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.RecordGeneration(metrics.OutcomeCancelled, elapsed)
		} else {
			metrics.RecordGeneration(metrics.OutcomeFailed, elapsed)
			s.logger.Error(ctx, "error fetching productivity score", logger.Error(err))
		}
		return model.ProductivityScore{}, fmt.Errorf("%w (%w)", ErrGenerationFailed, err)
	}

	text := strings.TrimSpace(raw)
	score, err := parseScore(text)
	if err != nil {
		metrics.RecordGeneration(metrics.OutcomeMalformed, elapsed)
		s.logger.Error(ctx, "error parsing productivity score",
			logger.Int("length", len(text)), logger.Error(err))
		return model.ProductivityScore{}, fmt.Errorf("%w (%w)", ErrMalformedResponse, err)
	}
	score.RunHash = runhash.Sum(text)

	metrics.RecordGeneration(metrics.OutcomeCompleted, elapsed)
	s.logger.Debug(ctx, "productivity score generated",
		logger.String("runHash", score.RunHash),
		logger.Float64("score", score.UtilizationScore),
		logger.Float64("latencyMs", elapsed),
	)
	return score, nil
}

// parseScore decodes text, which must be a single JSON object.
func parseScore(text string) (model.ProductivityScore, error) {
	var score model.ProductivityScore
	if !strings.HasPrefix(text, "{") {
		return score, errors.New("response is not a JSON object")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	if err := dec.Decode(&score); err != nil {
		return model.ProductivityScore{}, fmt.Errorf("decode JSON: %w", err)
	}
	if dec.More() {
		return model.ProductivityScore{}, errors.New("trailing data after JSON object")
	}
	return score, nil
}

// ListLeaderboards simulates fetching both boards. The only entry is the
// session's own persisted user entry. A corrupt entry yields empty boards; a
// failing store or cancelled ctx yields ErrLeaderboardLoad.
func (s *Service) ListLeaderboards(ctx context.Context, store kvstore.Store) (model.Leaderboards, error) {
	start := time.Now()
	boards, err := s.listLeaderboards(ctx, store)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordLeaderboardRefresh("error", elapsed)
		return model.Leaderboards{}, err
	}
	metrics.RecordLeaderboardRefresh("ok", elapsed)
	return boards, nil
}

func (s *Service) listLeaderboards(ctx context.Context, store kvstore.Store) (model.Leaderboards, error) {
	if s.leaderboardDelay > 0 {
		t := time.NewTimer(s.leaderboardDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return model.Leaderboards{}, fmt.Errorf("%w: %w", ErrLeaderboardLoad, ctx.Err())
		case <-t.C:
		}
	}

	boards := model.EmptyLeaderboards()

	var entry model.LeaderboardEntry
	err := kvstore.GetJSON(ctx, store, kvstore.KeyUserEntry, &entry)
	switch {
	case err == nil:
	case kvstore.IsNotFound(err):
		return boards, nil
	case errors.Is(err, kvstore.ErrCorrupt):
		metrics.RecordPersistenceCorrupt(kvstore.KeyUserEntry)
		s.logger.Error(ctx, "failed to parse user entry for leaderboard simulation", logger.Error(err))
		return boards, nil
	default:
		metrics.RecordStoreError("get")
		return model.Leaderboards{}, fmt.Errorf("%w: %w", ErrLeaderboardLoad, err)
	}

	return placeEntries(ctx, boards, entry), nil
}

// placeEntries inserts entries into the boards, deduplicating by RunHash.
// Verified entries leave the unverified board; unverified entries go to the
// front. Verified is stably sorted by score, highest first.
func placeEntries(ctx context.Context, boards model.Leaderboards, entries ...model.LeaderboardEntry) model.Leaderboards {
	verifiedSeen := dedupe.NewInMemoryDeduper()
	unverifiedSeen := dedupe.NewInMemoryDeduper()
	for _, e := range boards.Verified {
		verifiedSeen.SeenAndRecord(ctx, e.RunHash)
	}
	for _, e := range boards.Unverified {
		unverifiedSeen.SeenAndRecord(ctx, e.RunHash)
	}

	for _, e := range entries {
		if e.IsVerified {
			if !verifiedSeen.SeenAndRecord(ctx, e.RunHash) {
				boards.Verified = append(boards.Verified, e)
			}
			boards.Unverified = removeByHash(boards.Unverified, e.RunHash)
			unverifiedSeen.Unrecord(ctx, e.RunHash)
			continue
		}
		if !unverifiedSeen.SeenAndRecord(ctx, e.RunHash) {
			boards.Unverified = append([]model.LeaderboardEntry{e}, boards.Unverified...)
		}
	}

	sort.SliceStable(boards.Verified, func(i, j int) bool {
		return boards.Verified[i].Score > boards.Verified[j].Score
	})
	return boards
}

func removeByHash(entries []model.LeaderboardEntry, hash string) []model.LeaderboardEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.RunHash != hash {
			out = append(out, e)
		}
	}
	return out
}
