package world

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/realmgen/internal/entropy"
	"github.com/talgya/realmgen/internal/metrics"
)

// Session owns the published world. Entry points run one or more stages
// on a private copy and publish the result with a single pointer swap, so
// readers never observe a mix of old and new layers. Generation requests
// are serialized.
type Session struct {
	mu      sync.Mutex
	state   atomic.Pointer[WorldState]
	cfg     Config
	metrics *metrics.Recorder
	seeds   *entropy.Client
}

// NewSession creates a session with no world. rec may be nil.
func NewSession(cfg Config, rec *metrics.Recorder) *Session {
	return &Session{cfg: cfg, metrics: rec}
}

// State returns the published world, or nil before the first generation.
// Callers must treat it as read-only.
func (s *Session) State() *WorldState {
	return s.state.Load()
}

// Config returns the configuration new worlds are generated with.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig replaces the configuration used by later entry points. The
// published world keeps the configuration it was built with.
func (s *Session) SetConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// UseEntropy draws unspecified seeds from c instead of crypto/rand.
func (s *Session) UseEntropy(c *entropy.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = c
}

func (s *Session) publish(w *WorldState) *WorldState {
	s.state.Store(w)
	s.metrics.Published(w.CellCount(), w.KingdomCount())
	return w
}

func (s *Session) timed(stage Stage, fn func()) {
	start := time.Now()
	fn()
	s.metrics.ObserveStage(stage.String(), time.Since(start))
}

// current returns the published world when it has stage, logging a warning
// and returning nil otherwise.
func (s *Session) current(op string, need Stage) *WorldState {
	w := s.state.Load()
	if !w.Has(need) {
		slog.Warn("missing precondition, ignoring request", "op", op, "needs", need.String())
		return nil
	}
	return w
}

// GeneratePoints discards the world and starts a new one with count sites.
// seed 0 picks a random seed; count 0 keeps the configured count.
func (s *Session) GeneratePoints(seed int64, count int) (*WorldState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	if count > 0 {
		cfg.Sampler.Count = count
	}
	var w *WorldState
	var err error
	s.timed(StagePoints, func() { w, err = buildPoints(cfg, s.resolveSeed(seed)) })
	if err != nil {
		return nil, err
	}
	slog.Info("points generated", "cells", w.CellCount(), "seed", w.Seed)
	return s.publish(w), nil
}

// GenerateElevation recomputes elevation and drops every later layer.
// Returns nil without error when no points exist.
func (s *Session) GenerateElevation() (*WorldState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current("generate elevation", StagePoints)
	if prev == nil {
		return nil, nil
	}
	var w *WorldState
	s.timed(StageElevation, func() { w = withElevation(prev) })
	return s.publish(w), nil
}

// ComputeDrainage recomputes hydrology and drops every later layer.
// Returns nil without error when no elevation exists.
func (s *Session) ComputeDrainage() (*WorldState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current("compute drainage", StageElevation)
	if prev == nil {
		return nil, nil
	}
	var w *WorldState
	var err error
	s.timed(StageDrainage, func() { w, err = withDrainage(prev) })
	if err != nil {
		return nil, err
	}
	return s.publish(w), nil
}

// GeneratePrecipitation recomputes precipitation and terrain classes and
// drops the political layers. Returns nil without error when no elevation
// exists.
func (s *Session) GeneratePrecipitation() (*WorldState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current("generate precipitation", StageElevation)
	if prev == nil {
		return nil, nil
	}
	var w *WorldState
	s.timed(StagePrecipitation, func() { w = withPrecipitation(prev) })
	return s.publish(w), nil
}

// GenerateKingdoms partitions the land and derives cities, roads, coastlines
// and borders. Returns nil without error when no elevation exists.
func (s *Session) GenerateKingdoms() (*WorldState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current("generate kingdoms", StageElevation)
	if prev == nil {
		return nil, nil
	}
	var w *WorldState
	var err error
	s.timed(StageKingdoms, func() { w, err = withKingdoms(prev) })
	if err != nil {
		return nil, err
	}
	return s.publish(w), nil
}

// Generate runs the whole pipeline for seed and publishes only the final
// world. seed 0 uses the configured seed, or a random one if that is 0 too.
// count 0 keeps the configured cell count; other values apply to this world
// only.
func (s *Session) Generate(seed int64, count int) (*WorldState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.cfg
	if count > 0 {
		cfg.Sampler.Count = count
	}
	if seed == 0 {
		seed = cfg.Seed
	}
	seed = s.resolveSeed(seed)
	start := time.Now()

	var w *WorldState
	var err error
	s.timed(StagePoints, func() { w, err = buildPoints(cfg, seed) })
	if err != nil {
		return nil, err
	}
	s.timed(StageElevation, func() { w = withElevation(w) })
	s.timed(StageDrainage, func() { w, err = withDrainage(w) })
	if err != nil {
		return nil, err
	}
	s.timed(StagePrecipitation, func() { w = withPrecipitation(w) })
	s.timed(StageKingdoms, func() { w, err = withKingdoms(w) })
	if err != nil {
		return nil, err
	}

	slog.Info("world generated", "world", w.String(), "elapsed", time.Since(start).Round(time.Millisecond))
	return s.publish(w), nil
}

func (s *Session) resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.seeds.Seed(ctx)
}
