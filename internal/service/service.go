// Package service runs the poll loop: it refreshes the device directory,
// reads the full parameter set for every shared device, derives snapshot
// state for the exporter and the MQTT bridge, and hosts the two control
// loops carried over from the integration this daemon replaces (minimum
// tank temperature steering and COP estimation).
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/victor987/hitemp/internal/device"
	"github.com/victor987/hitemp/internal/store"
	"github.com/victor987/hitemp/internal/types"
)

const (
	// Tank energy model for the COP estimate: 300 l of water,
	// 0.001163 kWh per kg·K.
	tankVolumeLiters   = 300
	specificHeatKWhKgK = 0.001163

	// R01 hard limits; min-control results are clamped into these.
	minTargetTemp = 38
	maxTargetTemp = 75

	// Changes smaller than this are sensor noise, not adjustments.
	tempEpsilon = 0.1
)

// Stats are cumulative poll-loop counters.
type Stats struct {
	Polls        uint64
	PollErrors   uint64
	Writes       uint64
	WriteErrors  uint64
	LastPoll     time.Time
	PollDuration time.Duration // duration of the most recent poll cycle
}

// Service drives polling and control for all devices on the account.
type Service struct {
	directory  *device.Directory
	poller     *device.Poller
	controller *device.Controller
	cache      *store.Store // optional
	logger     *slog.Logger
	interval   time.Duration

	mu        sync.RWMutex
	snapshots map[string]*types.Snapshot
	onUpdate  []func(*types.Snapshot)

	minMu sync.Mutex
	min   map[string]*minState

	copMu sync.Mutex
	meter *float64 // external energy meter, kWh
	cop   map[string]*copState

	polls        atomic.Uint64
	pollErrors   atomic.Uint64
	writes       atomic.Uint64
	writeErrors  atomic.Uint64
	lastPoll     atomic.Int64 // unix nanos
	pollDuration atomic.Int64 // nanos
}

// New creates the service. cache may be nil; when set, previously cached
// snapshots are visible immediately so downstream consumers have state
// before the first poll.
func New(dir *device.Directory, poller *device.Poller, controller *device.Controller, cache *store.Store, interval time.Duration, logger *slog.Logger) *Service {
	s := &Service{
		directory:  dir,
		poller:     poller,
		controller: controller,
		cache:      cache,
		logger:     logger.With("component", "service"),
		interval:   interval,
		snapshots:  make(map[string]*types.Snapshot),
		min:        make(map[string]*minState),
		cop:        make(map[string]*copState),
	}

	if cache != nil {
		snaps, err := cache.Snapshots()
		if err != nil {
			s.logger.Warn("Could not load cached snapshots", "error", err)
		}
		for _, snap := range snaps {
			s.snapshots[snap.Device.DeviceCode] = snap
		}
		if len(snaps) > 0 {
			s.logger.Info("Restored cached snapshots", "devices", len(snaps))
		}
	}

	return s
}

// OnUpdate registers a callback invoked after each completed device poll.
// Register before Run; not safe to call concurrently with it.
func (s *Service) OnUpdate(fn func(*types.Snapshot)) {
	s.onUpdate = append(s.onUpdate, fn)
}

// Run polls on the configured interval until ctx is cancelled. The first
// poll happens immediately.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info("Poll loop started", "interval", s.interval)
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Poll loop stopped")
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	s.polls.Add(1)
	start := time.Now()
	defer func() { s.pollDuration.Store(int64(time.Since(start))) }()

	devices, err := s.directory.List(ctx)
	if err != nil {
		s.pollErrors.Add(1)
		s.logger.Error("Directory refresh failed", "error", err)
		return
	}

	for _, dev := range devices {
		if dev.DeviceCode == "" {
			continue
		}
		readings, err := s.poller.ReadAll(ctx, dev.DeviceCode)
		if err != nil {
			s.pollErrors.Add(1)
			s.logger.Error("Poll failed", "device", dev.DeviceCode, "error", err)
			continue
		}

		snap := &types.Snapshot{
			Device:   dev,
			Readings: readings,
			Taken:    time.Now(),
		}
		snap.COP = s.updateCOP(snap)

		s.mu.Lock()
		s.snapshots[dev.DeviceCode] = snap
		s.mu.Unlock()

		if s.cache != nil {
			if err := s.cache.SaveSnapshot(snap); err != nil {
				s.logger.Warn("Snapshot cache write failed", "device", dev.DeviceCode, "error", err)
			}
		}

		s.runMinimumControl(ctx, snap)

		for _, fn := range s.onUpdate {
			fn(snap)
		}
	}

	s.lastPoll.Store(time.Now().UnixNano())
}

// Snapshot returns the latest snapshot for a device.
func (s *Service) Snapshot(deviceCode string) (*types.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[deviceCode]
	return snap, ok
}

// Snapshots returns the latest snapshot of every known device.
func (s *Service) Snapshots() []*types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	return out
}

// Write validates and sends one parameter write, then re-polls the device so
// downstream state converges without waiting a full interval. The write
// itself is not confirmed in-protocol; the re-poll is the reconciliation.
func (s *Service) Write(ctx context.Context, deviceCode, code string, value float64) error {
	s.writes.Add(1)
	if err := s.controller.WriteOne(ctx, deviceCode, code, value); err != nil {
		s.writeErrors.Add(1)
		return err
	}

	s.refreshDevice(ctx, deviceCode)
	return nil
}

// refreshDevice re-reads one device outside the regular ticker.
func (s *Service) refreshDevice(ctx context.Context, deviceCode string) {
	readings, err := s.poller.ReadAll(ctx, deviceCode)
	if err != nil {
		s.logger.Warn("Post-write refresh failed", "device", deviceCode, "error", err)
		return
	}

	s.mu.Lock()
	prev, ok := s.snapshots[deviceCode]
	if !ok {
		s.mu.Unlock()
		return
	}
	snap := &types.Snapshot{Device: prev.Device, Readings: readings, Taken: time.Now(), COP: prev.COP}
	s.snapshots[deviceCode] = snap
	s.mu.Unlock()

	for _, fn := range s.onUpdate {
		fn(snap)
	}
}

// Stats returns cumulative poll-loop counters.
func (s *Service) Stats() Stats {
	st := Stats{
		Polls:       s.polls.Load(),
		PollErrors:  s.pollErrors.Load(),
		Writes:      s.writes.Load(),
		WriteErrors: s.writeErrors.Load(),
	}
	if ns := s.lastPoll.Load(); ns != 0 {
		st.LastPoll = time.Unix(0, ns)
	}
	st.PollDuration = time.Duration(s.pollDuration.Load())
	return st
}
