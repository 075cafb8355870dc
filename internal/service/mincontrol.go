package service

import (
	"context"
	"math"

	"github.com/victor987/hitemp/internal/types"
)

// minState tracks the minimum tank temperature loop for one device.
type minState struct {
	enabled bool
	target  float64  // lowest acceptable water temperature
	lastMax *float64 // max(T02, T03) at the previous cycle
	lastR01 *float64 // R01 at the previous cycle, or the value last written
}

// targetForMinimum computes the R01 setting that keeps the tank from
// dropping below target: the midpoint between target and the hotter probe,
// clamped to the device limits.
func targetForMinimum(target, maxTemp float64) float64 {
	r01 := (target + maxTemp) / 2
	if r01 < minTargetTemp {
		return minTargetTemp
	}
	if r01 > maxTargetTemp {
		return maxTargetTemp
	}
	return r01
}

// impliedMinimum inverts targetForMinimum for the current R01 setting, used
// to seed the loop from whatever the heater is already doing.
func impliedMinimum(r01, maxTemp float64) float64 {
	return 2*r01 - maxTemp
}

// EnableMinimumControl turns on the steering loop for a device. While it is
// enabled, each poll recomputes R01 so the tank stays at least at target
// without the heater running flat out.
func (s *Service) EnableMinimumControl(deviceCode string, target float64) {
	st := &minState{enabled: true, target: target}
	if snap, ok := s.Snapshot(deviceCode); ok {
		if maxTemp, ok := tankMax(snap); ok {
			st.lastMax = &maxTemp
		}
	}

	s.minMu.Lock()
	s.min[deviceCode] = st
	s.minMu.Unlock()
	s.logger.Info("Minimum control enabled", "device", deviceCode, "target", target)
}

// DisableMinimumControl turns the loop off. The current R01 setting on the
// device is left as-is.
func (s *Service) DisableMinimumControl(deviceCode string) {
	s.minMu.Lock()
	defer s.minMu.Unlock()
	if st, ok := s.min[deviceCode]; ok && st.enabled {
		st.enabled = false
		s.logger.Info("Minimum control disabled", "device", deviceCode)
	}
}

// MinimumControlTarget reports the configured minimum and whether the loop
// is currently enabled for the device.
func (s *Service) MinimumControlTarget(deviceCode string) (float64, bool) {
	s.minMu.Lock()
	defer s.minMu.Unlock()
	st, ok := s.min[deviceCode]
	if !ok {
		return 0, false
	}
	return st.target, st.enabled
}

// runMinimumControl advances the steering loop after a poll. An R01 change
// this loop did not make means someone adjusted the heater directly; the
// loop backs off rather than fight them. Otherwise R01 is recomputed when
// the tank temperature has moved.
func (s *Service) runMinimumControl(ctx context.Context, snap *types.Snapshot) {
	deviceCode := snap.Device.DeviceCode

	s.minMu.Lock()
	st, ok := s.min[deviceCode]
	if !ok || !st.enabled {
		s.minMu.Unlock()
		return
	}

	maxTemp, okMax := tankMax(snap)
	r01, okR01 := snap.Number("R01")
	if !okMax || !okR01 {
		s.minMu.Unlock()
		return
	}

	if st.lastR01 != nil && math.Abs(r01-*st.lastR01) > tempEpsilon {
		expected := *st.lastR01
		st.enabled = false
		st.lastMax = &maxTemp
		st.lastR01 = &r01
		s.minMu.Unlock()
		s.logger.Info("Minimum control disabled after external target change",
			"device", deviceCode, "expected", expected, "actual", r01)
		return
	}

	if st.lastMax != nil && math.Abs(maxTemp-*st.lastMax) > tempEpsilon {
		want := targetForMinimum(st.target, maxTemp)
		if math.Abs(want-r01) > tempEpsilon {
			st.lastR01 = &want
			target := st.target
			s.minMu.Unlock()

			if err := s.controller.WriteOne(ctx, deviceCode, "R01", want); err != nil {
				s.logger.Error("Minimum control write failed",
					"device", deviceCode, "target", want, "error", err)
				return
			}
			s.logger.Debug("Minimum control adjusted target",
				"device", deviceCode, "r01", want, "tank", maxTemp, "minimum", target)
			return
		}
	}

	st.lastMax = &maxTemp
	st.lastR01 = &r01
	s.minMu.Unlock()
}

// tankMax is the hotter of the two tank probes.
func tankMax(snap *types.Snapshot) (float64, bool) {
	t02, ok2 := snap.Number("T02")
	t03, ok3 := snap.Number("T03")
	if !ok2 || !ok3 {
		return 0, false
	}
	return math.Max(t02, t03), true
}
