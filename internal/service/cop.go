package service

import (
	"math"

	"github.com/victor987/hitemp/internal/types"
)

// copState tracks the COP estimate for one device. The estimate compares
// the change in stored tank energy against the electricity drawn from an
// external meter between meter updates.
type copState struct {
	lastMeter  *float64 // kWh at the previous meter change
	lastStored *float64 // tank energy in kWh at the previous meter change
	current    *float64
}

// SetEnergyMeter feeds the latest cumulative electricity reading in kWh.
// Typically wired to an MQTT energy meter topic.
func (s *Service) SetEnergyMeter(kwh float64) {
	s.copMu.Lock()
	defer s.copMu.Unlock()
	s.meter = &kwh
}

// storedEnergy models the energy held in the tank from the lower probe over
// the full tank volume.
func storedEnergy(snap *types.Snapshot) (float64, bool) {
	t02, ok := snap.Number("T02")
	if !ok {
		return 0, false
	}
	return tankVolumeLiters * specificHeatKWhKgK * t02, true
}

// updateCOP recomputes the coefficient of performance whenever the external
// meter has moved since the last poll. The estimate can go negative while
// the tank is draining; that is real information, not an error.
func (s *Service) updateCOP(snap *types.Snapshot) *float64 {
	s.copMu.Lock()
	defer s.copMu.Unlock()

	st, ok := s.cop[snap.Device.DeviceCode]
	if !ok {
		st = &copState{}
		s.cop[snap.Device.DeviceCode] = st
	}

	if s.meter == nil {
		return st.current
	}
	meter := *s.meter

	if st.lastMeter == nil {
		st.lastMeter = &meter
		if stored, ok := storedEnergy(snap); ok {
			st.lastStored = &stored
		}
		return st.current
	}

	if meter == *st.lastMeter {
		return st.current
	}

	stored, okStored := storedEnergy(snap)
	if okStored && st.lastStored != nil {
		usedKWh := meter - *st.lastMeter
		if usedKWh > 0 {
			cop := math.Round((stored-*st.lastStored)/usedKWh*100) / 100
			st.current = &cop
			s.logger.Debug("COP estimate updated",
				"device", snap.Device.DeviceCode, "cop", cop, "used_kwh", usedKWh)
		}
	}

	st.lastMeter = &meter
	if okStored {
		st.lastStored = &stored
	} else {
		st.lastStored = nil
	}
	return st.current
}
