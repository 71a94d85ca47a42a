package simulator

import (
	"FlowForge/internal/model"
	"fmt"
	"math/rand"
	"time"
)

// simEpoch anchors batch timestamps so generation never reads the wall
// clock. Live sessions re-anchor ticks to their own clock instead.
var simEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// GenerateBatch produces exactly count flow records for the given mode.
// The same (mode, count, seed) triple always yields the identical
// sequence: all entropy comes from the seeded source and timestamps are
// derived from a fixed simulation epoch.
func GenerateBatch(mode Mode, count int, seed int64) ([]model.FlowRecord, error) {
	if err := validateRequest(mode, count); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	return generate(mode, count, rng, simEpoch, 0), nil
}

// validateRequest rejects malformed requests before any record exists.
func validateRequest(mode Mode, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidConfiguration, count)
	}
	return mode.validate()
}

// generate is the shared core behind GenerateBatch and Session.Tick.
// The caller owns the rng (and with it, reproducibility), the base
// timestamp, and the starting flow ID.
func generate(mode Mode, count int, rng *rand.Rand, base time.Time, firstID uint64) []model.FlowRecord {
	flows := make([]model.FlowRecord, 0, count)

	rate := mode.BenignRate
	if rate <= 0 {
		rate = defaultBenignRate
	}

	clock := base
	for i := 0; i < count; i++ {
		var flow model.FlowRecord

		switch mode.Kind {
		case ModeSingleAttack:
			if rng.Float64() < mode.Intensity {
				flow = attackFlow(rng, mode.Attack)
			} else {
				flow = benignFlow(rng)
			}
			clock = clock.Add(expGap(rng, rate))

		case ModeMixedThreats:
			label := sampleLabel(rng, mode.weights)
			if label == model.LabelBenign {
				flow = benignFlow(rng)
			} else {
				flow = attackFlow(rng, label)
			}
			clock = clock.Add(expGap(rng, rate))

		case ModeDailyCycle:
			// Spread the batch over one simulated day; the hour drives
			// both the volume factor and the attack windows.
			offset := time.Duration(int64(i) * int64(24*time.Hour) / int64(count))
			clock = base.Add(offset)
			hour := int(offset / time.Hour)
			factor := hourFactor(rng, hour)

			if window, ok := scheduledWindow(mode.Schedule, hour); ok && rng.Float64() < window.Probability {
				flow = attackFlow(rng, window.Attack)
			} else {
				flow = benignFlow(rng)
				scaleVolume(&flow, factor)
			}

		default: // ModeSteady
			flow = benignFlow(rng)
			clock = clock.Add(expGap(rng, rate))
		}

		flow.ID = firstID + uint64(i) + 1
		flow.Timestamp = clock
		flows = append(flows, flow)
	}

	return flows
}

// expGap draws an inter-arrival gap with mean 1/rate seconds.
func expGap(rng *rand.Rand, rate float64) time.Duration {
	return time.Duration(rng.ExpFloat64() / rate * float64(time.Second))
}

// sampleLabel draws from a normalized, sorted categorical distribution.
func sampleLabel(rng *rand.Rand, weights []labelWeight) model.Label {
	r := rng.Float64()
	var acc float64
	for _, e := range weights {
		acc += e.Weight
		if r < acc {
			return e.Label
		}
	}
	return weights[len(weights)-1].Label
}

// scheduledWindow finds the attack window covering the given hour.
func scheduledWindow(schedule []AttackWindow, hour int) (AttackWindow, bool) {
	for _, w := range schedule {
		if w.Hour == hour {
			return w, true
		}
	}
	return AttackWindow{}, false
}

// scaleVolume applies the time-of-day factor to a benign flow's volume
// features, then rederives the rates.
func scaleVolume(flow *model.FlowRecord, factor float64) {
	flow.FwdPackets = uint64(float64(flow.FwdPackets) * factor)
	if flow.FwdPackets == 0 {
		flow.FwdPackets = 1
	}
	flow.BwdPackets = uint64(float64(flow.BwdPackets) * factor)
	flow.FwdBytes = uint64(float64(flow.FwdBytes) * factor)
	flow.BwdBytes = uint64(float64(flow.BwdBytes) * factor)
	fillRates(flow)
}
