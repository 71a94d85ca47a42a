package simulator

import (
	"FlowForge/internal/model"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidConfiguration is returned when a mode or batch request is
// malformed. It is always detected before any record is produced.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ModeKind discriminates the generation mode variants.
type ModeKind int

const (
	ModeSteady ModeKind = iota
	ModeSingleAttack
	ModeMixedThreats
	ModeDailyCycle
)

func (k ModeKind) String() string {
	switch k {
	case ModeSteady:
		return "steady"
	case ModeSingleAttack:
		return "single_attack"
	case ModeMixedThreats:
		return "mixed_threats"
	case ModeDailyCycle:
		return "daily_cycle"
	default:
		return "unknown"
	}
}

// AttackWindow schedules elevated attack injection for one hour of the
// simulated day in DailyCycle mode.
type AttackWindow struct {
	Hour        int         `yaml:"hour" json:"hour"`
	Attack      model.Label `yaml:"attack" json:"attack"`
	Probability float64     `yaml:"probability" json:"probability"`
}

// labelWeight is one entry of a normalized categorical distribution.
// Entries are kept sorted by label so sampling order is deterministic.
type labelWeight struct {
	Label  model.Label
	Weight float64
}

// Mode selects how a batch of flow records is produced.
// Use the constructors; a zero Mode is a valid Steady mode.
type Mode struct {
	Kind ModeKind

	// BenignRate is the target flow arrival rate in flows per second,
	// used to space record timestamps. Zero selects the default rate.
	BenignRate float64

	// SingleAttack parameters.
	Attack         model.Label
	Intensity      float64
	AttackDuration time.Duration

	// MixedThreats normalized weights, sorted by label.
	weights []labelWeight

	// DailyCycle schedule.
	Schedule []AttackWindow
}

// Steady produces exclusively benign traffic at the given rate.
func Steady(benignRate float64) Mode {
	return Mode{Kind: ModeSteady, BenignRate: benignRate}
}

// SingleAttack mixes one attack class into benign traffic. Intensity is
// the expected fraction of attack records, in [0,1].
func SingleAttack(attack model.Label, intensity float64, duration time.Duration) Mode {
	return Mode{
		Kind:           ModeSingleAttack,
		Attack:         attack,
		Intensity:      intensity,
		AttackDuration: duration,
	}
}

// MixedThreats draws each record's label independently from the given
// categorical weights. Weights are normalized on construction; a
// negative weight or an empty set is rejected.
func MixedThreats(weights map[model.Label]float64) (Mode, error) {
	if len(weights) == 0 {
		return Mode{}, fmt.Errorf("%w: mixed threats requires at least one weight", ErrInvalidConfiguration)
	}

	var sum float64
	entries := make([]labelWeight, 0, len(weights))
	for label, w := range weights {
		if w < 0 {
			return Mode{}, fmt.Errorf("%w: negative weight %f for label %q", ErrInvalidConfiguration, w, label)
		}
		if label != model.LabelBenign && !knownAttack(label) {
			return Mode{}, fmt.Errorf("%w: unrecognized label %q", ErrInvalidConfiguration, label)
		}
		entries = append(entries, labelWeight{Label: label, Weight: w})
		sum += w
	}
	if sum == 0 {
		return Mode{}, fmt.Errorf("%w: mixed threats weights sum to zero", ErrInvalidConfiguration)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })
	for i := range entries {
		entries[i].Weight /= sum
	}

	return Mode{Kind: ModeMixedThreats, weights: entries}, nil
}

// DailyCycle varies benign volume and attack injection with the
// simulated time of day. A nil schedule selects DefaultSchedule.
func DailyCycle(baseRate float64, schedule []AttackWindow) Mode {
	if schedule == nil {
		schedule = DefaultSchedule()
	}
	return Mode{Kind: ModeDailyCycle, BenignRate: baseRate, Schedule: schedule}
}

// DefaultSchedule mirrors the classic demo day: a DDoS burst in the
// afternoon and a port scan in the evening.
func DefaultSchedule() []AttackWindow {
	return []AttackWindow{
		{Hour: 14, Attack: model.LabelDDoS, Probability: defaultAttackShare},
		{Hour: 20, Attack: model.LabelPortScan, Probability: defaultAttackShare},
	}
}

// Weights returns the normalized categorical distribution of a
// MixedThreats mode, or nil for other kinds.
func (m Mode) Weights() map[model.Label]float64 {
	if m.Kind != ModeMixedThreats {
		return nil
	}
	out := make(map[model.Label]float64, len(m.weights))
	for _, e := range m.weights {
		out[e.Label] = e.Weight
	}
	return out
}

// validate rejects malformed modes. Modes built by the constructors
// always pass, but a Mode is a plain struct and may be hand-assembled.
func (m Mode) validate() error {
	if m.BenignRate < 0 {
		return fmt.Errorf("%w: benign rate must be non-negative, got %f", ErrInvalidConfiguration, m.BenignRate)
	}

	switch m.Kind {
	case ModeSteady:
		return nil
	case ModeSingleAttack:
		if !knownAttack(m.Attack) {
			return fmt.Errorf("%w: unrecognized attack label %q", ErrInvalidConfiguration, m.Attack)
		}
		if m.Intensity < 0 || m.Intensity > 1 {
			return fmt.Errorf("%w: intensity must be within [0,1], got %f", ErrInvalidConfiguration, m.Intensity)
		}
		return nil
	case ModeMixedThreats:
		if len(m.weights) == 0 {
			return fmt.Errorf("%w: mixed threats mode has no weights", ErrInvalidConfiguration)
		}
		for _, e := range m.weights {
			if e.Weight < 0 {
				return fmt.Errorf("%w: negative weight for label %q", ErrInvalidConfiguration, e.Label)
			}
		}
		return nil
	case ModeDailyCycle:
		for _, w := range m.Schedule {
			if w.Hour < 0 || w.Hour > 23 {
				return fmt.Errorf("%w: schedule hour %d outside [0,23]", ErrInvalidConfiguration, w.Hour)
			}
			if !knownAttack(w.Attack) {
				return fmt.Errorf("%w: unrecognized attack label %q in schedule", ErrInvalidConfiguration, w.Attack)
			}
			if w.Probability < 0 || w.Probability > 1 {
				return fmt.Errorf("%w: schedule probability must be within [0,1], got %f", ErrInvalidConfiguration, w.Probability)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown mode kind %d", ErrInvalidConfiguration, m.Kind)
	}
}

func knownAttack(label model.Label) bool {
	for _, l := range model.AttackLabels() {
		if l == label {
			return true
		}
	}
	return false
}
