package simulator

import (
	"FlowForge/internal/model"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// ErrSessionStopped is returned when a live operation is invoked on a
// session that has not been started.
var ErrSessionStopped = errors.New("session is stopped")

// SessionState is the live session's position in its state machine.
type SessionState int

const (
	StateStopped SessionState = iota
	StateBaseline
	StateAttackActive
)

func (s SessionState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateBaseline:
		return "baseline"
	case StateAttackActive:
		return "attack_active"
	default:
		return "unknown"
	}
}

// TickResult carries one tick's worth of generated flows along with the
// session state observed after the tick, so a consumer can react to an
// attack expiring without polling session internals.
type TickResult struct {
	Flows        []model.FlowRecord `json:"flows"`
	State        SessionState       `json:"-"`
	StateName    string             `json:"state"`
	StateChanged bool               `json:"state_changed"`
	ActiveAttack model.Label        `json:"active_attack,omitempty"`
}

// Session is the mutable state of one live generation context. It has a
// single logical owner (one dashboard session) and is not safe for
// concurrent mutation; independent consumers each hold their own Session.
type Session struct {
	id       string
	state    SessionState
	baseline Mode

	attack    model.Label
	intensity float64
	deadline  time.Time

	records uint64
	rng     *rand.Rand

	// now is the session clock; overridable in tests.
	now func() time.Time
}

// NewSession creates a stopped session whose baseline mode drives
// generation between attacks. The seed fixes the record stream for the
// lifetime of the session.
func NewSession(baseline Mode, seed int64) (*Session, error) {
	if err := baseline.validate(); err != nil {
		return nil, err
	}
	return &Session{
		id:       uuid.New().String(),
		state:    StateStopped,
		baseline: baseline,
		rng:      rand.New(rand.NewSource(seed)),
		now:      time.Now,
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() SessionState { return s.state }

// Records returns the cumulative number of records generated.
func (s *Session) Records() uint64 { return s.records }

// ActiveAttack returns the attack label while one is active, or the
// empty label otherwise.
func (s *Session) ActiveAttack() model.Label {
	if s.state != StateAttackActive {
		return ""
	}
	return s.attack
}

// Start moves a stopped session to baseline generation. Starting an
// already running session is a no-op.
func (s *Session) Start() {
	if s.state == StateStopped {
		s.state = StateBaseline
	}
}

// StartAttack activates (or, if one is already active, replaces) an
// attack of the given class, expiring duration from now. The deadline is
// advisory: it is checked on the next Tick, not by a background timer.
func (s *Session) StartAttack(attack model.Label, duration time.Duration) error {
	if s.state == StateStopped {
		return ErrSessionStopped
	}
	if !knownAttack(attack) {
		return fmt.Errorf("%w: unrecognized attack label %q", ErrInvalidConfiguration, attack)
	}
	if duration <= 0 {
		return fmt.Errorf("%w: attack duration must be positive, got %s", ErrInvalidConfiguration, duration)
	}

	s.attack = attack
	s.intensity = defaultAttackShare
	s.deadline = s.now().Add(duration)
	s.state = StateAttackActive
	return nil
}

// StopAttack reverts to baseline generation regardless of the deadline.
// Calling it when no attack is active is a no-op.
func (s *Session) StopAttack() {
	if s.state == StateAttackActive {
		s.state = StateBaseline
	}
	s.attack = ""
	s.deadline = time.Time{}
}

// Tick generates the next batch for the current sub-state. If the
// attack deadline elapsed since the previous tick, the session reverts
// to baseline first and the result's StateChanged flag is set.
func (s *Session) Tick(count int) (TickResult, error) {
	if s.state == StateStopped {
		return TickResult{}, ErrSessionStopped
	}

	stateChanged := false
	if s.state == StateAttackActive && s.now().After(s.deadline) {
		s.StopAttack()
		stateChanged = true
	}

	mode := s.baseline
	if s.state == StateAttackActive {
		mode = SingleAttack(s.attack, s.intensity, s.deadline.Sub(s.now()))
		mode.BenignRate = s.baseline.BenignRate
	}

	if err := validateRequest(mode, count); err != nil {
		return TickResult{}, err
	}

	flows := generate(mode, count, s.rng, s.now(), s.records)
	s.records += uint64(len(flows))

	return TickResult{
		Flows:        flows,
		State:        s.state,
		StateName:    s.state.String(),
		StateChanged: stateChanged,
		ActiveAttack: s.ActiveAttack(),
	}, nil
}

// Stop tears the session down: attack state cleared, counters reset.
// A stopped session is the valid restart point.
func (s *Session) Stop() {
	s.state = StateStopped
	s.attack = ""
	s.deadline = time.Time{}
	s.records = 0
}
