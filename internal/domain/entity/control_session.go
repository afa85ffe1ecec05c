package entity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

var (
	// ErrInvalidTransition is returned when a state change is not allowed.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrAlreadySet is returned when a set-once field is written twice.
	ErrAlreadySet = errors.New("already set")
)

// ControlSession is one control-channel conversation for one listener
// attachment. Its state only moves forward.
type ControlSession struct {
	mu      sync.Mutex
	id      uuid.UUID
	state   vo.SessionState
	dialect vo.Dialect
	port    uint16
	address vo.OnionAddress
	started time.Time
}

// NewControlSession returns an idle session publishing on port.
func NewControlSession(port uint16) *ControlSession {
	return &ControlSession{id: uuid.New(), state: vo.StateIdle, port: port, started: time.Now()}
}

// ID identifies the session in logs.
func (s *ControlSession) ID() uuid.UUID { return s.id }

// Port is the resolved public port, fixed for the session.
func (s *ControlSession) Port() uint16 { return s.port }

// Started reports when the session was created.
func (s *ControlSession) Started() time.Time { return s.started }

func (s *ControlSession) State() vo.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transition moves the session to next.
func (s *ControlSession) Transition(next vo.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
	}
	s.state = next
	return nil
}

func (s *ControlSession) Dialect() vo.Dialect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialect
}

// SetDialect records the negotiated dialect. It can be called once.
func (s *ControlSession) SetDialect(d vo.Dialect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !d.IsValid() {
		return fmt.Errorf("invalid dialect %s", d)
	}
	if s.dialect != vo.DialectUnset {
		return fmt.Errorf("dialect: %w", ErrAlreadySet)
	}
	s.dialect = d
	return nil
}

// Address returns the published address, if any.
func (s *ControlSession) Address() (vo.OnionAddress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address, !s.address.IsZero()
}

// SetAddress records the published address. It requires a negotiated dialect
// and can be called once.
func (s *ControlSession) SetAddress(a vo.OnionAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialect == vo.DialectUnset {
		return fmt.Errorf("address before dialect negotiation")
	}
	if !s.address.IsZero() {
		return fmt.Errorf("address: %w", ErrAlreadySet)
	}
	if a.IsZero() {
		return fmt.Errorf("empty address")
	}
	s.address = a
	return nil
}
