// Package state owns conversation sessions and their in-process store.
package state

import (
	"sync"
	"time"

	accountx "github.com/apexfin/account-agent/agent/account"
	contractx "github.com/apexfin/account-agent/agent/contract"
	validatex "github.com/apexfin/account-agent/agent/validate"
)

// Session is one conversation: an append-only transcript plus the
// application draft accumulated from validated field values.
//
// Session methods do not lock. The orchestrator holds the session lock for
// the whole duration of a turn (every model round-trip and tool execution
// included), which is the unit of mutual exclusion the data model needs.
type Session struct {
	mu sync.Mutex

	ID             string
	Turns          []contractx.Turn
	Draft          map[validatex.Field]string
	Consent        bool
	AccountCreated bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSession creates an empty session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Draft:     make(map[validatex.Field]string, 10),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Lock acquires the per-session turn lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// TryLock reports whether the turn lock could be acquired without blocking.
// Used by the store reaper to skip sessions with a turn in flight.
func (s *Session) TryLock() bool { return s.mu.TryLock() }

// AppendTurn appends to the transcript. Turns are never removed or rewritten.
func (s *Session) AppendTurn(t contractx.Turn) {
	s.Turns = append(s.Turns, t)
	if !t.Timestamp.IsZero() {
		s.UpdatedAt = t.Timestamp.UTC()
	}
}

// SetField records a validated (cleaned) value in the draft, overwriting any
// previous value for the same field. Callers must only pass values that
// passed the field validator.
func (s *Session) SetField(f validatex.Field, cleaned string) {
	if s.Draft == nil {
		s.Draft = make(map[validatex.Field]string, 10)
	}
	s.Draft[f] = cleaned
}

// FieldValue returns the draft value for f, or "".
func (s *Session) FieldValue(f validatex.Field) string {
	return s.Draft[f]
}

// Application assembles the draft into an account application.
func (s *Session) Application() accountx.Application {
	return accountx.Application{
		FirstName:   s.Draft[validatex.FieldFirstName],
		LastName:    s.Draft[validatex.FieldLastName],
		Email:       s.Draft[validatex.FieldEmail],
		Phone:       s.Draft[validatex.FieldPhone],
		DateOfBirth: s.Draft[validatex.FieldDateOfBirth],
		SSN:         s.Draft[validatex.FieldSSN],
		Address: accountx.Address{
			Street: s.Draft[validatex.FieldStreet],
			City:   s.Draft[validatex.FieldCity],
			State:  s.Draft[validatex.FieldState],
			Zip:    s.Draft[validatex.FieldZip],
		},
		AgreedToTerms: s.Consent,
	}
}
