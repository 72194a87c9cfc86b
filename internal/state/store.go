// Package state holds the latest telemetry and radio configuration.
//
// One logical owner (the ingress loop) applies mutations in arrival
// order; everything else reads through Snapshot, which copies.
package state

import (
	"sync"
	"time"

	"aerofly-bridge/internal/telemetry"
)

type Store struct {
	mu       sync.Mutex
	pos      *telemetry.PositionRecord
	att      *telemetry.AttitudeRecord
	radio    telemetry.RadioState
	pending  *telemetry.RadioState
	lastData time.Time
}

// Snapshot is a detached view of the store. Record pointers are copies;
// mutating them never affects the store.
type Snapshot struct {
	Position *telemetry.PositionRecord
	Attitude *telemetry.AttitudeRecord
	Radio    telemetry.RadioState
	LastData time.Time
}

func NewStore() *Store {
	return &Store{radio: telemetry.DefaultRadioState()}
}

// RecordPosition replaces the position slot and commits any pending
// radio update. The commit rides the position path so a radio change
// becomes visible atomically with the sample that follows it.
func (s *Store) RecordPosition(now time.Time, p telemetry.PositionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = &p
	s.lastData = now
	s.commitPendingLocked()
}

// RecordAttitude replaces the attitude slot. Attitude alone never
// commits a pending radio update.
func (s *Store) RecordAttitude(now time.Time, a telemetry.AttitudeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.att = &a
	s.lastData = now
}

// StageRadioUpdate parks an update until the next position sample.
// A newer staged update overwrites an older uncommitted one.
func (s *Store) StageRadioUpdate(r telemetry.RadioState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &r
}

// CommitPendingRadioUpdate applies the staged update, if any, and
// reports whether anything changed.
func (s *Store) CommitPendingRadioUpdate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitPendingLocked()
}

func (s *Store) commitPendingLocked() bool {
	if s.pending == nil {
		return false
	}
	s.radio = *s.pending
	s.pending = nil
	return true
}

// LastData returns the receive time of the most recent accepted record.
func (s *Store) LastData() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastData
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Snapshot{Radio: s.radio, LastData: s.lastData}
	if s.pos != nil {
		p := *s.pos
		out.Position = &p
	}
	if s.att != nil {
		a := *s.att
		out.Attitude = &a
	}
	return out
}
