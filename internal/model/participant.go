package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ParticipantID uniquely identifies a connected participant for the life of its connection
type ParticipantID string

// NewParticipantID returns a fresh random participant ID
func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

// Participant is one connected client. It occupies at most one session at a time.
type Participant struct {
	ID          ParticipantID
	Address     string // remote network address
	DisplayName string // allocated from the name pool, unique among live participants
	ConnectedAt time.Time

	mu      sync.RWMutex
	session SessionName
}

// NewParticipant creates a participant that is not yet in any session
func NewParticipant(id ParticipantID, address, displayName string, connectedAt time.Time) *Participant {
	return &Participant{
		ID:          id,
		Address:     address,
		DisplayName: displayName,
		ConnectedAt: connectedAt,
	}
}

// CurrentSession returns the name of the occupied session, or "" if none
func (p *Participant) CurrentSession() SessionName {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// InSession returns true if the participant currently occupies a session
func (p *Participant) InSession() bool {
	return p.CurrentSession() != ""
}

// Bind records the session the participant has joined
func (p *Participant) Bind(name SessionName) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = name
}

// Unbind clears the session back-reference
func (p *Participant) Unbind() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = ""
}
