package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// EventType names an observable wallet or registry notification.
type EventType string

const (
	EventSubmission        EventType = "SUBMISSION"
	EventConfirmation      EventType = "CONFIRMATION"
	EventRevocation        EventType = "REVOCATION"
	EventExecution         EventType = "EXECUTION"
	EventExecutionFailure  EventType = "EXECUTION_FAILURE"
	EventInstantiation     EventType = "INSTANTIATION"
	EventMembershipChanged EventType = "MEMBERSHIP_CHANGED"
	EventMetadataChanged   EventType = "METADATA_CHANGED"
)

// MembershipChange is the direction of a MEMBERSHIP_CHANGED event.
type MembershipChange string

const (
	MembershipAdded   MembershipChange = "ADDED"
	MembershipRemoved MembershipChange = "REMOVED"
)

// Event is a notification emitted after the state change it describes has
// been committed.
type Event struct {
	ID            uuid.UUID        `json:"id"`
	Type          EventType        `json:"type"`
	Wallet        common.Address   `json:"wallet"`
	TransactionID *uint64          `json:"transaction_id,omitempty"`
	Member        *Member          `json:"member,omitempty"`
	Change        MembershipChange `json:"change,omitempty"`
	Detail        string           `json:"detail,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func newEvent(t EventType, wallet common.Address) Event {
	return Event{
		ID:        uuid.New(),
		Type:      t,
		Wallet:    wallet,
		CreatedAt: time.Now().UTC(),
	}
}

func NewSubmissionEvent(wallet common.Address, txID uint64) Event {
	e := newEvent(EventSubmission, wallet)
	e.TransactionID = &txID
	return e
}

func NewConfirmationEvent(wallet common.Address, txID uint64, m Member) Event {
	e := newEvent(EventConfirmation, wallet)
	e.TransactionID = &txID
	e.Member = &m
	return e
}

func NewRevocationEvent(wallet common.Address, txID uint64, m Member) Event {
	e := newEvent(EventRevocation, wallet)
	e.TransactionID = &txID
	e.Member = &m
	return e
}

func NewExecutionEvent(wallet common.Address, txID uint64) Event {
	e := newEvent(EventExecution, wallet)
	e.TransactionID = &txID
	return e
}

func NewExecutionFailureEvent(wallet common.Address, txID uint64, reason string) Event {
	e := newEvent(EventExecutionFailure, wallet)
	e.TransactionID = &txID
	e.Detail = reason
	return e
}

func NewInstantiationEvent(wallet common.Address, creator Member) Event {
	e := newEvent(EventInstantiation, wallet)
	e.Member = &creator
	return e
}

func NewMembershipChangedEvent(wallet common.Address, m Member, change MembershipChange) Event {
	e := newEvent(EventMembershipChanged, wallet)
	e.Member = &m
	e.Change = change
	return e
}

func NewMetadataChangedEvent(wallet common.Address, name string) Event {
	e := newEvent(EventMetadataChanged, wallet)
	e.Detail = name
	return e
}

// MembershipEvents expands a governance effect into MEMBERSHIP_CHANGED and
// METADATA_CHANGED events, removals before additions.
func MembershipEvents(w *Wallet, effect *GovernanceEffect) []Event {
	var events []Event
	for _, m := range effect.Removed {
		events = append(events, NewMembershipChangedEvent(w.Handle, m, MembershipRemoved))
	}
	for _, m := range effect.Added {
		events = append(events, NewMembershipChangedEvent(w.Handle, m, MembershipAdded))
	}
	if effect.MetadataChanged {
		events = append(events, NewMetadataChangedEvent(w.Handle, w.Name))
	}
	return events
}
