package model

import "time"

// Contact records a single directional QSO log entry: the initiating
// operator reports having worked the recipient call sign at a given
// time, frequency and mode. The recipient is a plain call sign string
// because the counterpart station is not necessarily registered here.
//
// Confirmation is one-way: Confirmed starts false and is flipped to
// true only by the matcher when the counterpart's own log entry is
// reconciled with this one. A confirmed contact is immutable and
// cannot be deleted.
//
// Fields:
//  ID                – primary key identifier.
//  InitiatorID       – operator who logged the contact.
//  Recipient         – call sign of the worked station, upper-case.
//  Frequency         – frequency in MHz (26.0–900.0).
//  Mode              – transmission mode (e.g. SSB, FM, FT8).
//  ContactedAt       – when the contact took place (UTC, indexed).
//  InitiatorLocation – grid square of the initiator (AA00AA).
//  RecipientLocation – grid square of the worked station (AA00AA).
//  Confirmed         – whether both sides have logged this contact.
//  CreatedAt         – creation timestamp, set once.
type Contact struct {
	ID                uint64    // contacts.id
	InitiatorID       uint64    // contacts.initiator_id
	Recipient         string    // contacts.recipient
	Frequency         float64   // contacts.frequency
	Mode              string    // contacts.mode
	ContactedAt       time.Time // contacts.contacted_at
	InitiatorLocation string    // contacts.initiator_location
	RecipientLocation string    // contacts.recipient_location
	Confirmed         bool      // contacts.confirmed
	CreatedAt         time.Time // contacts.created_at
}

// Ranking is one row of the public leaderboard: how many contacts an
// operator has logged and how many of those have been confirmed by the
// counterpart.
type Ranking struct {
	CallSign          string `json:"call_sign"`
	ConfirmedContacts uint64 `json:"confirmed_contacts"`
	TotalContacts     uint64 `json:"total_contacts"`
}
