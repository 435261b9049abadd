// Package queue defines message payloads exchanged over the message broker.
package queue

// ContactConfirmedEvent is published when the matcher confirms a
// reciprocal pair of contacts. It carries both record IDs and the
// contact parameters so downstream consumers can log, notify, or feed
// analytics without querying the primary database.
type ContactConfirmedEvent struct {
	ContactID         uint64  `json:"contact_id"`
	CounterpartID     uint64  `json:"counterpart_id"`
	InitiatorCallSign string  `json:"initiator_callsign"`
	RecipientCallSign string  `json:"recipient_callsign"`
	FrequencyMHz      float64 `json:"frequency_mhz"`
	Mode              string  `json:"mode"`
	ContactedAt       string  `json:"contacted_at"`
	ConfirmedAt       string  `json:"confirmed_at"`
}
