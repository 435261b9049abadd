// Package matcher implements the QSO reciprocal-matching algorithm: when
// an operator logs a contact, it looks for the counterpart's own log
// entry of the same contact and, when one qualifies, marks both records
// confirmed as a single atomic unit.
package matcher

import (
	"math"
	"time"

	"github.com/iliyamo/qso-logbook/internal/model"
)

// Policy holds the matching tolerances. Band conditions, clock drift
// and rounding mean the two sides of a contact rarely log identical
// values, so both knobs are configurable rather than hard-coded.
type Policy struct {
	TimeWindow       time.Duration // symmetric window around the new contact's timestamp
	FreqToleranceMHz float64       // maximum frequency difference considered the same channel
}

// Matches reports whether cand qualifies as the reciprocal counterpart
// of qso: logged within the time window, on the same mode, within the
// frequency tolerance, and still unconfirmed. Directional reciprocity
// (cand's initiator equals qso's recipient and vice versa) is assumed
// to be established by the candidate query; Matches guards the rest.
func (p Policy) Matches(qso, cand *model.Contact) bool {
	if cand.Confirmed || cand.ID == qso.ID {
		return false
	}
	if cand.Mode != qso.Mode {
		return false
	}
	if math.Abs(cand.Frequency-qso.Frequency) > p.FreqToleranceMHz {
		return false
	}
	diff := cand.ContactedAt.Sub(qso.ContactedAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= p.TimeWindow
}

// SelectCandidate picks the qualifying counterpart from candidates, or
// nil when none qualifies. When several qualify the earliest by
// timestamp wins, which keeps the match deterministic regardless of the
// order the two sides were logged in.
func SelectCandidate(qso *model.Contact, candidates []model.Contact, p Policy) *model.Contact {
	var best *model.Contact
	for i := range candidates {
		cand := &candidates[i]
		if !p.Matches(qso, cand) {
			continue
		}
		if best == nil || cand.ContactedAt.Before(best.ContactedAt) {
			best = cand
		}
	}
	return best
}
