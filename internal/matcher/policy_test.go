package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/qso-logbook/internal/model"
)

var basePolicy = Policy{TimeWindow: time.Hour, FreqToleranceMHz: 0.005}

func baseQSO() *model.Contact {
	return &model.Contact{
		ID:          10,
		InitiatorID: 1,
		Recipient:   "M0ABC",
		Frequency:   145.500,
		Mode:        "FM",
		ContactedAt: time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
	}
}

// counterpart returns a candidate that qualifies against baseQSO; tests
// then perturb single fields.
func counterpart() model.Contact {
	return model.Contact{
		ID:          20,
		InitiatorID: 2,
		Recipient:   "G4XYZ",
		Frequency:   145.500,
		Mode:        "FM",
		ContactedAt: time.Date(2026, 3, 14, 19, 32, 0, 0, time.UTC),
	}
}

func TestMatchesQualifyingCandidate(t *testing.T) {
	cand := counterpart()
	assert.True(t, basePolicy.Matches(baseQSO(), &cand))
}

func TestMatchesRejectsConfirmedCandidate(t *testing.T) {
	cand := counterpart()
	cand.Confirmed = true
	assert.False(t, basePolicy.Matches(baseQSO(), &cand))
}

func TestMatchesRejectsSameRecord(t *testing.T) {
	qso := baseQSO()
	cand := counterpart()
	cand.ID = qso.ID
	assert.False(t, basePolicy.Matches(qso, &cand))
}

func TestMatchesRejectsDifferentMode(t *testing.T) {
	cand := counterpart()
	cand.Mode = "SSB"
	assert.False(t, basePolicy.Matches(baseQSO(), &cand))
}

func TestMatchesFrequencyTolerance(t *testing.T) {
	cand := counterpart()

	cand.Frequency = 145.505 // exactly at tolerance
	assert.True(t, basePolicy.Matches(baseQSO(), &cand))

	cand.Frequency = 145.495
	assert.True(t, basePolicy.Matches(baseQSO(), &cand))

	cand.Frequency = 145.5051
	assert.False(t, basePolicy.Matches(baseQSO(), &cand))
}

func TestMatchesTimeWindow(t *testing.T) {
	qso := baseQSO()
	cand := counterpart()

	cand.ContactedAt = qso.ContactedAt.Add(time.Hour) // at the boundary
	assert.True(t, basePolicy.Matches(qso, &cand))

	cand.ContactedAt = qso.ContactedAt.Add(-time.Hour) // symmetric
	assert.True(t, basePolicy.Matches(qso, &cand))

	cand.ContactedAt = qso.ContactedAt.Add(time.Hour + time.Second)
	assert.False(t, basePolicy.Matches(qso, &cand))
}

func TestSelectCandidateNone(t *testing.T) {
	assert.Nil(t, SelectCandidate(baseQSO(), nil, basePolicy))

	offMode := counterpart()
	offMode.Mode = "CW"
	assert.Nil(t, SelectCandidate(baseQSO(), []model.Contact{offMode}, basePolicy))
}

func TestSelectCandidateEarliestWins(t *testing.T) {
	qso := baseQSO()

	later := counterpart()
	later.ID = 21
	later.ContactedAt = qso.ContactedAt.Add(20 * time.Minute)

	earlier := counterpart()
	earlier.ID = 22
	earlier.ContactedAt = qso.ContactedAt.Add(-30 * time.Minute)

	got := SelectCandidate(qso, []model.Contact{later, earlier}, basePolicy)
	require.NotNil(t, got)
	assert.Equal(t, uint64(22), got.ID)
}

func TestSelectCandidateSkipsDisqualified(t *testing.T) {
	qso := baseQSO()

	confirmed := counterpart()
	confirmed.ID = 30
	confirmed.Confirmed = true
	confirmed.ContactedAt = qso.ContactedAt // earliest, but already confirmed

	ok := counterpart()
	ok.ID = 31
	ok.ContactedAt = qso.ContactedAt.Add(5 * time.Minute)

	got := SelectCandidate(qso, []model.Contact{confirmed, ok}, basePolicy)
	require.NotNil(t, got)
	assert.Equal(t, uint64(31), got.ID)
}

func TestSelectCandidateReturnsSliceElement(t *testing.T) {
	// The matcher confirms the returned record by ID inside the same
	// transaction, so the pointer must alias the input slice rather than
	// a copy.
	qso := baseQSO()
	cands := []model.Contact{counterpart()}

	got := SelectCandidate(qso, cands, basePolicy)
	require.NotNil(t, got)
	assert.Same(t, &cands[0], got)
}
