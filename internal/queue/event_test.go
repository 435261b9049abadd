package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() ContactConfirmedEvent {
	return ContactConfirmedEvent{
		ContactID:         101,
		CounterpartID:     202,
		InitiatorCallSign: "G4XYZ",
		RecipientCallSign: "M0ABC",
		FrequencyMHz:      145.5,
		Mode:              "FM",
		ContactedAt:       "2026-03-14T19:30:00Z",
		ConfirmedAt:       "2026-03-14T19:32:10Z",
	}
}

func TestFormatConfirmation(t *testing.T) {
	got := formatConfirmation(testEvent())
	assert.Equal(t,
		"[2026-03-14T19:32:10Z] QSO confirmed | contact_id=101 | counterpart_id=202 | G4XYZ <-> M0ABC | 145.500 MHz FM | contacted_at=2026-03-14T19:30:00Z\n",
		got)
}

func TestEventWireFieldNames(t *testing.T) {
	body, err := json.Marshal(testEvent())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	for _, k := range []string{
		"contact_id", "counterpart_id", "initiator_callsign",
		"recipient_callsign", "frequency_mhz", "mode", "contacted_at", "confirmed_at",
	} {
		assert.Contains(t, m, k)
	}
}

func TestHandleMessageRejectsMalformedBody(t *testing.T) {
	assert.Error(t, handleMessage([]byte("{not json")))
}
