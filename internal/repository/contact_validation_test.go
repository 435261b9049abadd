package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/qso-logbook/internal/model"
)

func validTestContact() model.Contact {
	return model.Contact{
		Recipient:         "M0ABC",
		Frequency:         145.500,
		Mode:              "FM",
		ContactedAt:       time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
		InitiatorLocation: "IO91WM",
		RecipientLocation: "JO01AB",
	}
}

func TestNormalizeCallSign(t *testing.T) {
	assert.Equal(t, "M0ABC", NormalizeCallSign("  m0abc "))
	assert.Equal(t, "2E0XYZ", NormalizeCallSign("2e0xyz"))
	assert.Equal(t, "", NormalizeCallSign("   "))
}

func TestValidCallSign(t *testing.T) {
	for _, good := range []string{"ABC", "M0ABC", "2E0XYZ", "AB1CDE2FG3"} {
		assert.True(t, ValidCallSign(good), good)
	}
	for _, bad := range []string{"", "AB", "AB1CDE2FG3X", "M0-ABC", "m0abc", "M0 ABC"} {
		assert.False(t, ValidCallSign(bad), bad)
	}
}

func TestValidGridSquare(t *testing.T) {
	for _, good := range []string{"IO91WM", "JO01AB", "FN20XR"} {
		assert.True(t, ValidGridSquare(good), good)
	}
	for _, bad := range []string{"", "IO91", "io91wm", "I091WM", "IO91W1", "IO91WMX"} {
		assert.False(t, ValidGridSquare(bad), bad)
	}
}

func TestValidateContactAcceptsValidEntry(t *testing.T) {
	c := validTestContact()
	assert.Nil(t, ValidateContact("G4XYZ", &c))
}

func TestValidateContactNormalizesInPlace(t *testing.T) {
	c := validTestContact()
	c.Recipient = " m0abc "
	c.InitiatorLocation = "io91wm"
	c.RecipientLocation = " jo01ab"
	c.Mode = " fm "

	require.Nil(t, ValidateContact("G4XYZ", &c))
	assert.Equal(t, "M0ABC", c.Recipient)
	assert.Equal(t, "IO91WM", c.InitiatorLocation)
	assert.Equal(t, "JO01AB", c.RecipientLocation)
	assert.Equal(t, "FM", c.Mode)
}

func TestValidateContactRejectsSelfContact(t *testing.T) {
	c := validTestContact()
	c.Recipient = "g4xyz" // normalized before comparison

	ve := ValidateContact("G4XYZ", &c)
	require.NotNil(t, ve)
	assert.Contains(t, ve.Fields, "recipient")
}

func TestValidateContactFrequencyBounds(t *testing.T) {
	cases := []struct {
		freq float64
		ok   bool
	}{
		{26.0, true},   // lower bound inclusive
		{900.0, true},  // upper bound inclusive
		{145.5, true},
		{25.999, false},
		{900.001, false},
		{0, false},
		{-7.1, false},
	}
	for _, tc := range cases {
		c := validTestContact()
		c.Frequency = tc.freq
		ve := ValidateContact("G4XYZ", &c)
		if tc.ok {
			assert.Nil(t, ve, "%v MHz should be accepted", tc.freq)
		} else {
			require.NotNil(t, ve, "%v MHz should be rejected", tc.freq)
			assert.Contains(t, ve.Fields, "frequency")
		}
	}
}

func TestValidateContactCollectsAllFieldErrors(t *testing.T) {
	c := model.Contact{Recipient: "x", Frequency: 1.0}

	ve := ValidateContact("G4XYZ", &c)
	require.NotNil(t, ve)
	for _, field := range []string{"recipient", "frequency", "initiator_location", "recipient_location", "mode", "datetime"} {
		assert.Contains(t, ve.Fields, field)
	}
}

func TestValidationErrorStableMessage(t *testing.T) {
	ve := &ValidationError{Fields: map[string]string{
		"mode":      "Mode is required",
		"frequency": "Frequency must be between 26.0 and 900.0 MHz",
	}}
	// Sorted by field name regardless of map order.
	assert.Equal(t,
		"validation failed: frequency: Frequency must be between 26.0 and 900.0 MHz; mode: Mode is required",
		ve.Error())
}

func TestAsValidationError(t *testing.T) {
	ve, ok := AsValidationError(NewValidationError("recipient", "bad"))
	require.True(t, ok)
	assert.Equal(t, "bad", ve.Fields["recipient"])

	_, ok = AsValidationError(ErrConflict)
	assert.False(t, ok)
}
