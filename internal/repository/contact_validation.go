package repository

import (
	"regexp"
	"strings"

	"github.com/iliyamo/qso-logbook/internal/model"
)

// Frequency limits in MHz, inclusive on both ends.
const (
	MinFrequencyMHz = 26.0
	MaxFrequencyMHz = 900.0
)

var (
	callSignPattern   = regexp.MustCompile(`^[A-Z0-9]{3,10}$`)
	gridSquarePattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z]{2}$`)
)

// NormalizeCallSign trims whitespace and upper-cases a call sign. The
// storage layer normalizes on write instead of trusting callers.
func NormalizeCallSign(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeGridSquare trims whitespace and upper-cases a Maidenhead
// locator.
func NormalizeGridSquare(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidCallSign reports whether s is a normalized 3-10 character
// alphanumeric call sign.
func ValidCallSign(s string) bool { return callSignPattern.MatchString(s) }

// ValidGridSquare reports whether s is a normalized AA00AA locator.
func ValidGridSquare(s string) bool { return gridSquarePattern.MatchString(s) }

// ValidateContact normalizes the mutable string fields of c in place and
// checks every per-record invariant that does not require a database
// lookup: recipient and location formats, the frequency range, the
// presence of mode and timestamp, and the no-self-contact rule against
// the initiator's call sign. It returns nil when the contact is valid,
// otherwise a *ValidationError keyed by wire field names.
func ValidateContact(initiatorCallSign string, c *model.Contact) *ValidationError {
	c.Recipient = NormalizeCallSign(c.Recipient)
	c.InitiatorLocation = NormalizeGridSquare(c.InitiatorLocation)
	c.RecipientLocation = NormalizeGridSquare(c.RecipientLocation)
	c.Mode = strings.ToUpper(strings.TrimSpace(c.Mode))

	fields := map[string]string{}
	if !ValidCallSign(c.Recipient) {
		fields["recipient"] = "Call sign must be 3-10 alphanumeric characters"
	} else if c.Recipient == initiatorCallSign {
		fields["recipient"] = "Cannot log a QSO with yourself"
	}
	if c.Frequency < MinFrequencyMHz || c.Frequency > MaxFrequencyMHz {
		fields["frequency"] = "Frequency must be between 26.0 and 900.0 MHz"
	}
	if !ValidGridSquare(c.InitiatorLocation) {
		fields["initiator_location"] = "Grid square must be in format AA00AA (e.g., IO91WM)"
	}
	if !ValidGridSquare(c.RecipientLocation) {
		fields["recipient_location"] = "Grid square must be in format AA00AA (e.g., IO91WM)"
	}
	if c.Mode == "" {
		fields["mode"] = "Mode is required"
	}
	if c.ContactedAt.IsZero() {
		fields["datetime"] = "Contact date and time are required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
