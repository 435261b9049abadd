package handler

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/qso-logbook/internal/matcher"
	"github.com/iliyamo/qso-logbook/internal/model"
	"github.com/iliyamo/qso-logbook/internal/queue"
	"github.com/iliyamo/qso-logbook/internal/repository"
	queue_publisher "github.com/iliyamo/qso-logbook/internal/service"
)

// ContactHandler serves the QSO log: creating entries, listing an
// operator's activity and deleting unconfirmed entries. Creation also
// drives the matcher, so a successful log request may come back already
// confirmed when the other station logged first.
type ContactHandler struct {
	Operators *repository.OperatorRepo
	Contacts  *repository.ContactRepo
	Matcher   *matcher.Matcher
}

func NewContactHandler(o *repository.OperatorRepo, ct *repository.ContactRepo, m *matcher.Matcher) *ContactHandler {
	return &ContactHandler{Operators: o, Contacts: ct, Matcher: m}
}

// logContactReq is the wire shape of a new log entry. The timestamp is
// RFC 3339; it is stored in UTC regardless of the offset sent.
type logContactReq struct {
	Recipient         string  `json:"recipient"`
	Frequency         float64 `json:"frequency"`
	Mode              string  `json:"mode"`
	Datetime          string  `json:"datetime"`
	InitiatorLocation string  `json:"initiator_location"`
	RecipientLocation string  `json:"recipient_location"`
}

type contactResp struct {
	ID                uint64    `json:"id"`
	Initiator         uint64    `json:"initiator"`
	Recipient         string    `json:"recipient"`
	Frequency         float64   `json:"frequency"`
	Mode              string    `json:"mode"`
	Datetime          time.Time `json:"datetime"`
	InitiatorLocation string    `json:"initiator_location"`
	RecipientLocation string    `json:"recipient_location"`
	Confirmed         bool      `json:"confirmed"`
	CreatedAt         time.Time `json:"created_at"`
}

func toContactResp(c model.Contact) contactResp {
	return contactResp{
		ID:                c.ID,
		Initiator:         c.InitiatorID,
		Recipient:         c.Recipient,
		Frequency:         c.Frequency,
		Mode:              c.Mode,
		Datetime:          c.ContactedAt,
		InitiatorLocation: c.InitiatorLocation,
		RecipientLocation: c.RecipientLocation,
		Confirmed:         c.Confirmed,
		CreatedAt:         c.CreatedAt,
	}
}

// Log persists a new contact and runs reciprocal matching. Validation
// failures come back as 400 with a field-to-message map under "errors".
// A matcher failure never fails the request; the entry is already
// persisted and matching can catch up when the counterpart logs.
func (h *ContactHandler) Log(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req logContactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	var contactedAt time.Time
	if req.Datetime != "" {
		t, err := time.Parse(time.RFC3339, req.Datetime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"errors": map[string]string{"datetime": "must be a valid RFC 3339 timestamp"},
			})
		}
		contactedAt = t.UTC()
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	op, err := h.Operators.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load operator failed"})
	}

	qso := model.Contact{
		Recipient:         req.Recipient,
		Frequency:         req.Frequency,
		Mode:              req.Mode,
		ContactedAt:       contactedAt,
		InitiatorLocation: req.InitiatorLocation,
		RecipientLocation: req.RecipientLocation,
	}
	if qso.InitiatorLocation == "" {
		// Fall back to the operator's home grid square.
		qso.InitiatorLocation = op.DefaultGridSquare
	}

	if err := h.Contacts.Create(ctx, op, &qso); err != nil {
		if ve, ok := repository.AsValidationError(err); ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve.Fields})
		}
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "identical contact already logged"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "log contact failed"})
	}

	cand, err := h.Matcher.Run(ctx, op.CallSign, &qso)
	if err != nil {
		// The entry is saved; matching will succeed on the counterpart's
		// next submission.
		log.Printf("matcher: contact %d: %v", qso.ID, err)
	}
	if cand != nil {
		ev := queue.ContactConfirmedEvent{
			ContactID:         qso.ID,
			CounterpartID:     cand.ID,
			InitiatorCallSign: op.CallSign,
			RecipientCallSign: qso.Recipient,
			FrequencyMHz:      qso.Frequency,
			Mode:              qso.Mode,
			ContactedAt:       qso.ContactedAt.UTC().Format(time.RFC3339),
			ConfirmedAt:       time.Now().UTC().Format(time.RFC3339),
		}
		if err := queue_publisher.PublishContactConfirmed(ctx, ev); err != nil {
			log.Printf("publish contact.confirmed for %d failed: %v", qso.ID, err)
		}
	}

	return c.JSON(http.StatusCreated, toContactResp(qso))
}

// List returns both sides of the operator's activity: contacts they
// initiated plus contacts other stations logged with them, newest first.
func (h *ContactHandler) List(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	callSign, ok := getCallSign(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := h.Contacts.ListByOperator(ctx, uid, callSign)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list contacts failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"contacts": out})
}

// Delete removes one of the operator's own unconfirmed contacts.
// Confirmed contacts are immutable: both operators' statistics depend
// on them, so the request fails with 409.
func (h *ContactHandler) Delete(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Contacts.DeleteIfUnconfirmed(ctx, id, uid); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your contact"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "confirmed contacts cannot be deleted"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete contact failed"})
	}
}
