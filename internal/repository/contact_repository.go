package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/qso-logbook/internal/model"
)

// mysqlTime is the DATETIME literal format used when binding timestamps
// into queries. Reads come back as time.Time via parseTime=true.
const mysqlTime = "2006-01-02 15:04:05"

// ContactRepo is the contact store: it validates and persists QSO log
// entries and enforces the write-time invariants regardless of caller.
// All timestamps are handled in UTC. The duplicate window controls the
// trailing interval in which a second contact to the same recipient is
// rejected; the exact (initiator, recipient, contacted_at) duplicate is
// left to the table's unique key so concurrent writers race safely.
type ContactRepo struct {
	db        *sql.DB
	dupWindow time.Duration
}

// NewContactRepo returns a ContactRepo bound to the given database with
// the configured duplicate-rejection window.
func NewContactRepo(db *sql.DB, dupWindow time.Duration) *ContactRepo {
	return &ContactRepo{db: db, dupWindow: dupWindow}
}

// BeginTx opens a transaction on the underlying handle so a caller can
// span candidate lookup and confirmation atomically.
func (r *ContactRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

// contactColumns is the scan order shared by every contact query.
const contactColumns = "id, initiator_id, recipient, frequency, mode, contacted_at, initiator_location, recipient_location, confirmed, created_at"

func scanContact(sc interface {
	Scan(dest ...interface{}) error
}) (model.Contact, error) {
	var c model.Contact
	err := sc.Scan(&c.ID, &c.InitiatorID, &c.Recipient, &c.Frequency, &c.Mode,
		&c.ContactedAt, &c.InitiatorLocation, &c.RecipientLocation, &c.Confirmed, &c.CreatedAt)
	return c, err
}

// Create validates and persists a new contact for the given initiator.
// The contact's string fields are normalized in place, the per-record
// invariants are checked (see ValidateContact), and the trailing-window
// rate limit is applied: when another contact to the same recipient was
// logged within dupWindow before the new timestamp, the write is
// rejected with a ValidationError on the recipient field. An exact
// (initiator, recipient, contacted_at) duplicate is not pre-checked; the
// unique key reports it and it surfaces as ErrConflict. On success the
// record is stored with confirmed=false and c is populated with the
// generated ID and creation timestamp.
func (r *ContactRepo) Create(ctx context.Context, initiator model.Operator, c *model.Contact) error {
	c.InitiatorID = initiator.ID
	c.ContactedAt = c.ContactedAt.UTC()
	if ve := ValidateContact(initiator.CallSign, c); ve != nil {
		return ve
	}

	// Trailing-window check: any earlier contact to the same station
	// within the window blocks this one. Same-instant duplicates fall
	// through to the unique key below. The check is not transactional
	// with the INSERT, so two in-window submissions racing each other
	// can both land; the window is a courtesy rate limit, the unique
	// key is the integrity invariant.
	var blocked uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM contacts
		 WHERE initiator_id = ? AND recipient = ?
		   AND contacted_at > ? AND contacted_at < ?
		 LIMIT 1`,
		c.InitiatorID, c.Recipient,
		c.ContactedAt.Add(-r.dupWindow).Format(mysqlTime),
		c.ContactedAt.Format(mysqlTime),
	).Scan(&blocked)
	switch {
	case err == nil:
		return NewValidationError("recipient",
			"You already have a QSO logged with this station at this time. Please wait before logging the same station again.")
	case err != sql.ErrNoRows:
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts
		 (initiator_id, recipient, frequency, mode, contacted_at, initiator_location, recipient_location, confirmed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		c.InitiatorID, c.Recipient, c.Frequency, c.Mode,
		c.ContactedAt.Format(mysqlTime), c.InitiatorLocation, c.RecipientLocation)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.Confirmed = false
	// Query back to populate the DB-assigned creation timestamp.
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM contacts WHERE id = ?", c.ID).Scan(&c.CreatedAt)
}

// GetByID fetches a single contact. Returns sql.ErrNoRows when absent.
func (r *ContactRepo) GetByID(ctx context.Context, id uint64) (model.Contact, error) {
	return scanContact(r.db.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id = ? LIMIT 1", id))
}

// GetForUpdateTx reads a contact within the transaction and locks its
// row until commit or rollback. The matcher uses this to re-check the
// freshly logged contact's confirmed flag under the same transaction
// that locks the candidate, so two concurrent matcher runs cannot both
// perform the confirm-both transition.
func (r *ContactRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Contact, error) {
	return scanContact(tx.QueryRowContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE id = ? LIMIT 1 FOR UPDATE", id))
}

// CandidatesTx returns the counterpart's unconfirmed contacts back to
// the given call sign within the symmetric time window around center,
// ordered earliest first, with their rows locked for the duration of
// the transaction. Frequency and mode policy is applied by the caller;
// the query only narrows by the indexed (initiator, recipient, time)
// dimensions plus the confirmed flag.
func (r *ContactRepo) CandidatesTx(ctx context.Context, tx *sql.Tx, counterpartID uint64, recipientCallSign string, center time.Time, window time.Duration) ([]model.Contact, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE initiator_id = ? AND recipient = ? AND confirmed = 0
		   AND contacted_at BETWEEN ? AND ?
		 ORDER BY contacted_at ASC
		 FOR UPDATE`,
		counterpartID, recipientCallSign,
		center.UTC().Add(-window).Format(mysqlTime),
		center.UTC().Add(window).Format(mysqlTime))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ConfirmTx idempotently marks a contact confirmed within the given
// transaction. A contact that is already confirmed is left untouched;
// confirmed never transitions back to false. Safe to call concurrently
// for the same id because the guard is part of the UPDATE itself.
func (r *ContactRepo) ConfirmTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE contacts SET confirmed = 1 WHERE id = ? AND confirmed = 0", id)
	return err
}

// DeleteIfUnconfirmed removes a contact on behalf of the requesting
// operator. It fails with ErrForbidden when the operator does not own
// the contact and with ErrConflict when the contact has already been
// confirmed; confirmed contacts are immutable so the leaderboard stays
// consistent. Returns sql.ErrNoRows for an unknown id. The check and
// the delete run in one transaction so a concurrent confirmation cannot
// slip between them.
func (r *ContactRepo) DeleteIfUnconfirmed(ctx context.Context, contactID, operatorID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var initiatorID uint64
	var confirmed bool
	err = tx.QueryRowContext(ctx,
		"SELECT initiator_id, confirmed FROM contacts WHERE id = ? LIMIT 1 FOR UPDATE",
		contactID).Scan(&initiatorID, &confirmed)
	if err != nil {
		return err
	}
	if initiatorID != operatorID {
		return ErrForbidden
	}
	if confirmed {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", contactID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ContactDetail is a contact joined with the initiating operator's call
// sign, shaped for list responses. Contacts logged *about* the viewing
// operator by someone else carry that other station's call sign here.
type ContactDetail struct {
	ID                uint64    `json:"id"`
	InitiatorID       uint64    `json:"initiator"`
	InitiatorCallSign string    `json:"initiator_callsign"`
	Recipient         string    `json:"recipient"`
	Frequency         float64   `json:"frequency"`
	Mode              string    `json:"mode"`
	ContactedAt       time.Time `json:"datetime"`
	InitiatorLocation string    `json:"initiator_location"`
	RecipientLocation string    `json:"recipient_location"`
	Confirmed         bool      `json:"confirmed"`
	CreatedAt         time.Time `json:"created_at"`
}

// ListByOperator returns every contact the operator initiated plus
// every contact other stations logged with the operator's call sign as
// recipient, newest first. An operator therefore sees both sides of
// their activity.
func (r *ContactRepo) ListByOperator(ctx context.Context, operatorID uint64, callSign string) ([]ContactDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.initiator_id, o.call_sign, c.recipient, c.frequency, c.mode,
		        c.contacted_at, c.initiator_location, c.recipient_location, c.confirmed, c.created_at
		 FROM contacts c
		 JOIN operators o ON o.id = c.initiator_id
		 WHERE c.initiator_id = ? OR c.recipient = ?
		 ORDER BY c.contacted_at DESC`,
		operatorID, NormalizeCallSign(callSign))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ContactDetail, 0)
	for rows.Next() {
		var d ContactDetail
		if err := rows.Scan(&d.ID, &d.InitiatorID, &d.InitiatorCallSign, &d.Recipient,
			&d.Frequency, &d.Mode, &d.ContactedAt, &d.InitiatorLocation,
			&d.RecipientLocation, &d.Confirmed, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Rankings aggregates the public leaderboard: per registered operator,
// the number of contacts they initiated and how many of those are
// confirmed. Pure read; recomputed on demand (the rankings route sits
// behind the response cache).
func (r *ContactRepo) Rankings(ctx context.Context) ([]model.Ranking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT o.call_sign,
		        COALESCE(SUM(c.confirmed), 0) AS confirmed_contacts,
		        COUNT(c.id)                   AS total_contacts
		 FROM operators o
		 LEFT JOIN contacts c ON c.initiator_id = o.id
		 GROUP BY o.id, o.call_sign
		 ORDER BY confirmed_contacts DESC, total_contacts DESC, o.call_sign ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Ranking, 0)
	for rows.Next() {
		var rk model.Ranking
		if err := rows.Scan(&rk.CallSign, &rk.ConfirmedContacts, &rk.TotalContacts); err != nil {
			return nil, err
		}
		out = append(out, rk)
	}
	return out, rows.Err()
}
