package matcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/qso-logbook/internal/model"
)

// ContactStore is the slice of the contact repository the matcher needs:
// one transaction, a locked candidate scan, a locked re-read of the new
// contact and the idempotent confirm. *repository.ContactRepo satisfies
// it; tests substitute fakes to exercise the transaction ordering.
type ContactStore interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CandidatesTx(ctx context.Context, tx *sql.Tx, counterpartID uint64, recipientCallSign string, center time.Time, window time.Duration) ([]model.Contact, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Contact, error)
	ConfirmTx(ctx context.Context, tx *sql.Tx, id uint64) error
}

// OperatorStore resolves recipient call signs to registered operators.
// A sql.ErrNoRows result means the call sign is not registered here.
type OperatorStore interface {
	GetByCallSign(ctx context.Context, callSign string) (model.Operator, error)
}

// Matcher reconciles freshly logged contacts against the counterpart's
// log. It holds no mutable state of its own; every write routes through
// the contact store inside a single transaction, so it is safe to
// invoke concurrently from many requests.
type Matcher struct {
	contacts  ContactStore
	operators OperatorStore
	policy    Policy
}

// New constructs a Matcher over the given stores and policy.
func New(contacts ContactStore, operators OperatorStore, policy Policy) *Matcher {
	return &Matcher{contacts: contacts, operators: operators, policy: policy}
}

// Run reconciles a freshly persisted, unconfirmed contact logged by the
// operator with the given call sign. It resolves the recipient call
// sign to a registered operator; when none exists the contact simply
// stays unconfirmed and Run returns (nil, nil). Otherwise it opens one
// transaction that locks the counterpart's candidate rows and the new
// contact's own row, applies the frequency/mode policy in memory
// (earliest qualifying candidate wins), and marks both records
// confirmed before committing: either both become confirmed or
// neither does.
//
// The row locks are what make confirmation at-most-once per pair: when
// both sides log the same real-world contact within milliseconds, the
// second Run blocks on the first's locks and then observes confirmed
// rows, selecting nothing.
//
// On success with a match, qso.Confirmed is set and the counterpart
// record is returned. Errors from Run never invalidate the persisted
// contact; callers log them and let the logging operation succeed.
func (m *Matcher) Run(ctx context.Context, initiatorCallSign string, qso *model.Contact) (*model.Contact, error) {
	counterpart, err := m.operators.GetByCallSign(ctx, qso.Recipient)
	if errors.Is(err, sql.ErrNoRows) {
		// Recipient is not registered here; nothing to reconcile.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve counterpart %q: %w", qso.Recipient, err)
	}

	tx, err := m.contacts.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin match transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	candidates, err := m.contacts.CandidatesTx(ctx, tx, counterpart.ID,
		initiatorCallSign, qso.ContactedAt, m.policy.TimeWindow)
	if err != nil {
		return nil, fmt.Errorf("candidate search: %w", err)
	}
	cand := SelectCandidate(qso, candidates, m.policy)
	if cand == nil {
		// Normal outcome: the other side has not logged us (yet).
		return nil, nil
	}

	// Re-read our own row under the same transaction: a concurrent run
	// triggered by the counterpart's submission may already have
	// confirmed us against a different candidate.
	own, err := m.contacts.GetForUpdateTx(ctx, tx, qso.ID)
	if err != nil {
		return nil, fmt.Errorf("lock own contact %d: %w", qso.ID, err)
	}
	if own.Confirmed {
		return nil, nil
	}

	if err := m.contacts.ConfirmTx(ctx, tx, cand.ID); err != nil {
		return nil, fmt.Errorf("confirm counterpart %d: %w", cand.ID, err)
	}
	if err := m.contacts.ConfirmTx(ctx, tx, qso.ID); err != nil {
		return nil, fmt.Errorf("confirm contact %d: %w", qso.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit match: %w", err)
	}
	committed = true

	qso.Confirmed = true
	cand.Confirmed = true
	return cand, nil
}
