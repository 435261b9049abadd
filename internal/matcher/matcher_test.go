package matcher

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/qso-logbook/internal/model"
)

// The fakes below stand in for the repositories so Run's transaction
// discipline can be exercised without MySQL. The stub driver only has
// to hand out transactions and record commit/rollback; every query goes
// through the fake store, which ignores the *sql.Tx it is passed.

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct{}

func (*stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (*stubConn) Close() error                        { return nil }
func (*stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { txLog.add("commit"); return nil }
func (stubTx) Rollback() error { txLog.add("rollback"); return nil }

type txRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *txRecorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *txRecorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func (r *txRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

var (
	txLog        = &txRecorder{}
	registerOnce sync.Once
)

func stubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerOnce.Do(func() { sql.Register("matcherstub", stubDriver{}) })
	db, err := sql.Open("matcherstub", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	txLog.reset()
	return db
}

type fakeContactStore struct {
	db         *sql.DB
	candidates []model.Contact
	candErr    error
	own        model.Contact
	calls      []string
	confirmed  []uint64
}

func (f *fakeContactStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	f.calls = append(f.calls, "begin")
	return f.db.BeginTx(ctx, nil)
}

func (f *fakeContactStore) CandidatesTx(ctx context.Context, tx *sql.Tx, counterpartID uint64, recipient string, center time.Time, window time.Duration) ([]model.Contact, error) {
	f.calls = append(f.calls, "candidates")
	return f.candidates, f.candErr
}

func (f *fakeContactStore) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Contact, error) {
	f.calls = append(f.calls, "lock-own")
	return f.own, nil
}

func (f *fakeContactStore) ConfirmTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	f.calls = append(f.calls, "confirm")
	f.confirmed = append(f.confirmed, id)
	return nil
}

type fakeOperatorStore struct{ byCallSign map[string]model.Operator }

func (f *fakeOperatorStore) GetByCallSign(ctx context.Context, callSign string) (model.Operator, error) {
	o, ok := f.byCallSign[callSign]
	if !ok {
		return model.Operator{}, sql.ErrNoRows
	}
	return o, nil
}

func registeredCounterpart() *fakeOperatorStore {
	return &fakeOperatorStore{byCallSign: map[string]model.Operator{
		"M0ABC": {ID: 2, CallSign: "M0ABC"},
	}}
}

func TestRunUnregisteredRecipientSkipsTransaction(t *testing.T) {
	qso := baseQSO()
	contacts := &fakeContactStore{db: stubDB(t)}
	m := New(contacts, &fakeOperatorStore{}, basePolicy)

	cand, err := m.Run(context.Background(), "G4XYZ", qso)
	require.NoError(t, err)
	assert.Nil(t, cand)
	assert.False(t, qso.Confirmed)
	assert.Empty(t, contacts.calls)
}

func TestRunConfirmsBothAndCommits(t *testing.T) {
	qso := baseQSO()
	contacts := &fakeContactStore{
		db:         stubDB(t),
		candidates: []model.Contact{counterpart()},
		own:        *qso,
	}
	m := New(contacts, registeredCounterpart(), basePolicy)

	cand, err := m.Run(context.Background(), "G4XYZ", qso)
	require.NoError(t, err)
	require.NotNil(t, cand)
	assert.Equal(t, uint64(20), cand.ID)
	assert.True(t, qso.Confirmed)
	assert.True(t, cand.Confirmed)

	// Counterpart first, then the new contact, all inside one tx.
	assert.Equal(t, []string{"begin", "candidates", "lock-own", "confirm", "confirm"}, contacts.calls)
	assert.Equal(t, []uint64{20, 10}, contacts.confirmed)
	assert.Contains(t, txLog.all(), "commit")
	assert.NotContains(t, txLog.all(), "rollback")
}

func TestRunNoCandidateRollsBack(t *testing.T) {
	qso := baseQSO()
	contacts := &fakeContactStore{db: stubDB(t)}
	m := New(contacts, registeredCounterpart(), basePolicy)

	cand, err := m.Run(context.Background(), "G4XYZ", qso)
	require.NoError(t, err)
	assert.Nil(t, cand)
	assert.False(t, qso.Confirmed)
	assert.Equal(t, []string{"begin", "candidates"}, contacts.calls)
	assert.Contains(t, txLog.all(), "rollback")
	assert.NotContains(t, txLog.all(), "commit")
}

func TestRunSkipsWhenOwnRowAlreadyConfirmed(t *testing.T) {
	// A concurrent run triggered by the counterpart's submission may
	// confirm the new contact between its INSERT and this Run; the
	// locked re-read must observe that and confirm nothing.
	qso := baseQSO()
	own := *qso
	own.Confirmed = true
	contacts := &fakeContactStore{
		db:         stubDB(t),
		candidates: []model.Contact{counterpart()},
		own:        own,
	}
	m := New(contacts, registeredCounterpart(), basePolicy)

	cand, err := m.Run(context.Background(), "G4XYZ", qso)
	require.NoError(t, err)
	assert.Nil(t, cand)
	assert.Empty(t, contacts.confirmed)
	assert.Contains(t, txLog.all(), "rollback")
	assert.NotContains(t, txLog.all(), "commit")
}

func TestRunCandidateErrorRollsBack(t *testing.T) {
	qso := baseQSO()
	contacts := &fakeContactStore{
		db:      stubDB(t),
		candErr: errors.New("lock wait timeout"),
	}
	m := New(contacts, registeredCounterpart(), basePolicy)

	cand, err := m.Run(context.Background(), "G4XYZ", qso)
	require.Error(t, err)
	assert.Nil(t, cand)
	assert.False(t, qso.Confirmed)
	assert.Empty(t, contacts.confirmed)
	assert.Contains(t, txLog.all(), "rollback")
	assert.NotContains(t, txLog.all(), "commit")
}
