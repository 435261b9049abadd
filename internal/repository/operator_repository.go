package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/qso-logbook/internal/model"
	"github.com/iliyamo/qso-logbook/internal/utils"
)

// OperatorRepo provides data access to the operators table. It owns the
// approval invariant: is_active may only be true when is_approved is
// true. Registration inserts rows with both flags off and Approve flips
// both in a single statement, so the two columns can never diverge
// through this repository.
type OperatorRepo struct{ DB *sql.DB }

func NewOperatorRepo(db *sql.DB) *OperatorRepo { return &OperatorRepo{DB: db} }

// CallSignSuggestion is a trimmed operator view returned by the
// call-sign typeahead search.
type CallSignSuggestion struct {
	CallSign          string `json:"call_sign"`
	DefaultGridSquare string `json:"default_grid_square"`
}

// Create registers a new operator pending administrator approval. The
// call sign is normalized upper-case before insertion; the account is
// created inactive and unapproved. Returns ErrCallSignExists or
// ErrEmailExists when a uniqueness constraint fires.
func (r *OperatorRepo) Create(ctx context.Context, callSign, email, password, gridSquare string, cost int) (uint64, error) {
	callSign = NormalizeCallSign(callSign)
	email = strings.ToLower(strings.TrimSpace(email))
	gridSquare = NormalizeGridSquare(gridSquare)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO operators (call_sign, email, password_hash, role, default_grid_square, is_approved, is_active) VALUES (?,?,?,'OPERATOR',?,0,0)",
		callSign, email, hash, gridSquare)
	if err != nil {
		if isDuplicateKey(err) {
			if strings.Contains(err.Error(), "call_sign") {
				return 0, ErrCallSignExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const operatorColumns = "id,call_sign,email,password_hash,role,default_grid_square,is_approved,is_active,created_at,updated_at"

func scanOperator(row *sql.Row) (model.Operator, error) {
	var o model.Operator
	err := row.Scan(&o.ID, &o.CallSign, &o.Email, &o.PasswordHash, &o.Role,
		&o.DefaultGridSquare, &o.IsApproved, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetByCallSign fetches an operator by normalized call sign. Returns
// sql.ErrNoRows when no such operator is registered; the matcher treats
// that as a normal outcome, not an error.
func (r *OperatorRepo) GetByCallSign(ctx context.Context, callSign string) (model.Operator, error) {
	return scanOperator(r.DB.QueryRowContext(ctx,
		"SELECT "+operatorColumns+" FROM operators WHERE call_sign=? LIMIT 1",
		NormalizeCallSign(callSign)))
}

// GetByID fetches an operator by id.
func (r *OperatorRepo) GetByID(ctx context.Context, id uint64) (model.Operator, error) {
	return scanOperator(r.DB.QueryRowContext(ctx,
		"SELECT "+operatorColumns+" FROM operators WHERE id=? LIMIT 1", id))
}

// ListPending returns operators awaiting administrator approval, oldest
// registration first.
func (r *OperatorRepo) ListPending(ctx context.Context) ([]model.Operator, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+operatorColumns+" FROM operators WHERE is_approved=0 ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Operator, 0)
	for rows.Next() {
		var o model.Operator
		if err := rows.Scan(&o.ID, &o.CallSign, &o.Email, &o.PasswordHash, &o.Role,
			&o.DefaultGridSquare, &o.IsApproved, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Approve marks an operator approved and active in one statement so the
// two flags cannot diverge. Returns sql.ErrNoRows when the operator
// does not exist. Approving an already-approved operator is a no-op.
func (r *OperatorRepo) Approve(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE operators SET is_approved=1, is_active=1 WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "already approved": an UPDATE that
		// changes nothing also reports zero rows on some drivers.
		var exists uint64
		if err := r.DB.QueryRowContext(ctx, "SELECT id FROM operators WHERE id=? LIMIT 1", id).Scan(&exists); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProfile changes an operator's email and default grid square.
// The call sign is immutable after registration. Returns ErrEmailExists
// when the new email collides with another account.
func (r *OperatorRepo) UpdateProfile(ctx context.Context, id uint64, email, gridSquare string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	gridSquare = NormalizeGridSquare(gridSquare)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE operators SET email=?, default_grid_square=? WHERE id=?",
		email, gridSquare, id)
	if isDuplicateKey(err) {
		return ErrEmailExists
	}
	return err
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *OperatorRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE operators SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}

// SearchCallSigns returns up to limit approved operators whose call sign
// starts with the given prefix, excluding the caller's own call sign.
// Used by the log-entry typeahead.
func (r *OperatorRepo) SearchCallSigns(ctx context.Context, prefix, excludeCallSign string, limit int) ([]CallSignSuggestion, error) {
	prefix = NormalizeCallSign(prefix)
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT call_sign, default_grid_square FROM operators
		 WHERE call_sign LIKE CONCAT(?, '%') AND call_sign <> ? AND is_approved=1
		 ORDER BY call_sign ASC LIMIT ?`,
		prefix, NormalizeCallSign(excludeCallSign), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CallSignSuggestion, 0)
	for rows.Next() {
		var s CallSignSuggestion
		if err := rows.Scan(&s.CallSign, &s.DefaultGridSquare); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
