package model

import "time"

// Operator represents a registered amateur-radio operator as stored in
// the `operators` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs are
// primarily used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// An operator goes through an approval workflow: registration creates
// the row with IsApproved and IsActive both false, and an administrator
// later flips both flags in a single update. The repository guarantees
// that IsActive is never true while IsApproved is false.
//
// Fields:
//  ID                – primary key identifier of the operator.
//  CallSign          – unique call sign, stored upper-case (3-10 alphanumerics).
//  Email             – unique email address.
//  PasswordHash      – bcrypt hashed password.
//  Role              – role name (OPERATOR or ADMIN).
//  DefaultGridSquare – optional Maidenhead locator (AA00AA), upper-case.
//  IsApproved        – whether an administrator has approved the account.
//  IsActive          – whether the account may authenticate.
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type Operator struct {
	ID                uint64    // operators.id
	CallSign          string    // operators.call_sign
	Email             string    // operators.email
	PasswordHash      string    // operators.password_hash
	Role              string    // operators.role
	DefaultGridSquare string    // operators.default_grid_square (empty when unset)
	IsApproved        bool      // operators.is_approved
	IsActive          bool      // operators.is_active
	CreatedAt         time.Time // operators.created_at
	UpdatedAt         time.Time // operators.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to an operator and carries metadata for expiry
// and revocation. The plain token is never stored; only its SHA-256
// hash.
//
// Fields:
//  ID         – primary key identifier.
//  OperatorID – owner of the token.
//  TokenHash  – SHA-256 hex digest of the token value.
//  ExpiresAt  – expiration timestamp of the token.
//  RevokedAt  – when the token was revoked (nil if still active).
//  CreatedAt  – timestamp of creation.
type RefreshToken struct {
	ID         uint64     // refresh_tokens.id
	OperatorID uint64     // refresh_tokens.operator_id
	TokenHash  string     // refresh_tokens.token_hash
	ExpiresAt  time.Time  // refresh_tokens.expires_at
	RevokedAt  *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt  time.Time  // refresh_tokens.created_at
}
