package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements holds the idempotent DDL for the service. The contacts
// table carries the keys the matcher depends on: the unique
// (initiator_id, recipient, contacted_at) key rejects duplicate log entries
// at the storage layer, and the (recipient, contacted_at) and
// (frequency, mode, contacted_at) indexes keep the counterpart search
// bounded as the log grows.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS operators (
		id                  BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		call_sign           VARCHAR(10)  NOT NULL,
		email               VARCHAR(255) NOT NULL,
		password_hash       VARCHAR(255) NOT NULL,
		role                VARCHAR(16)  NOT NULL DEFAULT 'OPERATOR',
		default_grid_square CHAR(6)      NOT NULL DEFAULT '',
		is_approved         TINYINT(1)   NOT NULL DEFAULT 0,
		is_active           TINYINT(1)   NOT NULL DEFAULT 0,
		created_at          TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_operators_call_sign (call_sign),
		UNIQUE KEY uq_operators_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		initiator_id       BIGINT UNSIGNED NOT NULL,
		recipient          VARCHAR(10)   NOT NULL,
		frequency          DECIMAL(10,3) NOT NULL,
		mode               VARCHAR(10)   NOT NULL,
		contacted_at       DATETIME      NOT NULL,
		initiator_location CHAR(6)       NOT NULL,
		recipient_location CHAR(6)       NOT NULL,
		confirmed          TINYINT(1)    NOT NULL DEFAULT 0,
		created_at         TIMESTAMP     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_contacts_initiator_recipient_time (initiator_id, recipient, contacted_at),
		KEY idx_contacts_recipient_time (recipient, contacted_at),
		KEY idx_contacts_freq_mode_time (frequency, mode, contacted_at),
		KEY idx_contacts_confirmed (confirmed),
		CONSTRAINT fk_contacts_initiator FOREIGN KEY (initiator_id) REFERENCES operators (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		operator_id BIGINT UNSIGNED NOT NULL,
		token_hash  CHAR(64)  NOT NULL,
		expires_at  DATETIME  NOT NULL,
		revoked_at  DATETIME  NULL,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_operator FOREIGN KEY (operator_id) REFERENCES operators (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables the service needs if they do not exist
// yet. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
