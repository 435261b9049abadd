package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("logbook", "hunter2", "db.local", "3306", "qso")
	assert.Equal(t,
		"logbook:hunter2@tcp(db.local:3306)/qso?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn)
}

func TestBuildDSNWithoutPassword(t *testing.T) {
	dsn := buildDSN("root", "", "127.0.0.1", "3307", "qso")
	assert.Equal(t,
		"root@tcp(127.0.0.1:3307)/qso?charset=utf8mb4&parseTime=true&loc=UTC",
		dsn)
}

func TestBuildDSNTimeHandlingFlags(t *testing.T) {
	// The repositories scan DATETIME into time.Time and compare
	// timestamps in UTC; both depend on these flags being present.
	dsn := buildDSN("u", "p", "h", "3306", "d")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "loc=UTC")
}
