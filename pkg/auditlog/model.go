package auditlog

import "time"

// HandshakeAttempt is one append-only row of a msgr2/CephX handshake
// attempt, kept for postmortem debugging against a real cluster (the
// domain equivalent of the teacher's controlplane audit tables).
type HandshakeAttempt struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	PeerAddr        string `gorm:"index;not null"`
	Revision        string `gorm:"not null"`
	Mode            string `gorm:"not null"`
	Outcome         string `gorm:"index;not null"`
	ErrorMessage    string
	StartedAt       time.Time `gorm:"not null"`
	CompletedAt     time.Time
	DurationMillis  int64
}

// TableName pins the table name so a renamed struct never silently
// migrates a new table.
func (HandshakeAttempt) TableName() string {
	return "handshake_attempts"
}

// Outcome values recorded for a HandshakeAttempt.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
