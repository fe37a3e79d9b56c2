package auditlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Dialect: DialectSQLite, DSN: filepath.Join(t.TempDir(), "audit.db")})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestOpen_RejectsEmptyDSN(t *testing.T) {
	_, err := Open(Config{Dialect: DialectSQLite})
	require.Error(t, err)
}

func TestOpen_RejectsUnknownDialect(t *testing.T) {
	_, err := Open(Config{Dialect: "mysql", DSN: "whatever"})
	require.Error(t, err)
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, &HandshakeAttempt{
		PeerAddr: "10.0.0.1:3300",
		Revision: "rev1",
		Mode:     "crc",
		Outcome:  OutcomeSuccess,
	}))
	require.NoError(t, s.Record(ctx, &HandshakeAttempt{
		PeerAddr:     "10.0.0.1:3300",
		Revision:     "rev1",
		Mode:         "secure",
		Outcome:      OutcomeFailure,
		ErrorMessage: "signature mismatch",
	}))

	attempts, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	require.Equal(t, OutcomeFailure, attempts[0].Outcome, "most recent attempt should be first")
}

func TestStore_Record_ComputesDuration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Now().Add(-2 * time.Second)
	attempt := &HandshakeAttempt{
		PeerAddr:    "10.0.0.2:3300",
		Revision:    "rev0",
		Mode:        "crc",
		Outcome:     OutcomeSuccess,
		StartedAt:   started,
		CompletedAt: started.Add(1500 * time.Millisecond),
	}
	require.NoError(t, s.Record(ctx, attempt))
	require.Equal(t, int64(1500), attempt.DurationMillis)
}

func TestStore_FailureRate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, outcome := range []string{OutcomeSuccess, OutcomeFailure, OutcomeFailure, OutcomeSuccess} {
		require.NoError(t, s.Record(ctx, &HandshakeAttempt{
			PeerAddr: "10.0.0.3:3300",
			Revision: "rev1",
			Mode:     "crc",
			Outcome:  outcome,
		}))
	}

	rate, err := s.FailureRate(ctx, "10.0.0.3:3300", 10)
	require.NoError(t, err)
	require.Equal(t, 0.5, rate)
}

func TestStore_FailureRate_NoAttempts(t *testing.T) {
	s := openTestStore(t)
	rate, err := s.FailureRate(context.Background(), "10.0.0.9:3300", 10)
	require.NoError(t, err)
	require.Equal(t, 0.0, rate)
}
