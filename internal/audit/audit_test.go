package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRecordAndRecent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	log, err := Open(dbPath)
	require.NoError(t, err)
	defer log.Close()

	ctx := context.Background()
	require.NoError(t, log.Record(ctx, "aa:bb:cc:dd:ee:ff", "11:22:33:44:55:66", EventAssociated, ""))
	require.NoError(t, log.Record(ctx, "aa:bb:cc:dd:ee:ff", "11:22:33:44:55:66", EventHandshakeDone, ""))

	events, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, string(EventHandshakeDone), events[0].Event) // newest first
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "audit.db")
	log, err := Open(dbPath)
	require.NoError(t, err)
	defer log.Close()
}
