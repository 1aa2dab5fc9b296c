package vocabulary

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/sqldb"
)

// openBackend returns a store that outlives the accumulators built on it
// for the duration of the test.
func openBackend(t *testing.T, backend string) store.Store {
	t.Helper()
	if backend == "memory" {
		return store.NewMemory()
	}
	client, err := sqldb.OpenSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "vocab.db")})
	require.NoError(t, err)
	st, err := store.NewSQL(context.Background(), client)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
