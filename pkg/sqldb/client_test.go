package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
)

func TestOpenSQLiteHoldsWriterLock(t *testing.T) {
	cfg := config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "nested", "vocab.db")}

	first, err := OpenSQLite(cfg)
	require.NoError(t, err)

	_, err = OpenSQLite(cfg)
	assert.ErrorIs(t, err, apperrors.ErrLocked)

	require.NoError(t, first.Close())

	second, err := OpenSQLite(cfg)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestInTxRollsBackOnError(t *testing.T) {
	client, err := OpenSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "tx.db")})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Migrate(ctx, `CREATE TABLE items (name TEXT NOT NULL)`))

	boom := errors.New("boom")
	err = client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO items (name) VALUES ('a')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, client.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count))
	assert.Zero(t, count)
	assert.NoError(t, client.Ping(ctx))
}
