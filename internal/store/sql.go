package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/sqldb"
)

// dialect holds the statements that differ between database engines.
type dialect struct {
	schema     []string
	selectAll  string
	selectHead string
	insert     string
	update     string
}

// SQL stores records as JSON documents in the vocabulary_records table:
//
//	CREATE TABLE vocabulary_records (
//	    id          BIGSERIAL PRIMARY KEY,
//	    collection  TEXT NOT NULL,
//	    data        JSONB NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//
// Updates read the canonical record, merge in Go and write it back inside
// one transaction.
type SQL struct {
	client  *sqldb.Client
	dialect dialect
	logger  *slog.Logger
}

var postgresDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS vocabulary_records (
			id         BIGSERIAL PRIMARY KEY,
			collection TEXT NOT NULL,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS vocabulary_records_collection_idx ON vocabulary_records (collection, id)`,
	},
	selectAll:  `SELECT id, data FROM vocabulary_records WHERE collection = $1 ORDER BY id`,
	selectHead: `SELECT id, data FROM vocabulary_records WHERE collection = $1 ORDER BY id LIMIT 1 FOR UPDATE`,
	insert:     `INSERT INTO vocabulary_records (collection, data) VALUES ($1, $2)`,
	update:     `UPDATE vocabulary_records SET data = $1, updated_at = NOW() WHERE id = $2`,
}

var sqliteDialect = dialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS vocabulary_records (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			data       TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS vocabulary_records_collection_idx ON vocabulary_records (collection, id)`,
	},
	selectAll:  `SELECT id, data FROM vocabulary_records WHERE collection = ? ORDER BY id`,
	selectHead: `SELECT id, data FROM vocabulary_records WHERE collection = ? ORDER BY id LIMIT 1`,
	insert:     `INSERT INTO vocabulary_records (collection, data) VALUES (?, ?)`,
	update:     `UPDATE vocabulary_records SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
}

// NewSQL wraps an open client and creates the records table if missing.
func NewSQL(ctx context.Context, client *sqldb.Client) (*SQL, error) {
	var d dialect
	switch client.Driver {
	case sqldb.DriverPostgres:
		d = postgresDialect
	case sqldb.DriverSQLite:
		d = sqliteDialect
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", client.Driver)
	}
	if err := client.Migrate(ctx, d.schema...); err != nil {
		return nil, fmt.Errorf("creating vocabulary_records table: %w", err)
	}
	return &SQL{
		client:  client,
		dialect: d,
		logger:  slog.Default().With("component", "sql-store", "driver", client.Driver),
	}, nil
}

func (s *SQL) Get(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	rows, err := s.client.DB.QueryContext(ctx, s.dialect.selectAll, collection)
	if err != nil {
		return nil, apperrors.NewStoreError(collection, "get", apperrors.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var id int64
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, apperrors.NewStoreError(collection, "get", apperrors.ErrStoreOperation, err)
		}
		r, err := decodeRecord(data)
		if err != nil {
			s.logger.Warn("skipping corrupt record", "collection", collection, "id", id, "error", err)
			continue
		}
		r[IDField] = strconv.FormatInt(id, 10)
		if Matches(r, filter) {
			out = append(out, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError(collection, "get", apperrors.ErrStoreUnavailable, err)
	}
	return out, nil
}

func (s *SQL) Insert(ctx context.Context, collection string, records ...Record) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		for _, r := range records {
			data, err := encodeRecord(r)
			if err != nil {
				return apperrors.NewStoreError(collection, "insert", apperrors.ErrStoreOperation, err)
			}
			if _, err := tx.ExecContext(ctx, s.dialect.insert, collection, string(data)); err != nil {
				return err
			}
		}
		return nil
	})
	return s.wrap(collection, "insert", err)
}

func (s *SQL) Update(ctx context.Context, collection string, fields Record) error {
	err := s.client.InTx(ctx, func(tx *sql.Tx) error {
		var id int64
		var data []byte
		err := tx.QueryRowContext(ctx, s.dialect.selectHead, collection).Scan(&id, &data)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewStoreError(collection, "update", apperrors.ErrRecordNotFound, nil)
		}
		if err != nil {
			return err
		}
		current, err := decodeRecord(data)
		if err != nil {
			return apperrors.NewStoreError(collection, "update", apperrors.ErrStoreOperation, err)
		}
		merged, err := encodeRecord(Merge(current, fields))
		if err != nil {
			return apperrors.NewStoreError(collection, "update", apperrors.ErrStoreOperation, err)
		}
		_, err = tx.ExecContext(ctx, s.dialect.update, string(merged), id)
		return err
	})
	return s.wrap(collection, "update", err)
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *SQL) Close() error {
	return s.client.Close()
}

// wrap classifies raw driver errors as store unavailability while keeping
// already-typed store errors intact.
func (s *SQL) wrap(collection, op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *apperrors.StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return apperrors.NewStoreError(collection, op, apperrors.ErrStoreUnavailable, err)
}
