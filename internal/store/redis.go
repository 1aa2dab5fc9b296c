package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/redis"
)

// Redis keeps each collection as a list of JSON records under
// keyPrefix+collection. The head of the list is the canonical record.
type Redis struct {
	client    *pkgredis.Client
	keyPrefix string
	logger    *slog.Logger
}

func NewRedis(client *pkgredis.Client, keyPrefix string) *Redis {
	return &Redis{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    slog.Default().With("component", "redis-store"),
	}
}

func (r *Redis) key(collection string) string {
	return r.keyPrefix + collection
}

func (r *Redis) Get(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	items, err := r.client.List(ctx, r.key(collection))
	if err != nil {
		return nil, apperrors.NewStoreError(collection, "get", apperrors.ErrStoreUnavailable, err)
	}
	var out []Record
	for i, item := range items {
		rec, err := decodeRecord([]byte(item))
		if err != nil {
			r.logger.Warn("skipping corrupt record", "collection", collection, "index", i, "error", err)
			continue
		}
		rec[IDField] = strconv.Itoa(i)
		if Matches(rec, filter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *Redis) Insert(ctx context.Context, collection string, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	values := make([]string, 0, len(records))
	for _, rec := range records {
		data, err := encodeRecord(rec)
		if err != nil {
			return apperrors.NewStoreError(collection, "insert", apperrors.ErrStoreOperation, err)
		}
		values = append(values, string(data))
	}
	if err := r.client.Append(ctx, r.key(collection), values...); err != nil {
		return apperrors.NewStoreError(collection, "insert", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Redis) Update(ctx context.Context, collection string, fields Record) error {
	errDecode := errors.New("decode")
	err := r.client.ModifyHead(ctx, r.key(collection), func(current string) (string, error) {
		rec, err := decodeRecord([]byte(current))
		if err != nil {
			return "", fmt.Errorf("%w: %w", errDecode, err)
		}
		data, err := encodeRecord(Merge(rec, fields))
		if err != nil {
			return "", fmt.Errorf("%w: %w", errDecode, err)
		}
		return string(data), nil
	})
	switch {
	case err == nil:
		return nil
	case pkgredis.IsNilError(err):
		return apperrors.NewStoreError(collection, "update", apperrors.ErrRecordNotFound, nil)
	case errors.Is(err, errDecode), errors.Is(err, pkgredis.ErrTxConflict):
		return apperrors.NewStoreError(collection, "update", apperrors.ErrStoreOperation, err)
	default:
		return apperrors.NewStoreError(collection, "update", apperrors.ErrStoreUnavailable, err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
