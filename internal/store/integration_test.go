//go:build integration

// Run with:
//
//	go test -v -tags=integration ./internal/store/...
package store

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/sqldb"
)

// prefixed scopes every collection of a shared database to one test.
type prefixed struct {
	Store
	prefix string
}

func (p prefixed) Get(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	return p.Store.Get(ctx, p.prefix+collection, filter)
}

func (p prefixed) Insert(ctx context.Context, collection string, records ...Record) error {
	return p.Store.Insert(ctx, p.prefix+collection, records...)
}

func (p prefixed) Update(ctx context.Context, collection string, fields Record) error {
	return p.Store.Update(ctx, p.prefix+collection, fields)
}

func uniquePrefix() string {
	return fmt.Sprintf("it-%d-", time.Now().UnixNano())
}

func skipIfNoPostgres(t *testing.T) *sqldb.Client {
	t.Helper()
	client, err := sqldb.OpenPostgres(config.PostgresConfig{
		Host:         envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:         envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:     envOrDefault("TEST_POSTGRES_DB", "vocabulary_test"),
		User:         envOrDefault("TEST_POSTGRES_USER", "vocabulary"),
		Password:     envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	return client
}

func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	client, err := pkgredis.NewClient(config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		PoolSize: 4,
	})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	return client
}

func TestPostgresContract(t *testing.T) {
	probe := skipIfNoPostgres(t)
	probe.Close()

	runContract(t, func(t *testing.T) Store {
		client := skipIfNoPostgres(t)
		s, err := NewSQL(context.Background(), client)
		if err != nil {
			client.Close()
			t.Fatalf("NewSQL: %v", err)
		}
		prefix := uniquePrefix()
		t.Cleanup(func() {
			_, _ = client.DB.Exec(`DELETE FROM vocabulary_records WHERE collection LIKE $1`, prefix+"%")
			s.Close()
		})
		return prefixed{Store: s, prefix: prefix}
	})
}

func TestRedisContract(t *testing.T) {
	probe := skipIfNoRedis(t)
	probe.Close()

	runContract(t, func(t *testing.T) Store {
		client := skipIfNoRedis(t)
		prefix := uniquePrefix()
		s := NewRedis(client, prefix)
		t.Cleanup(func() {
			ctx := context.Background()
			for _, c := range []string{"missing", "words", "docs", "tfidf", "nothing", "w"} {
				_ = client.Del(ctx, prefix+c)
			}
			s.Close()
		})
		return s
	})
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
