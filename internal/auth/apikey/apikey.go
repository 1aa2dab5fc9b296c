// Package apikey validates the API keys allowed to write documents. Only
// SHA-256 digests of the keys appear in configuration; raw keys are
// generated with crypto/rand and shown once.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
)

var (
	ErrInvalidKey = errors.New("invalid api key")
	ErrExpiredKey = errors.New("api key expired")
)

// KeyInfo holds metadata about a validated API key.
type KeyInfo struct {
	Name      string     `json:"name"`
	RateLimit int        `json:"rate_limit"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type entry struct {
	hash []byte
	info KeyInfo
}

// Validator checks presented keys against the configured digests.
type Validator struct {
	keys []entry
	now  func() time.Time
}

// NewValidator builds a Validator from cfg. Keys without their own rate
// limit inherit cfg.RateLimit.
func NewValidator(cfg config.AuthConfig) (*Validator, error) {
	v := &Validator{now: time.Now}
	for i, k := range cfg.APIKeys {
		hash, err := hex.DecodeString(strings.TrimSpace(k.Hash))
		if err != nil || len(hash) != sha256.Size {
			return nil, fmt.Errorf("auth.apiKeys[%d] (%s): hash must be a hex SHA-256 digest", i, k.Name)
		}
		info := KeyInfo{Name: k.Name, RateLimit: k.RateLimit}
		if info.RateLimit == 0 {
			info.RateLimit = cfg.RateLimit
		}
		if !k.ExpiresAt.IsZero() {
			exp := k.ExpiresAt
			info.ExpiresAt = &exp
		}
		v.keys = append(v.keys, entry{hash: hash, info: info})
	}
	return v, nil
}

// Enabled reports whether any key is configured.
func (v *Validator) Enabled() bool {
	return len(v.keys) > 0
}

// Validate returns the KeyInfo for rawKey, or ErrInvalidKey / ErrExpiredKey.
func (v *Validator) Validate(rawKey string) (*KeyInfo, error) {
	sum := sha256.Sum256([]byte(rawKey))
	for _, e := range v.keys {
		if subtle.ConstantTimeCompare(sum[:], e.hash) != 1 {
			continue
		}
		if e.info.ExpiresAt != nil && e.info.ExpiresAt.Before(v.now()) {
			return nil, ErrExpiredKey
		}
		info := e.info
		return &info, nil
	}
	return nil, ErrInvalidKey
}

// HashKey returns the SHA-256 hex digest of a raw API key.
func HashKey(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// GenerateKey returns a random 32-byte hex-encoded key and its digest.
func GenerateKey() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating api key: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, HashKey(raw), nil
}
