package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreErrorMatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreError("countVectorRepresentation", "insert", ErrStoreUnavailable, cause)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "countVectorRepresentation")
	assert.Contains(t, err.Error(), "insert")

	var storeErr *StoreError
	wrapped := fmt.Errorf("flushing: %w", err)
	assert.True(t, errors.As(wrapped, &storeErr))
	assert.Equal(t, "insert", storeErr.Op)
}

func TestEmptyVocabularyIsTokenizationError(t *testing.T) {
	assert.ErrorIs(t, ErrEmptyVocabulary, ErrTokenization)
}

func TestHTTPStatusCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"invalid input": {ErrInvalidInput, http.StatusBadRequest},
		"tokenization":  {fmt.Errorf("doc 3: %w", ErrEmptyVocabulary), http.StatusBadRequest},
		"not found":     {ErrRecordNotFound, http.StatusNotFound},
		"locked":        {ErrLocked, http.StatusConflict},
		"unavailable":   {NewStoreError("c", "get", ErrStoreUnavailable, nil), http.StatusServiceUnavailable},
		"operation":     {NewStoreError("c", "update", ErrStoreOperation, nil), http.StatusBadGateway},
		"app error":     {New(ErrInternal, http.StatusTeapot, "x"), http.StatusTeapot},
		"unknown":       {errors.New("boom"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}
