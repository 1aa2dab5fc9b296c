package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type event struct {
		Document string `json:"document"`
	}
	got, err := DecodeJSON[event]([]byte(`{"document":"the cat"}`))
	require.NoError(t, err)
	assert.Equal(t, "the cat", got.Document)

	_, err = DecodeJSON[event]([]byte(`{`))
	assert.ErrorContains(t, err, "decoding kafka message")
}
