package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token := EncodeCursor("uuid-42", 25)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "uuid-42", cursor.LastUUID)
	assert.Equal(t, 25, cursor.Limit)
}

func TestDecodeEmptyCursorIsFirstPage(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Equal(t, "", cursor.LastUUID)
	assert.Equal(t, DefaultLimit, cursor.Limit)
}

func TestDecodeMalformedCursor(t *testing.T) {
	_, err := DecodeCursor("not base64!!!")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	// Valid base64, invalid JSON.
	_, err = DecodeCursor("bm90LWpzb24=")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDecodeCursorDefaultsNonPositiveLimit(t *testing.T) {
	cursor, err := DecodeCursor(EncodeCursor("u", 0))
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, cursor.Limit)
}
