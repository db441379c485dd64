package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeCursor(t *testing.T) {
	postedAt := time.Date(2026, 3, 12, 14, 30, 45, 123456789, time.UTC)
	entryID := "6f1f4a0e-9df1-4a5d-9f27-6f2d1d9f3a11"

	token := EncodeCursor(postedAt, entryID)
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedAt, decodedID, err := DecodeCursor(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.True(t, postedAt.Equal(decodedAt), "Posting time should match after decode")
	assert.Equal(t, entryID, decodedID, "Entry id should match after decode")
}

func TestDecodeCursorInvalidInput(t *testing.T) {
	_, _, err := DecodeCursor("not-base64!!")
	assert.Error(t, err, "Invalid base64 should return an error")

	_, _, err = DecodeCursor("aGVsbG8=") // "hello", no separator
	assert.Error(t, err, "Missing separator should return an error")

	_, _, err = DecodeCursor(EncodeCursor(time.Now(), "")[:4])
	assert.Error(t, err, "Truncated token should return an error")
}
