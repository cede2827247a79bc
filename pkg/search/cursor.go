package search

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor resumes a by-group page scan. Pages are ordered by ascending uuid,
// so resumption is simply "uuid greater than the last one seen". A deleted
// cursor row is harmless: the scan continues from the next uuid in order.
type Cursor struct {
	LastUUID string `json:"last_uuid"`
	Limit    int    `json:"limit"`
}

// EncodeCursor serializes a cursor into an opaque URL-safe token.
func EncodeCursor(lastUUID string, limit int) string {
	payload, _ := json.Marshal(Cursor{LastUUID: lastUUID, Limit: limit})
	return base64.URLEncoding.EncodeToString(payload)
}

// DecodeCursor parses an opaque cursor token. An empty token yields the
// first page with the default limit.
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{Limit: DefaultLimit}, nil
	}

	payload, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor: %w", ErrInvalidConfig)
	}

	var cursor Cursor
	if err := json.Unmarshal(payload, &cursor); err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor: %w", ErrInvalidConfig)
	}
	if cursor.Limit <= 0 {
		cursor.Limit = DefaultLimit
	}
	return cursor, nil
}
