package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewToken returns an opaque 32 hex char token.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewTransactionID prefixes a random id, e.g. "TXN-3f2a...".
func NewTransactionID() string {
	return "TXN-" + strings.ToUpper(NewToken()[:16])
}
