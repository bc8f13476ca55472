package xid

import (
	"github.com/google/uuid"
)

// New returns a prefixed unique identifier, e.g. "ord-9f1c...".
func New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
