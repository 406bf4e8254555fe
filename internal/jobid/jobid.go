// Package jobid mints the token returned to callers of an import. The token is
// never written to the graph.
package jobid

import (
	"fmt"

	"github.com/google/uuid"
)

// Len is the length of a token in its canonical string form.
const Len = 36

// Generator returns a fresh token on every call.
type Generator func() (string, error)

// New returns a UUIDv7: globally unique and sortable by creation time.
func New() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("jobid: %w", err)
	}
	return id.String(), nil
}

// NewTurnID returns a random id for Turn nodes. Turn ids share no derivation
// with job tokens.
func NewTurnID() string {
	return uuid.NewString()
}
