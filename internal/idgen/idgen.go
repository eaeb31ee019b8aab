// Package idgen generates the temporary ids that stand in for uploaded
// attachments until an operation submit binds them to a lot.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// TempPrefix marks an id as a not-yet-bound attachment.
const TempPrefix = "tmp-"

// alphabet is URL- and object-key-safe.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters after the prefix.
const Length = 16

// TempID returns a new temporary attachment id.
func TempID() (string, error) {
	id, err := nanoid.Generate(alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return TempPrefix + id, nil
}

// IsTemp reports whether id has the shape TempID produces.
func IsTemp(id string) bool {
	rest, ok := strings.CutPrefix(id, TempPrefix)
	if !ok || len(rest) != Length {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
