package relay

import (
	"errors"
	"strconv"
	"strings"
)

// ErrBadIdentifier reports a sender identifier that cannot be brought to
// canonical form.
var ErrBadIdentifier = errors.New("relay: invalid sender identifier")

// CanonicalID converts a numeric sender ID to the single canonical form
// used by the block list. The numeric ID is canonical because it stays
// stable even when a sender changes their handle.
func CanonicalID(senderID int64) string {
	return strconv.FormatInt(senderID, 10)
}

// NormalizeIdentifier brings a command argument to canonical form: an
// optional leading "@" is stripped, the rest must be a positive decimal
// sender ID.
func NormalizeIdentifier(arg string) (string, error) {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "@")
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return "", ErrBadIdentifier
	}
	return CanonicalID(id), nil
}
