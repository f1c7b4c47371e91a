package domain

import (
	"strings"
	"time"
)

// appleEpoch is 2001-01-01T00:00:00Z as a Unix timestamp. Message store
// dates are stored as nanoseconds since this epoch.
const appleEpoch = 978307200

// MessageRecord is one row from the local message store. Records are never
// mutated after gathering; the collection is sorted ascending by Date.
type MessageRecord struct {
	RowID    int64
	GUID     string
	Text     string
	HandleID int64
	Date     int64 // nanoseconds since the Apple epoch
	FromMe   bool
	ChatName string // non-empty for group chats
}

// Time converts the Apple-epoch timestamp to UTC wall-clock time.
func (m MessageRecord) Time() time.Time {
	return time.Unix(appleEpoch, m.Date).UTC()
}

// Handles maps message-store handle row IDs to their raw identifiers
// (phone numbers or email addresses).
type Handles map[int64]string

// Identifier returns the raw identifier for a handle row ID.
func (h Handles) Identifier(rowID int64) (string, bool) {
	id, ok := h[rowID]
	return id, ok
}

// Contacts is a merged lookup built from one or more address-book sources.
// Keys are normalized identifiers; read-only after construction.
type Contacts struct {
	names map[string]string
}

func NewContacts() Contacts {
	return Contacts{names: make(map[string]string)}
}

// Add registers a display name under an identifier. First writer wins so
// the primary source takes precedence over later shards.
func (c Contacts) Add(identifier, name string) {
	key := NormalizeIdentifier(identifier)
	if key == "" || name == "" {
		return
	}
	if _, exists := c.names[key]; !exists {
		c.names[key] = name
	}
}

// Lookup resolves an identifier to a display name.
func (c Contacts) Lookup(identifier string) (string, bool) {
	name, ok := c.names[NormalizeIdentifier(identifier)]
	return name, ok
}

// Len reports the number of distinct contact identifiers.
func (c Contacts) Len() int { return len(c.names) }

// NormalizeIdentifier canonicalizes a phone number or email address so that
// handle identifiers and address-book entries compare equal. Phone numbers
// keep their trailing ten digits; emails are lowercased.
func NormalizeIdentifier(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if strings.Contains(id, "@") {
		return strings.ToLower(id)
	}
	var digits strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) > 10 {
		d = d[len(d)-10:]
	}
	return d
}
