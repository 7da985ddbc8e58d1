package bus

import "time"

// Event kinds published inside chatadmind and the console.
const (
	KindStatusChanged = "console.status_changed"
	KindSignedIn      = "auth.signed_in"
	KindSignedOut     = "auth.signed_out"
	KindDocChanged    = "docstore.changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// SignedOut is the payload of auth.signed_out.
type SignedOut struct {
	UID   string
	JTI   string
	Email string
}

// SignedIn is the payload of auth.signed_in.
type SignedIn struct {
	UID   string
	Email string
}

// DocChanged is the payload of docstore.changed.
type DocChanged struct {
	Collection string
	ID         string
	Op         string
}
