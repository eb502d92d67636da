package types

// Status is the connection state of a socket.
type Status string

// Socket statuses. Linkable, Occupied and Connected are recomputed on every
// resolution pass; Locked and Disabled are sticky and survive socket rebuilds.
const (
	StatusLinkable  Status = "linkable"
	StatusOccupied  Status = "occupied"
	StatusConnected Status = "connected"
	StatusLocked    Status = "locked"
	StatusDisabled  Status = "disabled"
)

var validStatuses = map[Status]bool{
	StatusLinkable:  true,
	StatusOccupied:  true,
	StatusConnected: true,
	StatusLocked:    true,
	StatusDisabled:  true,
}

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	return validStatuses[s]
}

// Sticky reports whether s is preserved across socket rebuilds and left
// untouched by the resolver.
func (s Status) Sticky() bool {
	return s == StatusLocked || s == StatusDisabled
}

// ParseStatus returns the Status named by s.
// Returns ErrInvalidStatus if s is not recognized.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}
