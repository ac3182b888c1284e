package core

// ConnID identifies a live connection. Assigned by the transport adapter.
type ConnID string
