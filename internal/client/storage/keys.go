package storage

// Durable keys (survive restarts).
const (
	KeyIdentity = "identity"
)

// Session-scoped keys (live in the session store, gone on process exit).
const (
	KeySessionMarker = "sessionMarker"
	KeyJustLoggedIn  = "justLoggedIn"
)

// MirrorKey returns the durable key holding the notebook mirror for an owner.
func MirrorKey(ownerID string) string {
	return "notebooks/" + ownerID
}

// MirrorSavedAtKey returns the durable key holding the mirror write stamp.
func MirrorSavedAtKey(ownerID string) string {
	return MirrorKey(ownerID) + "/savedAt"
}
