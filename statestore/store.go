// Package statestore defines the small durable key-value store backing
// the session core. Only a handful of keys exist; everything else the
// client knows lives in memory and dies with the process.
package statestore

// Durable storage keys. These are the only state shared across
// application restarts.
const (
	KeyCachedSessionID      = "cachedSessionId"
	KeyLoginTimestamp       = "loginTimestamp"
	KeyBootstrapErrorMarker = "bootstrapErrorMarker"
	KeyRememberedIdentifier = "rememberedIdentifier"
	KeyRememberPreference   = "rememberIdentifierPreference"
)

// Store is the abstract key-value store injected into the bootstrap
// sequencer and logout coordinator. Get returns ErrKeyNotFound from
// internal/errors when the key is absent.
type Store interface {
	// Get retrieves the value for a key
	Get(key string) (string, error)

	// Set stores a value under a key, overwriting any existing value
	Set(key, value string) error

	// Delete removes a key; deleting an absent key is not an error
	Delete(key string) error

	// Close releases the underlying storage
	Close() error
}
