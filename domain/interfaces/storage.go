package interfaces

// Storage is a durable key/value store
type Storage interface {
	// Get returns the value stored under key, or nil when the key is absent
	Get(key string) ([]byte, error)

	// Put replaces the value stored under key
	Put(key string, value []byte) error

	// Close releases the backend
	Close() error
}
