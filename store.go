package hubx

// Store defines the interface for durable key-value backends holding
// client state across restarts. A Store is the Go counterpart of the
// browser's origin-scoped local storage: values live until they are
// explicitly deleted, and there is no expiry.
type Store interface {
	// Get retrieves the data stored under key. It returns the raw
	// data, a boolean indicating whether the key was found, and an
	// error if the lookup failed.
	Get(key string) (data []byte, found bool, err error)

	// Set stores data under key. If a value with the same key already
	// exists, it should be overwritten.
	Set(key string, data []byte) error

	// Delete removes the value stored under key. It should not return
	// an error if the key does not exist.
	Delete(key string) error
}
