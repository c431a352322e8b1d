package hubx

import "fmt"

// TokenKey is the well-known key the bearer credential is stored under.
const TokenKey = "access_token"

// TokenStore persists the bearer credential in a Store. It is the only
// holder of the token; everything else asks it.
type TokenStore struct {
	store Store
	key   string
}

// NewTokenStore returns a TokenStore writing to store. The key is scoped
// to origin (usually the auth service base URL) so one backend can hold
// credentials for several deployments.
func NewTokenStore(store Store, origin string) *TokenStore {
	key := TokenKey
	if origin != "" {
		key = origin + "|" + TokenKey
	}
	return &TokenStore{store: store, key: key}
}

// Save persists token, overwriting any previous one.
func (t *TokenStore) Save(token string) error {
	if err := t.store.Set(t.key, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Read returns the stored token. An absent or empty token is reported
// with ok == false and no error.
func (t *TokenStore) Read() (token string, ok bool, err error) {
	data, found, err := t.store.Get(t.key)
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	if !found || len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// Clear removes the token. Clearing an absent token is not an error.
func (t *TokenStore) Clear() error {
	if err := t.store.Delete(t.key); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
